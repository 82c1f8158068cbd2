package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit    key.Binding
	Back    key.Binding
	Up      key.Binding
	Down    key.Binding
	Tab     key.Binding
	Open    key.Binding
	New     key.Binding
	Delete  key.Binding
	Join    key.Binding
	Refresh key.Binding
	Logout  key.Binding

	Toggle key.Binding
	Edit   key.Binding
	Add    key.Binding
	Title  key.Binding
	Menu   key.Binding
	Share  key.Binding
	Grab   key.Binding
	Drop   key.Binding
	Yes    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Tab:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Join:    key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "join")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),

		Toggle: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "check")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Title:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "title")),
		Menu:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu")),
		Share:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
		Grab:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "move")),
		Drop:   key.NewBinding(key.WithKeys("enter", " ", "space"), key.WithHelp("enter", "drop")),
		Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
	}
}

func helpLine(bindings ...key.Binding) string {
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += " • "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return helpStyle.Render(out)
}
