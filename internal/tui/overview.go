package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jaekwang-park/listo/internal/model"
)

type checklistItem struct {
	checklist model.Checklist
	shared    bool
}

func (i checklistItem) Title() string { return i.checklist.Title }

func (i checklistItem) Description() string {
	var parts []string
	if n := len(i.checklist.Collaborators); n > 1 {
		parts = append(parts, fmt.Sprintf("%d collaborators", n))
	}
	if i.checklist.Locked {
		parts = append(parts, "locked")
	}
	parts = append(parts, "updated "+i.checklist.UpdatedAt.Local().Format("Jan 2 15:04"))
	return strings.Join(parts, " · ")
}

func (i checklistItem) FilterValue() string { return i.checklist.Title }

type overviewMode int

const (
	overviewBrowse overviewMode = iota
	overviewJoin
	overviewConfirmDelete
)

type overviewView struct {
	lists   [2]list.Model
	focused int
	loading bool
	mode    overviewMode
	code    textinput.Model
}

func newOverviewList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

func newOverviewView() overviewView {
	code := textinput.New()
	code.Placeholder = "share code or link"
	code.Prompt = "Join: "
	return overviewView{
		lists: [2]list.Model{newOverviewList("My Stuff"), newOverviewList("Shared With Me")},
		code:  code,
	}
}

func (v *overviewView) setSize(width, height int) {
	for i := range v.lists {
		v.lists[i].SetSize(width/2, height)
	}
}

func (v *overviewView) setLists(own, shared []model.Checklist) {
	for i, src := range [][]model.Checklist{own, shared} {
		items := make([]list.Item, len(src))
		for j, c := range src {
			items[j] = checklistItem{checklist: c, shared: i == 1}
		}
		v.lists[i].SetItems(items)
	}
}

func (v *overviewView) selected() (checklistItem, bool) {
	it, ok := v.lists[v.focused].SelectedItem().(checklistItem)
	return it, ok
}

func (m *Model) updateOverview(msg tea.Msg) tea.Cmd {
	v := &m.overview
	switch msg := msg.(type) {
	case listsLoadedMsg:
		v.loading = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.err = nil
		v.setLists(msg.own, msg.shared)
		return nil

	case checklistCreatedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		return m.openChecklist(msg.checklist, false)

	case checklistRemovedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		return m.loadLists()

	case joinedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		return tea.Batch(m.loadLists(), m.setFlash("Joined shared checklist "+msg.code))

	case tea.KeyMsg:
		switch v.mode {
		case overviewJoin:
			return m.updateJoin(msg)
		case overviewConfirmDelete:
			v.mode = overviewBrowse
			if key.Matches(msg, m.keys.Yes) {
				return m.removeSelected()
			}
			return nil
		}
		return m.overviewKey(msg)
	}

	var cmd tea.Cmd
	v.lists[v.focused], cmd = v.lists[v.focused].Update(msg)
	return cmd
}

func (m *Model) overviewKey(msg tea.KeyMsg) tea.Cmd {
	v := &m.overview
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Tab):
		v.focused = 1 - v.focused
		return nil
	case key.Matches(msg, m.keys.Open):
		if it, ok := v.selected(); ok {
			return m.openChecklist(it.checklist, it.shared)
		}
		return nil
	case key.Matches(msg, m.keys.New):
		ctx, lists := m.ctx, m.app.Checklists
		return func() tea.Msg {
			c, err := lists.Create(ctx, model.DefaultChecklistTitle)
			return checklistCreatedMsg{checklist: c, err: err}
		}
	case key.Matches(msg, m.keys.Delete):
		if _, ok := v.selected(); ok {
			v.mode = overviewConfirmDelete
		}
		return nil
	case key.Matches(msg, m.keys.Join):
		v.mode = overviewJoin
		v.code.Reset()
		return v.code.Focus()
	case key.Matches(msg, m.keys.Refresh):
		return m.loadLists()
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	}

	var cmd tea.Cmd
	v.lists[v.focused], cmd = v.lists[v.focused].Update(msg)
	return cmd
}

// removeSelected deletes an owned checklist or leaves a shared one.
func (m *Model) removeSelected() tea.Cmd {
	it, ok := m.overview.selected()
	if !ok {
		return nil
	}
	ctx, lists := m.ctx, m.app.Checklists
	return func() tea.Msg {
		if it.shared {
			return checklistRemovedMsg{err: lists.Leave(ctx, it.checklist.ID)}
		}
		return checklistRemovedMsg{err: lists.Delete(ctx, it.checklist.ID)}
	}
}

func (m *Model) updateJoin(msg tea.KeyMsg) tea.Cmd {
	v := &m.overview
	switch msg.String() {
	case "esc":
		v.mode = overviewBrowse
		v.code.Blur()
		return nil
	case "enter":
		v.mode = overviewBrowse
		v.code.Blur()
		input := strings.TrimSpace(v.code.Value())
		if input == "" {
			return nil
		}
		ctx, lists := m.ctx, m.app.Checklists
		return func() tea.Msg {
			code, err := lists.Join(ctx, input)
			return joinedMsg{code: code, err: err}
		}
	}
	var cmd tea.Cmd
	v.code, cmd = v.code.Update(msg)
	return cmd
}

func (m *Model) logout() tea.Cmd {
	if m.app.DevMode() {
		return m.fail(errors.New("logout is not available in dev auth mode"))
	}
	if err := m.app.Logout(m.ctx); err != nil {
		m.app.Logger.Warn("logout", "error", err)
	}
	m.screen = screenLogin
	m.login.reset("Logged out.")
	return m.login.focus()
}

func (m *Model) viewOverview() string {
	v := &m.overview
	panes := make([]string, len(v.lists))
	for i := range v.lists {
		style := lipgloss.NewStyle().Width(m.width / 2)
		if i != v.focused {
			style = style.Faint(true)
		}
		panes[i] = style.Render(v.lists[i].View())
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panes...)

	var footer string
	switch {
	case v.mode == overviewJoin:
		footer = v.code.View()
	case v.mode == overviewConfirmDelete:
		it, _ := v.selected()
		verb := "Delete"
		if it.shared {
			verb = "Leave"
		}
		footer = fmt.Sprintf("%s %q? (y/n)", verb, it.checklist.Title)
	case v.loading:
		footer = m.spinner.View() + " Loading…"
	default:
		footer = helpLine(m.keys.Open, m.keys.New, m.keys.Delete, m.keys.Join, m.keys.Tab, m.keys.Refresh, m.keys.Logout, m.keys.Quit)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}
