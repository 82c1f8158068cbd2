package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is one entry of the checklist options menu.
type Action struct {
	Label   string
	Icon    string
	Handler func() tea.Cmd
}

// menuActions lists what can be done with the open checklist in its current state.
func (m *Model) menuActions() []Action {
	v := m.checklist
	ed := v.editor
	locked := ed.Checklist().Locked

	actions := []Action{
		{Label: "Check All", Icon: "☑", Handler: func() tea.Cmd {
			return m.run(func(ctx context.Context) error { return ed.ToggleAll(ctx, true) })
		}},
		{Label: "Uncheck All", Icon: "☐", Handler: func() tea.Cmd {
			return m.run(func(ctx context.Context) error { return ed.ToggleAll(ctx, false) })
		}},
		{Label: "Share", Icon: "⇪", Handler: m.openShare},
	}
	if locked {
		actions = append(actions, Action{Label: "Unlock", Icon: "🔓", Handler: func() tea.Cmd {
			return m.run(func(ctx context.Context) error { return ed.SetLocked(ctx, false) })
		}})
	} else {
		actions = append(actions,
			Action{Label: "Lock", Icon: "🔒", Handler: func() tea.Cmd {
				return m.run(func(ctx context.Context) error { return ed.SetLocked(ctx, true) })
			}},
			Action{Label: "Delete Completed", Icon: "✗", Handler: func() tea.Cmd {
				return m.run(func(ctx context.Context) error {
					_, err := ed.DeleteCompleted(ctx)
					return err
				})
			}},
		)
	}
	if ed.Shared() {
		lists, id := m.app.Checklists, ed.ID()
		actions = append(actions, Action{Label: "Leave", Icon: "⏏", Handler: func() tea.Cmd {
			ctx := m.ctx
			return func() tea.Msg {
				return actionDoneMsg{err: lists.Leave(ctx, id), leave: true}
			}
		}})
	}
	return actions
}

func (m *Model) menuKey(msg tea.KeyMsg) tea.Cmd {
	v := m.checklist
	actions := m.menuActions()
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Menu):
		v.mode = modeNormal
	case key.Matches(msg, m.keys.Up):
		if v.menuCursor > 0 {
			v.menuCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if v.menuCursor < len(actions)-1 {
			v.menuCursor++
		}
	case key.Matches(msg, m.keys.Open):
		if v.menuCursor >= len(actions) {
			v.menuCursor = len(actions) - 1
		}
		v.mode = modeNormal
		return actions[v.menuCursor].Handler()
	}
	return nil
}

func (m *Model) viewMenu() string {
	var b strings.Builder
	for i, a := range m.menuActions() {
		line := fmt.Sprintf("%s %s", a.Icon, a.Label)
		if i == m.checklist.menuCursor {
			line = selectedStyle.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(helpLine(m.keys.Up, m.keys.Down, key.NewBinding(key.WithHelp("enter", "select")), m.keys.Back))
	return dialogStyle.Render(b.String())
}

func (m *Model) viewShare() string {
	s := m.checklist.share
	var body string
	switch {
	case s.loading:
		body = m.spinner.View() + " Fetching share link…"
	case s.copied:
		body = s.link + "\n\n" + successStyle.Render("Copied!")
	default:
		body = s.link + "\n\n" + mutedStyle.Render("Copy the link above to share this checklist.")
	}
	return dialogStyle.Render(titleStyle.Render("Share") + "\n\n" + body + "\n\n" + helpStyle.Render("any key to close"))
}
