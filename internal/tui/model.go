package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jaekwang-park/listo/internal/app"
	"github.com/jaekwang-park/listo/internal/model"
	"github.com/jaekwang-park/listo/internal/service"
)

type screen int

const (
	screenLogin screen = iota
	screenOverview
	screenChecklist
)

const (
	flashDuration = 2 * time.Second
	closeTimeout  = 5 * time.Second
	eventBuffer   = 64
)

// Model is the root bubbletea model. It owns the current screen and routes editor callbacks,
// which arrive from background goroutines, back into the event loop through events.
type Model struct {
	ctx    context.Context
	app    *app.App
	keys   keyMap
	events chan tea.Msg

	width, height int
	screen        screen

	login     loginView
	overview  overviewView
	checklist *checklistView
	spinner   spinner.Model

	err      error
	flash    string
	flashSeq int
}

func New(ctx context.Context, a *app.App) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = mutedStyle

	m := &Model{
		ctx:      ctx,
		app:      a,
		keys:     defaultKeyMap(),
		events:   make(chan tea.Msg, eventBuffer),
		width:    80,
		height:   24,
		login:    newLoginView(),
		overview: newOverviewView(),
		spinner:  sp,
	}
	if a.LoggedIn() {
		m.screen = screenOverview
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.listen(), m.spinner.Tick}
	if m.screen == screenOverview {
		cmds = append(cmds, m.loadLists())
	} else {
		cmds = append(cmds, m.login.focus())
	}
	return tea.Batch(cmds...)
}

// listen waits for the next editor callback.
func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.overview.setSize(msg.Width, m.bodyHeight())
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case editorEventMsg:
		if msg.err != nil {
			return m, tea.Batch(m.listen(), m.fail(msg.err))
		}
		if m.checklist != nil && m.checklist.editor == msg.editor {
			m.checklist.clamp(m.visibleRows())
		}
		return m, m.listen()

	case loggedInMsg:
		return m, m.loggedIn(msg)
	}

	switch m.screen {
	case screenLogin:
		return m, m.updateLogin(msg)
	case screenChecklist:
		return m, m.updateChecklist(msg)
	default:
		return m, m.updateOverview(msg)
	}
}

// fail routes an error to the view: a missing or rejected session goes back to the login
// screen, anything else is shown on the error line.
func (m *Model) fail(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	m.app.Logger.Debug("view error", "error", err)
	if errors.Is(err, service.ErrNotAuthenticated) {
		m.closeEditor()
		m.err = nil
		m.screen = screenLogin
		m.login.reset("Please log in to continue.")
		return m.login.focus()
	}
	m.err = err
	return nil
}

func (m *Model) setFlash(text string) tea.Cmd {
	m.flashSeq++
	m.flash = text
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashDoneMsg{seq: seq}
	})
}

func (m *Model) loggedIn(msg loggedInMsg) tea.Cmd {
	m.login.submitting = false
	if msg.err != nil {
		m.login.err = msg.err
		return nil
	}
	m.err = nil
	m.screen = screenOverview
	cmds := []tea.Cmd{m.loadLists()}
	if msg.out.JoinedShareCode != "" {
		cmds = append(cmds, m.setFlash("Joined shared checklist "+msg.out.JoinedShareCode))
	}
	return tea.Batch(cmds...)
}

func (m *Model) loadLists() tea.Cmd {
	m.overview.loading = true
	ctx, lists := m.ctx, m.app.Checklists
	return func() tea.Msg {
		var out listsLoadedMsg
		out.own, out.err = lists.List(ctx)
		if out.err != nil {
			return out
		}
		out.shared, out.err = lists.ListShared(ctx)
		return out
	}
}

// openChecklist creates an editor for c and switches to the checklist screen.
func (m *Model) openChecklist(c model.Checklist, shared bool) tea.Cmd {
	m.closeEditor()
	m.err = nil

	var ed *service.Editor
	ed = m.app.NewEditor(c.ID, shared,
		func() { m.notify(editorEventMsg{editor: ed}) },
		func(err error) { m.notify(editorEventMsg{editor: ed, err: err}) },
	)
	m.checklist = newChecklistView(ed, c)
	m.screen = screenChecklist

	ctx := m.ctx
	return func() tea.Msg {
		return editorLoadedMsg{editor: ed, err: ed.Load(ctx)}
	}
}

// notify hands a message to listen without blocking the caller. Change events can be dropped
// when the buffer is full since the next render reads the editor state anyway.
func (m *Model) notify(msg editorEventMsg) {
	if msg.err == nil {
		select {
		case m.events <- msg:
		default:
		}
		return
	}
	select {
	case m.events <- msg:
	case <-m.ctx.Done():
	}
}

// closeEditor flushes pending edits of the open checklist, if any.
func (m *Model) closeEditor() {
	if m.checklist == nil {
		return
	}
	ed := m.checklist.editor
	m.checklist = nil
	ctx, cancel := context.WithTimeout(context.WithoutCancel(m.ctx), closeTimeout)
	defer cancel()
	if err := ed.Close(ctx); err != nil {
		m.app.Logger.Warn("close editor", "checklist_id", ed.ID(), "error", err)
	}
}

// backToOverview leaves the checklist screen and refreshes the lists it may have changed.
func (m *Model) backToOverview() tea.Cmd {
	m.closeEditor()
	m.screen = screenOverview
	return m.loadLists()
}

func (m *Model) bodyHeight() int {
	// Title, error and help lines.
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenLogin:
		body = m.viewLogin()
	case screenChecklist:
		body = m.viewChecklist()
	default:
		body = m.viewOverview()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())
}

func (m *Model) statusLine() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("Error: " + m.err.Error())
	case m.flash != "":
		return successStyle.Render(m.flash)
	default:
		return ""
	}
}
