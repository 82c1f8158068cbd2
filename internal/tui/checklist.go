package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jaekwang-park/listo/internal/model"
	"github.com/jaekwang-park/listo/internal/reorder"
	"github.com/jaekwang-park/listo/internal/service"
)

// Layout of the checklist screen. Each item row is two terminal lines tall so a pointer can
// land in either half of it.
const (
	headerLines   = 3
	rowHeight     = 2
	footerLines   = 3
	checkboxWidth = 4
)

type checklistMode int

const (
	modeNormal checklistMode = iota
	modeEditTitle
	modeEditItem
	modeAddItem
	modeMenu
	modeShare
)

type checklistView struct {
	editor  *service.Editor
	initial model.Checklist
	loading bool

	cursor int
	offset int

	mode      checklistMode
	input     textinput.Model
	editingID string

	// grabbed is set while a keyboard drag is in progress.
	grabbed bool
	// dragging is set while a mouse drag is in progress.
	dragging bool

	menuCursor int
	share      shareState
}

type shareState struct {
	loading bool
	link    string
	copied  bool
}

func newChecklistView(ed *service.Editor, c model.Checklist) *checklistView {
	in := textinput.New()
	in.CharLimit = 500
	return &checklistView{
		editor:  ed,
		initial: c,
		loading: true,
		input:   in,
	}
}

// visibleRows is how many item rows fit on screen.
func (m *Model) visibleRows() int {
	n := (m.height - headerLines - footerLines - 1) / rowHeight
	if n < 1 {
		n = 1
	}
	return n
}

// clamp keeps the cursor on an item and scrolled into view.
func (v *checklistView) clamp(visible int) {
	n := len(v.editor.Items())
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visible {
		v.offset = v.cursor - visible + 1
	}
	if v.offset < 0 {
		v.offset = 0
	}
}

// rowRects returns the on-screen box of every item in display order. Rows scrolled out of
// view get boxes above or below the visible area so the midpoint rule still sees them in
// order.
func rowRects(n, offset, width int) []reorder.Rect {
	rows := make([]reorder.Rect, n)
	for i := range rows {
		rows[i] = reorder.Rect{
			Left:   0,
			Top:    headerLines + (i-offset)*rowHeight,
			Width:  width,
			Height: rowHeight,
		}
	}
	return rows
}

// rowAt returns the index of the item displayed at screen line y, or -1.
func rowAt(y, n, offset, visible int) int {
	if y < headerLines {
		return -1
	}
	slot := (y - headerLines) / rowHeight
	if slot >= visible {
		return -1
	}
	i := offset + slot
	if i >= n {
		return -1
	}
	return i
}

func (m *Model) updateChecklist(msg tea.Msg) tea.Cmd {
	v := m.checklist
	if v == nil {
		m.screen = screenOverview
		return m.loadLists()
	}

	switch msg := msg.(type) {
	case editorLoadedMsg:
		if msg.editor != v.editor {
			return nil
		}
		v.loading = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		v.clamp(m.visibleRows())
		return nil

	case actionDoneMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		if msg.leave {
			return m.backToOverview()
		}
		return nil

	case shareReadyMsg:
		v.share.loading = false
		if msg.err != nil {
			v.mode = modeNormal
			return m.fail(msg.err)
		}
		v.share.link = msg.link
		v.share.copied = msg.copied
		if msg.copied {
			return m.setFlash("Copied!")
		}
		return nil

	case tea.MouseMsg:
		if v.loading || v.mode != modeNormal {
			return nil
		}
		return m.checklistMouse(msg)

	case tea.KeyMsg:
		if v.loading {
			if key.Matches(msg, m.keys.Back) {
				return m.backToOverview()
			}
			return nil
		}
		switch v.mode {
		case modeEditTitle, modeEditItem, modeAddItem:
			return m.inputKey(msg)
		case modeMenu:
			return m.menuKey(msg)
		case modeShare:
			v.mode = modeNormal
			return nil
		}
		if v.grabbed {
			return m.dragKey(msg)
		}
		return m.checklistKey(msg)
	}

	if v.mode == modeEditTitle || v.mode == modeEditItem || v.mode == modeAddItem {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return cmd
	}
	return nil
}

// run executes fn off the event loop and reports its error.
func (m *Model) run(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: fn(ctx)}
	}
}

func (m *Model) checklistKey(msg tea.KeyMsg) tea.Cmd {
	v := m.checklist
	ed := v.editor
	items := ed.Items()
	visible := m.visibleRows()

	current := func() (model.Item, bool) {
		if v.cursor < 0 || v.cursor >= len(items) {
			return model.Item{}, false
		}
		return items[v.cursor], true
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return m.backToOverview()
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		v.cursor--
		v.clamp(visible)
	case key.Matches(msg, m.keys.Down):
		v.cursor++
		v.clamp(visible)
	case key.Matches(msg, m.keys.Toggle):
		if it, ok := current(); ok {
			return m.run(func(ctx context.Context) error { return ed.ToggleItem(ctx, it.ID) })
		}
	case key.Matches(msg, m.keys.Grab):
		if err := ed.BeginDrag(v.cursor, reorder.Pointer, reorder.Point{}, reorder.Rect{}); err != nil {
			return m.fail(err)
		}
		v.grabbed = true
	case key.Matches(msg, m.keys.Edit):
		if it, ok := current(); ok {
			return m.startInput(modeEditItem, it.ID, it.Content)
		}
	case key.Matches(msg, m.keys.Add):
		return m.startInput(modeAddItem, "", "")
	case key.Matches(msg, m.keys.Title):
		return m.startInput(modeEditTitle, "", ed.Checklist().Title)
	case key.Matches(msg, m.keys.Delete):
		if it, ok := current(); ok {
			return m.run(func(ctx context.Context) error { return ed.DeleteItem(ctx, it.ID) })
		}
	case key.Matches(msg, m.keys.Menu):
		v.mode = modeMenu
		v.menuCursor = 0
	case key.Matches(msg, m.keys.Share):
		return m.openShare()
	case key.Matches(msg, m.keys.Refresh):
		return m.run(ed.Reload)
	}
	return nil
}

// dragKey handles keys while an item is grabbed: up and down move it one row, enter drops it
// and esc puts it back.
func (m *Model) dragKey(msg tea.KeyMsg) tea.Cmd {
	v := m.checklist
	ed := v.editor
	switch {
	case key.Matches(msg, m.keys.Up):
		ed.DragEnter(ed.Snapshot().Source - 1)
		v.cursor = ed.Snapshot().Source
	case key.Matches(msg, m.keys.Down):
		ed.DragEnter(ed.Snapshot().Source + 1)
		v.cursor = ed.Snapshot().Source
	case key.Matches(msg, m.keys.Drop):
		v.cursor = ed.Snapshot().Source
		v.grabbed = false
		ed.EndDrag()
	case key.Matches(msg, m.keys.Back):
		v.grabbed = false
		ed.CancelDrag()
	}
	v.clamp(m.visibleRows())
	return nil
}

func (m *Model) checklistMouse(msg tea.MouseMsg) tea.Cmd {
	v := m.checklist
	ed := v.editor
	n := len(ed.Items())
	visible := m.visibleRows()
	p := reorder.Point{X: msg.X, Y: msg.Y}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if v.offset > 0 {
			v.offset--
		}
		return nil
	case msg.Button == tea.MouseButtonWheelDown:
		if v.offset+visible < n {
			v.offset++
		}
		return nil

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		i := rowAt(msg.Y, n, v.offset, visible)
		if i < 0 || v.grabbed {
			return nil
		}
		v.cursor = i
		if msg.X < checkboxWidth {
			id := ed.Items()[i].ID
			return m.run(func(ctx context.Context) error { return ed.ToggleItem(ctx, id) })
		}
		rows := rowRects(n, v.offset, m.width)
		if err := ed.BeginDrag(i, reorder.Touch, p, rows[i]); err != nil {
			if errors.Is(err, service.ErrLocked) || errors.Is(err, service.ErrSaving) {
				return nil
			}
			return m.fail(err)
		}
		v.dragging = true

	case msg.Action == tea.MouseActionMotion && v.dragging:
		ed.DragMove(p, rowRects(n, v.offset, m.width))

	case msg.Action == tea.MouseActionRelease && v.dragging:
		v.dragging = false
		v.cursor = ed.Snapshot().Source
		ed.EndDrag()
		v.clamp(visible)
	}
	return nil
}

func (m *Model) startInput(mode checklistMode, itemID, value string) tea.Cmd {
	v := m.checklist
	if v.editor.Checklist().Locked {
		return m.fail(service.ErrLocked)
	}
	v.mode = mode
	v.editingID = itemID
	switch mode {
	case modeAddItem:
		v.input.Prompt = "+ "
		v.input.Placeholder = "New item"
	case modeEditTitle:
		v.input.Prompt = "Title: "
		v.input.Placeholder = model.DefaultChecklistTitle
	default:
		v.input.Prompt = "✎ "
		v.input.Placeholder = ""
	}
	v.input.SetValue(value)
	v.input.CursorEnd()
	return v.input.Focus()
}

func (m *Model) stopInput() {
	v := m.checklist
	v.mode = modeNormal
	v.editingID = ""
	v.input.Blur()
	v.input.Reset()
}

// inputKey edits the title or an item in place. Edits are saved as they are typed, after the
// debounce window; adding an item keeps the input open for the next one.
func (m *Model) inputKey(msg tea.KeyMsg) tea.Cmd {
	v := m.checklist
	ed := v.editor

	switch msg.String() {
	case "esc":
		m.stopInput()
		return nil
	case "enter":
		if v.mode != modeAddItem {
			m.stopInput()
			return nil
		}
		content := strings.TrimSpace(v.input.Value())
		if content == "" {
			m.stopInput()
			return nil
		}
		v.input.Reset()
		return m.run(func(ctx context.Context) error {
			_, err := ed.AddItem(ctx, content)
			return err
		})
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)

	var err error
	switch v.mode {
	case modeEditTitle:
		err = ed.SetTitle(v.input.Value())
	case modeEditItem:
		err = ed.EditItem(v.editingID, v.input.Value())
	}
	if err != nil {
		m.stopInput()
		return m.fail(err)
	}
	return cmd
}

func (m *Model) openShare() tea.Cmd {
	v := m.checklist
	v.mode = modeShare
	v.share = shareState{loading: true}
	ctx, lists, id := m.ctx, m.app.Checklists, v.editor.ID()
	return func() tea.Msg {
		link, err := lists.ShareLink(ctx, id)
		if err != nil {
			return shareReadyMsg{err: err}
		}
		return shareReadyMsg{link: link, copied: copyToClipboard(link) == nil}
	}
}

func (m *Model) viewChecklist() string {
	v := m.checklist
	if v == nil {
		return ""
	}
	if v.loading {
		return titleStyle.Render(v.initial.Title) + "\n\n" + m.spinner.View() + " Loading…"
	}
	snap := v.editor.Snapshot()

	lines := make([]string, 0, m.height)
	lines = append(lines, m.checklistHeader(snap)...)

	visible := m.visibleRows()
	for slot := 0; slot < visible; slot++ {
		i := v.offset + slot
		if i >= len(snap.Items) {
			break
		}
		lines = append(lines, m.renderRow(snap, i), "")
	}
	if len(snap.Items) == 0 {
		lines = append(lines, mutedStyle.Render("  No items yet. Press a to add one."), "")
	}

	if snap.HasGhost {
		y := snap.Ghost.Position.Y
		ghost := ghostStyle.Render(fmt.Sprintf("» %s %s", checkbox(snap.Ghost.Item.Checked), snap.Ghost.Item.Content))
		switch {
		case y >= headerLines && y < len(lines):
			lines[y] = ghost
		case y >= len(lines) && y < headerLines+visible*rowHeight:
			for len(lines) < y {
				lines = append(lines, "")
			}
			lines = append(lines, ghost)
		}
	}

	switch v.mode {
	case modeEditTitle, modeEditItem, modeAddItem:
		lines = append(lines, v.input.View())
	case modeMenu:
		lines = append(lines, m.viewMenu())
	case modeShare:
		lines = append(lines, m.viewShare())
	default:
		lines = append(lines, m.checklistHelp(snap))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) checklistHeader(snap service.Snapshot) []string {
	title := titleStyle.Render(snap.Checklist.Title)
	if snap.Checklist.Locked {
		title += " " + lockedStyle.Render("[locked]")
	}
	if m.checklist.editor.Shared() {
		title += " " + mutedStyle.Render("(shared)")
	}

	var status []string
	if n := len(snap.Checklist.Collaborators); n > 1 {
		emails := make([]string, 0, n)
		for _, c := range snap.Checklist.Collaborators {
			emails = append(emails, c.Email)
		}
		status = append(status, strings.Join(emails, ", "))
	}
	done := 0
	for _, it := range snap.Items {
		if it.Checked {
			done++
		}
	}
	status = append(status, fmt.Sprintf("%d/%d done", done, len(snap.Items)))
	if snap.Saving {
		status = append(status, m.spinner.View()+"saving")
	}
	return []string{title, mutedStyle.Render(strings.Join(status, " · ")), ""}
}

func checkbox(checked bool) string {
	if checked {
		return boxChecked
	}
	return boxUnchecked
}

func (m *Model) renderRow(snap service.Snapshot, i int) string {
	v := m.checklist
	it := snap.Items[i]
	dragged := snap.State == reorder.Dragging && i == snap.Source

	content := it.Content
	if it.Checked {
		content = doneStyle.Render(content)
	}
	if v.mode == modeEditItem && it.ID == v.editingID {
		content = v.input.Value()
	}
	line := fmt.Sprintf("  %s %s", checkbox(it.Checked), content)

	switch {
	case dragged && snap.HasGhost:
		return mutedStyle.Render(fmt.Sprintf("  %s %s", checkbox(it.Checked), strings.Repeat("·", lipgloss.Width(it.Content))))
	case dragged:
		return draggingStyle.Render("≡ " + line[2:])
	case i == v.cursor:
		return selectedStyle.Width(m.width).Render(line)
	default:
		return line
	}
}

func (m *Model) checklistHelp(snap service.Snapshot) string {
	if snap.State == reorder.Dragging {
		return helpLine(m.keys.Up, m.keys.Down, m.keys.Drop, key.NewBinding(key.WithHelp("esc", "cancel")))
	}
	if snap.Checklist.Locked {
		return helpLine(m.keys.Up, m.keys.Down, m.keys.Menu, m.keys.Share, m.keys.Back)
	}
	return helpLine(m.keys.Toggle, m.keys.Add, m.keys.Edit, m.keys.Delete, m.keys.Grab, m.keys.Title, m.keys.Menu, m.keys.Share, m.keys.Back)
}
