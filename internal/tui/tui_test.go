package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jaekwang-park/listo/internal/app"
	"github.com/jaekwang-park/listo/internal/cognito"
	"github.com/jaekwang-park/listo/internal/config"
	"github.com/jaekwang-park/listo/internal/fakeapi"
	"github.com/jaekwang-park/listo/internal/model"
	"github.com/jaekwang-park/listo/internal/reorder"
	"github.com/jaekwang-park/listo/internal/service"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type harness struct {
	t   *testing.T
	srv *httptest.Server
	ctx context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := httptest.NewServer(fakeapi.NewRouter(fakeapi.NewStore(), discardLogger))
	t.Cleanup(srv.Close)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	prev := copyToClipboard
	copyToClipboard = func(string) error { return nil }
	t.Cleanup(func() { copyToClipboard = prev })

	return &harness{t: t, srv: srv, ctx: ctx}
}

func (h *harness) app(userID string) *app.App {
	h.t.Helper()
	cfg := config.Defaults()
	cfg.APIBaseURL = h.srv.URL
	cfg.ShareBaseURL = "https://listo.example.com"
	cfg.AuthMode = config.AuthModeDev
	cfg.DevUserID = userID
	cfg.SessionFile = filepath.Join(h.t.TempDir(), "session.json")
	a, err := app.New(h.ctx, cfg, discardLogger)
	if err != nil {
		h.t.Fatalf("app.New() error: %v", err)
	}
	return a
}

// model builds a model sized 80x30 without starting its event listener.
func (h *harness) model(a *app.App) *Model {
	m := New(h.ctx, a)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m
}

// seed creates a checklist owned by a with the given items in order.
func (h *harness) seed(a *app.App, title string, contents ...string) model.Checklist {
	h.t.Helper()
	cl, err := a.Checklists.Create(h.ctx, title)
	if err != nil {
		h.t.Fatalf("Create() error: %v", err)
	}
	for i, c := range contents {
		if _, err := a.API.CreateItem(h.ctx, cl.ID, false, c, i); err != nil {
			h.t.Fatalf("CreateItem(%q) error: %v", c, err)
		}
	}
	return cl
}

// open shows cl in m and waits for the editor to load.
func (h *harness) open(m *Model, cl model.Checklist, shared bool) *service.Editor {
	h.t.Helper()
	drive(m, m.openChecklist(cl, shared))
	if m.checklist == nil || m.checklist.loading {
		h.t.Fatalf("checklist %s did not load (err=%v)", cl.ID, m.err)
	}
	return m.checklist.editor
}

// serverOrder returns the item contents of a checklist as the backend orders them.
func (h *harness) serverOrder(a *app.App, id string) []string {
	h.t.Helper()
	detail, err := a.API.GetChecklist(h.ctx, id, false)
	if err != nil {
		h.t.Fatalf("GetChecklist() error: %v", err)
	}
	model.SortItems(detail.Items)
	return contents(detail.Items)
}

func contents(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Content
	}
	return out
}

// drive runs cmd and feeds every message it produces back into m, the way the bubbletea
// event loop would. Commands that do not return promptly, such as timers, are skipped.
func drive(m *Model, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 200; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := call(c)
		if !ok {
			continue
		}
		switch msg := msg.(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg, cursor.BlinkMsg, flashDoneMsg, tea.QuitMsg:
		default:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func call(c tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(time.Second):
		return nil, false
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// press sends keys to m one after the other, running whatever commands they return.
func press(m *Model, keys ...string) {
	for _, k := range keys {
		_, cmd := m.Update(keyMsg(k))
		drive(m, cmd)
	}
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func TestRowAt(t *testing.T) {
	tests := []struct {
		name    string
		y       int
		n       int
		offset  int
		visible int
		want    int
	}{
		{"header", 1, 3, 0, 10, -1},
		{"first row top line", 3, 3, 0, 10, 0},
		{"first row bottom line", 4, 3, 0, 10, 0},
		{"third row", 7, 3, 0, 10, 2},
		{"below last item", 9, 3, 0, 10, -1},
		{"scrolled", 3, 10, 4, 3, 4},
		{"past visible area", 9, 10, 0, 3, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rowAt(tt.y, tt.n, tt.offset, tt.visible); got != tt.want {
				t.Errorf("rowAt(%d)=%d, want %d", tt.y, got, tt.want)
			}
		})
	}
}

func TestRowRects_MidpointRule(t *testing.T) {
	rows := rowRects(3, 0, 80)
	if rows[0].Top != headerLines || rows[2].Top != headerLines+2*rowHeight {
		t.Fatalf("rows=%+v", rows)
	}

	tests := []struct {
		name string
		y    int
		want int
	}{
		{"upper half of own row", 3, 0},
		{"upper half of second row", 5, 0},
		{"lower half of second row", 6, 1},
		{"lower half of last row", 8, 2},
		{"far below", 20, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reorder.TargetIndex(tt.y, 0, rows); got != tt.want {
				t.Errorf("TargetIndex(y=%d)=%d, want %d", tt.y, got, tt.want)
			}
		})
	}
}

func TestOverview_LoadCreateAndOpen(t *testing.T) {
	h := newHarness(t)
	a := h.app("owner")
	h.seed(a, "Groceries", "Milk")
	m := h.model(a)

	if m.screen != screenOverview {
		t.Fatalf("dev mode should start on the overview, got screen %d", m.screen)
	}
	drive(m, m.loadLists())
	if m.overview.loading {
		t.Error("still loading after lists arrived")
	}
	if n := len(m.overview.lists[0].Items()); n != 1 {
		t.Fatalf("My Stuff has %d entries, want 1", n)
	}
	if !strings.Contains(m.View(), "Groceries") {
		t.Error("overview does not show Groceries")
	}

	press(m, "n")
	if m.screen != screenChecklist || m.checklist == nil {
		t.Fatalf("n should open the new checklist, screen=%d err=%v", m.screen, m.err)
	}
	if title := m.checklist.editor.Checklist().Title; title != model.DefaultChecklistTitle {
		t.Errorf("new checklist title=%q", title)
	}

	press(m, "esc")
	if m.screen != screenOverview || m.checklist != nil {
		t.Fatalf("esc should return to the overview, screen=%d", m.screen)
	}
	if n := len(m.overview.lists[0].Items()); n != 2 {
		t.Errorf("My Stuff has %d entries after create, want 2", n)
	}
}

func TestOverview_JoinByCode(t *testing.T) {
	h := newHarness(t)
	owner := h.app("owner")
	cl := h.seed(owner, "Trip", "Tent")
	code, err := owner.Checklists.ShareCode(h.ctx, cl.ID)
	if err != nil {
		t.Fatalf("ShareCode() error: %v", err)
	}

	m := h.model(h.app("guest"))
	press(m, "J")
	if m.overview.mode != overviewJoin {
		t.Fatal("J should open the join prompt")
	}
	press(m, code, "enter")

	if m.err != nil {
		t.Fatalf("join failed: %v", m.err)
	}
	shared := m.overview.lists[1].Items()
	if len(shared) != 1 || shared[0].(checklistItem).checklist.ID != cl.ID {
		t.Fatalf("Shared With Me=%v", shared)
	}
}

func TestChecklist_KeyboardDrag(t *testing.T) {
	h := newHarness(t)
	a := h.app("owner")
	cl := h.seed(a, "Chores", "A", "B", "C")
	m := h.model(a)
	ed := h.open(m, cl, false)

	press(m, "space")
	if !m.checklist.grabbed || ed.Snapshot().State != reorder.Dragging {
		t.Fatal("space should grab the selected item")
	}
	press(m, "down", "down")
	if got := contents(ed.Items()); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Fatalf("local order while dragging=%v", got)
	}
	if m.checklist.cursor != 2 {
		t.Errorf("cursor=%d, want it to follow the dragged item", m.checklist.cursor)
	}
	press(m, "enter")
	ed.Wait()

	if got := h.serverOrder(a, cl.ID); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Errorf("server order=%v, want [B C A]", got)
	}
}

func TestChecklist_KeyboardDragCancel(t *testing.T) {
	h := newHarness(t)
	a := h.app("owner")
	cl := h.seed(a, "Chores", "A", "B", "C")
	m := h.model(a)
	ed := h.open(m, cl, false)

	press(m, "space", "down", "esc")

	if m.checklist.grabbed || ed.Snapshot().State != reorder.Idle {
		t.Fatal("esc should end the drag")
	}
	if got := contents(ed.Items()); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("order after cancel=%v, want the original", got)
	}
	if m.screen != screenChecklist {
		t.Error("esc during a drag should not leave the checklist")
	}
}

func TestChecklist_MouseDrag(t *testing.T) {
	h := newHarness(t)
	a := h.app("owner")
	cl := h.seed(a, "Chores", "A", "B", "C")
	m := h.model(a)
	ed := h.open(m, cl, false)

	m.Update(mouse(tea.MouseActionPress, 10, 3))
	snap := ed.Snapshot()
	if snap.State != reorder.Dragging || !snap.HasGhost {
		t.Fatalf("press on a row should start a touch drag, state=%s ghost=%v", snap.State, snap.HasGhost)
	}

	// Lower half of the third row.
	m.Update(mouse(tea.MouseActionMotion, 10, 8))
	if got := contents(ed.Items()); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Fatalf("local order while dragging=%v", got)
	}
	if !strings.Contains(m.View(), "» ") {
		t.Error("the floating row is not drawn")
	}

	m.Update(tea.MouseMsg{X: 10, Y: 8, Action: tea.MouseActionRelease})
	ed.Wait()

	if ed.Snapshot().State != reorder.Idle {
		t.Error("release should settle the drag")
	}
	if got := h.serverOrder(a, cl.ID); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Errorf("server order=%v, want [B C A]", got)
	}
}

func TestChecklist_ClickCheckboxToggles(t *testing.T) {
	h := newHarness(t)
	a := h.app("owner")
	cl := h.seed(a, "Chores", "A", "B")
	m := h.model(a)
	ed := h.open(m, cl, false)

	_, cmd := m.Update(mouse(tea.MouseActionPress, 1, 5))
	drive(m, cmd)

	if ed.Snapshot().State != reorder.Idle {
		t.Error("a checkbox click should not start a drag")
	}
	items := ed.Items()
	if items[0].Checked || !items[1].Checked {
		t.Errorf("items=%+v, want only B checked", items)
	}
}

func TestChecklist_LockedRefusesEdits(t *testing.T) {
	h := newHarness(t)
	a := h.app("owner")
	cl := h.seed(a, "Chores", "A", "B")
	m := h.model(a)
	ed := h.open(m, cl, false)
	if err := ed.SetLocked(h.ctx, true); err != nil {
		t.Fatalf("SetLocked() error: %v", err)
	}

	m.Update(mouse(tea.MouseActionPress, 10, 3))
	if ed.Snapshot().State != reorder.Idle {
		t.Error("a locked checklist should not start a drag")
	}

	press(m, "space")
	if !errors.Is(m.err, service.ErrLocked) {
		t.Errorf("space on a locked list: err=%v, want ErrLocked", m.err)
	}

	m.err = nil
	press(m, "a")
	if m.checklist.mode != modeNormal || !errors.Is(m.err, service.ErrLocked) {
		t.Errorf("add on a locked list: mode=%d err=%v", m.checklist.mode, m.err)
	}
}

func TestChecklist_AddAndEdit(t *testing.T) {
	h := newHarness(t)
	a := h.app("owner")
	cl := h.seed(a, "Groceries", "Milk")
	m := h.model(a)
	ed := h.open(m, cl, false)

	press(m, "a", "Eggs", "enter")
	if m.checklist.mode != modeAddItem {
		t.Error("the add input should stay open for the next item")
	}
	press(m, "esc")

	press(m, "e", "!", "enter")
	if err := ed.Close(h.ctx); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if got := h.serverOrder(a, cl.ID); !reflect.DeepEqual(got, []string{"Milk!", "Eggs"}) {
		t.Errorf("server items=%v, want [Milk! Eggs]", got)
	}
}

func TestChecklist_MenuActions(t *testing.T) {
	h := newHarness(t)
	owner := h.app("owner")
	cl := h.seed(owner, "Trip", "Tent")
	guest := h.app("guest")
	code, err := owner.Checklists.ShareCode(h.ctx, cl.ID)
	if err != nil {
		t.Fatalf("ShareCode() error: %v", err)
	}
	if _, err := guest.Checklists.Join(h.ctx, code); err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	labels := func(m *Model) []string {
		var out []string
		for _, a := range m.menuActions() {
			out = append(out, a.Label)
		}
		return out
	}

	own := h.model(owner)
	ed := h.open(own, cl, false)
	if got, want := labels(own), []string{"Check All", "Uncheck All", "Share", "Lock", "Delete Completed"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unlocked own list: %v, want %v", got, want)
	}

	press(own, "m", "down", "down", "down", "enter")
	if !ed.Checklist().Locked {
		t.Fatal("selecting Lock should lock the checklist")
	}
	if got, want := labels(own), []string{"Check All", "Uncheck All", "Share", "Unlock"}; !reflect.DeepEqual(got, want) {
		t.Errorf("locked own list: %v, want %v", got, want)
	}
	own.closeEditor()

	shared := h.model(guest)
	h.open(shared, cl, true)
	if got, want := labels(shared), []string{"Check All", "Uncheck All", "Share", "Unlock", "Leave"}; !reflect.DeepEqual(got, want) {
		t.Errorf("locked shared list: %v, want %v", got, want)
	}

	press(shared, "m", "up")
	for range 4 {
		press(shared, "down")
	}
	press(shared, "enter")
	if shared.screen != screenOverview {
		t.Fatalf("Leave should return to the overview, screen=%d err=%v", shared.screen, shared.err)
	}
	if n := len(shared.overview.lists[1].Items()); n != 0 {
		t.Errorf("Shared With Me has %d entries after leaving", n)
	}
}

func TestChecklist_ShareCopiesLink(t *testing.T) {
	h := newHarness(t)
	a := h.app("owner")
	cl := h.seed(a, "Trip")
	m := h.model(a)
	h.open(m, cl, false)

	var copied string
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}

	press(m, "s")
	share := m.checklist.share
	if m.checklist.mode != modeShare || share.loading {
		t.Fatalf("share dialog mode=%d loading=%v err=%v", m.checklist.mode, share.loading, m.err)
	}
	if !strings.HasPrefix(share.link, "https://listo.example.com/share/") || copied != share.link {
		t.Errorf("link=%q copied=%q", share.link, copied)
	}
	if !strings.Contains(m.View(), "Copied!") {
		t.Error("share dialog should confirm the copy")
	}

	press(m, "x")
	if m.checklist.mode != modeNormal {
		t.Error("any key should close the share dialog")
	}
}

type noProvider struct {
	cognito.Provider
}

func TestNotAuthenticated_ShowsLogin(t *testing.T) {
	h := newHarness(t)
	cfg := config.Defaults()
	cfg.APIBaseURL = h.srv.URL
	cfg.Cognito.UserPoolID = "pool-1"
	cfg.Cognito.AppClientID = "client-1"
	cfg.SessionFile = filepath.Join(t.TempDir(), "session.json")
	a, err := app.NewWithProvider(h.ctx, cfg, discardLogger, noProvider{})
	if err != nil {
		t.Fatalf("NewWithProvider() error: %v", err)
	}

	m := h.model(a)
	if m.screen != screenLogin {
		t.Fatalf("without a session the login screen comes first, got %d", m.screen)
	}

	m.screen = screenOverview
	drive(m, m.loadLists())

	if m.screen != screenLogin {
		t.Fatalf("an unauthenticated request should show the login screen, got %d", m.screen)
	}
	if m.err != nil {
		t.Errorf("auth failures are not shown as inline errors, got %v", m.err)
	}
	if !strings.Contains(m.View(), "Please log in") {
		t.Error("login screen should ask the user to log in")
	}
}

func TestLogin_RequiresFields(t *testing.T) {
	h := newHarness(t)
	m := h.model(h.app("owner"))
	m.screen = screenLogin
	drive(m, m.login.focus())

	press(m, "enter", "enter")

	if m.login.err == nil || m.login.submitting {
		t.Errorf("empty form: err=%v submitting=%v", m.login.err, m.login.submitting)
	}
}

func TestLogin_DevModeUnavailable(t *testing.T) {
	h := newHarness(t)
	m := h.model(h.app("owner"))
	m.screen = screenLogin
	drive(m, m.login.focus())

	press(m, "me@example.com", "enter", "secret", "enter")

	if !errors.Is(m.login.err, service.ErrLoginUnavailable) {
		t.Fatalf("login.err=%v, want ErrLoginUnavailable", m.login.err)
	}
	if !strings.Contains(m.View(), "not available in dev auth mode") {
		t.Error("login screen should explain why login failed")
	}
}
