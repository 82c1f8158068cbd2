package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jaekwang-park/listo/internal/cache"
	"github.com/jaekwang-park/listo/internal/model"
	"github.com/jaekwang-park/listo/internal/service"
)

// mockAPI implements api.ChecklistAPI with optional function fields. Calls to methods without
// a function fail, and every call is counted.
type mockAPI struct {
	listChecklistsFn       func(ctx context.Context) ([]model.Checklist, error)
	listSharedChecklistsFn func(ctx context.Context) ([]model.Checklist, error)
	getChecklistFn         func(ctx context.Context, id string, shared bool) (model.ChecklistDetail, error)
	createChecklistFn      func(ctx context.Context, title string) (model.Checklist, error)
	updateChecklistFn      func(ctx context.Context, id string, shared bool, title string, locked bool) (model.Checklist, error)
	deleteChecklistFn      func(ctx context.Context, id string) error
	getShareCodeFn         func(ctx context.Context, id string) (string, error)
	joinSharedChecklistFn  func(ctx context.Context, code string) error
	leaveSharedChecklistFn func(ctx context.Context, id string) error
	createItemFn           func(ctx context.Context, id string, shared bool, content string, ordering int) (model.Item, error)
	updateItemFn           func(ctx context.Context, id string, shared bool, item model.Item) (model.Item, error)
	toggleAllItemsFn       func(ctx context.Context, id string, shared bool, checked bool) error
	deleteItemFn           func(ctx context.Context, id string, shared bool, itemID string) error

	mu    sync.Mutex
	calls map[string]int
}

func (m *mockAPI) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *mockAPI) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockAPI) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func unexpected(name string) error {
	return fmt.Errorf("unexpected call to %s", name)
}

func (m *mockAPI) ListChecklists(ctx context.Context) ([]model.Checklist, error) {
	m.record("ListChecklists")
	if m.listChecklistsFn == nil {
		return nil, unexpected("ListChecklists")
	}
	return m.listChecklistsFn(ctx)
}

func (m *mockAPI) ListSharedChecklists(ctx context.Context) ([]model.Checklist, error) {
	m.record("ListSharedChecklists")
	if m.listSharedChecklistsFn == nil {
		return nil, unexpected("ListSharedChecklists")
	}
	return m.listSharedChecklistsFn(ctx)
}

func (m *mockAPI) GetChecklist(ctx context.Context, id string, shared bool) (model.ChecklistDetail, error) {
	m.record("GetChecklist")
	if m.getChecklistFn == nil {
		return model.ChecklistDetail{}, unexpected("GetChecklist")
	}
	return m.getChecklistFn(ctx, id, shared)
}

func (m *mockAPI) CreateChecklist(ctx context.Context, title string) (model.Checklist, error) {
	m.record("CreateChecklist")
	if m.createChecklistFn == nil {
		return model.Checklist{}, unexpected("CreateChecklist")
	}
	return m.createChecklistFn(ctx, title)
}

func (m *mockAPI) UpdateChecklist(ctx context.Context, id string, shared bool, title string, locked bool) (model.Checklist, error) {
	m.record("UpdateChecklist")
	if m.updateChecklistFn == nil {
		return model.Checklist{}, unexpected("UpdateChecklist")
	}
	return m.updateChecklistFn(ctx, id, shared, title, locked)
}

func (m *mockAPI) DeleteChecklist(ctx context.Context, id string) error {
	m.record("DeleteChecklist")
	if m.deleteChecklistFn == nil {
		return unexpected("DeleteChecklist")
	}
	return m.deleteChecklistFn(ctx, id)
}

func (m *mockAPI) GetShareCode(ctx context.Context, id string) (string, error) {
	m.record("GetShareCode")
	if m.getShareCodeFn == nil {
		return "", unexpected("GetShareCode")
	}
	return m.getShareCodeFn(ctx, id)
}

func (m *mockAPI) JoinSharedChecklist(ctx context.Context, code string) error {
	m.record("JoinSharedChecklist")
	if m.joinSharedChecklistFn == nil {
		return unexpected("JoinSharedChecklist")
	}
	return m.joinSharedChecklistFn(ctx, code)
}

func (m *mockAPI) LeaveSharedChecklist(ctx context.Context, id string) error {
	m.record("LeaveSharedChecklist")
	if m.leaveSharedChecklistFn == nil {
		return unexpected("LeaveSharedChecklist")
	}
	return m.leaveSharedChecklistFn(ctx, id)
}

func (m *mockAPI) CreateItem(ctx context.Context, id string, shared bool, content string, ordering int) (model.Item, error) {
	m.record("CreateItem")
	if m.createItemFn == nil {
		return model.Item{}, unexpected("CreateItem")
	}
	return m.createItemFn(ctx, id, shared, content, ordering)
}

func (m *mockAPI) UpdateItem(ctx context.Context, id string, shared bool, item model.Item) (model.Item, error) {
	m.record("UpdateItem")
	if m.updateItemFn == nil {
		return model.Item{}, unexpected("UpdateItem")
	}
	return m.updateItemFn(ctx, id, shared, item)
}

func (m *mockAPI) ToggleAllItems(ctx context.Context, id string, shared bool, checked bool) error {
	m.record("ToggleAllItems")
	if m.toggleAllItemsFn == nil {
		return unexpected("ToggleAllItems")
	}
	return m.toggleAllItemsFn(ctx, id, shared, checked)
}

func (m *mockAPI) DeleteItem(ctx context.Context, id string, shared bool, itemID string) error {
	m.record("DeleteItem")
	if m.deleteItemFn == nil {
		return unexpected("DeleteItem")
	}
	return m.deleteItemFn(ctx, id, shared, itemID)
}

var (
	now           = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func sampleItems(ids ...string) []model.Item {
	items := make([]model.Item, len(ids))
	for i, id := range ids {
		items[i] = model.Item{ID: id, Content: "item " + id, Ordering: i, CreatedAt: now, UpdatedAt: now}
	}
	return items
}

func detailOf(locked bool, items []model.Item) model.ChecklistDetail {
	return model.ChecklistDetail{
		Checklist: model.Checklist{ID: "cl-1", Title: "Groceries", Locked: locked, UpdatedAt: now},
		Items:     items,
	}
}

func newCache() *cache.Cache {
	return cache.New()
}

// newEditor returns an editor over m that has already loaded detail. Zero durations in opts
// get short test defaults.
func newEditor(t *testing.T, m *mockAPI, detail model.ChecklistDetail, opts service.EditorOptions) *service.Editor {
	t.Helper()
	if m.getChecklistFn == nil {
		m.getChecklistFn = func(context.Context, string, bool) (model.ChecklistDetail, error) {
			return detail, nil
		}
	}
	if opts.TitleDebounce == 0 {
		opts.TitleDebounce = 20 * time.Millisecond
	}
	if opts.ContentDebounce == 0 {
		opts.ContentDebounce = 20 * time.Millisecond
	}
	if opts.StaleTime == 0 {
		opts.StaleTime = time.Minute
	}
	opts.Logger = discardLogger

	e := service.NewEditor(m, newCache(), "cl-1", false, opts)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
	return e
}

func newLoadedEditor(t *testing.T, m *mockAPI, detail model.ChecklistDetail) *service.Editor {
	t.Helper()
	return newEditor(t, m, detail, service.EditorOptions{})
}
