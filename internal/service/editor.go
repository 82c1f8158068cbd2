package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jaekwang-park/listo/internal/api"
	"github.com/jaekwang-park/listo/internal/cache"
	"github.com/jaekwang-park/listo/internal/debounce"
	"github.com/jaekwang-park/listo/internal/model"
	"github.com/jaekwang-park/listo/internal/reorder"
)

const tempIDPrefix = "temp-"

// maxParallelWrites bounds concurrent item requests for bulk operations.
const maxParallelWrites = 4

type EditorOptions struct {
	TitleDebounce   time.Duration
	ContentDebounce time.Duration
	StaleTime       time.Duration
	// OnChange is called after the local state changed, outside the editor lock.
	OnChange func()
	// OnError receives failures of background writes.
	OnError func(error)
	Logger  *slog.Logger
}

// Snapshot is a consistent copy of the editor state for rendering.
type Snapshot struct {
	Checklist model.Checklist
	Items     []model.Item
	State     reorder.State
	Source    int
	Ghost     reorder.Ghost
	HasGhost  bool
	Saving    bool
}

// Editor holds the optimistic local state of one open checklist. Local changes are visible
// immediately; writes go to the backend either at once or after a debounce window.
type Editor struct {
	api       api.ChecklistAPI
	cache     *cache.Cache
	id        string
	shared    bool
	staleTime time.Duration
	logger    *slog.Logger
	onChange  func()
	onError   func(error)

	title   *debounce.Debouncer
	content *debounce.Keyed

	mu        sync.Mutex
	checklist model.Checklist
	machine   *reorder.Machine
	loaded    bool
	// writes counts item requests in flight. A drag cannot start while it is positive, and
	// item edits are refused while settling orderings are being written.
	writes   int
	settling bool

	wg sync.WaitGroup
}

func NewEditor(client api.ChecklistAPI, c *cache.Cache, checklistID string, shared bool, opts EditorOptions) *Editor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.OnChange == nil {
		opts.OnChange = func() {}
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}
	return &Editor{
		api:       client,
		cache:     c,
		id:        checklistID,
		shared:    shared,
		staleTime: opts.StaleTime,
		logger:    opts.Logger.With("checklist_id", checklistID),
		onChange:  opts.OnChange,
		onError:   opts.OnError,
		title:     debounce.New(opts.TitleDebounce),
		content:   debounce.NewKeyed(opts.ContentDebounce),
		machine:   reorder.New(nil),
	}
}

func (e *Editor) ID() string   { return e.id }
func (e *Editor) Shared() bool { return e.shared }

// Load fills the editor from the cache, fetching when the cached copy is stale.
func (e *Editor) Load(ctx context.Context) error {
	detail, err := cache.Fetch(ctx, e.cache, cache.ChecklistKey(e.id), e.staleTime, func(ctx context.Context) (model.ChecklistDetail, error) {
		return e.api.GetChecklist(ctx, e.id, e.shared)
	})
	if err != nil {
		return mapError(err)
	}
	e.mu.Lock()
	e.apply(detail)
	e.mu.Unlock()
	e.onChange()
	return nil
}

// Reload drops the cached copy and fetches the checklist again. Items are only replaced while
// no drag is in progress, and fields with pending debounced edits keep their local value.
func (e *Editor) Reload(ctx context.Context) error {
	e.cache.Invalidate(cache.ChecklistKey(e.id))
	return e.Load(ctx)
}

// apply merges a server snapshot into the local state. Callers hold e.mu.
func (e *Editor) apply(detail model.ChecklistDetail) {
	cl := detail.Checklist
	if e.loaded && e.title.Pending() {
		cl.Title = e.checklist.Title
	}
	e.checklist = cl
	e.machine.SetLocked(cl.Locked)
	e.loaded = true

	if e.machine.State() != reorder.Idle {
		return
	}
	local := make(map[string]model.Item)
	for _, it := range e.machine.Items() {
		local[it.ID] = it
	}
	items := make([]model.Item, 0, len(detail.Items))
	for _, it := range detail.Items {
		if prev, ok := local[it.ID]; ok && e.content.Pending(it.ID) {
			it.Content = prev.Content
		}
		items = append(items, it)
	}
	e.machine.SetItems(items)
}

func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	ghost, hasGhost := e.machine.Ghost()
	return Snapshot{
		Checklist: e.checklist,
		Items:     e.machine.Items(),
		State:     e.machine.State(),
		Source:    e.machine.Source(),
		Ghost:     ghost,
		HasGhost:  hasGhost,
		Saving:    e.writes > 0 || e.title.Pending() || e.anyContentPending(),
	}
}

func (e *Editor) anyContentPending() bool {
	for _, it := range e.machine.Items() {
		if e.content.Pending(it.ID) {
			return true
		}
	}
	return false
}

func (e *Editor) Items() []model.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Items()
}

func (e *Editor) Checklist() model.Checklist {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checklist
}

// editable reports why the items cannot be changed right now. Callers hold e.mu.
func (e *Editor) editable() error {
	if e.checklist.Locked {
		return ErrLocked
	}
	if e.machine.State() != reorder.Idle {
		return ErrDragInProgress
	}
	if e.settling {
		return ErrSaving
	}
	return nil
}

// beginWrite records an item request in flight. Callers hold e.mu.
func (e *Editor) beginWrite() {
	e.writes++
}

func (e *Editor) endWrite() {
	e.mu.Lock()
	e.writes--
	idle := e.writes == 0
	e.mu.Unlock()
	if idle {
		e.onChange()
	}
}

// setItems replaces the local items. Callers hold e.mu and have checked editable.
func (e *Editor) setItems(items []model.Item) {
	e.machine.SetItems(items)
}

func findItem(items []model.Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) lookup(itemID string) ([]model.Item, int, error) {
	items := e.machine.Items()
	i := findItem(items, itemID)
	if i < 0 {
		return nil, -1, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	if strings.HasPrefix(itemID, tempIDPrefix) {
		return nil, -1, fmt.Errorf("%w: item is still being created", ErrInvalidInput)
	}
	return items, i, nil
}

// SetTitle changes the title locally and saves it once typing pauses.
func (e *Editor) SetTitle(title string) error {
	e.mu.Lock()
	if e.checklist.Locked {
		e.mu.Unlock()
		return ErrLocked
	}
	e.checklist.Title = title
	e.mu.Unlock()

	e.title.Call(func() { e.saveChecklist(context.Background()) })
	e.onChange()
	return nil
}

func (e *Editor) saveChecklist(ctx context.Context) {
	e.mu.Lock()
	title, locked := e.checklist.Title, e.checklist.Locked
	e.mu.Unlock()

	cl, err := e.api.UpdateChecklist(ctx, e.id, e.shared, title, locked)
	if err != nil {
		e.fail(ctx, "save title", err)
		return
	}
	e.mu.Lock()
	e.checklist.UpdatedAt = cl.UpdatedAt
	e.mu.Unlock()
	e.confirmed()
}

// EditItem changes an item's content locally and saves it once typing pauses.
func (e *Editor) EditItem(itemID, content string) error {
	e.mu.Lock()
	if err := e.editable(); err != nil {
		e.mu.Unlock()
		return err
	}
	items, i, err := e.lookup(itemID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	items[i].Content = content
	e.setItems(items)
	e.mu.Unlock()

	e.content.Call(itemID, func() { e.saveItem(context.Background(), itemID) })
	e.onChange()
	return nil
}

func (e *Editor) saveItem(ctx context.Context, itemID string) {
	e.mu.Lock()
	items := e.machine.Items()
	i := findItem(items, itemID)
	e.mu.Unlock()
	if i < 0 {
		// Deleted before the edit was flushed.
		return
	}

	if _, err := e.api.UpdateItem(ctx, e.id, e.shared, items[i]); err != nil {
		e.fail(ctx, "save item", err)
		return
	}
	e.confirmed()
}

// ToggleItem flips an item's checked state and saves it at once, restoring the previous state
// when the request fails.
func (e *Editor) ToggleItem(ctx context.Context, itemID string) error {
	e.mu.Lock()
	if err := e.editable(); err != nil {
		e.mu.Unlock()
		return err
	}
	items, i, err := e.lookup(itemID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	items[i].Checked = !items[i].Checked
	item := items[i]
	e.setItems(items)
	e.beginWrite()
	e.mu.Unlock()
	defer e.endWrite()
	e.onChange()

	if _, err := e.api.UpdateItem(ctx, e.id, e.shared, item); err != nil {
		e.mu.Lock()
		e.restore(itemID, func(it *model.Item) { it.Checked = !item.Checked })
		e.mu.Unlock()
		e.onChange()
		return mapError(err)
	}
	e.confirmed()
	return nil
}

// restore applies fn to the item if it still exists. Callers hold e.mu.
func (e *Editor) restore(itemID string, fn func(it *model.Item)) {
	items := e.machine.Items()
	if i := findItem(items, itemID); i >= 0 {
		fn(&items[i])
		e.machine.SetItems(items)
	}
}

// AddItem appends an item. A temporary row is shown until the server confirms it and is
// removed again if the request fails.
func (e *Editor) AddItem(ctx context.Context, content string) (model.Item, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Item{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	e.mu.Lock()
	if err := e.editable(); err != nil {
		e.mu.Unlock()
		return model.Item{}, err
	}
	items := e.machine.Items()
	temp := model.Item{
		ID:       tempIDPrefix + uuid.NewString(),
		Content:  content,
		Ordering: model.NextOrdering(items),
	}
	e.setItems(append(items, temp))
	e.beginWrite()
	e.mu.Unlock()
	defer e.endWrite()
	e.onChange()

	created, err := e.api.CreateItem(ctx, e.id, e.shared, temp.Content, temp.Ordering)

	e.mu.Lock()
	items = e.machine.Items()
	if i := findItem(items, temp.ID); i >= 0 {
		if err != nil {
			items = append(items[:i], items[i+1:]...)
		} else {
			items[i] = created
		}
		e.machine.SetItems(items)
	}
	e.mu.Unlock()
	e.onChange()

	if err != nil {
		return model.Item{}, mapError(err)
	}
	e.confirmed()
	return created, nil
}

// DeleteItem removes one item and closes the gap it leaves in the orderings.
func (e *Editor) DeleteItem(ctx context.Context, itemID string) error {
	e.mu.Lock()
	if err := e.editable(); err != nil {
		e.mu.Unlock()
		return err
	}
	items, i, err := e.lookup(itemID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	removed := items[i]
	e.setItems(append(items[:i:i], items[i+1:]...))
	e.beginWrite()
	e.mu.Unlock()
	defer e.endWrite()
	e.content.Cancel(itemID)
	e.onChange()

	if err := e.api.DeleteItem(ctx, e.id, e.shared, itemID); err != nil {
		e.mu.Lock()
		e.machine.SetItems(append(e.machine.Items(), removed))
		e.mu.Unlock()
		e.onChange()
		return mapError(err)
	}

	if err := e.densify(ctx); err != nil {
		return err
	}
	e.confirmed()
	return nil
}

// DeleteCompleted removes every checked item, one request per item.
func (e *Editor) DeleteCompleted(ctx context.Context) (int, error) {
	e.mu.Lock()
	if err := e.editable(); err != nil {
		e.mu.Unlock()
		return 0, err
	}
	items := e.machine.Items()
	var ids []string
	kept := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.Checked && !strings.HasPrefix(it.ID, tempIDPrefix) {
			ids = append(ids, it.ID)
			continue
		}
		kept = append(kept, it)
	}
	if len(ids) == 0 {
		e.mu.Unlock()
		return 0, nil
	}
	e.setItems(kept)
	e.beginWrite()
	e.mu.Unlock()
	defer e.endWrite()
	for _, id := range ids {
		e.content.Cancel(id)
	}
	e.onChange()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWrites)
	for _, id := range ids {
		g.Go(func() error {
			return e.api.DeleteItem(gctx, e.id, e.shared, id)
		})
	}
	if err := g.Wait(); err != nil {
		// Some deletes may have gone through; take the server's word for what is left.
		if rerr := e.Reload(ctx); rerr != nil {
			e.logger.WarnContext(ctx, "reload after failed delete", "error", rerr)
		}
		return 0, mapError(err)
	}

	if err := e.densify(ctx); err != nil {
		return len(ids), err
	}
	e.confirmed()
	return len(ids), nil
}

// densify rewrites orderings to 0..n-1 after items were removed.
func (e *Editor) densify(ctx context.Context) error {
	e.mu.Lock()
	if e.machine.State() != reorder.Idle {
		e.mu.Unlock()
		return nil
	}
	items := e.machine.Items()
	var changed []model.Item
	for i := range items {
		if items[i].Ordering != i {
			items[i].Ordering = i
			if !strings.HasPrefix(items[i].ID, tempIDPrefix) {
				changed = append(changed, items[i])
			}
		}
	}
	e.machine.SetItems(items)
	e.mu.Unlock()

	if err := e.writeItems(ctx, changed); err != nil {
		return mapError(err)
	}
	return nil
}

func (e *Editor) writeItems(ctx context.Context, items []model.Item) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWrites)
	for _, it := range items {
		g.Go(func() error {
			_, err := e.api.UpdateItem(gctx, e.id, e.shared, it)
			return err
		})
	}
	return g.Wait()
}

// ToggleAll checks or unchecks every item with one request.
func (e *Editor) ToggleAll(ctx context.Context, checked bool) error {
	e.mu.Lock()
	if err := e.editable(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.beginWrite()
	e.mu.Unlock()
	defer e.endWrite()

	if err := e.api.ToggleAllItems(ctx, e.id, e.shared, checked); err != nil {
		return mapError(err)
	}

	e.mu.Lock()
	items := e.machine.Items()
	for i := range items {
		items[i].Checked = checked
	}
	e.machine.SetItems(items)
	e.mu.Unlock()
	e.confirmed()
	return nil
}

// SetLocked locks or unlocks the checklist. Unlike other edits it is allowed on a locked list.
func (e *Editor) SetLocked(ctx context.Context, locked bool) error {
	e.mu.Lock()
	prev := e.checklist.Locked
	e.checklist.Locked = locked
	e.machine.SetLocked(locked)
	title := e.checklist.Title
	e.mu.Unlock()
	// The pending title goes out with this request.
	e.title.Cancel()
	e.onChange()

	cl, err := e.api.UpdateChecklist(ctx, e.id, e.shared, title, locked)
	if err != nil {
		e.mu.Lock()
		e.checklist.Locked = prev
		e.machine.SetLocked(prev)
		e.mu.Unlock()
		e.onChange()
		return mapError(err)
	}
	e.mu.Lock()
	e.checklist.UpdatedAt = cl.UpdatedAt
	e.mu.Unlock()
	e.confirmed()
	return nil
}

// BeginDrag starts dragging the item at index. It returns ErrSaving while item writes are
// in flight, since their results could not be applied to a list being reordered.
func (e *Editor) BeginDrag(index int, modality reorder.Modality, point reorder.Point, row reorder.Rect) error {
	e.mu.Lock()
	if e.checklist.Locked {
		e.mu.Unlock()
		return ErrLocked
	}
	if e.writes > 0 {
		e.mu.Unlock()
		return ErrSaving
	}
	ok := e.machine.Start(index, modality, point, row)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no item at index %d", ErrInvalidInput, index)
	}
	e.onChange()
	return nil
}

// DragEnter moves the dragged item to index. It reports whether the order changed.
func (e *Editor) DragEnter(index int) bool {
	e.mu.Lock()
	changed := e.machine.Enter(index)
	e.mu.Unlock()
	if changed {
		e.onChange()
	}
	return changed
}

// DragMove moves the dragged item following a raw pointer position.
func (e *Editor) DragMove(p reorder.Point, rows []reorder.Rect) bool {
	e.mu.Lock()
	_, touch := e.machine.Ghost()
	changed := e.machine.Move(p, rows)
	e.mu.Unlock()
	if changed || touch {
		e.onChange()
	}
	return changed
}

// EndDrag settles the drag and saves the new orderings in the background. Use Wait to block
// until they are written.
func (e *Editor) EndDrag() []reorder.Change {
	e.mu.Lock()
	changes := e.machine.End()
	items := e.machine.Items()
	if len(changes) > 0 {
		e.beginWrite()
		e.settling = true
	}
	e.mu.Unlock()
	e.onChange()
	if len(changes) == 0 {
		return changes
	}

	toWrite := make([]model.Item, 0, len(changes))
	for _, ch := range changes {
		if i := findItem(items, ch.ItemID); i >= 0 && !strings.HasPrefix(ch.ItemID, tempIDPrefix) {
			toWrite = append(toWrite, items[i])
		}
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.endWrite()
		defer e.settled()
		ctx := context.Background()
		if err := e.writeItems(ctx, toWrite); err != nil {
			e.fail(ctx, "save order", err)
			return
		}
		e.logger.DebugContext(ctx, "order saved", "changes", len(toWrite))
		e.confirmed()
	}()
	return changes
}

func (e *Editor) settled() {
	e.mu.Lock()
	e.settling = false
	e.mu.Unlock()
}

func (e *Editor) CancelDrag() {
	e.mu.Lock()
	e.machine.Cancel()
	e.mu.Unlock()
	e.onChange()
}

// Wait blocks until background writes have finished.
func (e *Editor) Wait() {
	e.wg.Wait()
}

// Flush sends pending debounced edits now.
func (e *Editor) Flush() {
	e.title.Flush()
	e.content.FlushAll()
}

// Close flushes pending edits and waits for background writes. When ctx ends first, Close
// returns ctx.Err() and the flush keeps running detached until its requests finish; every
// request it sends is bounded by the HTTP client timeout.
func (e *Editor) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.Flush()
		e.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// confirmed invalidates the queries a successful write made stale and notifies the view.
func (e *Editor) confirmed() {
	e.cache.Invalidate(cache.ChecklistKey(e.id))
	e.cache.Invalidate(cache.KeyChecklists)
	e.cache.Invalidate(cache.KeySharedChecklists)
	e.onChange()
}

func (e *Editor) fail(ctx context.Context, op string, err error) {
	err = mapError(err)
	e.logger.ErrorContext(ctx, op+" failed", "error", err)
	if !errors.Is(err, ErrNotAuthenticated) {
		// Resync with the server so the view does not show writes that never landed.
		if rerr := e.Reload(ctx); rerr != nil {
			e.logger.WarnContext(ctx, "reload after failed write", "error", rerr)
		}
	}
	e.onError(fmt.Errorf("failed to %s: %w", op, err))
}
