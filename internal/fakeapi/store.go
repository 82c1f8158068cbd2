package fakeapi

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/listo/internal/model"
)

type checklist struct {
	model.Checklist
	owner   string
	members []string
	items   []model.Item
	code    string
}

func (c *checklist) isMember(userID string) bool {
	return slices.Contains(c.members, userID)
}

// Store keeps users, checklists and share codes in memory.
type Store struct {
	mu     sync.Mutex
	users  map[string]model.User
	lists  map[string]*checklist
	codes  map[string]string
	now    func() time.Time
	nextID func() string
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]model.User),
		lists:  make(map[string]*checklist),
		codes:  make(map[string]string),
		now:    func() time.Time { return time.Now().UTC() },
		nextID: uuid.NewString,
	}
}

// EnsureUser returns the user with the given ID, creating it on first use.
func (s *Store) EnsureUser(ctx context.Context, userID, email, picture string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	u := model.User{ID: userID, Email: email, Picture: picture, CreatedAt: s.now()}
	s.users[userID] = u
	return u, nil
}

func (s *Store) User(ctx context.Context, userID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// Lists returns the checklists owned by userID.
func (s *Store) Lists(ctx context.Context, userID string) ([]model.Checklist, error) {
	return s.filter(func(c *checklist) bool { return c.owner == userID }), nil
}

// SharedLists returns the checklists userID collaborates on.
func (s *Store) SharedLists(ctx context.Context, userID string) ([]model.Checklist, error) {
	return s.filter(func(c *checklist) bool { return c.isMember(userID) }), nil
}

func (s *Store) filter(keep func(c *checklist) bool) []model.Checklist {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Checklist{}
	for _, c := range s.lists {
		if keep(c) {
			out = append(out, s.view(c))
		}
	}
	model.SortByUpdatedDesc(out)
	return out
}

// view copies c with its collaborators filled in, owner first.
func (s *Store) view(c *checklist) model.Checklist {
	cl := c.Checklist
	cl.Collaborators = make([]model.Collaborator, 0, len(c.members)+1)
	for _, id := range append([]string{c.owner}, c.members...) {
		u, ok := s.users[id]
		if !ok {
			u = model.User{Email: id}
		}
		cl.Collaborators = append(cl.Collaborators, model.Collaborator{Email: u.Email, Picture: u.Picture})
	}
	return cl
}

func (s *Store) CreateList(ctx context.Context, userID, title string) (model.Checklist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Checklist{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := &checklist{
		Checklist: model.Checklist{ID: s.nextID(), Title: title, CreatedAt: now, UpdatedAt: now},
		owner:     userID,
		items:     []model.Item{},
	}
	s.lists[c.ID] = c
	return s.view(c), nil
}

// access returns the checklist if userID may reach it through the own (shared=false) or
// collaborator (shared=true) path.
func (s *Store) access(userID, id string, shared bool) (*checklist, error) {
	c, ok := s.lists[id]
	if !ok {
		return nil, ErrNotFound
	}
	if shared && !c.isMember(userID) {
		return nil, ErrForbidden
	}
	if !shared && c.owner != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *Store) List(ctx context.Context, userID, id string, shared bool) (model.ChecklistDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.access(userID, id, shared)
	if err != nil {
		return model.ChecklistDetail{}, err
	}
	items := slices.Clone(c.items)
	model.SortItems(items)
	return model.ChecklistDetail{Checklist: s.view(c), Items: items}, nil
}

func (s *Store) UpdateList(ctx context.Context, userID, id string, shared bool, title string, locked bool) (model.Checklist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Checklist{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.access(userID, id, shared)
	if err != nil {
		return model.Checklist{}, err
	}
	c.Title = title
	c.Locked = locked
	c.UpdatedAt = s.now()
	return s.view(c), nil
}

// DeleteList removes a checklist. Only its owner may do that.
func (s *Store) DeleteList(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.access(userID, id, false)
	if err != nil {
		return err
	}
	delete(s.codes, c.code)
	delete(s.lists, id)
	return nil
}

// ShareCode returns the checklist's share code, minting one on first request.
func (s *Store) ShareCode(ctx context.Context, userID, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.access(userID, id, false)
	if err != nil {
		return "", err
	}
	if c.code == "" {
		c.code = newShareCode(s.nextID())
		s.codes[c.code] = c.ID
	}
	return c.code, nil
}

// Join makes userID a collaborator of the checklist behind code. Joining twice, or joining
// one's own checklist, changes nothing.
func (s *Store) Join(ctx context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.lists[s.codes[code]]
	if !ok {
		return ErrNotFound
	}
	if c.owner == userID || c.isMember(userID) {
		return nil
	}
	c.members = append(c.members, userID)
	return nil
}

func (s *Store) Leave(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.access(userID, id, true)
	if err != nil {
		return err
	}
	c.members = slices.DeleteFunc(c.members, func(m string) bool { return m == userID })
	return nil
}

// editable is access plus the lock check used by every item mutation.
func (s *Store) editable(userID, id string, shared bool) (*checklist, error) {
	c, err := s.access(userID, id, shared)
	if err != nil {
		return nil, err
	}
	if c.Locked {
		return nil, ErrLocked
	}
	return c, nil
}

func (s *Store) CreateItem(ctx context.Context, userID, id string, shared bool, content string, ordering int) (model.Item, error) {
	if strings.TrimSpace(content) == "" || ordering < 0 {
		return model.Item{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.editable(userID, id, shared)
	if err != nil {
		return model.Item{}, err
	}
	now := s.now()
	it := model.Item{ID: s.nextID(), Content: content, Ordering: ordering, CreatedAt: now, UpdatedAt: now}
	c.items = append(c.items, it)
	c.UpdatedAt = now
	return it, nil
}

func (s *Store) UpdateItem(ctx context.Context, userID, id string, shared bool, item model.Item) (model.Item, error) {
	if item.Ordering < 0 {
		return model.Item{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.editable(userID, id, shared)
	if err != nil {
		return model.Item{}, err
	}
	i := slices.IndexFunc(c.items, func(it model.Item) bool { return it.ID == item.ID })
	if i < 0 {
		return model.Item{}, ErrNotFound
	}
	now := s.now()
	it := &c.items[i]
	it.Content = item.Content
	it.Checked = item.Checked
	it.Ordering = item.Ordering
	it.UpdatedAt = now
	c.UpdatedAt = now
	return *it, nil
}

// ToggleAll sets every item's checked state in one step.
func (s *Store) ToggleAll(ctx context.Context, userID, id string, shared bool, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.editable(userID, id, shared)
	if err != nil {
		return err
	}
	now := s.now()
	for i := range c.items {
		c.items[i].Checked = checked
		c.items[i].UpdatedAt = now
	}
	c.UpdatedAt = now
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, userID, id string, shared bool, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.editable(userID, id, shared)
	if err != nil {
		return err
	}
	n := len(c.items)
	c.items = slices.DeleteFunc(c.items, func(it model.Item) bool { return it.ID == itemID })
	if len(c.items) == n {
		return ErrNotFound
	}
	c.UpdatedAt = s.now()
	return nil
}

var _ Backend = (*Store)(nil)
