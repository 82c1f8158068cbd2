package fakeapi

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jaekwang-park/listo/internal/model"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrLocked       = errors.New("checklist is locked")
	ErrInvalidInput = errors.New("invalid input")
)

// Backend stores what the API serves. Checklists are reached through the own path
// (shared=false, owner only) or the shared path (shared=true, collaborators only). Item
// mutations on a locked checklist fail with ErrLocked.
type Backend interface {
	EnsureUser(ctx context.Context, userID, email, picture string) (model.User, error)
	User(ctx context.Context, userID string) (model.User, error)

	Lists(ctx context.Context, userID string) ([]model.Checklist, error)
	SharedLists(ctx context.Context, userID string) ([]model.Checklist, error)
	CreateList(ctx context.Context, userID, title string) (model.Checklist, error)
	List(ctx context.Context, userID, id string, shared bool) (model.ChecklistDetail, error)
	UpdateList(ctx context.Context, userID, id string, shared bool, title string, locked bool) (model.Checklist, error)
	DeleteList(ctx context.Context, userID, id string) error

	ShareCode(ctx context.Context, userID, id string) (string, error)
	Join(ctx context.Context, userID, code string) error
	Leave(ctx context.Context, userID, id string) error

	CreateItem(ctx context.Context, userID, id string, shared bool, content string, ordering int) (model.Item, error)
	UpdateItem(ctx context.Context, userID, id string, shared bool, item model.Item) (model.Item, error)
	ToggleAll(ctx context.Context, userID, id string, shared bool, checked bool) error
	DeleteItem(ctx context.Context, userID, id string, shared bool, itemID string) error
}

// NewShareCode returns a random 8 character share code.
func NewShareCode() string {
	return newShareCode(uuid.NewString())
}

func newShareCode(id string) string {
	return strings.ReplaceAll(id, "-", "")[:8]
}
