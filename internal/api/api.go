package api

import (
	"context"

	"github.com/jaekwang-park/listo/internal/model"
)

// ChecklistAPI is the backend surface used by the editing layer. Every method maps to one endpoint.
type ChecklistAPI interface {
	ListChecklists(ctx context.Context) ([]model.Checklist, error)
	ListSharedChecklists(ctx context.Context) ([]model.Checklist, error)
	GetChecklist(ctx context.Context, checklistID string, shared bool) (model.ChecklistDetail, error)
	CreateChecklist(ctx context.Context, title string) (model.Checklist, error)
	UpdateChecklist(ctx context.Context, checklistID string, shared bool, title string, locked bool) (model.Checklist, error)
	DeleteChecklist(ctx context.Context, checklistID string) error
	GetShareCode(ctx context.Context, checklistID string) (string, error)
	JoinSharedChecklist(ctx context.Context, shortCode string) error
	LeaveSharedChecklist(ctx context.Context, checklistID string) error

	CreateItem(ctx context.Context, checklistID string, shared bool, content string, ordering int) (model.Item, error)
	UpdateItem(ctx context.Context, checklistID string, shared bool, item model.Item) (model.Item, error)
	ToggleAllItems(ctx context.Context, checklistID string, shared bool, checked bool) error
	DeleteItem(ctx context.Context, checklistID string, shared bool, itemID string) error
}

// UserAPI covers the user endpoints.
type UserAPI interface {
	GetUser(ctx context.Context) (model.User, error)
	CreateUser(ctx context.Context) (model.User, error)
}

// ensure compile-time interface compliance
var (
	_ ChecklistAPI = (*Client)(nil)
	_ UserAPI      = (*Client)(nil)
)
