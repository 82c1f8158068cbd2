// Package backendtest checks that a fakeapi.Backend implements the checklist API rules.
package backendtest

import (
	"context"
	"errors"
	"testing"

	"github.com/jaekwang-park/listo/internal/fakeapi"
	"github.com/jaekwang-park/listo/internal/model"
)

// Run exercises a backend. newBackend must return an empty backend on every call.
func Run(t *testing.T, newBackend func(t *testing.T) fakeapi.Backend) {
	t.Run("Access", func(t *testing.T) { testAccess(t, newBackend(t)) })
	t.Run("SharingLifecycle", func(t *testing.T) { testSharingLifecycle(t, newBackend(t)) })
	t.Run("LockedListRejectsItemChanges", func(t *testing.T) { testLocked(t, newBackend(t)) })
	t.Run("Items", func(t *testing.T) { testItems(t, newBackend(t)) })
}

// sharedList creates "Groceries" owned by owner with guest joined through its share code.
func sharedList(t *testing.T, b fakeapi.Backend) model.Checklist {
	t.Helper()
	ctx := context.Background()
	for _, id := range []string{"owner", "guest"} {
		if _, err := b.EnsureUser(ctx, id, id+"@example.com", ""); err != nil {
			t.Fatalf("EnsureUser(%s) error: %v", id, err)
		}
	}
	cl, err := b.CreateList(ctx, "owner", "Groceries")
	if err != nil {
		t.Fatalf("CreateList() error: %v", err)
	}
	code, err := b.ShareCode(ctx, "owner", cl.ID)
	if err != nil {
		t.Fatalf("ShareCode() error: %v", err)
	}
	if err := b.Join(ctx, "guest", code); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	return cl
}

func testAccess(t *testing.T, b fakeapi.Backend) {
	cl := sharedList(t, b)

	tests := []struct {
		name    string
		userID  string
		id      string
		shared  bool
		wantErr error
	}{
		{"owner own path", "owner", cl.ID, false, nil},
		{"owner shared path", "owner", cl.ID, true, fakeapi.ErrForbidden},
		{"guest shared path", "guest", cl.ID, true, nil},
		{"guest own path", "guest", cl.ID, false, fakeapi.ErrForbidden},
		{"stranger", "stranger", cl.ID, true, fakeapi.ErrForbidden},
		{"missing", "owner", "nope", false, fakeapi.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.List(context.Background(), tt.userID, tt.id, tt.shared)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := b.CreateList(context.Background(), "owner", "  "); !errors.Is(err, fakeapi.ErrInvalidInput) {
		t.Errorf("blank title: expected ErrInvalidInput, got %v", err)
	}
	u, err := b.User(context.Background(), "owner")
	if err != nil || u.Email != "owner@example.com" {
		t.Errorf("User(owner)=(%+v, %v)", u, err)
	}
	if _, err := b.User(context.Background(), "stranger"); !errors.Is(err, fakeapi.ErrNotFound) {
		t.Errorf("unknown user: expected ErrNotFound, got %v", err)
	}
}

func mustShared(t *testing.T, b fakeapi.Backend, userID string) []model.Checklist {
	t.Helper()
	lists, err := b.SharedLists(context.Background(), userID)
	if err != nil {
		t.Fatalf("SharedLists(%s) error: %v", userID, err)
	}
	return lists
}

func testSharingLifecycle(t *testing.T, b fakeapi.Backend) {
	ctx := context.Background()
	cl := sharedList(t, b)

	shared := mustShared(t, b, "guest")
	if len(shared) != 1 || shared[0].ID != cl.ID {
		t.Fatalf("SharedLists(guest)=%v", shared)
	}
	collabs := shared[0].Collaborators
	if len(collabs) != 2 || collabs[0].Email != "owner@example.com" {
		t.Errorf("collaborators=%v, want owner first then guest", collabs)
	}
	if own, err := b.Lists(ctx, "guest"); err != nil || len(own) != 0 {
		t.Errorf("Lists(guest)=(%v, %v), want none", own, err)
	}

	code, _ := b.ShareCode(ctx, "owner", cl.ID)
	if again, _ := b.ShareCode(ctx, "owner", cl.ID); again != code {
		t.Errorf("share code changed: %s then %s", code, again)
	}
	if len(code) != 8 {
		t.Errorf("share code %q, want 8 characters", code)
	}
	if err := b.Join(ctx, "guest", code); err != nil {
		t.Errorf("second Join() error: %v", err)
	}
	if err := b.Join(ctx, "owner", code); err != nil {
		t.Errorf("owner Join() error: %v", err)
	}
	if got := len(mustShared(t, b, "guest")[0].Collaborators); got != 2 {
		t.Errorf("joining twice added a collaborator: %d", got)
	}
	if err := b.Join(ctx, "guest", "unknown"); !errors.Is(err, fakeapi.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown code, got %v", err)
	}
	if _, err := b.ShareCode(ctx, "guest", cl.ID); !errors.Is(err, fakeapi.ErrForbidden) {
		t.Errorf("guest should not mint share codes, got %v", err)
	}

	if err := b.Leave(ctx, "guest", cl.ID); err != nil {
		t.Fatalf("Leave() error: %v", err)
	}
	if shared := mustShared(t, b, "guest"); len(shared) != 0 {
		t.Errorf("SharedLists after leave=%v", shared)
	}
	if err := b.DeleteList(ctx, "guest", cl.ID); !errors.Is(err, fakeapi.ErrForbidden) {
		t.Errorf("guest delete: expected ErrForbidden, got %v", err)
	}
	if err := b.DeleteList(ctx, "owner", cl.ID); err != nil {
		t.Errorf("owner delete: %v", err)
	}
	if err := b.Join(ctx, "guest", code); !errors.Is(err, fakeapi.ErrNotFound) {
		t.Errorf("code of deleted list: expected ErrNotFound, got %v", err)
	}
}

func testLocked(t *testing.T, b fakeapi.Backend) {
	ctx := context.Background()
	cl := sharedList(t, b)
	it, err := b.CreateItem(ctx, "owner", cl.ID, false, "Milk", 0)
	if err != nil {
		t.Fatalf("CreateItem() error: %v", err)
	}
	locked, err := b.UpdateList(ctx, "owner", cl.ID, false, "Groceries", true)
	if err != nil || !locked.Locked {
		t.Fatalf("lock: (%+v, %v)", locked, err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"create", func() error { _, err := b.CreateItem(ctx, "owner", cl.ID, false, "Eggs", 1); return err }},
		{"update", func() error { _, err := b.UpdateItem(ctx, "guest", cl.ID, true, it); return err }},
		{"toggle all", func() error { return b.ToggleAll(ctx, "owner", cl.ID, false, true) }},
		{"delete", func() error { return b.DeleteItem(ctx, "owner", cl.ID, false, it.ID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, fakeapi.ErrLocked) {
				t.Errorf("expected ErrLocked, got %v", err)
			}
		})
	}

	if _, err := b.UpdateList(ctx, "guest", cl.ID, true, "Groceries", false); err != nil {
		t.Errorf("unlocking should always be allowed: %v", err)
	}
}

func testItems(t *testing.T, b fakeapi.Backend) {
	ctx := context.Background()
	cl := sharedList(t, b)
	for i, content := range []string{"A", "B", "C"} {
		if _, err := b.CreateItem(ctx, "owner", cl.ID, false, content, i); err != nil {
			t.Fatalf("CreateItem(%s) error: %v", content, err)
		}
	}
	if _, err := b.CreateItem(ctx, "owner", cl.ID, false, "  ", 3); !errors.Is(err, fakeapi.ErrInvalidInput) {
		t.Errorf("blank content: expected ErrInvalidInput, got %v", err)
	}
	if _, err := b.CreateItem(ctx, "owner", cl.ID, false, "D", -1); !errors.Is(err, fakeapi.ErrInvalidInput) {
		t.Errorf("negative ordering: expected ErrInvalidInput, got %v", err)
	}

	if err := b.ToggleAll(ctx, "guest", cl.ID, true, true); err != nil {
		t.Fatalf("ToggleAll() error: %v", err)
	}
	detail, err := b.List(ctx, "owner", cl.ID, false)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	var got []string
	for _, it := range detail.Items {
		got = append(got, it.Content)
		if !it.Checked {
			t.Errorf("item %s not checked", it.Content)
		}
	}
	if len(got) != 3 || got[0] != "A" || got[2] != "C" {
		t.Errorf("items=%v, want ordered A B C", got)
	}

	first := detail.Items[0]
	first.Ordering = 2
	first.Content = "A!"
	updated, err := b.UpdateItem(ctx, "owner", cl.ID, false, first)
	if err != nil {
		t.Fatalf("UpdateItem() error: %v", err)
	}
	if updated.Content != "A!" || updated.Ordering != 2 || !updated.Checked {
		t.Errorf("UpdateItem()=%+v", updated)
	}
	missing := first
	missing.ID = "missing"
	if _, err := b.UpdateItem(ctx, "owner", cl.ID, false, missing); !errors.Is(err, fakeapi.ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}
	if err := b.DeleteItem(ctx, "owner", cl.ID, false, "missing"); !errors.Is(err, fakeapi.ErrNotFound) {
		t.Errorf("delete missing: expected ErrNotFound, got %v", err)
	}
	if err := b.DeleteItem(ctx, "owner", cl.ID, false, first.ID); err != nil {
		t.Errorf("DeleteItem() error: %v", err)
	}
	detail, _ = b.List(ctx, "owner", cl.ID, false)
	if len(detail.Items) != 2 {
		t.Errorf("items=%d, want 2", len(detail.Items))
	}
}
