package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jaekwang-park/listo/internal/api"
	"github.com/jaekwang-park/listo/internal/cache"
	"github.com/jaekwang-park/listo/internal/model"
	"github.com/jaekwang-park/listo/internal/service"
)

func newChecklistService(m *mockAPI) (*service.ChecklistService, *cache.Cache) {
	c := newCache()
	return service.NewChecklistService(m, c, "https://listo.example.com/", time.Minute, discardLogger), c
}

func TestChecklistService_ListSortedByUpdatedDesc(t *testing.T) {
	m := &mockAPI{listChecklistsFn: func(context.Context) ([]model.Checklist, error) {
		return []model.Checklist{
			{ID: "old", UpdatedAt: now},
			{ID: "new", UpdatedAt: now.Add(time.Hour)},
			{ID: "mid", UpdatedAt: now.Add(time.Minute)},
		}, nil
	}}
	svc, _ := newChecklistService(m)

	lists, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{lists[0].ID, lists[1].ID, lists[2].ID}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v, want %v", got, want)
		}
	}

	_, _ = svc.List(context.Background())
	if n := m.count("ListChecklists"); n != 2 {
		t.Errorf("ListChecklists calls=%d, overviews must always refetch", n)
	}
}

func TestChecklistService_Create(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantTitle string
	}{
		{"explicit title", "Groceries", "Groceries"},
		{"default title", "  ", model.DefaultChecklistTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			m := &mockAPI{createChecklistFn: func(_ context.Context, title string) (model.Checklist, error) {
				got = title
				return model.Checklist{ID: "cl-1", Title: title}, nil
			}}
			svc, c := newChecklistService(m)
			c.Set(cache.KeyChecklists, []model.Checklist{})

			if _, err := svc.Create(context.Background(), tt.title); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantTitle {
				t.Errorf("title=%q, want %q", got, tt.wantTitle)
			}
			if _, ok := cache.Get[[]model.Checklist](c, cache.KeyChecklists); ok {
				t.Error("lists should be invalidated after create")
			}
		})
	}
}

func TestChecklistService_Create_ServerErrorLeavesListsUntouched(t *testing.T) {
	m := &mockAPI{createChecklistFn: func(context.Context, string) (model.Checklist, error) {
		return model.Checklist{}, &api.RequestFailedError{Op: "create checklist", Status: http.StatusInternalServerError}
	}}
	svc, c := newChecklistService(m)
	cached := []model.Checklist{{ID: "existing"}}
	c.Set(cache.KeyChecklists, cached)

	_, err := svc.Create(context.Background(), "x")
	if !errors.Is(err, api.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if n := m.count("CreateChecklist"); n != 1 {
		t.Errorf("CreateChecklist calls=%d, want 1 (no retry)", n)
	}
	got, ok := cache.Get[[]model.Checklist](c, cache.KeyChecklists)
	if !ok || len(got) != 1 || got[0].ID != "existing" {
		t.Errorf("cached lists changed: %v", got)
	}
}

func TestChecklistService_RenameLocked(t *testing.T) {
	m := &mockAPI{getChecklistFn: func(context.Context, string, bool) (model.ChecklistDetail, error) {
		return detailOf(true, nil), nil
	}}
	svc, _ := newChecklistService(m)

	if _, err := svc.Rename(context.Background(), "cl-1", false, "New"); !errors.Is(err, service.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if m.count("UpdateChecklist") != 0 {
		t.Error("locked rename must not send an update")
	}
}

func TestChecklistService_SetLockedKeepsTitle(t *testing.T) {
	var gotTitle string
	var gotLocked bool
	m := &mockAPI{
		getChecklistFn: func(context.Context, string, bool) (model.ChecklistDetail, error) {
			return detailOf(false, nil), nil
		},
		updateChecklistFn: func(_ context.Context, _ string, _ bool, title string, locked bool) (model.Checklist, error) {
			gotTitle, gotLocked = title, locked
			return model.Checklist{ID: "cl-1", Title: title, Locked: locked}, nil
		},
	}
	svc, _ := newChecklistService(m)

	if _, err := svc.SetLocked(context.Background(), "cl-1", false, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTitle != "Groceries" || !gotLocked {
		t.Errorf("update sent (%q, %v)", gotTitle, gotLocked)
	}
}

func TestChecklistService_ShareLink(t *testing.T) {
	m := &mockAPI{getShareCodeFn: func(context.Context, string) (string, error) {
		return "abc123", nil
	}}
	svc, _ := newChecklistService(m)

	link, err := svc.ShareLink(context.Background(), "cl-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link != "https://listo.example.com/share/abc123" {
		t.Errorf("link=%s", link)
	}
}

func TestParseShareCode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare code", "abc123", "abc123", false},
		{"trimmed", "  abc123\n", "abc123", false},
		{"link", "https://listo.example.com/share/abc123", "abc123", false},
		{"link with query", "https://listo.example.com/share/abc123?ref=mail", "abc123", false},
		{"empty", "", "", true},
		{"link without code", "https://listo.example.com/share/", "", true},
		{"path", "foo/bar", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.ParseShareCode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, service.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got (%q, %v), want %q", got, err, tt.want)
			}
		})
	}
}

func TestChecklistService_JoinAndLeave(t *testing.T) {
	var joined, left string
	m := &mockAPI{
		joinSharedChecklistFn: func(_ context.Context, code string) error {
			joined = code
			return nil
		},
		leaveSharedChecklistFn: func(_ context.Context, id string) error {
			left = id
			return nil
		},
	}
	svc, c := newChecklistService(m)
	c.Set(cache.KeySharedChecklists, []model.Checklist{})

	if _, err := svc.Join(context.Background(), "https://listo.example.com/share/abc123"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if joined != "abc123" {
		t.Errorf("joined=%q", joined)
	}
	if _, ok := cache.Get[[]model.Checklist](c, cache.KeySharedChecklists); ok {
		t.Error("shared lists should be invalidated after join")
	}
	if err := svc.Leave(context.Background(), "cl-9"); err != nil || left != "cl-9" {
		t.Errorf("Leave()=%v left=%q", err, left)
	}
}

func TestChecklistService_DeleteNotFound(t *testing.T) {
	m := &mockAPI{deleteChecklistFn: func(context.Context, string) error {
		return &api.RequestFailedError{Op: "delete checklist", Status: http.StatusNotFound}
	}}
	svc, _ := newChecklistService(m)

	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestChecklistService_Find(t *testing.T) {
	m := &mockAPI{
		listChecklistsFn: func(context.Context) ([]model.Checklist, error) {
			return []model.Checklist{{ID: "1", Title: "Groceries"}, {ID: "2", Title: "Packing list"}}, nil
		},
		listSharedChecklistsFn: func(context.Context) ([]model.Checklist, error) {
			return []model.Checklist{{ID: "3", Title: "Group gift"}}, nil
		},
	}
	svc, _ := newChecklistService(m)

	matches, err := svc.Find(context.Background(), "gro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := map[string]bool{}
	for _, match := range matches {
		ids[match.Checklist.ID] = true
		if match.Checklist.ID == "3" && !match.Shared {
			t.Error("Group gift should be flagged as shared")
		}
	}
	if !ids["1"] || !ids["3"] || ids["2"] {
		t.Errorf("matches=%+v", matches)
	}

	if _, err := svc.Find(context.Background(), " "); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty query, got %v", err)
	}
}
