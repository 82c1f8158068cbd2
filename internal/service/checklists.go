package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/jaekwang-park/listo/internal/api"
	"github.com/jaekwang-park/listo/internal/cache"
	"github.com/jaekwang-park/listo/internal/model"
)

// ChecklistService covers operations on whole checklists: listing, creating, deleting,
// renaming, locking and sharing.
type ChecklistService struct {
	api          api.ChecklistAPI
	cache        *cache.Cache
	shareBaseURL string
	staleTime    time.Duration
	logger       *slog.Logger
}

func NewChecklistService(client api.ChecklistAPI, c *cache.Cache, shareBaseURL string, staleTime time.Duration, logger *slog.Logger) *ChecklistService {
	return &ChecklistService{
		api:          client,
		cache:        c,
		shareBaseURL: strings.TrimRight(shareBaseURL, "/"),
		staleTime:    staleTime,
		logger:       logger,
	}
}

// List returns the caller's own checklists, most recently updated first. Overviews are
// always refetched.
func (s *ChecklistService) List(ctx context.Context) ([]model.Checklist, error) {
	lists, err := cache.Fetch(ctx, s.cache, cache.KeyChecklists, 0, s.api.ListChecklists)
	if err != nil {
		return nil, mapError(err)
	}
	return sortedLists(lists), nil
}

// ListShared returns the checklists shared with the caller, most recently updated first.
func (s *ChecklistService) ListShared(ctx context.Context) ([]model.Checklist, error) {
	lists, err := cache.Fetch(ctx, s.cache, cache.KeySharedChecklists, 0, s.api.ListSharedChecklists)
	if err != nil {
		return nil, mapError(err)
	}
	return sortedLists(lists), nil
}

func sortedLists(lists []model.Checklist) []model.Checklist {
	out := append([]model.Checklist(nil), lists...)
	model.SortByUpdatedDesc(out)
	return out
}

// Get returns a checklist with its items sorted by ordering.
func (s *ChecklistService) Get(ctx context.Context, id string, shared bool) (model.ChecklistDetail, error) {
	if id == "" {
		return model.ChecklistDetail{}, fmt.Errorf("%w: checklist id is required", ErrInvalidInput)
	}
	detail, err := cache.Fetch(ctx, s.cache, cache.ChecklistKey(id), s.staleTime, func(ctx context.Context) (model.ChecklistDetail, error) {
		return s.api.GetChecklist(ctx, id, shared)
	})
	if err != nil {
		return model.ChecklistDetail{}, mapError(err)
	}
	detail.Items = append([]model.Item(nil), detail.Items...)
	model.SortItems(detail.Items)
	return detail, nil
}

// Create makes a new checklist. An empty title gets the default one. On failure the cached
// lists are left as they were.
func (s *ChecklistService) Create(ctx context.Context, title string) (model.Checklist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultChecklistTitle
	}
	cl, err := s.api.CreateChecklist(ctx, title)
	if err != nil {
		s.logger.WarnContext(ctx, "create checklist failed", "error", err)
		return model.Checklist{}, mapError(err)
	}
	s.cache.Invalidate(cache.KeyChecklists)
	s.logger.InfoContext(ctx, "checklist created", "checklist_id", cl.ID)
	return cl, nil
}

func (s *ChecklistService) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteChecklist(ctx, id); err != nil {
		return mapError(err)
	}
	s.cache.Invalidate(cache.KeyChecklists)
	s.cache.Invalidate(cache.ChecklistKey(id))
	return nil
}

// Rename changes the title of an unlocked checklist.
func (s *ChecklistService) Rename(ctx context.Context, id string, shared bool, title string) (model.Checklist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Checklist{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	detail, err := s.Get(ctx, id, shared)
	if err != nil {
		return model.Checklist{}, err
	}
	if detail.Checklist.Locked {
		return model.Checklist{}, ErrLocked
	}
	return s.update(ctx, id, shared, title, false)
}

// SetLocked locks or unlocks a checklist. It is allowed whatever the current state.
func (s *ChecklistService) SetLocked(ctx context.Context, id string, shared bool, locked bool) (model.Checklist, error) {
	detail, err := s.Get(ctx, id, shared)
	if err != nil {
		return model.Checklist{}, err
	}
	return s.update(ctx, id, shared, detail.Checklist.Title, locked)
}

func (s *ChecklistService) update(ctx context.Context, id string, shared bool, title string, locked bool) (model.Checklist, error) {
	cl, err := s.api.UpdateChecklist(ctx, id, shared, title, locked)
	if err != nil {
		return model.Checklist{}, mapError(err)
	}
	s.invalidateLists(id)
	return cl, nil
}

func (s *ChecklistService) invalidateLists(id string) {
	s.cache.Invalidate(cache.ChecklistKey(id))
	s.cache.Invalidate(cache.KeyChecklists)
	s.cache.Invalidate(cache.KeySharedChecklists)
}

func (s *ChecklistService) ShareCode(ctx context.Context, id string) (string, error) {
	code, err := s.api.GetShareCode(ctx, id)
	if err != nil {
		return "", mapError(err)
	}
	return code, nil
}

// ShareLink returns the link collaborators open to join the checklist.
func (s *ChecklistService) ShareLink(ctx context.Context, id string) (string, error) {
	code, err := s.ShareCode(ctx, id)
	if err != nil {
		return "", err
	}
	return s.LinkFor(code), nil
}

func (s *ChecklistService) LinkFor(code string) string {
	return s.shareBaseURL + "/share/" + url.PathEscape(code)
}

// ParseShareCode accepts a bare code or a share link and returns the code.
func ParseShareCode(codeOrLink string) (string, error) {
	v := strings.TrimSpace(codeOrLink)
	if i := strings.LastIndex(v, "/share/"); i >= 0 {
		v = v[i+len("/share/"):]
		if j := strings.IndexAny(v, "/?#"); j >= 0 {
			v = v[:j]
		}
		if unescaped, err := url.PathUnescape(v); err == nil {
			v = unescaped
		}
	}
	if v == "" || strings.ContainsAny(v, "/ ") {
		return "", fmt.Errorf("%w: invalid share code %q", ErrInvalidInput, codeOrLink)
	}
	return v, nil
}

// Join adds the caller as a collaborator of the checklist behind a share code or link.
func (s *ChecklistService) Join(ctx context.Context, codeOrLink string) (string, error) {
	code, err := ParseShareCode(codeOrLink)
	if err != nil {
		return "", err
	}
	if err := s.api.JoinSharedChecklist(ctx, code); err != nil {
		return "", mapError(err)
	}
	s.cache.Invalidate(cache.KeySharedChecklists)
	s.logger.InfoContext(ctx, "joined shared checklist", "code", code)
	return code, nil
}

func (s *ChecklistService) Leave(ctx context.Context, id string) error {
	if err := s.api.LeaveSharedChecklist(ctx, id); err != nil {
		return mapError(err)
	}
	s.cache.Invalidate(cache.KeySharedChecklists)
	s.cache.Invalidate(cache.ChecklistKey(id))
	return nil
}

// Match is one result of Find.
type Match struct {
	Checklist model.Checklist `json:"checklist"`
	Shared    bool            `json:"shared"`
	Score     int             `json:"score"`
}

type checklistTitles []model.Checklist

func (c checklistTitles) String(i int) string { return c[i].Title }
func (c checklistTitles) Len() int            { return len(c) }

// Find fuzzy-matches query against the titles of own and shared checklists, best first.
func (s *ChecklistService) Find(ctx context.Context, query string) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	own, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	shared, err := s.ListShared(ctx)
	if err != nil {
		return nil, err
	}

	all := append(append(checklistTitles{}, own...), shared...)
	results := fuzzy.FindFrom(query, all)
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Checklist: all[r.Index],
			Shared:    r.Index >= len(own),
			Score:     r.Score,
		})
	}
	return matches, nil
}
