// Package cache is a small query cache keyed by string. Each read states how stale a stored
// value may be, concurrent fetches of the same key share one call, and writes invalidate by
// key prefix.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Keys used by the editing layer.
const (
	KeyChecklists       = "checklists"
	KeySharedChecklists = "sharedChecklists"
)

// ChecklistKey is the key of one checklist with its items.
func ChecklistKey(id string) string {
	return "checklist/" + id
}

type entry struct {
	value     any
	fetchedAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Fetch returns the cached value for key when it is younger than stale, otherwise it calls fn
// and stores the result. A stale of zero always calls fn. Errors are not cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, stale time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key, stale); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		res, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *Cache) lookup(key string, stale time.Duration) (any, bool) {
	if stale <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= stale {
		return nil, false
	}
	return e.value, true
}

// Get returns the stored value regardless of age.
func Get[T any](c *Cache, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := e.value.(T)
	return v, ok
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, fetchedAt: c.now()}
}

// Invalidate drops key and every key below it ("checklist" drops "checklist/1").
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
