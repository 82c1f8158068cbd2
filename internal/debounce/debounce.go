// Package debounce delays a call until its input has been quiet for a fixed window.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recent call passed to Call once no further call arrived within
// the window. Only one call is ever pending.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
	fn    func()
	gen   uint64
}

func New(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Call replaces the pending call with fn and restarts the window.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.fn = fn
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.fn == nil {
		// Superseded by a later Call, Flush or Cancel.
		d.mu.Unlock()
		return
	}
	fn := d.fn
	d.fn = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

// Flush runs the pending call now, on the caller's goroutine. It reports whether a call ran.
func (d *Debouncer) Flush() bool {
	fn := d.take()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Cancel drops the pending call without running it.
func (d *Debouncer) Cancel() {
	d.take()
}

func (d *Debouncer) take() func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	fn := d.fn
	d.fn = nil
	return fn
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}

// Keyed keeps an independent Debouncer per key, e.g. one per checklist item.
type Keyed struct {
	window time.Duration

	mu         sync.Mutex
	debouncers map[string]*Debouncer
}

func NewKeyed(window time.Duration) *Keyed {
	return &Keyed{
		window:     window,
		debouncers: make(map[string]*Debouncer),
	}
}

func (k *Keyed) get(key string) *Debouncer {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, ok := k.debouncers[key]
	if !ok {
		d = New(k.window)
		k.debouncers[key] = d
	}
	return d
}

func (k *Keyed) Call(key string, fn func()) {
	k.get(key).Call(fn)
}

func (k *Keyed) Flush(key string) bool {
	k.mu.Lock()
	d, ok := k.debouncers[key]
	k.mu.Unlock()
	return ok && d.Flush()
}

// Cancel drops the pending call for key and forgets the key, so deleted items do not
// accumulate debouncers.
func (k *Keyed) Cancel(key string) {
	k.mu.Lock()
	d, ok := k.debouncers[key]
	delete(k.debouncers, key)
	k.mu.Unlock()
	if ok {
		d.Cancel()
	}
}

// Len returns the number of keys currently tracked.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.debouncers)
}

func (k *Keyed) Pending(key string) bool {
	k.mu.Lock()
	d, ok := k.debouncers[key]
	k.mu.Unlock()
	return ok && d.Pending()
}

// FlushAll runs every pending call and returns how many ran.
func (k *Keyed) FlushAll() int {
	n := 0
	for _, d := range k.snapshot() {
		if d.Flush() {
			n++
		}
	}
	return n
}

func (k *Keyed) CancelAll() {
	for _, d := range k.snapshot() {
		d.Cancel()
	}
}

func (k *Keyed) snapshot() []*Debouncer {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]*Debouncer, 0, len(k.debouncers))
	for _, d := range k.debouncers {
		out = append(out, d)
	}
	return out
}
