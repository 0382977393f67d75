// Package typeahead coalesces rapid-fire lookup requests. A burst of
// keystrokes produces one upstream call, and a slow response for an old
// query can never overwrite the result of a newer one.
package typeahead

import (
	"sync"
	"time"
)

const DefaultWait = 300 * time.Millisecond

// Debouncer delays submitted work until the input has been quiet for the
// wait window. Every Submit supersedes the previous one.
type Debouncer struct {
	mu    sync.Mutex
	wait  time.Duration
	gen   uint64
	timer *time.Timer
}

// New returns a Debouncer with the given quiet window. A non-positive
// wait falls back to DefaultWait.
func New(wait time.Duration) *Debouncer {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Debouncer{wait: wait}
}

// Ticket identifies one submission. Work that outlives its submission,
// a lookup still in flight when the user keeps typing, must check
// Current before applying its result.
type Ticket struct {
	d   *Debouncer
	gen uint64
}

// Current reports whether no newer submission has superseded this one.
func (t Ticket) Current() bool {
	if t.d == nil {
		return false
	}
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	return t.gen == t.d.gen
}

// Submit schedules fn to run after the quiet window on its own goroutine.
// A pending fn that has not fired yet is cancelled outright; one already
// running keeps going but its Ticket goes stale.
func (d *Debouncer) Submit(fn func(Ticket)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	ticket := Ticket{d: d, gen: d.gen}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() { fn(ticket) })
}

// Stop cancels any pending submission and invalidates in-flight tickets.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
