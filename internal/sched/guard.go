package sched

import (
	"sync"
	"time"
)

// FiredGuard turns the per-tick "remaining reached zero" observation into a
// single fire per event identity. Evaluation itself is stateless; this is
// the one stateful element of the scheduler, and it must be owned by a
// single logical scheduler instance. The internal mutex makes Observe safe
// to call concurrently, but two instances sharing no guard WILL double-fire.
type FiredGuard struct {
	mu    sync.Mutex
	armed bool
	kind  EventKind
	at    time.Time
}

// Observe reports whether the zero crossing of ev should fire now.
//
// It returns true exactly once per event identity: the first call where
// RemainingSeconds(now, ev) == 0 fires; repeated ticks at zero for the same
// identity are suppressed; a new identity re-arms the guard automatically.
func (g *FiredGuard) Observe(ev Event, now time.Time) bool {
	if RemainingSeconds(now, ev) > 0 {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.armed && g.kind == ev.Kind && g.at.Equal(ev.At) {
		return false
	}
	g.armed = true
	g.kind = ev.Kind
	g.at = ev.At
	return true
}

// Last returns the most recently fired identity, if any.
func (g *FiredGuard) Last() (Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.armed {
		return Event{}, false
	}
	return Event{Kind: g.kind, At: g.at}, true
}

// Reset forgets the fired identity. Used when location or method change
// invalidates outstanding events.
func (g *FiredGuard) Reset() {
	g.mu.Lock()
	g.armed = false
	g.mu.Unlock()
}
