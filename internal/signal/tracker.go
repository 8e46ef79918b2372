// Package signal tracks short-lived per-subject state such as typing indicators and reactions.
package signal

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Default lifetimes of ephemeral signals.
const (
	TypingTTL   = 3000 * time.Millisecond
	ReactionTTL = 3000 * time.Millisecond
)

// Change describes a signal becoming active, being refreshed, or expiring.
type Change[V any] struct {
	Subject string
	Value   V
	Active  bool
}

type entry[V any] struct {
	value V
	timer *clock.Timer
	gen   uint64
}

// Tracker keeps at most one active signal per subject. Each signal expires ttl after its
// most recent refresh. After Close no timer fires and no state changes.
type Tracker[V any] struct {
	mu       sync.Mutex
	clock    clock.Clock
	ttl      time.Duration
	entries  map[string]*entry[V]
	gen      uint64
	closed   bool
	onChange func(Change[V])
}

// NewTracker creates a tracker. onChange may be nil. It is called with the tracker locked,
// so changes are delivered in the order they happened; it must not call back into the tracker.
func NewTracker[V any](clk clock.Clock, ttl time.Duration, onChange func(Change[V])) *Tracker[V] {
	if clk == nil {
		clk = clock.New()
	}
	return &Tracker[V]{
		clock:    clk,
		ttl:      ttl,
		entries:  make(map[string]*entry[V]),
		onChange: onChange,
	}
}

// Signal marks subject active with value and restarts its expiry timer.
func (t *Tracker[V]) Signal(subject string, value V) {
	if subject == "" {
		return
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if e, ok := t.entries[subject]; ok {
		e.timer.Stop()
	}
	t.gen++
	gen := t.gen
	e := &entry[V]{value: value, gen: gen}
	e.timer = t.clock.AfterFunc(t.ttl, func() { t.expire(subject, gen) })
	t.entries[subject] = e
	t.notify(Change[V]{Subject: subject, Value: value, Active: true})
	t.mu.Unlock()
}

// Clear removes subject immediately.
func (t *Tracker[V]) Clear(subject string) {
	t.mu.Lock()
	e, ok := t.entries[subject]
	if !ok || t.closed {
		t.mu.Unlock()
		return
	}
	e.timer.Stop()
	delete(t.entries, subject)
	t.notify(Change[V]{Subject: subject, Value: e.value})
	t.mu.Unlock()
}

func (t *Tracker[V]) expire(subject string, gen uint64) {
	t.mu.Lock()
	e, ok := t.entries[subject]
	// A refresh or Close after the timer fired wins over this expiry.
	if !ok || t.closed || e.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.entries, subject)
	t.notify(Change[V]{Subject: subject, Value: e.value})
	t.mu.Unlock()
}

// Get returns the active value for subject.
func (t *Tracker[V]) Get(subject string) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[subject]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Active reports whether subject currently has a signal.
func (t *Tracker[V]) Active(subject string) bool {
	_, ok := t.Get(subject)
	return ok
}

// Subjects returns all subjects with an active signal, sorted.
func (t *Tracker[V]) Subjects() []string {
	t.mu.Lock()
	out := make([]string, 0, len(t.entries))
	for s := range t.entries {
		out = append(out, s)
	}
	t.mu.Unlock()
	sort.Strings(out)
	return out
}

// Reset cancels all pending timers and drops every signal without notifying.
// The tracker stays usable.
func (t *Tracker[V]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopAll()
}

// Close cancels all pending timers. Later calls to Signal and Clear are no-ops.
func (t *Tracker[V]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopAll()
	t.closed = true
}

func (t *Tracker[V]) stopAll() {
	for s, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, s)
	}
	t.gen++
}

func (t *Tracker[V]) notify(c Change[V]) {
	if t.onChange != nil {
		t.onChange(c)
	}
}
