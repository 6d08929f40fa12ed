// Package convo holds short-lived per-sender conversation context: the last
// resolved intent and entities, with time-based expiry. Follow-up phrases
// like "do it" are only meaningful shortly after the command they refer to,
// so the default TTL is minutes, not hours.
package convo

import (
	"sync"
	"time"
)

// DefaultTTL is the inactivity window after which stored context expires.
const DefaultTTL = 5 * time.Minute

// Snapshot is a read-only view of a sender's conversation context. Zero
// values mean "never resolved"; canonical forms only, never raw text.
type Snapshot struct {
	LastIntent   string
	LastChore    string
	LastAssignee string
	LastDueDate  time.Time
	LastUpdated  time.Time
}

// Update carries new values to merge into a sender's context. Empty fields
// leave the stored value untouched; a later command may update only one of
// the tracked entities.
type Update struct {
	Intent   string
	Chore    string
	Assignee string
	DueDate  time.Time
}

type entry struct {
	mu   sync.Mutex
	snap Snapshot
}

// Store is the only shared mutable state in the interpreter pipeline.
// Access is serialized per sender key; different senders never block
// each other beyond the brief map lookup.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	ttl time.Duration
	now func() time.Time
}

// NewStore creates a Store with the given TTL. ttl <= 0 selects DefaultTTL;
// a nil clock selects time.Now.
func NewStore(ttl time.Duration, clock func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     clock,
	}
}

func (s *Store) entryFor(sender string, create bool) *entry {
	s.mu.RLock()
	e := s.entries[sender]
	s.mu.RUnlock()
	if e != nil || !create {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.entries[sender]; e == nil {
		e = &entry{}
		s.entries[sender] = e
	}
	return e
}

// Get returns the sender's context. Expired context is treated as absent
// and evicted, so one-off senders don't accumulate in the map forever.
func (s *Store) Get(sender string) (Snapshot, bool) {
	e := s.entryFor(sender, false)
	if e == nil {
		return Snapshot{}, false
	}
	e.mu.Lock()
	snap := e.snap
	e.mu.Unlock()
	if snap.LastUpdated.IsZero() || s.now().Sub(snap.LastUpdated) > s.ttl {
		s.evict(sender, snap.LastUpdated)
		return Snapshot{}, false
	}
	return snap, true
}

// evict removes the sender's entry only if its timestamp still matches seen;
// a concurrent Set bumps LastUpdated and keeps the entry alive.
func (s *Store) evict(sender string, seen time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[sender]
	if e == nil {
		return
	}
	e.mu.Lock()
	stale := e.snap.LastUpdated.Equal(seen)
	e.mu.Unlock()
	if stale {
		delete(s.entries, sender)
	}
}

// Set merges up into the sender's context field by field and refreshes the
// expiry clock. A new due date does not erase a previously known assignee.
func (s *Store) Set(sender string, up Update) {
	e := s.entryFor(sender, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Expired context must not leak stale entities into a fresh exchange.
	if !e.snap.LastUpdated.IsZero() && s.now().Sub(e.snap.LastUpdated) > s.ttl {
		e.snap = Snapshot{}
	}

	if up.Intent != "" {
		e.snap.LastIntent = up.Intent
	}
	if up.Chore != "" {
		e.snap.LastChore = up.Chore
	}
	if up.Assignee != "" {
		e.snap.LastAssignee = up.Assignee
	}
	if !up.DueDate.IsZero() {
		e.snap.LastDueDate = up.DueDate
	}
	e.snap.LastUpdated = s.now()
}

// Clear removes the sender's context, used once a conversation has run its
// course (e.g. after "done") so follow-up chains don't re-trigger forever.
func (s *Store) Clear(sender string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sender)
}
