// Package history implements the versioned slot store a session's workflow
// state lives in.
//
// Reads return the latest committed value at the cursor. Writes are pending
// until Commit pushes them as a new entry, so a step can update its working
// values repeatedly without touching durable history. Back and Forward move
// the cursor like browser navigation and discard pending writes.
package history

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Store is the live view of one session's history.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	h       *domain.History
	pending domain.Slots
	dirty   bool
}

// New wraps a history. The store owns a private copy.
func New(h *domain.History) *Store {
	if h == nil || len(h.Entries) == 0 {
		panic("history: empty history")
	}
	h = h.Clone()
	if h.Cursor < 0 || h.Cursor >= len(h.Entries) {
		h.Cursor = len(h.Entries) - 1
	}
	return &Store{h: h, pending: domain.Slots{}}
}

// Start creates a store whose first entry is positioned at step.
func Start(sessionID string, step domain.Step) *Store {
	s := New(domain.NewHistory(sessionID, step))
	s.dirty = true
	return s
}

// Seed creates a store whose first entry holds the given slots.
func Seed(sessionID string, first domain.Slots) (*Store, error) {
	entry := make(domain.Slots, len(first))
	for k, v := range first {
		norm, err := normalize(v)
		if err != nil {
			return nil, fmt.Errorf("seed slot %q: %w", k, err)
		}
		if norm != nil {
			entry[k] = norm
		}
	}
	h := domain.NewHistory(sessionID, "")
	h.Entries[0] = entry
	s := New(h)
	s.dirty = true
	return s, nil
}

// SessionID returns the id of the owning session.
func (s *Store) SessionID() string {
	return s.h.SessionID
}

// Get returns the committed value of slot at the cursor.
func (s *Store) Get(slot string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.h.Current()[slot]
	return v, ok && v != nil
}

// Decode decodes the committed value of slot into out.
// It reports false, leaving out untouched, when the slot is empty.
func (s *Store) Decode(slot string, out any) (bool, error) {
	v, ok := s.Get(slot)
	if !ok {
		return false, nil
	}
	return true, decode(slot, v, out)
}

// Set records an uncommitted write. A nil value clears the slot on Commit.
// Values are normalized to their JSON shape so in-memory and persisted reads
// decode identically.
func (s *Store) Set(slot string, v any) error {
	norm, err := normalize(v)
	if err != nil {
		return fmt.Errorf("set slot %q: %w", slot, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[slot] = norm
	return nil
}

// Scope returns the read view of the current step, where pending writes
// shadow committed values.
func (s *Store) Scope() Scope {
	return Scope{s: s}
}

// HasPending reports whether uncommitted writes exist.
func (s *Store) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) > 0
}

// Commit pushes the committed values merged with the pending writes as a new
// entry. Entries ahead of the cursor are dropped.
// It returns what the new entry changed.
func (s *Store) Commit() domain.SlotsDiff {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.h.Current()
	next := prev.Clone()
	for k, v := range s.pending {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}

	s.h.Entries = append(s.h.Entries[:s.h.Cursor+1], next)
	s.h.Cursor++
	s.pending = domain.Slots{}
	s.touch()
	return domain.Diff(prev, next)
}

// Back moves the cursor to the previous entry.
func (s *Store) Back() error {
	return s.move(-1)
}

// Forward moves the cursor to the next entry.
func (s *Store) Forward() error {
	return s.move(1)
}

// Invalidate discards pending writes and advances the epoch without moving
// the cursor, so in-flight responses are dropped.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = domain.Slots{}
	s.h.Epoch++
	s.touch()
}

// DecodeEntries decodes slot from every committed entry, forward entries
// included, oldest first. Entries without the slot are skipped.
func DecodeEntries[T any](s *Store, slot string) ([]T, error) {
	s.mu.RLock()
	values := make([]any, 0, len(s.h.Entries))
	for _, entry := range s.h.Entries {
		if v, ok := entry[slot]; ok && v != nil {
			values = append(values, v)
		}
	}
	s.mu.RUnlock()

	out := make([]T, 0, len(values))
	for _, v := range values {
		var t T
		if err := decode(slot, v, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Epoch returns the navigation counter.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h.Epoch
}

// Revision returns the durable change counter.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h.Revision
}

// CanBack reports whether an entry exists behind the cursor.
func (s *Store) CanBack() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h.Cursor > 0
}

// CanForward reports whether an entry exists ahead of the cursor.
func (s *Store) CanForward() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h.Cursor < len(s.h.Entries)-1
}

// Snapshot returns a copy of the committed history for persistence.
func (s *Store) Snapshot() *domain.History {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h.Clone()
}

// Dirty reports whether committed history changed since the last MarkClean.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkClean records that the committed history was persisted.
func (s *Store) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

func (s *Store) move(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.h.Cursor + delta
	if target < 0 || target >= len(s.h.Entries) {
		return domain.ErrNoHistory
	}
	s.h.Cursor = target
	s.pending = domain.Slots{}
	s.h.Epoch++
	s.touch()
	return nil
}

// touch must be called with mu held.
func (s *Store) touch() {
	s.h.Revision++
	s.h.UpdatedAt = time.Now().UTC()
	s.dirty = true
}

// Scope is the pending-first read view of the current step.
type Scope struct {
	s *Store
}

// Get returns the pending value of slot, or the committed one.
func (sc Scope) Get(slot string) (any, bool) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	if v, ok := sc.s.pending[slot]; ok {
		return v, v != nil
	}
	v, ok := sc.s.h.Current()[slot]
	return v, ok && v != nil
}

// Decode decodes the pending-first value of slot into out.
func (sc Scope) Decode(slot string, out any) (bool, error) {
	v, ok := sc.Get(slot)
	if !ok {
		return false, nil
	}
	return true, decode(slot, v, out)
}

func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decode(slot string, in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:     out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decode slot %q: %w", slot, err)
	}
	return nil
}
