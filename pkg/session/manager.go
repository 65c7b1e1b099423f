package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/history"
	"github.com/aretw0/onboard/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
//
// Committed history is persisted through the SessionStore. The live
// history.Store of each session is cached in-process so pending writes
// survive between calls; a cached store is replaced whenever the durable
// revision moved on another replica.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex                // Global lock for the maps
	locks map[string]*lockEntry     // Map of active locks
	live  map[string]*history.Store // Live stores by session

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*history.Store),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Start replaces any existing history of the session with a fresh one
// positioned at step, then runs fn on it under the session lock.
func (m *Manager) Start(ctx context.Context, sessionID string, step domain.Step, fn func(context.Context, *history.Store) error) error {
	return m.StartWith(ctx, sessionID, domain.Slots{domain.SlotStep: string(step)}, fn)
}

// StartWith is Start with a fully specified first entry.
func (m *Manager) StartWith(ctx context.Context, sessionID string, first domain.Slots, fn func(context.Context, *history.Store) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		st, err := history.Seed(sessionID, first)
		if err != nil {
			return err
		}
		m.cache(sessionID, st)
		return m.run(ctx, st, fn)
	})
}

// Update runs fn on the live store of an existing session under the session
// lock, then persists the committed history if it changed.
// The history is persisted even if fn fails.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(context.Context, *history.Store) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		st, err := m.open(ctx, sessionID)
		if err != nil {
			return err
		}
		return m.run(ctx, st, fn)
	})
}

// Load returns a copy of the committed history of a session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.History, error) {
	var h *domain.History
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		h, err = m.store.Load(ctx, sessionID)
		return err
	})
	return h, err
}

// Delete removes the session from the store and drops its live state.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.evict(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) run(ctx context.Context, st *history.Store, fn func(context.Context, *history.Store) error) error {
	fnErr := fn(ctx, st)
	if st.Dirty() {
		if err := m.store.Save(ctx, st.SessionID(), st.Snapshot()); err != nil {
			return errors.Join(fnErr, fmt.Errorf("failed to persist session: %w", err))
		}
		st.MarkClean()
	}
	return fnErr
}

// open must be called with the session lock held.
func (m *Manager) open(ctx context.Context, sessionID string) (*history.Store, error) {
	h, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			m.evict(sessionID)
			return nil, err
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.live[sessionID]; ok && st.Revision() == h.Revision {
		return st, nil
	}
	if len(h.Entries) == 0 {
		return nil, fmt.Errorf("session %s has no history entries", sessionID)
	}
	st := history.New(h)
	m.live[sessionID] = st
	return st, nil
}

func (m *Manager) cache(sessionID string, st *history.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[sessionID] = st
}

func (m *Manager) evict(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, sessionID)
}
