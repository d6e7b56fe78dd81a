package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/internal/logging"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/ports"
)

// Factory builds the Previewer backing a new session.
type Factory func() (*brief.Previewer, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type sessionEntry struct {
	previewer *brief.Previewer
	lastUsed  time.Time
}

// Manager keeps one Previewer per session so each client diffs against its own previous render.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	factory Factory

	mu       sync.Mutex            // Global lock for the maps
	locks    map[string]*lockEntry // Map of active locks
	sessions map[string]*sessionEntry

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	idleTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock is held before it expires. Default: 30s.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithIdleTTL makes Prune drop sessions unused for longer than ttl. Zero keeps sessions forever.
func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.idleTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new Session Manager creating Previewers with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*sessionEntry),
		lockTTL:  30 * time.Second,
		now:      time.Now,
		logger:   logging.NewNop(), // Default to no-op
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
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func (m *Manager) lookup(sessionID string) (*sessionEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if ok {
		e.lastUsed = m.now()
	}
	return e, ok
}

// Load returns the Previewer of an existing session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*brief.Previewer, error) {
	e, ok := m.lookup(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return e.previewer, nil
}

// LoadOrStart returns the Previewer of a session, creating it on first use.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*brief.Previewer, error) {
	var p *brief.Previewer
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		p, err = m.loadOrStart(sessionID)
		return err
	})
	return p, err
}

func (m *Manager) loadOrStart(sessionID string) (*brief.Previewer, error) {
	if e, ok := m.lookup(sessionID); ok {
		return e.previewer, nil
	}

	p, err := m.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	m.mu.Lock()
	m.sessions[sessionID] = &sessionEntry{previewer: p, lastUsed: m.now()}
	m.mu.Unlock()

	m.logger.Debug("session started", "session_id", sessionID)
	return p, nil
}

// Render runs a render pass in the session, creating it if needed.
// Passes of the same session are serialised.
func (m *Manager) Render(ctx context.Context, sessionID, source string, values map[string]any) (*brief.Result, error) {
	var res *brief.Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		p, err := m.loadOrStart(sessionID)
		if err != nil {
			return err
		}
		res = p.Render(ctx, source, values)
		return nil
	})
	return res, err
}

// Delete forgets the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.sessions[sessionID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		delete(m.sessions, sessionID)
		return nil
	})
}

// List returns the active session ids in sorted order.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Prune drops sessions idle for longer than the idle TTL and returns how many were removed.
func (m *Manager) Prune(ctx context.Context) int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("pruned idle sessions", "count", removed)
	}
	return removed
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
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
