package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/logging"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to entity snapshots.
// Every operation on one entity ID runs under that entity's lock; different
// entities never block each other. Unused locks are reference counted away.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager over store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(entityID) after unlocking.
func (m *Manager) acquire(entityID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[entityID]
	if !exists {
		entry = &lockEntry{}
		m.locks[entityID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[entityID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, entityID)
	}
}

// Load retrieves an existing snapshot.
func (m *Manager) Load(ctx context.Context, entityID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, entityID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, entityID)
		return err
	})
	return snap, err
}

// LoadOrStart loads a snapshot, creating and persisting one at initialState if none exists.
func (m *Manager) LoadOrStart(ctx context.Context, entityID, initialState string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, entityID, func(ctx context.Context) error {
		var err error
		snap, err = m.loadOrStart(ctx, entityID, initialState)
		return err
	})
	return snap, err
}

func (m *Manager) loadOrStart(ctx context.Context, entityID, initialState string) (*domain.Snapshot, error) {
	snap, err := m.store.Load(ctx, entityID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, domain.ErrEntityNotFound) {
		return nil, fmt.Errorf("failed to check entity existence: %w", err)
	}

	snap = domain.NewSnapshot(initialState)
	snap.History = []string{initialState}
	if err := m.store.Save(ctx, entityID, snap); err != nil {
		return nil, fmt.Errorf("failed to initialize entity: %w", err)
	}
	return snap, nil
}

// Update runs a read-modify-write cycle under the entity lock.
// fn receives the current snapshot (created at initialState when missing) and
// returns the snapshot to store; returning nil skips the write.
func (m *Manager) Update(ctx context.Context, entityID, initialState string, fn func(*domain.Snapshot) (*domain.Snapshot, error)) error {
	return m.WithLock(ctx, entityID, func(ctx context.Context) error {
		current, err := m.loadOrStart(ctx, entityID, initialState)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		return m.store.Save(ctx, entityID, next)
	})
}

// Save persists the snapshot.
func (m *Manager) Save(ctx context.Context, entityID string, snap *domain.Snapshot) error {
	return m.WithLock(ctx, entityID, func(ctx context.Context) error {
		return m.store.Save(ctx, entityID, snap)
	})
}

// Delete removes the snapshot from the store.
func (m *Manager) Delete(ctx context.Context, entityID string) error {
	return m.WithLock(ctx, entityID, func(ctx context.Context) error {
		return m.store.Delete(ctx, entityID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes fn while holding the local and (if configured) distributed lock for entityID.
func (m *Manager) WithLock(ctx context.Context, entityID string, fn func(context.Context) error) error {
	entry := m.acquire(entityID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(entityID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, entityID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The context may be done by now; release with a fresh one.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"entity_id", entityID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
