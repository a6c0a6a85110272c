package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 5 * time.Minute

// lockEntry holds the per-key semaphore and its reference count.
type lockEntry struct {
	sem  chan struct{}
	refs int
}

// RunFunc executes one orchestration run.
type RunFunc func(ctx context.Context) (domain.ProcessResult, error)

// Manager serializes runs per key and records their results.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.RunStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
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
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIDGenerator replaces the run ID source.
func WithIDGenerator(next func() string) Option {
	return func(m *Manager) {
		if next != nil {
			m.newID = next
		}
	}
}

// NewManager creates a Manager that records runs in store.
func NewManager(store ports.RunStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must call release(key) when done with the entry.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes fn while holding the lock for key.
// Waiting for the lock honors ctx.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	defer m.release(key)

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-entry.sem }()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The run context may already be canceled; the lease still has to go.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Run executes fn under the lock for key and saves the outcome as a RunRecord.
// Failed runs are recorded too. The returned error is fn's error, or a lock error.
func (m *Manager) Run(ctx context.Context, key, request string, fn RunFunc) (*domain.RunRecord, error) {
	record := &domain.RunRecord{ID: m.newID(), Request: request}

	var runErr error
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		record.StartedAt = m.now()
		record.Result, runErr = fn(ctx)
		record.FinishedAt = m.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m.store != nil {
		if err := m.store.Save(context.WithoutCancel(ctx), record); err != nil {
			m.logger.Warn("failed to record run", "run_id", record.ID, "err", err)
		}
	}
	m.logger.Debug("run finished",
		"run_id", record.ID,
		"success", record.Result.Success,
		"duration", record.FinishedAt.Sub(record.StartedAt),
	)
	return record, runErr
}

// Load returns a recorded run.
func (m *Manager) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	if m.store == nil {
		return nil, domain.ErrRunNotFound
	}
	return m.store.Load(ctx, runID)
}

// Latest returns the most recently saved run still held by the store.
func (m *Manager) Latest(ctx context.Context) (*domain.RunRecord, error) {
	if m.store == nil {
		return nil, domain.ErrRunNotFound
	}
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var latest *domain.RunRecord
	for _, id := range ids {
		rec, err := m.store.Load(ctx, id)
		if err != nil {
			continue
		}
		if latest == nil || rec.FinishedAt.After(latest.FinishedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, domain.ErrRunNotFound
	}
	return latest, nil
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.List(ctx)
}

// Store returns the underlying run store.
func (m *Manager) Store() ports.RunStore {
	return m.store
}
