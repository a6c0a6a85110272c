package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
)

// DefaultCapacity bounds how many run records a Store keeps.
const DefaultCapacity = 100

type entry struct {
	record    domain.RunRecord
	savedAt   time.Time
	expiresAt time.Time
}

// Store implements ports.RunStore in memory.
// Safe for concurrent use. When full, the oldest record is evicted.
type Store struct {
	mu       sync.RWMutex
	data     map[string]*entry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL expires records after ttl. Zero keeps them until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithCapacity sets the maximum number of records held.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:     make(map[string]*entry),
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a copy of the record.
func (s *Store) Save(ctx context.Context, record *domain.RunRecord) error {
	now := s.now()
	e := &entry{record: copyRecord(record), savedAt: now}
	if s.ttl > 0 {
		e.expiresAt = now.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if _, exists := s.data[record.ID]; !exists && len(s.data) >= s.capacity {
		s.evictOldestLocked()
	}
	s.data[record.ID] = e
	return nil
}

// Load returns a copy of the record.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[runID]
	if !ok || s.expired(e, s.now()) {
		return nil, domain.ErrRunNotFound
	}
	rec := copyRecord(&e.record)
	return &rec, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns live record IDs, oldest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	entries := make([]*entry, 0, len(s.data))
	for _, e := range s.data {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].savedAt.Before(entries[j].savedAt)
	})

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.record.ID
	}
	return ids, nil
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (s *Store) pruneLocked(now time.Time) {
	for id, e := range s.data {
		if s.expired(e, now) {
			delete(s.data, id)
		}
	}
}

func (s *Store) evictOldestLocked() {
	var oldest *entry
	for _, e := range s.data {
		if oldest == nil || e.savedAt.Before(oldest.savedAt) {
			oldest = e
		}
	}
	if oldest != nil {
		delete(s.data, oldest.record.ID)
	}
}

func copyRecord(r *domain.RunRecord) domain.RunRecord {
	out := *r
	out.Result.Steps = append([]domain.TraceEntry(nil), r.Result.Steps...)
	return out
}
