package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// AttemptStore keeps attempt records in process memory. Used for development
// and tests; lockouts do not survive a restart.
type AttemptStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewAttemptStore constructs an empty in-memory store.
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock overrides the internal clock for deterministic testing.
func (s *AttemptStore) WithClock(clock func() time.Time) *AttemptStore {
	if clock != nil {
		s.mu.Lock()
		s.now = clock
		s.mu.Unlock()
	}
	return s
}

// Get returns the stored value for key, treating expired entries as absent.
func (s *AttemptStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}

	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true, nil
}

// Set stores value under key with an optional TTL.
func (s *AttemptStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)

	e := entry{value: stored}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Delete removes the value for key.
func (s *AttemptStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

var _ port.AttemptStore = (*AttemptStore)(nil)
