package counter

import (
	"context"
	"sync"
	"time"

	"fieldbook/internal/ratelimit/models"
)

// InMemoryCounterStore implements CounterStore with a process-local map.
// It serves as the fallback when Redis is unavailable and as the only store
// in single-instance deployments. Semantics match the Redis store: fixed
// window, atomic increment-then-decide.
type InMemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	now      func() time.Time
}

// windowCounter is one fixed window's state. It is replaced wholesale once
// the window elapses rather than decremented over time.
type windowCounter struct {
	count   int
	resetAt time.Time
}

// NewInMemoryCounterStore creates an empty in-memory counter store.
func NewInMemoryCounterStore() *InMemoryCounterStore {
	return &InMemoryCounterStore{
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

// Allow increments the counter for key and reports whether the incremented
// value is still within limit. The increment and the decision happen under
// one lock so concurrent callers can never both observe the last free slot.
func (s *InMemoryCounterStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	wc := s.counters[key]
	if wc == nil || now.After(wc.resetAt) {
		wc = &windowCounter{resetAt: now.Add(window)}
		s.counters[key] = wc
	}
	wc.count++

	result := &models.Result{
		Allowed:   wc.count <= limit,
		Limit:     limit,
		Remaining: max(0, limit-wc.count),
		ResetAt:   wc.resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = int(window.Seconds())
	}
	return result, nil
}

// Reset clears the counter for a key.
func (s *InMemoryCounterStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}
