package counter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryCounterStoreSuite struct {
	suite.Suite
	store *InMemoryCounterStore
	ctx   context.Context
}

func TestInMemoryCounterStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCounterStoreSuite))
}

func (s *InMemoryCounterStoreSuite) SetupTest() {
	s.store = NewInMemoryCounterStore()
	s.ctx = context.Background()
}

func (s *InMemoryCounterStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "rl:export:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("requests up to limit allowed", func() {
		var lastAllowed bool
		for range testLimit {
			result, err := s.store.Allow(s.ctx, "rl:export:uptolimit", testLimit, testWindow)
			s.Require().NoError(err)
			lastAllowed = result.Allowed
		}
		s.True(lastAllowed)
	})

	s.Run("request over limit denied with retry hint", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "rl:export:over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "rl:export:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(int(testWindow.Seconds()), result.RetryAfter)
	})

	s.Run("fresh window replaces the counter wholesale", func() {
		for range testLimit + 1 {
			_, err := s.store.Allow(s.ctx, "rl:export:reset", testLimit, testWindow)
			s.Require().NoError(err)
		}

		s.store.mu.Lock()
		s.store.counters["rl:export:reset"].resetAt = time.Now().Add(-time.Second)
		s.store.mu.Unlock()

		result, err := s.store.Allow(s.ctx, "rl:export:reset", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("distinct keys keep distinct counters", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "rl:export:alice", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "rl:write:alice", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryCounterStoreSuite) TestReset() {
	for range 5 {
		_, err := s.store.Allow(s.ctx, "rl:export:clear", testLimit, testWindow)
		s.Require().NoError(err)
	}

	s.Require().NoError(s.store.Reset(s.ctx, "rl:export:clear"))

	result, err := s.store.Allow(s.ctx, "rl:export:clear", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit-1, result.Remaining)
}

func (s *InMemoryCounterStoreSuite) TestConcurrent() {
	limit := 100
	key := "rl:export:concurrent"
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for range 200 {
		wg.Go(func() {
			result, err := s.store.Allow(s.ctx, key, limit, testWindow)
			s.Require().NoError(err)
			if result.Allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		})
	}

	wg.Wait()
	s.Equal(limit, allowedCount)
}
