package counter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"fieldbook/internal/ratelimit/models"
)

// RedisCounterStore implements CounterStore on a shared Redis instance so the
// same identity hitting different replicas shares one fixed window.
//
// The composite counter key is <key>:<window id> where the window id is
// floor(now / window). INCR is atomic; the first increment in a window
// attaches a TTL equal to the window so counters self-discard.
type RedisCounterStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisCounterStore creates a Redis-backed fixed-window counter store.
func NewRedisCounterStore(client redis.Cmdable) *RedisCounterStore {
	return &RedisCounterStore{
		client: client,
		now:    time.Now,
	}
}

// Allow atomically increments the counter for the current window and decides
// against the incremented value, so the count can never pass the limit
// without the caller seeing Allowed=false.
func (s *RedisCounterStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()
	windowID := now.UnixMilli() / window.Milliseconds()
	compositeKey := key + ":" + strconv.FormatInt(windowID, 10)

	count, err := s.client.Incr(ctx, compositeKey).Result()
	if err != nil {
		return nil, fmt.Errorf("incr %s: %w", compositeKey, err)
	}
	if count == 1 {
		// First hit in this window; errors here are non-fatal because the
		// composite key rotates with the window id anyway.
		_ = s.client.Expire(ctx, compositeKey, window).Err()
	}

	resetAt := time.UnixMilli((windowID + 1) * window.Milliseconds())
	result := &models.Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining(limit, count),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = int(window.Seconds())
	}
	return result, nil
}

func remaining(limit int, count int64) int {
	if count >= int64(limit) {
		return 0
	}
	return limit - int(count)
}
