package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiterStore implements a fixed-window counter shared across
// instances. Each caller gets one counter per window; the counter expires
// with the window.
type RedisLimiterStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

// NewRedisLimiterStore creates a store permitting limit requests per window.
func NewRedisLimiterStore(client *redis.Client, limit int, window time.Duration) *RedisLimiterStore {
	return &RedisLimiterStore{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "webcore:ratelimit",
	}
}

// Allow increments the caller's window counter and checks it against the
// limit. INCR and EXPIRE run in one pipeline round trip.
func (s *RedisLimiterStore) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := fmt.Sprintf("%s:%s:%d", s.prefix, key, time.Now().UnixNano()/int64(s.window))

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit window %s: %w", key, err)
	}

	return count.Val() <= s.limit, nil
}
