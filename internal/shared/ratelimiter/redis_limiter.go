package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements Limiter on Redis. INCR is atomic, so concurrent
// hits from the same identity never undercount.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// Compile-time check to ensure RedisLimiter implements Limiter.
var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a new RedisLimiter instance.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// counterKey returns the Redis key for an identity.
func (l *RedisLimiter) counterKey(key string) string {
	return fmt.Sprintf("%s:%s", l.prefix, key)
}

// TooManyAttempts reads the counter without incrementing it.
func (l *RedisLimiter) TooManyAttempts(ctx context.Context, key string) (bool, time.Duration, error) {
	count, err := l.client.Get(ctx, l.counterKey(key)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, 0, nil
		}
		return false, 0, err
	}
	if count < l.limit {
		return false, 0, nil
	}

	ttl, err := l.client.TTL(ctx, l.counterKey(key)).Result()
	if err != nil {
		return true, 0, err
	}
	if ttl < 0 {
		ttl = 0
	}
	return true, ttl, nil
}

// Hit increments the counter. The first hit of a window sets its expiry.
func (l *RedisLimiter) Hit(ctx context.Context, key string) error {
	n, err := l.client.Incr(ctx, l.counterKey(key)).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, l.counterKey(key), l.window).Err(); err != nil {
			return err
		}
	}
	return nil
}
