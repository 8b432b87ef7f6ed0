// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/redis/go-redis/v9"

	"catalog_backend/internal/config"
	"catalog_backend/internal/shared/ratelimiter"
)

// NewLimiter creates a rate-limit counter store.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to an in-memory counter.
func NewLimiter(rdb *redis.Client, cfg config.Config) ratelimiter.Limiter {
	if rdb != nil {
		return ratelimiter.NewRedisLimiter(rdb, "ratelimit", cfg.RateLimit, cfg.RateWindow)
	}
	return ratelimiter.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow)
}
