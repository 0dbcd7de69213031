package cache

import (
	"github.com/redis/go-redis/v9"

	"github.com/aoba-arch/permitdesk/internal/config"
)

// New builds the redis client used for dashboard summary caching. The
// client is optional at runtime; callers must treat cache errors as misses.
func New(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
}
