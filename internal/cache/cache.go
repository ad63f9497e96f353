package cache

import (
	"github.com/YK-03/SharePlate/internal/config"

	"go.uber.org/zap"
)

// New builds the cache selected by cfg.Type.
func New(cfg config.CacheConfig, log *zap.SugaredLogger) (Cache, error) {
	if cfg.Type == "redis" {
		return NewRedisCache(RedisConfig{
			Addr:      cfg.RedisAddress(),
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		}, log)
	}
	return NewMemoryCache(), nil
}
