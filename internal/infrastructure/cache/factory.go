package cache

import (
	"github.com/stockbill/backend/internal/domain/shared"
	"github.com/stockbill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore creates an idempotency store backed by Redis when it is
// reachable, falling back to the in-memory store otherwise. Single-instance
// deployments work fine on the fallback; the Redis store is for sharing
// replay state across instances.
func NewIdempotencyStore(cfg *config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory idempotency store",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore()
	}

	logger.Info("Using Redis idempotency store",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)
	return store
}
