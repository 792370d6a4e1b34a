package lock

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/tenantforge/tenantforge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewBackend selects the lock backend from configuration. Standalone
// deployments run on the in-process backend; anything multi-node needs redis.
func NewBackend(cfg config.Config) Backend {
	if cfg.LockBackend == config.LockBackendMemory {
		return NewMemoryBackend()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisBackend(client)
}

func NewManagerFromConfig(cfg config.Config, backend Backend, log *zap.Logger) *Manager {
	return NewManager(backend, Options{
		TTL:      cfg.LockTTL,
		Retries:  cfg.LockRetries,
		Interval: cfg.LockRetryInterval,
	}, log)
}

// Module wires the distributed lock manager.
var Module = fx.Module("lock",
	fx.Provide(NewBackend),
	fx.Provide(NewManagerFromConfig),
)
