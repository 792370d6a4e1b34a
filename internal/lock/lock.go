// Package lock provides TTL-bounded distributed mutual exclusion keyed by
// string. Acquisition returns a handle whose release is safe on every exit
// path and after lock expiry.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// ErrTimeout is returned when the retry budget is exhausted while the key is
// still contended.
var ErrTimeout = errors.New("lock: timeout acquiring lock")

// Backend is a single-shot try-lock primitive. TryLock returns an ownership
// token when the key was free; Release is idempotent and must succeed even
// when the lock already expired.
type Backend interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisBackend implements Backend on a shared redis instance using SET NX
// with a compare-and-delete release script.
type RedisBackend struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	if client == nil {
		return nil
	}
	return &RedisBackend{
		client: client,
		script: redis.NewScript(releaseScript),
	}
}

func (b *RedisBackend) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if b == nil || b.client == nil {
		return "", false, errors.New("lock: redis client not configured")
	}
	if key == "" {
		return "", false, errors.New("lock: key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock: ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := b.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (b *RedisBackend) Release(ctx context.Context, key, token string) error {
	if b == nil || b.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return b.script.Run(ctx, b.client, []string{key}, token).Err()
}
