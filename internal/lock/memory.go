package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	token   string
	expires time.Time
}

// MemoryBackend is a process-local Backend for standalone deployments and
// tests. Entries expire lazily on the next TryLock of the same key.
type MemoryBackend struct {
	mu    sync.Mutex
	locks map[string]memoryEntry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{locks: make(map[string]memoryEntry)}
}

func (b *MemoryBackend) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if entry, held := b.locks[key]; held && entry.expires.After(now) {
		return "", false, nil
	}
	token := uuid.NewString()
	b.locks[key] = memoryEntry{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

func (b *MemoryBackend) Release(ctx context.Context, key, token string) error {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()
	if entry, held := b.locks[key]; held && entry.token == token {
		delete(b.locks, key)
	}
	return nil
}
