package lock

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options bound how long an Acquire may wait on a contended key. Creation is
// rare and short-lived, so the defaults trade latency for safety: a crashed
// holder is fenced off by the TTL, and a waiter gives up after roughly
// Retries*Interval.
type Options struct {
	TTL      time.Duration
	Retries  int
	Interval time.Duration
}

// DefaultOptions matches the provisioning lock budget: 5 s TTL, up to 20
// retries at 250 ms intervals.
func DefaultOptions() Options {
	return Options{
		TTL:      5000 * time.Millisecond,
		Retries:  20,
		Interval: 250 * time.Millisecond,
	}
}

// Manager acquires scoped locks with bounded retry on top of a Backend.
type Manager struct {
	backend Backend
	opts    Options
	log     *zap.Logger
}

func NewManager(backend Backend, opts Options, log *zap.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultOptions().TTL
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultOptions().Retries
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	return &Manager{backend: backend, opts: opts, log: log.Named("lock")}
}

// Acquire blocks until the key is locked or the retry budget is exhausted,
// in which case it fails with ErrTimeout. Context cancellation aborts the
// wait early.
func (m *Manager) Acquire(ctx context.Context, key string) (*Handle, error) {
	attempts := m.opts.Retries + 1
	for i := 0; i < attempts; i++ {
		token, ok, err := m.backend.TryLock(ctx, key, m.opts.TTL)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Handle{backend: m.backend, key: key, token: token}, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.opts.Interval):
		}
	}
	m.log.Warn("lock retry budget exhausted", zap.String("key", key))
	return nil, ErrTimeout
}

// Handle is proof of ownership of an acquired lock. Release is idempotent;
// call it on every exit path, normally via defer.
type Handle struct {
	backend Backend
	key     string
	token   string

	once sync.Once
	err  error
}

// Key returns the locked key.
func (h *Handle) Key() string { return h.key }

// Release gives the lock back. It succeeds even when the lock already
// expired, and subsequent calls are no-ops returning the first result.
func (h *Handle) Release(ctx context.Context) error {
	h.once.Do(func() {
		h.err = h.backend.Release(ctx, h.key, h.token)
	})
	return h.err
}
