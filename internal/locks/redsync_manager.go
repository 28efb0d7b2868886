// Package locks serializes token refreshes across gateway instances that
// share a Redis token cache, using the Redlock implementation in redsync.
package locks

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/redis"
)

// Locker acquires a named exclusive lock. The returned function releases it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// RedsyncLocker implements Locker with redsync
type RedsyncLocker struct {
	redsync *redsync.Redsync
	prefix  string
	tries   int
}

// NewRedsyncLocker creates a locker on top of a connected Redis client
func NewRedsyncLocker(client *redis.Client) (*RedsyncLocker, error) {
	if client == nil {
		return nil, errors.ConfigurationError("redis client is required")
	}
	pool := goredis.NewPool(client.Redis())
	return &RedsyncLocker{
		redsync: redsync.New(pool),
		prefix:  "usps:lock:",
		tries:   64,
	}, nil
}

// Acquire blocks (polling) until the lock is held, ctx is done, or redsync
// gives up
func (l *RedsyncLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	mutex := l.redsync.NewMutex(l.prefix+key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(50*time.Millisecond),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return nil, errors.InternalError("failed to acquire lock "+key, err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = mutex.UnlockContext(ctx)
	}, nil
}

// NoopLocker is used with the in-memory token cache, where single-flight
// already covers the process
type NoopLocker struct{}

// Acquire returns immediately
func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
