// Package lock provides the mutual exclusion that serializes engine runs.
// Two runs must never overlap: priority resolution reads incumbent state and
// writes based on that read, so concurrent runs can double-discount an item
// or duplicate audit entries.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrAlreadyRunning is returned when another engine run holds the lock.
var ErrAlreadyRunning = errors.New("engine run already in progress")

// RunLock serializes engine runs across all instances of the service.
type RunLock interface {
	// Acquire takes the lock and returns a release function. It returns
	// ErrAlreadyRunning without blocking if the lock is held.
	Acquire(ctx context.Context) (release func(ctx context.Context) error, err error)
}

// releaseScript deletes the lock key only if it still holds our token, so an
// expired lock reacquired by another run is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock implements RunLock with a Redis SET NX PX advisory lock.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLock creates a Redis-backed run lock. The TTL bounds how long a
// crashed run can keep the engine locked out.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Acquire takes the lock with a unique token and returns a compare-and-delete
// release function.
func (l *RedisLock) Acquire(ctx context.Context) (func(ctx context.Context) error, error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("release run lock: %w", err)
		}
		return nil
	}

	return release, nil
}
