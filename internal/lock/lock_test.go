package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLockKey = "pricing:engine:run_lock"

func setupTestLock(t *testing.T, ttl time.Duration) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLock(client, testLockKey, ttl), mr
}

func TestRedisLock_AcquireSetsKeyWithTTL(t *testing.T) {
	l, mr := setupTestLock(t, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.NotNil(t, release)

	assert.True(t, mr.Exists(testLockKey))
	assert.Greater(t, mr.TTL(testLockKey), time.Duration(0))
	assert.LessOrEqual(t, mr.TTL(testLockKey), time.Minute)
}

func TestRedisLock_SecondAcquireRejected(t *testing.T) {
	l, _ := setupTestLock(t, time.Minute)
	ctx := context.Background()

	_, err := l.Acquire(ctx)
	require.NoError(t, err)

	release, err := l.Acquire(ctx)
	assert.Nil(t, release)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestRedisLock_ReleaseFreesLock(t *testing.T) {
	l, mr := setupTestLock(t, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx)
	require.NoError(t, err)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists(testLockKey))

	// The lock is immediately reacquirable.
	_, err = l.Acquire(ctx)
	assert.NoError(t, err)
}

func TestRedisLock_TTLExpiryFreesLock(t *testing.T) {
	l, mr := setupTestLock(t, time.Minute)
	ctx := context.Background()

	_, err := l.Acquire(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = l.Acquire(ctx)
	assert.NoError(t, err, "an expired lock must be acquirable")
}

func TestRedisLock_StaleReleaseKeepsNewHolder(t *testing.T) {
	l, mr := setupTestLock(t, time.Minute)
	ctx := context.Background()

	// First holder's lock expires mid-run.
	staleRelease, err := l.Acquire(ctx)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	// A second run takes over the lock with a fresh token.
	_, err = l.Acquire(ctx)
	require.NoError(t, err)
	newToken, err := mr.Get(testLockKey)
	require.NoError(t, err)

	// The stale holder's release compares tokens and must not delete the
	// new holder's lock.
	require.NoError(t, staleRelease(ctx))
	assert.True(t, mr.Exists(testLockKey))
	got, err := mr.Get(testLockKey)
	require.NoError(t, err)
	assert.Equal(t, newToken, got)

	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, ErrAlreadyRunning, "the new holder's lock stays held")
}
