package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finentry/finentry/internal/shared"
)

func newTestLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, time.Second, wait), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	locker, mr := newTestLocker(t, 0)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "invoice:a:2024-03:lock")
	require.NoError(t, err)
	assert.True(t, mr.Exists("invoice:a:2024-03:lock"))

	_, err = locker.Acquire(ctx, "invoice:a:2024-03:lock")
	require.ErrorIs(t, err, ErrLockBusy)
	require.ErrorIs(t, err, shared.ErrConflict)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("invoice:a:2024-03:lock"))

	again, err := locker.Acquire(ctx, "invoice:a:2024-03:lock")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	locker, mr := newTestLocker(t, 0)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists("k"))

	other, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists("k"))
	require.NoError(t, other(ctx))
	assert.False(t, mr.Exists("k"))
}
