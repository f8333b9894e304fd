package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/delmic/odemis-sub008/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "optpath:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sparc2", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)
	assert.True(t, mr.Exists("optpath:lock:sparc2"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("optpath:lock:sparc2"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	server := redis.NewLocker(client, "optpath:")
	cli := redis.NewLocker(client, "optpath:")
	ctx := context.Background()

	unlock1, err := server.Lock(ctx, "sparc2", 5*time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = cli.Lock(ctxTimeout, "sparc2", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.WithinDuration(t, start.Add(300*time.Millisecond), time.Now(), 150*time.Millisecond, "Should block until timeout")

	// Another instrument is not blocked.
	unlockOther, err := cli.Lock(ctx, "secom", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlockOther(ctx))

	require.NoError(t, unlock1(ctx))
	unlock2, err := cli.Lock(ctx, "sparc2", 5*time.Second)
	require.NoError(t, err)
	defer unlock2(ctx)
	assert.True(t, mr.Exists("optpath:lock:sparc2"))
}

func TestRedisLocker_ExpiredLockIsNotReleasedByOldOwner(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "optpath:")
	ctx := context.Background()

	unlockOld, err := locker.Lock(ctx, "sparc2", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	unlockNew, err := locker.Lock(ctx, "sparc2", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, unlockOld(ctx))
	assert.True(t, mr.Exists("optpath:lock:sparc2"), "the new owner still holds the lock")
	require.NoError(t, unlockNew(ctx))
	assert.False(t, mr.Exists("optpath:lock:sparc2"))
}
