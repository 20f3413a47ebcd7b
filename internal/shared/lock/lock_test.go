package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, time.Minute), mr
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "billing:billable:abc")
	require.NoError(t, err)

	// Second acquire on the same key fails while held.
	_, err = locker.Acquire(ctx, "billing:billable:abc")
	assert.ErrorIs(t, err, ErrNotAcquired)

	// Other keys are unaffected.
	otherRelease, err := locker.Acquire(ctx, "billing:billable:other")
	require.NoError(t, err)
	otherRelease()

	release()

	// Released lock can be re-acquired.
	release2, err := locker.Acquire(ctx, "billing:billable:abc")
	require.NoError(t, err)
	release2()
}

func TestRedisLocker_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client, time.Second)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "billing:billable:abc")
	require.NoError(t, err)

	// After the TTL elapses the lock is free even without a release.
	mr.FastForward(2 * time.Second)

	release, err := locker.Acquire(ctx, "billing:billable:abc")
	require.NoError(t, err)
	release()
}

func TestRedisLocker_ReleaseIsOwnerChecked(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "billing:billable:abc")
	require.NoError(t, err)

	// Simulate the lock expiring and being re-acquired by another holder.
	mr.Del("billing:billable:abc")
	_, err = locker.Acquire(ctx, "billing:billable:abc")
	require.NoError(t, err)

	// The stale release must not remove the new holder's lock.
	release()
	_, err = locker.Acquire(ctx, "billing:billable:abc")
	assert.ErrorIs(t, err, ErrNotAcquired)
}
