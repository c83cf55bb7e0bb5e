package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSlotLocker(client, 5*time.Second), client
}

func TestWithSlotLockRunsCriticalSection(t *testing.T) {
	locker, _ := newTestLocker(t)

	ran := false
	err := locker.WithSlotLock(context.Background(), "clinic:2025-03-10:10:00", func(ctx context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithSlotLockRejectsConcurrentHolder(t *testing.T) {
	locker, client := newTestLocker(t)

	// Simulate another instance holding the lock.
	require.NoError(t, client.Set(context.Background(),
		"lock:slot:clinic:2025-03-10:10:00", "other-token", time.Minute).Err())

	err := locker.WithSlotLock(context.Background(), "clinic:2025-03-10:10:00", func(ctx context.Context) error {
		t.Fatal("critical section must not run")
		return nil
	})

	assert.ErrorIs(t, err, ErrLockNotAcquired)
}

func TestWithSlotLockReleasesAfterRun(t *testing.T) {
	locker, client := newTestLocker(t)

	err := locker.WithSlotLock(context.Background(), "d1:2025-03-10:10:00", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	exists, err := client.Exists(context.Background(), "lock:slot:d1:2025-03-10:10:00").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	// A second acquisition on the same key succeeds.
	err = locker.WithSlotLock(context.Background(), "d1:2025-03-10:10:00", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestWithSlotLockDistinctSlotsDoNotContend(t *testing.T) {
	locker, _ := newTestLocker(t)

	err := locker.WithSlotLock(context.Background(), "d1:2025-03-10:10:00", func(ctx context.Context) error {
		return locker.WithSlotLock(ctx, "d1:2025-03-10:10:30", func(ctx context.Context) error {
			return nil
		})
	})

	assert.NoError(t, err)
}
