package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/lock"
	"github.com/stretchr/testify/require"
)

func TestNoopAlwaysAcquires(t *testing.T) {
	var l lock.Noop
	for range 3 {
		unlock, ok, err := l.TryLock(context.Background(), "job", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		require.NotNil(t, unlock)
	}
}

func TestLocalExcludesConcurrentHolders(t *testing.T) {
	l := lock.NewLocal()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "cleanup_expired_sessions", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "cleanup_expired_sessions", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	// Other keys are independent.
	other, ok, err := l.TryLock(ctx, "generate_weekly_report", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	other()

	unlock()
	again, ok, err := l.TryLock(ctx, "cleanup_expired_sessions", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	again()
}

func TestLocalExpiredLockIsFree(t *testing.T) {
	l := lock.NewLocal()
	ctx := context.Background()

	stale, ok, err := l.TryLock(ctx, "job", time.Nanosecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(time.Millisecond)

	fresh, ok, err := l.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Releasing the stale holder must not free the new one.
	stale()
	_, ok, err = l.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	fresh()
}
