package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExclusive(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "course-1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "course-1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.Acquire(ctx, "course-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	again, err := l.Acquire(ctx, "course-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocalLockerExpiry(t *testing.T) {
	l := NewLocalLocker()
	clock := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "course-1", time.Second)
	require.NoError(t, err)

	clock = clock.Add(2 * time.Second)
	fresh, err := l.Acquire(ctx, "course-1", time.Second)
	require.NoError(t, err)

	// the stale owner must not drop the new owner's lock
	require.NoError(t, stale(ctx))
	_, err = l.Acquire(ctx, "course-1", time.Second)
	assert.ErrorIs(t, err, ErrLocked)
	require.NoError(t, fresh(ctx))
}

func TestLocalLockerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalLocker().Acquire(ctx, "course-1", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
