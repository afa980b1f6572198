package apiclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clockedLimiter wires a WindowLimiter to a fake clock. Sleeping
// advances the clock instead of blocking.
func clockedLimiter(limits map[string]int) (*WindowLimiter, *time.Time, *[]time.Duration) {
	now := time.Unix(1_700_000_000, 0)
	var sleeps []time.Duration
	limiter := NewWindowLimiter(limits)
	limiter.now = func() time.Time { return now }
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		now = now.Add(d)
		return nil
	}
	return limiter, &now, &sleeps
}

func TestWindowLimiterAllowsUpToLimit(t *testing.T) {
	limiter, _, sleeps := clockedLimiter(map[string]int{"gmail": 3})
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(context.Background(), "user-1", "gmail"))
	}
	assert.Empty(t, *sleeps)
}

func TestWindowLimiterBlocksUntilWindowResets(t *testing.T) {
	limiter, _, sleeps := clockedLimiter(map[string]int{"gmail": 2})
	require.NoError(t, limiter.Wait(context.Background(), "user-1", "gmail"))
	require.NoError(t, limiter.Wait(context.Background(), "user-1", "gmail"))

	// Third call exhausts the window and must sleep to the reset.
	require.NoError(t, limiter.Wait(context.Background(), "user-1", "gmail"))
	require.Len(t, *sleeps, 1)
	assert.Equal(t, time.Minute, (*sleeps)[0])
}

func TestWindowLimiterIsolatesUsersAndSources(t *testing.T) {
	limiter, _, sleeps := clockedLimiter(map[string]int{"gmail": 1, "slack": 1})
	require.NoError(t, limiter.Wait(context.Background(), "user-1", "gmail"))
	require.NoError(t, limiter.Wait(context.Background(), "user-2", "gmail"))
	require.NoError(t, limiter.Wait(context.Background(), "user-1", "slack"))
	assert.Empty(t, *sleeps)
}

func TestWindowLimiterUnknownSourcePasses(t *testing.T) {
	limiter, _, sleeps := clockedLimiter(map[string]int{"gmail": 1})
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Wait(context.Background(), "user-1", "linear"))
	}
	assert.Empty(t, *sleeps)
}

func TestWindowLimiterNewWindowAfterElapse(t *testing.T) {
	limiter, now, sleeps := clockedLimiter(map[string]int{"gmail": 1})
	require.NoError(t, limiter.Wait(context.Background(), "user-1", "gmail"))

	*now = now.Add(61 * time.Second)
	require.NoError(t, limiter.Wait(context.Background(), "user-1", "gmail"))
	assert.Empty(t, *sleeps)
}

func TestWindowLimiterHonorsContextCancellation(t *testing.T) {
	limiter := NewWindowLimiter(map[string]int{"gmail": 1})
	require.NoError(t, limiter.Wait(context.Background(), "user-1", "gmail"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := limiter.Wait(ctx, "user-1", "gmail")
	assert.ErrorIs(t, err, context.Canceled)
}
