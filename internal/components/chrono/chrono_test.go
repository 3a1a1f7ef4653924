package chrono

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := NewStandardClock().Sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}

func TestStandardSleep(t *testing.T) {
	start := time.Now()
	err := NewStandardClock().Sleep(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2025, 9, 16, 16, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	require.NoError(t, clock.Sleep(context.Background(), time.Second))
	clock.Advance(time.Minute)

	require.Equal(t, start.Add(time.Minute+time.Second), clock.Now())
	require.Equal(t, []time.Duration{time.Second}, clock.Sleeps())
}
