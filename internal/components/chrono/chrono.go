package chrono

import (
	"context"
	"time"
)

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep blocks for `d` or until ctx is done, whichever comes first.
	// It returns ctx.Err() if the sleep was cut short.
	Sleep(ctx context.Context, d time.Duration) error
}

// StandardClock is the standard implementation of API using the standard library.
type StandardClock struct{}

// NewStandardClock is the constructor of StandardClock.
func NewStandardClock() StandardClock {
	return StandardClock{}
}

func (StandardClock) Now() time.Time {
	return time.Now()
}

func (StandardClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
