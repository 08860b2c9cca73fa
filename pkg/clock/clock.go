// Package clock abstracts time for the runtime's waiting components.
//
// The rate limiter, retry executor, and circuit breaker never call the time
// package directly; they take a Clock so tests can drive waits
// deterministically with a FakeClock instead of sleeping for real.
package clock

import (
	"context"
	"time"
)

// Clock provides the current time and a cancellable sleep.
type Clock interface {
	// Now returns the current time. The real implementation returns a
	// time.Time carrying a monotonic reading, so durations computed
	// between two Now calls are immune to wall-clock adjustments.
	Now() time.Time

	// Sleep blocks for d or until ctx is done, whichever comes first.
	// It returns nil after a full sleep and ctx.Err() on cancellation.
	// A non-positive d returns immediately with nil.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the production Clock backed by the time package.
type Real struct{}

// New returns the production clock.
func New() Clock {
	return Real{}
}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// Sleep waits on a timer and the context simultaneously.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
