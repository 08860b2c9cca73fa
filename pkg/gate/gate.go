// Package gate bounds the number of in-flight HTTP attempts with a
// counting semaphore. A capacity of zero or less disables gating entirely:
// Acquire and Release become no-ops so the unbounded default costs nothing.
package gate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate is a bounded-concurrency admission gate. The zero value is not
// usable; construct with New. All methods are safe for concurrent use.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	inFlight atomic.Int64
}

// New creates a gate admitting at most capacity concurrent holders.
// A capacity <= 0 returns an unbounded gate.
func New(capacity int) *Gate {
	g := &Gate{capacity: int64(capacity)}
	if capacity > 0 {
		g.sem = semaphore.NewWeighted(int64(capacity))
	}
	return g
}

// Acquire blocks until a slot is free or ctx ends. Each successful
// Acquire must be paired with exactly one Release.
func (g *Gate) Acquire(ctx context.Context) error {
	if g.sem == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.inFlight.Add(1)
		return nil
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.inFlight.Add(1)
	return nil
}

// Release returns a slot. Calling Release without a matching Acquire is a
// programming error; the semaphore panics on over-release.
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	if g.sem != nil {
		g.sem.Release(1)
	}
}

// InFlight returns the current number of holders.
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}

// Capacity returns the configured limit, 0 meaning unbounded.
func (g *Gate) Capacity() int {
	if g.capacity <= 0 {
		return 0
	}
	return int(g.capacity)
}

// Bounded reports whether the gate enforces a limit.
func (g *Gate) Bounded() bool {
	return g.sem != nil
}
