package clock

import (
	"context"
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Sleepers block until
// Advance moves the fake time past their wakeup point or their context
// is cancelled. The zero value is not usable; construct with NewFake.
type Fake struct {
	mu       sync.Mutex
	now      time.Time
	sleepers []*sleeper
	changed  chan struct{}
}

type sleeper struct {
	until time.Time
	wake  chan struct{}
}

// NewFake returns a fake clock starting at a fixed, arbitrary instant.
func NewFake() *Fake {
	return &Fake{
		now:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		changed: make(chan struct{}),
	}
}

// Now returns the current fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep blocks until Advance reaches now+d or ctx is done.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	f.mu.Lock()
	s := &sleeper{
		until: f.now.Add(d),
		wake:  make(chan struct{}),
	}
	f.sleepers = append(f.sleepers, s)
	f.broadcastLocked()
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		f.remove(s)
		return ctx.Err()
	case <-s.wake:
		return nil
	}
}

// Advance moves the fake time forward and wakes every sleeper whose
// deadline has been reached.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)

	remaining := f.sleepers[:0]
	for _, s := range f.sleepers {
		if !s.until.After(f.now) {
			close(s.wake)
		} else {
			remaining = append(remaining, s)
		}
	}
	f.sleepers = remaining
	f.broadcastLocked()
}

// Sleepers returns the number of goroutines currently blocked in Sleep.
func (f *Fake) Sleepers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sleepers)
}

// BlockUntil waits until at least n goroutines are blocked in Sleep.
// Tests use it to sequence Advance calls after workers have parked.
func (f *Fake) BlockUntil(n int) {
	for {
		f.mu.Lock()
		if len(f.sleepers) >= n {
			f.mu.Unlock()
			return
		}
		ch := f.changed
		f.mu.Unlock()

		<-ch
	}
}

// NextWakeup returns the earliest pending sleeper deadline and true, or a
// zero time and false when nobody is sleeping.
func (f *Fake) NextWakeup() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.sleepers) == 0 {
		return time.Time{}, false
	}
	earliest := f.sleepers[0].until
	for _, s := range f.sleepers[1:] {
		if s.until.Before(earliest) {
			earliest = s.until
		}
	}
	return earliest, true
}

func (f *Fake) remove(target *sleeper) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, s := range f.sleepers {
		if s == target {
			f.sleepers = append(f.sleepers[:i], f.sleepers[i+1:]...)
			break
		}
	}
	f.broadcastLocked()
}

// broadcastLocked wakes BlockUntil waiters after any sleeper-set change.
func (f *Fake) broadcastLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}
