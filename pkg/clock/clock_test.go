package clock

import (
	"context"
	"sync"
	"testing"
	"time"
)

// ============================================================================
// Real Clock Tests
// ============================================================================

func TestRealSleepCompletes(t *testing.T) {
	c := New()

	start := time.Now()
	if err := c.Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("sleep returned after %v, expected at least 10ms", elapsed)
	}
}

func TestRealSleepCancelled(t *testing.T) {
	c := New()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := c.Sleep(ctx, 5*time.Second)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took %v, expected prompt return", elapsed)
	}
}

func TestRealSleepZeroDuration(t *testing.T) {
	c := New()

	if err := c.Sleep(context.Background(), 0); err != nil {
		t.Errorf("expected nil for zero duration, got %v", err)
	}
	if err := c.Sleep(context.Background(), -time.Second); err != nil {
		t.Errorf("expected nil for negative duration, got %v", err)
	}
}

func TestRealNowMonotonic(t *testing.T) {
	c := New()

	a := c.Now()
	b := c.Now()
	if b.Before(a) {
		t.Error("expected Now to be non-decreasing")
	}
}

// ============================================================================
// Fake Clock Tests
// ============================================================================

func TestFakeAdvanceWakesSleeper(t *testing.T) {
	f := NewFake()

	done := make(chan error, 1)
	go func() {
		done <- f.Sleep(context.Background(), 30*time.Second)
	}()

	f.BlockUntil(1)

	// Not enough yet.
	f.Advance(29 * time.Second)
	select {
	case err := <-done:
		t.Fatalf("sleeper woke early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	f.Advance(time.Second)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sleeper did not wake after full advance")
	}
}

func TestFakeSleepCancelled(t *testing.T) {
	f := NewFake()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.Sleep(ctx, time.Hour)
	}()

	f.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled sleeper did not return")
	}

	if n := f.Sleepers(); n != 0 {
		t.Errorf("expected 0 sleepers after cancellation, got %d", n)
	}
}

func TestFakeMultipleSleepers(t *testing.T) {
	f := NewFake()

	var wg sync.WaitGroup
	results := make(chan time.Duration, 3)
	for _, d := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second} {
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			if err := f.Sleep(context.Background(), d); err == nil {
				results <- d
			}
		}(d)
	}

	f.BlockUntil(3)

	f.Advance(2 * time.Second)
	// Give the two woken goroutines time to report.
	deadline := time.After(time.Second)
	woken := 0
	for woken < 2 {
		select {
		case <-results:
			woken++
		case <-deadline:
			t.Fatalf("expected 2 woken sleepers, got %d", woken)
		}
	}

	if n := f.Sleepers(); n != 1 {
		t.Errorf("expected 1 remaining sleeper, got %d", n)
	}

	f.Advance(time.Second)
	wg.Wait()
}

func TestFakeNowAdvances(t *testing.T) {
	f := NewFake()

	before := f.Now()
	f.Advance(90 * time.Second)
	after := f.Now()

	if got := after.Sub(before); got != 90*time.Second {
		t.Errorf("expected 90s advance, got %v", got)
	}
}

func TestFakeNextWakeup(t *testing.T) {
	f := NewFake()

	if _, ok := f.NextWakeup(); ok {
		t.Error("expected no wakeup with no sleepers")
	}

	go func() { _ = f.Sleep(context.Background(), 5*time.Second) }()
	go func() { _ = f.Sleep(context.Background(), 2*time.Second) }()
	f.BlockUntil(2)

	next, ok := f.NextWakeup()
	if !ok {
		t.Fatal("expected a pending wakeup")
	}
	if want := f.Now().Add(2 * time.Second); !next.Equal(want) {
		t.Errorf("expected earliest wakeup %v, got %v", want, next)
	}

	f.Advance(5 * time.Second)
}
