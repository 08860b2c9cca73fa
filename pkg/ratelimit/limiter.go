package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/clock"
)

// ErrImpossible is returned when a request's token estimate exceeds the
// bucket capacity: no amount of waiting can ever admit it.
var ErrImpossible = errors.New("ratelimit: estimated tokens exceed per-minute capacity")

// Default per-minute limits, matching common provider free-tier shapes.
const (
	DefaultRequestsPerMinute = 60
	DefaultTokensPerMinute   = 90000
)

// Config holds the limiter's per-minute budgets. Zero or negative values
// select the defaults; use an explicitly unlimited pipeline by not
// installing a limiter at all.
type Config struct {
	// RequestsPerMinute caps how many requests may be admitted per minute
	RequestsPerMinute int

	// TokensPerMinute caps the sum of estimated prompt tokens admitted
	// per minute
	TokensPerMinute int
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if c.TokensPerMinute <= 0 {
		c.TokensPerMinute = DefaultTokensPerMinute
	}
}

// Limiter is a dual token-bucket admission controller: one bucket counts
// requests, the other counts estimated prompt tokens. Both refill
// continuously at capacity/60 per second, and a caller is admitted only
// when one request slot and its full token estimate are available at the
// same instant.
//
// # Algorithm
//
//  1. Under the lock, refill both buckets from the elapsed time since the
//     last refill, capped at capacity.
//  2. If requestsAvailable >= 1 and tokensAvailable >= estimate, deduct
//     both and admit.
//  3. Otherwise compute the soonest instant at which both conditions could
//     hold assuming no competing traffic, release the lock, sleep until
//     then (or until the caller's context ends), and re-check.
//
// Admission is not FIFO: concurrent waiters race on the re-check, and the
// re-check under the lock is what prevents over-admission. Throughput over
// any full minute never exceeds the configured budgets.
//
// Deducted slots and tokens are never refunded, even when the request
// later fails or the caller is cancelled mid-pipeline. Refunding would
// require knowing whether the HTTP request reached the provider, which the
// limiter cannot observe; charging conservatively keeps the minute budgets
// honest at the cost of occasionally under-using them.
type Limiter struct {
	mu sync.Mutex

	requestsAvailable float64
	tokensAvailable   float64
	lastRefill        time.Time

	requestCapacity float64
	tokenCapacity   float64
	requestRate     float64 // slots per second
	tokenRate       float64 // tokens per second

	clk clock.Clock
}

// New creates a limiter with both buckets full.
func New(cfg Config, clk clock.Clock) *Limiter {
	cfg.ApplyDefaults()
	if clk == nil {
		clk = clock.New()
	}

	return &Limiter{
		requestsAvailable: float64(cfg.RequestsPerMinute),
		tokensAvailable:   float64(cfg.TokensPerMinute),
		lastRefill:        clk.Now(),
		requestCapacity:   float64(cfg.RequestsPerMinute),
		tokenCapacity:     float64(cfg.TokensPerMinute),
		requestRate:       float64(cfg.RequestsPerMinute) / 60.0,
		tokenRate:         float64(cfg.TokensPerMinute) / 60.0,
		clk:               clk,
	}
}

// Acquire blocks until one request slot and estimatedTokens tokens are
// available, then deducts both. It returns ctx.Err() if the context ends
// first and ErrImpossible immediately when the estimate can never fit.
func (l *Limiter) Acquire(ctx context.Context, estimatedTokens int) error {
	if estimatedTokens < 0 {
		estimatedTokens = 0
	}
	if float64(estimatedTokens) > l.tokenCapacity {
		return fmt.Errorf("%w: estimated %d, capacity %d",
			ErrImpossible, estimatedTokens, int(l.tokenCapacity))
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := l.tryAcquire(float64(estimatedTokens))
		if ok {
			return nil
		}

		if err := l.clk.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAcquire refills, then either deducts and reports success or returns
// how long to wait before the next check.
func (l *Limiter) tryAcquire(tokens float64) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()

	if l.requestsAvailable >= 1 && l.tokensAvailable >= tokens {
		l.requestsAvailable--
		l.tokensAvailable -= tokens
		return 0, true
	}

	var waitReq, waitTok float64
	if l.requestsAvailable < 1 {
		waitReq = (1 - l.requestsAvailable) / l.requestRate
	}
	if l.tokensAvailable < tokens {
		waitTok = (tokens - l.tokensAvailable) / l.tokenRate
	}

	wait := waitReq
	if waitTok > wait {
		wait = waitTok
	}

	d := time.Duration(wait * float64(time.Second))
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d, false
}

// refillLocked accrues both buckets from the elapsed time. Caller holds
// the lock.
func (l *Limiter) refillLocked() {
	now := l.clk.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	l.requestsAvailable += elapsed * l.requestRate
	if l.requestsAvailable > l.requestCapacity {
		l.requestsAvailable = l.requestCapacity
	}

	l.tokensAvailable += elapsed * l.tokenRate
	if l.tokensAvailable > l.tokenCapacity {
		l.tokensAvailable = l.tokenCapacity
	}

	l.lastRefill = now
}

// Available returns the current bucket levels after a refill, for metrics
// and the doctor report.
func (l *Limiter) Available() (requests, tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	return int(l.requestsAvailable), int(l.tokensAvailable)
}

// Capacity returns the configured per-minute budgets.
func (l *Limiter) Capacity() (requests, tokens int) {
	return int(l.requestCapacity), int(l.tokenCapacity)
}
