// Package retry runs an attempt function under the runtime's retry policy:
// bounded attempts, exponential backoff with jitter, Retry-After hints, and
// a circuit-breaker check before every attempt.
//
// The executor decides from error kinds alone: RateLimited and Transient
// (and Upstream, which is handled like Transient) errors are retried, and
// only Transient/Upstream failures advance the breaker. Everything else,
// including errors that carry no classification at all, surfaces
// immediately.
package retry

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/breaker"
	"mercator-hq/ganymede/pkg/chat"
	"mercator-hq/ganymede/pkg/clock"
)

// Default retry tuning.
const (
	DefaultRetries        = 3
	DefaultBackoffFactor  = 2.0
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 60 * time.Second
)

// Policy holds the retry tuning for one call. Zero values select the
// defaults; Retries is "additional attempts after the first", so Retries=0
// still makes exactly one attempt.
type Policy struct {
	// Retries is the maximum number of additional attempts after the
	// first. Negative values select the default.
	Retries int

	// BackoffFactor multiplies the delay after each attempt
	BackoffFactor float64

	// InitialBackoff is the delay before the second attempt, pre-jitter
	InitialBackoff time.Duration

	// MaxBackoff caps the post-jitter delay
	MaxBackoff time.Duration

	// Timeout bounds each individual attempt; zero means no per-attempt
	// bound beyond the caller's context
	Timeout time.Duration
}

// ApplyDefaults fills unset fields.
func (p *Policy) ApplyDefaults() {
	if p.Retries < 0 {
		p.Retries = DefaultRetries
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = DefaultBackoffFactor
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = DefaultInitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = DefaultMaxBackoff
	}
}

// AttemptFunc performs one attempt. The 1-based attempt number is passed
// for logging; ctx already carries the per-attempt timeout when one is
// configured.
type AttemptFunc func(ctx context.Context, attempt int) error

// Executor drives attempt loops. One executor serves the whole runtime;
// the policy travels per call.
type Executor struct {
	clk clock.Clock

	mu     sync.Mutex
	jitter func() float64 // uniform in [0,1)
}

// New creates an executor. A nil clock selects the real one.
func New(clk clock.Clock) *Executor {
	if clk == nil {
		clk = clock.New()
	}
	return &Executor{
		clk:    clk,
		jitter: rand.Float64,
	}
}

// Do runs fn up to policy.Retries+1 times against the given breaker.
// The breaker may be nil (no circuit breaking, used by catalog fetches).
//
// The returned error is always a *chat.Error with Attempt set to the
// attempt that produced it, except for context errors which surface as
// KindCancelled.
func (e *Executor) Do(ctx context.Context, policy Policy, brk *breaker.Breaker, fn AttemptFunc) error {
	policy.ApplyDefaults()

	var lastErr error
	for attempt := 0; attempt <= policy.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return cancelled(err, attempt)
		}

		// A circuit that opened mid-loop aborts the remaining attempts.
		if brk != nil {
			if err := brk.Allow(); err != nil {
				return &chat.Error{
					Kind:    chat.KindCircuitOpen,
					Attempt: attempt + 1,
					Message: "circuit open",
					Cause:   err,
				}
			}
		}

		err := e.runAttempt(ctx, policy, attempt+1, fn)
		if err == nil {
			if brk != nil {
				brk.Success()
			}
			return nil
		}

		cerr := asChatError(err, attempt+1)
		lastErr = cerr

		// Every admission settles exactly once: endpoint-health failures
		// advance the breaker, anything else releases a held probe slot.
		if brk != nil {
			if cerr.CountsTowardBreaker() {
				brk.Failure()
				// A failure that tripped the circuit ends the loop now;
				// backing off first would only delay the same rejection.
				if brk.State() == breaker.StateOpen {
					return &chat.Error{
						Kind:    chat.KindCircuitOpen,
						Attempt: attempt + 1,
						Message: "circuit opened after repeated failures",
						Cause:   cerr,
					}
				}
			} else {
				brk.Release()
			}
		}

		if cerr.Kind == chat.KindCancelled || !cerr.Retryable() || attempt == policy.Retries {
			return cerr
		}

		delay := e.backoff(policy, attempt, cerr.RetryAfter)
		if err := e.clk.Sleep(ctx, delay); err != nil {
			return cancelled(err, attempt+1)
		}
	}
	return lastErr
}

// runAttempt applies the per-attempt timeout and maps a timeout that fired
// without the caller's context ending to a Transient error.
func (e *Executor) runAttempt(ctx context.Context, policy Policy, attempt int, fn AttemptFunc) error {
	attemptCtx := ctx
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	err := fn(attemptCtx, attempt)
	if err == nil {
		return nil
	}

	// Distinguish "this attempt timed out" from "the caller gave up".
	if attemptCtx.Err() != nil && ctx.Err() == nil {
		return &chat.Error{
			Kind:    chat.KindTransient,
			Message: "attempt timed out",
			Cause:   err,
		}
	}
	if ctx.Err() != nil {
		return cancelled(ctx.Err(), attempt)
	}
	return err
}

// backoff computes the pre-sleep delay for a finished attempt:
// initial·factor^attempt, jittered uniformly into [0.5,1.5), floored by
// any Retry-After hint, capped at MaxBackoff.
func (e *Executor) backoff(policy Policy, attempt int, retryAfter time.Duration) time.Duration {
	delay := float64(policy.InitialBackoff)
	for i := 0; i < attempt; i++ {
		delay *= policy.BackoffFactor
	}

	e.mu.Lock()
	factor := 0.5 + e.jitter()
	e.mu.Unlock()
	d := time.Duration(delay * factor)

	if retryAfter > d {
		d = retryAfter
	}
	if d > policy.MaxBackoff {
		d = policy.MaxBackoff
	}
	return d
}

// asChatError coerces any attempt error into the taxonomy, stamping the
// attempt number that produced it.
func asChatError(err error, attempt int) *chat.Error {
	if cerr, ok := chat.AsError(err); ok {
		if cerr.Attempt == 0 {
			cerr.Attempt = attempt
		}
		return cerr
	}
	return &chat.Error{
		Kind:    chat.KindOther,
		Attempt: attempt,
		Cause:   err,
	}
}

func cancelled(cause error, attempt int) *chat.Error {
	return &chat.Error{
		Kind:    chat.KindCancelled,
		Attempt: attempt,
		Cause:   cause,
	}
}
