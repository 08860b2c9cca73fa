// Package breaker implements per-endpoint circuit breaking.
//
// A breaker is keyed by "provider|model" and trips after a run of
// consecutive endpoint-health failures, rejecting calls outright until a
// cooldown elapses. After the cooldown, exactly one probe call is admitted
// at a time: its success closes the circuit, its failure re-opens it and
// restarts the cooldown.
//
// Only failures classified as endpoint health (transient HTTP and network
// faults) advance the failure count; rate limits, auth failures, and caller
// cancellations say nothing about the endpoint and are not reported here.
package breaker

import (
	"errors"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/clock"
)

// ErrOpen is returned by Allow while the circuit is open or while a
// half-open probe is already in flight.
var ErrOpen = errors.New("breaker: circuit open")

// State identifies a breaker's position in its lifecycle.
type State string

const (
	// StateClosed: calls proceed normally
	StateClosed State = "closed"

	// StateOpen: calls are rejected until the cooldown elapses
	StateOpen State = "open"

	// StateHalfOpen: one probe call at a time decides the outcome
	StateHalfOpen State = "half-open"
)

// Default breaker tuning.
const (
	DefaultFailureThreshold = 5
	DefaultCooldownPeriod   = 30 * time.Second
)

// Config holds breaker tuning. Zero values select the defaults.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit
	FailureThreshold int

	// CooldownPeriod is how long an open circuit rejects calls before
	// admitting a probe
	CooldownPeriod time.Duration
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.CooldownPeriod <= 0 {
		c.CooldownPeriod = DefaultCooldownPeriod
	}
}

// Breaker is the state machine for one endpoint. All methods are safe for
// concurrent use; construct with NewBreaker or through a Board.
type Breaker struct {
	mu sync.Mutex

	state               State
	consecutiveFailures int
	openedAt            time.Time
	probeInFlight       bool

	cfg      Config
	clk      clock.Clock
	onChange func(from, to State)
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg Config, clk clock.Clock) *Breaker {
	cfg.ApplyDefaults()
	if clk == nil {
		clk = clock.New()
	}
	return &Breaker{
		state: StateClosed,
		cfg:   cfg,
		clk:   clk,
	}
}

// Allow reports whether a call may proceed right now. In the half-open
// state a nil return admits the caller as the probe: it must settle the
// admission with Success, Failure, or Release so the probe slot frees.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		if b.clk.Now().Sub(b.openedAt) < b.cfg.CooldownPeriod {
			return ErrOpen
		}
		// Cooldown elapsed: this caller becomes the half-open probe.
		b.transitionLocked(StateHalfOpen)
		b.probeInFlight = true
		return nil

	case StateHalfOpen:
		if b.probeInFlight {
			return ErrOpen
		}
		b.probeInFlight = true
		return nil
	}
	return nil
}

// Success records a successful call. A half-open probe success closes the
// circuit and resets the failure count.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.probeInFlight = false
		b.consecutiveFailures = 0
		b.transitionLocked(StateClosed)
	case StateClosed:
		b.consecutiveFailures = 0
	}
}

// Release settles an admission whose outcome says nothing about endpoint
// health (a rate limit, an auth rejection, a caller cancellation). In the
// half-open state it frees the probe slot without a verdict, so the next
// caller may probe; in every other state it is a no-op.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probeInFlight = false
	}
}

// Failure records an endpoint-health failure. Callers must only report
// failures that say something about the endpoint; the chat error kinds
// expose this as CountsTowardBreaker.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.probeInFlight = false
		b.openedAt = b.clk.Now()
		b.transitionLocked(StateOpen)
	case StateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.openedAt = b.clk.Now()
			b.transitionLocked(StateOpen)
		}
	}
}

// Check reports whether a call could be admitted right now, without
// claiming the half-open probe slot. The runtime consults it before
// charging the rate limiter or taking a concurrency slot; Allow remains
// the authoritative, probe-claiming check before each attempt.
func (b *Breaker) Check() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.clk.Now().Sub(b.openedAt) < b.cfg.CooldownPeriod {
			return ErrOpen
		}
	case StateHalfOpen:
		if b.probeInFlight {
			return ErrOpen
		}
	}
	return nil
}

// State returns the current state without advancing it: an open breaker
// past its cooldown still reports open until a call probes it.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ConsecutiveFailures returns the current failure run length.
func (b *Breaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}

// transitionLocked moves to a new state and fires the change callback.
// Caller holds the lock; the callback runs outside it on a goroutine so a
// slow observer cannot stall admission.
func (b *Breaker) transitionLocked(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to

	if b.onChange != nil {
		go b.onChange(from, to)
	}
}
