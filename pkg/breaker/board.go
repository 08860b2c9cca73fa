package breaker

import (
	"sort"
	"sync"

	"mercator-hq/ganymede/pkg/clock"
)

// Key builds the canonical endpoint identifier for a provider and model.
func Key(provider, model string) string {
	return provider + "|" + model
}

// Board owns the per-endpoint breakers, creating each lazily on first use
// so callers never coordinate breaker lifecycles themselves.
type Board struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker

	cfg      Config
	clk      clock.Clock
	onChange func(key string, from, to State)
}

// NewBoard creates an empty board. Every breaker it creates shares cfg and
// clk; onChange, when non-nil, observes every state transition (used by
// the metrics collector).
func NewBoard(cfg Config, clk clock.Clock, onChange func(key string, from, to State)) *Board {
	cfg.ApplyDefaults()
	if clk == nil {
		clk = clock.New()
	}
	return &Board{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
		clk:      clk,
		onChange: onChange,
	}
}

// Get returns the breaker for an endpoint key, creating it closed on first
// use.
func (bd *Board) Get(key string) *Breaker {
	bd.mu.RLock()
	b, ok := bd.breakers[key]
	bd.mu.RUnlock()
	if ok {
		return b
	}

	bd.mu.Lock()
	defer bd.mu.Unlock()

	// Re-check: another caller may have created it between the locks.
	if b, ok := bd.breakers[key]; ok {
		return b
	}

	b = NewBreaker(bd.cfg, bd.clk)
	if bd.onChange != nil {
		key := key
		b.onChange = func(from, to State) {
			bd.onChange(key, from, to)
		}
	}
	bd.breakers[key] = b
	return b
}

// Snapshot returns the state of every known endpoint, sorted by key, for
// the doctor report and metrics scrapes.
func (bd *Board) Snapshot() []EndpointState {
	bd.mu.RLock()
	defer bd.mu.RUnlock()

	states := make([]EndpointState, 0, len(bd.breakers))
	for key, b := range bd.breakers {
		states = append(states, EndpointState{
			Key:                 key,
			State:               b.State(),
			ConsecutiveFailures: b.ConsecutiveFailures(),
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Key < states[j].Key })
	return states
}

// Reset drops every breaker. Test helper.
func (bd *Board) Reset() {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	bd.breakers = make(map[string]*Breaker)
}

// EndpointState is one row of a board snapshot.
type EndpointState struct {
	Key                 string
	State               State
	ConsecutiveFailures int
}
