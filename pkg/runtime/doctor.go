package runtime

import (
	"context"
	"strings"

	"mercator-hq/ganymede/pkg/breaker"
	"mercator-hq/ganymede/pkg/registry"
)

// ProviderHealth is one provider's row in the doctor report.
type ProviderHealth struct {
	// Provider is the normalized provider name
	Provider string `json:"provider"`

	// ChatAPIURL is the configured chat endpoint
	ChatAPIURL string `json:"chat_api_url"`

	// DefaultModel is the model used when a call names none
	DefaultModel string `json:"default_model,omitempty"`

	// HasAPIKey reports whether a key resolves from the store or env
	HasAPIKey bool `json:"has_api_key"`

	// KeyOptional reports whether the provider accepts anonymous use
	KeyOptional bool `json:"key_optional"`

	// ModelsReachable reports whether the models endpoint returned a
	// non-empty catalog
	ModelsReachable bool `json:"models_reachable"`

	// ModelCount is the catalog size observed
	ModelCount int `json:"model_count"`

	// Breakers lists this provider's endpoint circuits and their states
	Breakers []breaker.EndpointState `json:"breakers,omitempty"`
}

// DoctorReport is a point-in-time health snapshot of the runtime and its
// active providers.
type DoctorReport struct {
	// Providers holds one row per active provider, sorted by name
	Providers []ProviderHealth `json:"providers"`

	// LimiterRequestsAvailable and LimiterTokensAvailable are the current
	// bucket levels
	LimiterRequestsAvailable int `json:"limiter_requests_available"`
	LimiterTokensAvailable   int `json:"limiter_tokens_available"`

	// GateInFlight and GateCapacity describe the concurrency gate;
	// capacity 0 means unbounded
	GateInFlight int `json:"gate_in_flight"`
	GateCapacity int `json:"gate_capacity"`
}

// Healthy reports whether every active provider has usable credentials and
// a reachable catalog, and no circuit is open.
func (r *DoctorReport) Healthy() bool {
	for _, p := range r.Providers {
		if !p.HasAPIKey && !p.KeyOptional {
			return false
		}
		for _, b := range p.Breakers {
			if b.State == breaker.StateOpen {
				return false
			}
		}
	}
	return true
}

// Doctor probes every active provider: credential presence, models-endpoint
// reachability, and breaker states, plus the limiter and gate levels.
// Probing a provider with a broken catalog endpoint degrades to
// ModelsReachable=false rather than an error.
func (rt *Runtime) Doctor(ctx context.Context) *DoctorReport {
	report := &DoctorReport{
		GateInFlight: rt.gate.InFlight(),
		GateCapacity: rt.gate.Capacity(),
	}

	rt.limMu.Lock()
	limiter := rt.limiter
	rt.limMu.Unlock()
	report.LimiterRequestsAvailable, report.LimiterTokensAvailable = limiter.Available()

	snapshot := rt.board.Snapshot()

	for _, cfg := range rt.reg.List(registry.ListOptions{ActiveOnly: true}) {
		health := ProviderHealth{
			Provider:     cfg.Name,
			ChatAPIURL:   cfg.ChatAPIURL,
			DefaultModel: cfg.DefaultModel,
			HasAPIKey:    rt.reg.HasAPIKey(cfg.Name),
			KeyOptional:  cfg.Auth.Optional,
		}

		if cfg.ModelsAPIURL != "" {
			models := rt.Models(ctx, cfg.Name, "")
			health.ModelCount = len(models)
			health.ModelsReachable = len(models) > 0
		}

		prefix := cfg.Name + "|"
		for _, state := range snapshot {
			if strings.HasPrefix(state.Key, prefix) {
				health.Breakers = append(health.Breakers, state)
			}
		}

		report.Providers = append(report.Providers, health)
	}

	return report
}
