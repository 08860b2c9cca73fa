package runtime

import (
	"time"

	"mercator-hq/ganymede/pkg/breaker"
	"mercator-hq/ganymede/pkg/chat"
	"mercator-hq/ganymede/pkg/clock"
	"mercator-hq/ganymede/pkg/journal"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/retry"
	"mercator-hq/ganymede/pkg/secrets"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/telemetry/tracing"
	"mercator-hq/ganymede/pkg/tokens"
	"mercator-hq/ganymede/pkg/transport"
)

// DefaultProvider is used when neither the runtime nor the call names one.
const DefaultProvider = "openai"

// Options configures a Runtime at construction.
type Options struct {
	// Registry resolves providers. Nil builds one with the shipped
	// defaults, sharing the runtime's HTTP client.
	Registry *registry.Registry

	// Estimator prices prompts for admission control. Nil selects the
	// default heuristic.
	Estimator tokens.Estimator

	// Clock drives every wait. Nil selects the real clock.
	Clock clock.Clock

	// Transport tunes the HTTP client built when Registry is nil or no
	// client is shared.
	Transport transport.Config

	// RateLimit is the default dual-bucket budget.
	RateLimit ratelimit.Config

	// MaxConcurrent bounds in-flight HTTP attempts; 0 or negative means
	// unbounded.
	MaxConcurrent int

	// Breaker is the default per-endpoint circuit tuning.
	Breaker breaker.Config

	// Retry is the default retry policy; calls may override parts of it.
	// A zero Retries selects the default (3); express single-attempt
	// calls through ChatOptions.Retries instead.
	Retry retry.Policy

	// DefaultProvider overrides the package default ("openai").
	DefaultProvider string

	// Metrics receives pipeline observations. Nil means a disabled
	// collector.
	Metrics *metrics.Collector

	// Tracer produces chat spans. Nil means a noop tracer.
	Tracer *tracing.Tracer

	// Journal receives per-call usage records. Nil disables journaling.
	Journal *journal.Recorder
}

// ChatOptions tunes one call. The zero value inherits every runtime
// default; pointer fields distinguish "unset" from an explicit zero.
type ChatOptions struct {
	// Provider selects the provider; empty uses the runtime default.
	Provider string

	// Model selects the model; empty uses the provider's DefaultModel.
	Model string

	// APIKey overrides key-store and env resolution for this call only.
	APIKey secrets.Secret

	// MaxTokens caps the completion length when positive.
	MaxTokens int

	// Temperature and TopP pass through to the provider body when set.
	Temperature *float64
	TopP        *float64

	// ResponseFormat passes through for providers that support it, e.g.
	// {"type": "json_object"}.
	ResponseFormat map[string]interface{}

	// Tools and ToolChoice pass through per the provider's tool schema.
	Tools      []chat.Tool
	ToolChoice interface{}

	// RateLimit replaces the runtime's limiter parameters. The new budget
	// applies to this and all subsequent calls until replaced again.
	RateLimit *ratelimit.Config

	// Breaker selects a differently tuned circuit board for this call's
	// endpoint.
	Breaker *breaker.Config

	// Retries overrides the policy's additional-attempt count; an
	// explicit 0 means exactly one attempt.
	Retries *int

	// BackoffFactor overrides the backoff multiplier when positive.
	BackoffFactor float64

	// Timeout bounds each individual HTTP attempt when positive.
	Timeout time.Duration
}

// policyFor merges per-call overrides over the runtime's default policy.
func (rt *Runtime) policyFor(opts *ChatOptions) retry.Policy {
	policy := rt.defaultPolicy
	if opts.Retries != nil {
		policy.Retries = *opts.Retries
	}
	if opts.BackoffFactor > 0 {
		policy.BackoffFactor = opts.BackoffFactor
	}
	if opts.Timeout > 0 {
		policy.Timeout = opts.Timeout
	}
	return policy
}
