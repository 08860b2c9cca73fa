package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a runtime failure. The set is closed: every error the
// runtime surfaces carries exactly one of these kinds, and retry and
// circuit-breaker decisions are functions of the kind alone.
type Kind string

const (
	// KindCancelled: the caller's context was cancelled or its deadline
	// passed. Never retried, never counted against the endpoint.
	KindCancelled Kind = "cancelled"

	// KindRateLimited: HTTP 429 or a provider-signaled rate limit.
	// Retried (honoring Retry-After), not counted against the endpoint.
	KindRateLimited Kind = "rate_limited"

	// KindTransient: HTTP 500/502/503/504, network/DNS/TLS failures,
	// connection resets, per-attempt timeouts. Retried and counted
	// against the endpoint's circuit breaker.
	KindTransient Kind = "transient"

	// KindAuth: HTTP 401/403. Not retried.
	KindAuth Kind = "auth"

	// KindBadRequest: HTTP 400/404/422 and any other unlisted 4xx.
	// Not retried.
	KindBadRequest Kind = "bad_request"

	// KindCircuitOpen: the endpoint's circuit breaker rejected the call
	// before any HTTP traffic. Not retried.
	KindCircuitOpen Kind = "circuit_open"

	// KindUpstream: the provider answered 2xx but the body yielded no
	// completion (unparseable JSON or an empty response path). Handled
	// like KindTransient: retried and counted against the breaker.
	KindUpstream Kind = "upstream"

	// KindConfig: the provider is unknown, inactive, or missing its chat
	// endpoint. Not retried.
	KindConfig Kind = "config"

	// KindOther: an error that did not originate in the runtime and
	// carries no classification. Not retried, not counted against the
	// endpoint: an unknown failure says nothing about its health.
	KindOther Kind = "other"
)

// Error is the single error shape surfaced by the runtime. Pipeline stages
// construct it as close to the failure as possible; outer stages only add
// context (attempt number, provider, model) without changing the kind.
type Error struct {
	// Kind is the failure classification
	Kind Kind

	// Provider is the normalized provider name, when known
	Provider string

	// Model is the requested model, when known
	Model string

	// HTTPStatus is the response status code, zero when the failure
	// happened below the HTTP layer
	HTTPStatus int

	// Attempt is the 1-based attempt number that produced this error,
	// zero when the failure precedes the attempt loop
	Attempt int

	// RetryAfter is the provider's Retry-After hint, zero when absent
	RetryAfter time.Duration

	// Message is a short human-readable description
	Message string

	// Cause is the underlying error, when one exists
	Cause error
}

// Error implements the error interface. The message leads with the kind,
// then provider/model, then detail and status, so log lines and user-facing
// failures read the same way everywhere.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Provider != "" {
		b.WriteString(" [")
		b.WriteString(e.Provider)
		if e.Model != "" {
			b.WriteString("/")
			b.WriteString(e.Model)
		}
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.HTTPStatus != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.HTTPStatus)
	}
	if e.Attempt > 0 {
		fmt.Fprintf(&b, " (attempt %d)", e.Attempt)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the retry executor may try again after this
// error. Only rate limits and endpoint-health failures qualify.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindTransient, KindUpstream:
		return true
	default:
		return false
	}
}

// CountsTowardBreaker reports whether this error signals endpoint ill
// health and should advance the circuit breaker's failure count. Rate
// limits deliberately do not: 429 means "slow down", not "broken".
func (e *Error) CountsTowardBreaker() bool {
	return e.Kind == KindTransient || e.Kind == KindUpstream
}

// New constructs an Error with a formatted message.
func New(kind Kind, provider, model, format string, args ...interface{}) *Error {
	return &Error{
		Kind:     kind,
		Provider: provider,
		Model:    model,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Wrap constructs an Error around an underlying cause.
func Wrap(kind Kind, provider, model string, cause error) *Error {
	return &Error{
		Kind:     kind,
		Provider: provider,
		Model:    model,
		Cause:    cause,
	}
}

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}

// KindOf returns the kind carried by err, or KindOther for non-nil
// errors that did not originate in the runtime.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if cerr, ok := AsError(err); ok {
		return cerr.Kind
	}
	return KindOther
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	cerr, ok := AsError(err)
	return ok && cerr.Kind == kind
}
