package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys used across the chat pipeline.
const (
	AttrProvider        = "ganymede.provider"
	AttrModel           = "ganymede.model"
	AttrRequestID       = "ganymede.request_id"
	AttrAttempt         = "ganymede.attempt"
	AttrEstimatedTokens = "ganymede.estimated_tokens"
	AttrHTTPStatus      = "http.response.status_code"
	AttrErrorKind       = "ganymede.error_kind"
)

// ChatAttributes builds the standard attribute set for a chat span.
func ChatAttributes(provider, model, requestID string, estimatedTokens int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
		attribute.String(AttrRequestID, requestID),
		attribute.Int(AttrEstimatedTokens, estimatedTokens),
	}
}

// WithChatAttributes is a span start option carrying ChatAttributes.
func WithChatAttributes(provider, model, requestID string, estimatedTokens int) trace.SpanStartOption {
	return trace.WithAttributes(ChatAttributes(provider, model, requestID, estimatedTokens)...)
}

// SetAttempt stamps the current attempt number on a span.
func SetAttempt(span trace.Span, attempt int) {
	span.SetAttributes(attribute.Int(AttrAttempt, attempt))
}

// SetHTTPStatus stamps a response status on a span.
func SetHTTPStatus(span trace.Span, status int) {
	span.SetAttributes(attribute.Int(AttrHTTPStatus, status))
}

// SetErrorKind stamps the taxonomy kind of a failure on a span.
func SetErrorKind(span trace.Span, kind string) {
	span.SetAttributes(attribute.String(AttrErrorKind, kind))
}
