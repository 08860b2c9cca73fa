package tracing

import (
	"context"
	"testing"

	"mercator-hq/ganymede/pkg/config"
)

// ============================================================================
// Tracer Tests
// ============================================================================

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestDisabledTracerIsNoop(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tracer.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}

	ctx, span := tracer.Start(context.Background(), "chat")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Error("noop tracer produced a recording span")
	}
	if got := TraceID(ctx); got != "" {
		t.Errorf("TraceID on noop span = %q", got)
	}

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestTraceIDEmptyWithoutSpan(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("TraceID(background) = %q", got)
	}
}

func TestSetStatusNilError(t *testing.T) {
	tracer, _ := New(&config.TracingConfig{Enabled: false})
	_, span := tracer.Start(context.Background(), "op")
	defer span.End()

	// Both paths must be safe on a noop span.
	SetStatus(span, nil)
	SetStatus(span, context.DeadlineExceeded)
	SetAttempt(span, 2)
	SetHTTPStatus(span, 503)
	SetErrorKind(span, "transient")
}
