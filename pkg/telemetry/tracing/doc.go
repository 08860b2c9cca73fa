// Package tracing sets up OpenTelemetry for the runtime: an OTLP gRPC
// exporter, parent-based ratio sampling, W3C trace-context propagation,
// and helpers for the chat pipeline's span attributes. Disabled tracing
// yields a noop tracer so instrumentation stays unconditional.
package tracing
