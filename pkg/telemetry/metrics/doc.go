// Package metrics provides Prometheus instrumentation for the chat
// pipeline: request counts and latencies, retry attempts, error kinds,
// estimated token throughput, rate-limit wait times, concurrency gate
// occupancy, and per-endpoint circuit breaker state.
//
// A Collector registers everything against one prometheus.Registry and
// exposes a promhttp scrape handler. Every recording method is a no-op
// when metrics are disabled in configuration.
package metrics
