package config

import (
	"time"

	"mercator-hq/ganymede/pkg/registry"
)

// Config is the root configuration structure for the Ganymede runtime. It
// contains all sections: provider registry overlays, admission limits,
// circuit breaker and retry tuning, token estimation, telemetry, the usage
// journal, and the persistent model catalog.
type Config struct {
	// Providers maps provider names to partial configs merged over the
	// shipped defaults at startup (and on hot reload). API keys given here
	// are stripped into the key store and never written back to disk.
	Providers map[string]registry.Partial `yaml:"providers"`

	// Limits contains rate limiting and concurrency admission settings.
	Limits LimitsConfig `yaml:"limits"`

	// Breaker contains per-endpoint circuit breaker tuning.
	Breaker BreakerConfig `yaml:"breaker"`

	// Retry contains the default retry policy for chat calls.
	Retry RetryConfig `yaml:"retry"`

	// Estimator selects and tunes the prompt token estimator.
	Estimator EstimatorConfig `yaml:"estimator"`

	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Journal contains usage journal configuration.
	Journal JournalConfig `yaml:"journal"`

	// Catalog contains the persistent model-catalog cache configuration.
	Catalog CatalogConfig `yaml:"catalog"`
}

// LimitsConfig contains admission-control settings applied before any HTTP
// traffic leaves the process.
type LimitsConfig struct {
	// RequestsPerMinute caps admitted requests per minute.
	// Default: 60
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// TokensPerMinute caps the sum of estimated prompt tokens admitted
	// per minute.
	// Default: 90000
	TokensPerMinute int `yaml:"tokens_per_minute"`

	// MaxConcurrent bounds simultaneous in-flight HTTP attempts.
	// Zero or negative means unbounded.
	// Default: 0 (unbounded)
	MaxConcurrent int `yaml:"max_concurrent"`
}

// BreakerConfig contains circuit breaker tuning shared by every
// provider|model endpoint.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive endpoint-health
	// failures that opens the circuit.
	// Default: 5
	FailureThreshold int `yaml:"failure_threshold"`

	// Cooldown is how long an open circuit rejects calls before allowing
	// a half-open probe.
	// Default: 30s
	Cooldown time.Duration `yaml:"cooldown"`
}

// RetryConfig contains the default retry policy. Individual calls may
// override these through runtime options.
type RetryConfig struct {
	// Retries is the maximum number of additional attempts after the first.
	// Default: 3
	Retries int `yaml:"retries"`

	// BackoffFactor multiplies the backoff delay after each attempt.
	// Default: 2.0
	BackoffFactor float64 `yaml:"backoff_factor"`

	// InitialBackoff is the pre-jitter delay before the second attempt.
	// Default: 1s
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff caps the post-jitter delay.
	// Default: 60s
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// Timeout bounds each individual HTTP attempt. Zero means no
	// per-attempt bound beyond the caller's context.
	// Default: 0
	Timeout time.Duration `yaml:"timeout"`
}

// Estimator modes.
const (
	// EstimatorHeuristic estimates ~4 characters per token plus a small
	// per-message overhead. No external data files.
	EstimatorHeuristic = "heuristic"

	// EstimatorTiktoken uses the cl100k_base BPE vocabulary for exact
	// counts, falling back to the heuristic when the vocabulary cannot
	// be loaded.
	EstimatorTiktoken = "tiktoken"
)

// EstimatorConfig selects the token estimator used for admission control.
type EstimatorConfig struct {
	// Mode is "heuristic" or "tiktoken".
	// Default: "heuristic"
	Mode string `yaml:"mode"`

	// CharsPerToken tunes the heuristic divisor.
	// Default: 4.0
	CharsPerToken float64 `yaml:"chars_per_token"`

	// MessageOverhead is the per-message token overhead added by the
	// heuristic.
	// Default: 4
	MessageOverhead int `yaml:"message_overhead"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum level emitted: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "text" or "json".
	// Default: "text"
	Format string `yaml:"format"`

	// Output is "stdout", "stderr", or a file path.
	// Default: "stderr"
	Output string `yaml:"output"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected at all.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "ganymede"
	Namespace string `yaml:"namespace"`

	// Subsystem is the second metric name segment.
	// Default: "chat"
	Subsystem string `yaml:"subsystem"`

	// Path is where the scrape handler is mounted when the embedding
	// application serves it.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// RequestDurationBuckets are the latency histogram buckets in seconds.
	// Default: optimized for LLM request latencies (100ms - 30s)
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// LimiterWaitBuckets are the admission-wait histogram buckets in
	// seconds.
	// Default: 1ms - 60s exponential
	LimiterWaitBuckets []float64 `yaml:"limiter_wait_buckets"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled controls whether spans are produced and trace-context
	// headers injected on outbound requests.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address, host:port.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName identifies this process in traces.
	// Default: "ganymede"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of root spans sampled, 0.0 to 1.0.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS to the collector (local development).
	// Default: false
	Insecure bool `yaml:"insecure"`
}

// Journal backends.
const (
	// JournalBackendMemory keeps records in a bounded in-memory ring.
	JournalBackendMemory = "memory"

	// JournalBackendSQLite persists records to a local SQLite database.
	JournalBackendSQLite = "sqlite"
)

// JournalConfig contains usage journal settings.
type JournalConfig struct {
	// Enabled controls whether per-call usage records are kept.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "ganymede-journal.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BufferSize is the async recorder's channel capacity; records are
	// dropped (and counted) when the buffer is full.
	// Default: 1024
	BufferSize int `yaml:"buffer_size"`

	// Retention contains pruning settings for old records.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig controls journal pruning.
type RetentionConfig struct {
	// Days is how long records are kept. Negative disables pruning.
	// Default: 30
	Days int `yaml:"days"`

	// Schedule is the cron expression for the pruning job.
	// Default: "0 3 * * *" (daily at 03:00)
	Schedule string `yaml:"schedule"`
}

// CatalogConfig contains the persistent model-catalog cache settings.
type CatalogConfig struct {
	// Enabled controls whether catalogs are persisted across restarts.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file for the catalog cache.
	// Default: "ganymede-catalog.db"
	Path string `yaml:"path"`

	// TTL is how long a persisted catalog stays fresh.
	// Default: 24h
	TTL time.Duration `yaml:"ttl"`

	// RefreshSchedule is the cron expression for background refresh of
	// active providers' catalogs. Empty disables background refresh.
	// Default: "" (disabled)
	RefreshSchedule string `yaml:"refresh_schedule"`
}
