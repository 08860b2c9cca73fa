package config

import "time"

// Default values for all configuration sections.
const (
	DefaultRequestsPerMinute = 60
	DefaultTokensPerMinute   = 90000
	DefaultMaxConcurrent     = 0

	DefaultFailureThreshold = 5
	DefaultCooldown         = 30 * time.Second

	DefaultRetries        = 3
	DefaultBackoffFactor  = 2.0
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 60 * time.Second

	DefaultEstimatorMode   = EstimatorHeuristic
	DefaultCharsPerToken   = 4.0
	DefaultMessageOverhead = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stderr"

	DefaultMetricsNamespace = "ganymede"
	DefaultMetricsSubsystem = "chat"
	DefaultMetricsPath      = "/metrics"

	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "ganymede"
	DefaultTracingSampleRatio = 1.0

	DefaultJournalBackend    = JournalBackendMemory
	DefaultJournalSQLitePath = "ganymede-journal.db"
	DefaultJournalBufferSize = 1024
	DefaultRetentionDays     = 30
	DefaultRetentionSchedule = "0 3 * * *"

	DefaultCatalogPath = "ganymede-catalog.db"
	DefaultCatalogTTL  = 24 * time.Hour
)

// DefaultConfig returns a fully defaulted configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every unset field in cfg with its default value.
// Explicitly set values are never overwritten.
func ApplyDefaults(cfg *Config) {
	if cfg.Limits.RequestsPerMinute <= 0 {
		cfg.Limits.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.Limits.TokensPerMinute <= 0 {
		cfg.Limits.TokensPerMinute = DefaultTokensPerMinute
	}
	if cfg.Limits.MaxConcurrent < 0 {
		cfg.Limits.MaxConcurrent = DefaultMaxConcurrent
	}

	if cfg.Breaker.FailureThreshold <= 0 {
		cfg.Breaker.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Breaker.Cooldown <= 0 {
		cfg.Breaker.Cooldown = DefaultCooldown
	}

	if cfg.Retry.Retries < 0 {
		cfg.Retry.Retries = DefaultRetries
	}
	if cfg.Retry.BackoffFactor <= 0 {
		cfg.Retry.BackoffFactor = DefaultBackoffFactor
	}
	if cfg.Retry.InitialBackoff <= 0 {
		cfg.Retry.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.Retry.MaxBackoff <= 0 {
		cfg.Retry.MaxBackoff = DefaultMaxBackoff
	}

	if cfg.Estimator.Mode == "" {
		cfg.Estimator.Mode = DefaultEstimatorMode
	}
	if cfg.Estimator.CharsPerToken <= 0 {
		cfg.Estimator.CharsPerToken = DefaultCharsPerToken
	}
	if cfg.Estimator.MessageOverhead <= 0 {
		cfg.Estimator.MessageOverhead = DefaultMessageOverhead
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = DefaultLogOutput
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if len(cfg.Metrics.RequestDurationBuckets) == 0 {
		cfg.Metrics.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}
	if len(cfg.Metrics.LimiterWaitBuckets) == 0 {
		cfg.Metrics.LimiterWaitBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0}
	}

	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.SampleRatio <= 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}

	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLitePath == "" {
		cfg.Journal.SQLitePath = DefaultJournalSQLitePath
	}
	if cfg.Journal.BufferSize <= 0 {
		cfg.Journal.BufferSize = DefaultJournalBufferSize
	}
	if cfg.Journal.Retention.Days == 0 {
		cfg.Journal.Retention.Days = DefaultRetentionDays
	}
	if cfg.Journal.Retention.Schedule == "" {
		cfg.Journal.Retention.Schedule = DefaultRetentionSchedule
	}

	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = DefaultCatalogPath
	}
	if cfg.Catalog.TTL <= 0 {
		cfg.Catalog.TTL = DefaultCatalogTTL
	}
}
