package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "limits.requests_per_minute").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("  - " + err.Error() + "\n")
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All errors are collected and returned
// together. Provider partials are not validated here: the registry validates
// each merged config at Configure time, where the full merged state is
// known.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateBreaker(&cfg.Breaker)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateEstimator(&cfg.Estimator)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateTracing(&cfg.Tracing)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	if cfg.RequestsPerMinute <= 0 {
		errs = append(errs, FieldError{
			Field:   "limits.requests_per_minute",
			Message: "must be positive",
		})
	}
	if cfg.TokensPerMinute <= 0 {
		errs = append(errs, FieldError{
			Field:   "limits.tokens_per_minute",
			Message: "must be positive",
		})
	}
	return errs
}

func validateBreaker(cfg *BreakerConfig) []FieldError {
	var errs []FieldError

	if cfg.FailureThreshold <= 0 {
		errs = append(errs, FieldError{
			Field:   "breaker.failure_threshold",
			Message: "must be positive",
		})
	}
	if cfg.Cooldown <= 0 {
		errs = append(errs, FieldError{
			Field:   "breaker.cooldown",
			Message: "must be positive",
		})
	}
	return errs
}

func validateRetry(cfg *RetryConfig) []FieldError {
	var errs []FieldError

	if cfg.Retries < 0 {
		errs = append(errs, FieldError{
			Field:   "retry.retries",
			Message: "must not be negative",
		})
	}
	if cfg.BackoffFactor < 1 {
		errs = append(errs, FieldError{
			Field:   "retry.backoff_factor",
			Message: "must be at least 1",
		})
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		errs = append(errs, FieldError{
			Field:   "retry.max_backoff",
			Message: "must be at least retry.initial_backoff",
		})
	}
	return errs
}

func validateEstimator(cfg *EstimatorConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case EstimatorHeuristic, EstimatorTiktoken:
	default:
		errs = append(errs, FieldError{
			Field:   "estimator.mode",
			Message: fmt.Sprintf("must be %q or %q, got %q", EstimatorHeuristic, EstimatorTiktoken, cfg.Mode),
		})
	}
	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be debug, info, warn, or error, got %q", cfg.Level),
		})
	}

	switch cfg.Format {
	case "text", "json":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be text or json, got %q", cfg.Format),
		})
	}
	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "tracing.endpoint",
			Message: "required when tracing is enabled",
		})
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "tracing.sample_ratio",
			Message: "must be between 0.0 and 1.0",
		})
	}
	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case JournalBackendMemory, JournalBackendSQLite:
	default:
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: fmt.Sprintf("must be %q or %q, got %q", JournalBackendMemory, JournalBackendSQLite, cfg.Backend),
		})
	}
	if cfg.Enabled && cfg.Backend == JournalBackendSQLite && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite_path",
			Message: "required for the sqlite backend",
		})
	}
	return errs
}
