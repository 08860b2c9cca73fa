package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/secrets"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// GANYMEDE_SECTION_FIELD (e.g., GANYMEDE_LIMITS_REQUESTS_PER_MINUTE) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies GANYMEDE_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	// Limits
	if val := os.Getenv("GANYMEDE_LIMITS_REQUESTS_PER_MINUTE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Limits.RequestsPerMinute = i
		}
	}
	if val := os.Getenv("GANYMEDE_LIMITS_TOKENS_PER_MINUTE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Limits.TokensPerMinute = i
		}
	}
	if val := os.Getenv("GANYMEDE_LIMITS_MAX_CONCURRENT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Limits.MaxConcurrent = i
		}
	}

	// Breaker
	if val := os.Getenv("GANYMEDE_BREAKER_FAILURE_THRESHOLD"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Breaker.FailureThreshold = i
		}
	}
	if val := os.Getenv("GANYMEDE_BREAKER_COOLDOWN"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Breaker.Cooldown = d
		}
	}

	// Retry
	if val := os.Getenv("GANYMEDE_RETRY_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retry.Retries = i
		}
	}
	if val := os.Getenv("GANYMEDE_RETRY_BACKOFF_FACTOR"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Retry.BackoffFactor = f
		}
	}
	if val := os.Getenv("GANYMEDE_RETRY_INITIAL_BACKOFF"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.InitialBackoff = d
		}
	}
	if val := os.Getenv("GANYMEDE_RETRY_MAX_BACKOFF"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.MaxBackoff = d
		}
	}
	if val := os.Getenv("GANYMEDE_RETRY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.Timeout = d
		}
	}

	// Estimator
	if val := os.Getenv("GANYMEDE_ESTIMATOR_MODE"); val != "" {
		cfg.Estimator.Mode = val
	}

	// Logging
	if val := os.Getenv("GANYMEDE_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_LOGGING_OUTPUT"); val != "" {
		cfg.Logging.Output = val
	}

	// Metrics
	if val := os.Getenv("GANYMEDE_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_METRICS_PATH"); val != "" {
		cfg.Metrics.Path = val
	}

	// Tracing
	if val := os.Getenv("GANYMEDE_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TRACING_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}
	if val := os.Getenv("GANYMEDE_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Tracing.SampleRatio = f
		}
	}

	// Journal
	if val := os.Getenv("GANYMEDE_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_JOURNAL_BACKEND"); val != "" {
		cfg.Journal.Backend = val
	}
	if val := os.Getenv("GANYMEDE_JOURNAL_SQLITE_PATH"); val != "" {
		cfg.Journal.SQLitePath = val
	}
	if val := os.Getenv("GANYMEDE_JOURNAL_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.Retention.Days = i
		}
	}

	// Catalog
	if val := os.Getenv("GANYMEDE_CATALOG_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Catalog.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_CATALOG_PATH"); val != "" {
		cfg.Catalog.Path = val
	}
	if val := os.Getenv("GANYMEDE_CATALOG_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Catalog.TTL = d
		}
	}

	// Provider API keys: GANYMEDE_PROVIDERS_<NAME>_API_KEY and _BASE_URL
	// for the shipped providers.
	for _, name := range []string{"openai", "anthropic", "google", "ollama"} {
		applyProviderEnvOverrides(cfg, name)
	}
}

// applyProviderEnvOverrides applies GANYMEDE_PROVIDERS_<NAME>_<FIELD>
// overrides for one provider, where NAME is the uppercase provider name.
func applyProviderEnvOverrides(cfg *Config, name string) {
	prefix := "GANYMEDE_PROVIDERS_" + envName(name) + "_"

	partial, exists := partialFor(cfg, name)
	modified := false

	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		partial.BaseURL = registry.String(val)
		modified = true
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		partial.APIKey = secrets.Secret(val)
		modified = true
	}
	if val := os.Getenv(prefix + "DEFAULT_MODEL"); val != "" {
		partial.DefaultModel = registry.String(val)
		modified = true
	}
	if val := os.Getenv(prefix + "ACTIVE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			partial.Active = registry.Bool(b)
			modified = true
		}
	}

	if modified || exists {
		if cfg.Providers == nil {
			cfg.Providers = make(map[string]registry.Partial)
		}
		cfg.Providers[name] = partial
	}
}

func partialFor(cfg *Config, name string) (registry.Partial, bool) {
	if cfg.Providers == nil {
		return registry.Partial{}, false
	}
	partial, ok := cfg.Providers[name]
	return partial, ok
}

func envName(provider string) string {
	out := make([]byte, 0, len(provider))
	for i := 0; i < len(provider); i++ {
		c := provider[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// Apply pushes the configured provider partials into a registry, merging
// each over the shipped defaults. Partials are applied in sorted name order
// so failures are deterministic; the first Configure error aborts.
func (c *Config) Apply(reg *registry.Registry) error {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := reg.Configure(name, c.Providers[name]); err != nil {
			return fmt.Errorf("provider %q: %w", name, err)
		}
	}
	return nil
}
