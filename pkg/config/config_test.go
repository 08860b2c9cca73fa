package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/ganymede/pkg/registry"
)

// ============================================================================
// Defaults Tests
// ============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Limits.RequestsPerMinute != DefaultRequestsPerMinute {
		t.Errorf("RequestsPerMinute = %d", cfg.Limits.RequestsPerMinute)
	}
	if cfg.Limits.TokensPerMinute != DefaultTokensPerMinute {
		t.Errorf("TokensPerMinute = %d", cfg.Limits.TokensPerMinute)
	}
	if cfg.Breaker.FailureThreshold != DefaultFailureThreshold {
		t.Errorf("FailureThreshold = %d", cfg.Breaker.FailureThreshold)
	}
	if cfg.Breaker.Cooldown != DefaultCooldown {
		t.Errorf("Cooldown = %v", cfg.Breaker.Cooldown)
	}
	if cfg.Retry.BackoffFactor != DefaultBackoffFactor {
		t.Errorf("BackoffFactor = %v", cfg.Retry.BackoffFactor)
	}
	if cfg.Estimator.Mode != EstimatorHeuristic {
		t.Errorf("Estimator.Mode = %q", cfg.Estimator.Mode)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Journal.Backend != JournalBackendMemory {
		t.Errorf("Journal.Backend = %q", cfg.Journal.Backend)
	}
	if cfg.Catalog.TTL != DefaultCatalogTTL {
		t.Errorf("Catalog.TTL = %v", cfg.Catalog.TTL)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Limits.RequestsPerMinute = 10
	cfg.Retry.Retries = 7
	cfg.Logging.Level = "debug"

	ApplyDefaults(cfg)

	if cfg.Limits.RequestsPerMinute != 10 {
		t.Errorf("explicit RequestsPerMinute overwritten: %d", cfg.Limits.RequestsPerMinute)
	}
	if cfg.Retry.Retries != 7 {
		t.Errorf("explicit Retries overwritten: %d", cfg.Retry.Retries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("explicit Level overwritten: %q", cfg.Logging.Level)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

// ============================================================================
// Validation Tests
// ============================================================================

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero rpm", func(c *Config) { c.Limits.RequestsPerMinute = -1 }, "limits.requests_per_minute"},
		{"zero tpm", func(c *Config) { c.Limits.TokensPerMinute = -1 }, "limits.tokens_per_minute"},
		{"bad threshold", func(c *Config) { c.Breaker.FailureThreshold = -1 }, "breaker.failure_threshold"},
		{"negative retries", func(c *Config) { c.Retry.Retries = -2 }, "retry.retries"},
		{"factor below one", func(c *Config) { c.Retry.BackoffFactor = 0.5 }, "retry.backoff_factor"},
		{"max below initial", func(c *Config) { c.Retry.MaxBackoff = time.Millisecond }, "retry.max_backoff"},
		{"bad estimator", func(c *Config) { c.Estimator.Mode = "neural" }, "estimator.mode"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad sample ratio", func(c *Config) { c.Tracing.SampleRatio = 1.5 }, "tracing.sample_ratio"},
		{"bad journal backend", func(c *Config) { c.Journal.Backend = "postgres" }, "journal.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention field %q", err, tt.field)
			}
		})
	}
}

func TestValidationErrorCollectsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.RequestsPerMinute = -1
	cfg.Logging.Level = "bogus"

	err := Validate(cfg)
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr)
	}
}

// ============================================================================
// Load Tests
// ============================================================================

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ganymede.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
limits:
  requests_per_minute: 120
  max_concurrent: 8
retry:
  retries: 5
providers:
  openai:
    default_model: gpt-4o
  internal:
    base_url: https://llm.internal.example
    api_key: sk-internal-test
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Limits.RequestsPerMinute != 120 {
		t.Errorf("RequestsPerMinute = %d", cfg.Limits.RequestsPerMinute)
	}
	if cfg.Limits.TokensPerMinute != DefaultTokensPerMinute {
		t.Errorf("TokensPerMinute default not applied: %d", cfg.Limits.TokensPerMinute)
	}
	if cfg.Limits.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d", cfg.Limits.MaxConcurrent)
	}
	if cfg.Retry.Retries != 5 {
		t.Errorf("Retries = %d", cfg.Retry.Retries)
	}

	openai := cfg.Providers["openai"]
	if openai.DefaultModel == nil || *openai.DefaultModel != "gpt-4o" {
		t.Errorf("openai partial: %+v", openai)
	}
	internal := cfg.Providers["internal"]
	if internal.BaseURL == nil || *internal.BaseURL != "https://llm.internal.example" {
		t.Errorf("internal partial: %+v", internal)
	}
	if string(internal.APIKey) != "sk-internal-test" {
		t.Error("api_key did not load from yaml")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "limits: [not a map")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigValidationFailure(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: loud\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error")
	}
}

// ============================================================================
// Environment Override Tests
// ============================================================================

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "limits:\n  requests_per_minute: 120\n")

	t.Setenv("GANYMEDE_LIMITS_REQUESTS_PER_MINUTE", "30")
	t.Setenv("GANYMEDE_BREAKER_COOLDOWN", "45s")
	t.Setenv("GANYMEDE_LOGGING_FORMAT", "json")
	t.Setenv("GANYMEDE_JOURNAL_ENABLED", "true")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}

	if cfg.Limits.RequestsPerMinute != 30 {
		t.Errorf("env override lost: RequestsPerMinute = %d", cfg.Limits.RequestsPerMinute)
	}
	if cfg.Breaker.Cooldown != 45*time.Second {
		t.Errorf("Cooldown = %v", cfg.Breaker.Cooldown)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q", cfg.Logging.Format)
	}
	if !cfg.Journal.Enabled {
		t.Error("Journal.Enabled override lost")
	}
}

func TestProviderEnvOverrides(t *testing.T) {
	path := writeConfig(t, "{}\n")

	t.Setenv("GANYMEDE_PROVIDERS_OPENAI_API_KEY", "sk-from-env")
	t.Setenv("GANYMEDE_PROVIDERS_OLLAMA_BASE_URL", "http://gpu-box:11434")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}

	if string(cfg.Providers["openai"].APIKey) != "sk-from-env" {
		t.Error("openai api key not picked up from env")
	}
	ollama := cfg.Providers["ollama"]
	if ollama.BaseURL == nil || *ollama.BaseURL != "http://gpu-box:11434" {
		t.Errorf("ollama base url: %+v", ollama)
	}
}

func TestEnvOverrideInvalidValueIgnored(t *testing.T) {
	path := writeConfig(t, "limits:\n  requests_per_minute: 120\n")

	t.Setenv("GANYMEDE_LIMITS_REQUESTS_PER_MINUTE", "lots")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}
	if cfg.Limits.RequestsPerMinute != 120 {
		t.Errorf("unparseable override should be ignored, got %d", cfg.Limits.RequestsPerMinute)
	}
}

// ============================================================================
// Registry Apply Tests
// ============================================================================

func TestApplyConfiguresRegistry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers = map[string]registry.Partial{
		"openai": {DefaultModel: registry.String("gpt-4o")},
		"gateway": {
			BaseURL: registry.String("https://llm.internal.example"),
			APIKey:  "sk-gw",
		},
	}

	reg := registry.New(registry.Options{})
	if err := cfg.Apply(reg); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	openai, err := reg.Get("openai")
	if err != nil {
		t.Fatalf("Get openai: %v", err)
	}
	if openai.DefaultModel != "gpt-4o" {
		t.Errorf("DefaultModel = %q", openai.DefaultModel)
	}

	gateway, err := reg.Get("gateway")
	if err != nil {
		t.Fatalf("Get gateway: %v", err)
	}
	if gateway.ChatAPIURL == "" {
		t.Error("gateway ChatAPIURL not derived from base_url")
	}
	if !reg.HasAPIKey("gateway") {
		t.Error("gateway key not stored")
	}
}

func TestApplyBadPartialFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers = map[string]registry.Partial{
		"broken": {Chat: &registry.PartialChat{MessageFormat: registry.String("cohere")}},
	}

	if err := cfg.Apply(registry.New(registry.Options{})); err == nil {
		t.Fatal("expected Configure error to propagate")
	}
}

// ============================================================================
// Secret Handling Tests
// ============================================================================

func TestMarshalNeverEmitsAPIKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers = map[string]registry.Partial{
		"openai": {APIKey: "sk-super-secret"},
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "sk-super-secret") {
		t.Fatal("raw API key leaked into marshaled config")
	}
}
