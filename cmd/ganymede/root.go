package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/runtime"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - resilient multi-provider LLM chat client",
	Long: `Ganymede is a resilient client runtime for LLM chat APIs.

It sends conversations to OpenAI, Anthropic, Google, Ollama, or any
OpenAI-compatible endpoint through four interlocking resilience
mechanisms:
  - Dual token-bucket rate limiting on requests and estimated tokens
  - A bounded concurrency gate for in-flight requests
  - Per-endpoint circuit breakers with half-open probing
  - Retries with exponential backoff, jitter, and Retry-After hints

For more information, visit: https://github.com/mercator-hq/ganymede`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configured file, or returns the built-in defaults
// when no file was named.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		cfg := config.DefaultConfig()
		applyVerbosity(cfg)
		return cfg, nil
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	applyVerbosity(cfg)
	return cfg, nil
}

func applyVerbosity(cfg *config.Config) {
	if verbose {
		cfg.Logging.Level = "debug"
	}
}

// buildRuntime loads configuration, installs logging, and assembles the
// runtime. The caller owns Close.
func buildRuntime() (*runtime.Runtime, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		Redact: true,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.SetDefault()

	rt, err := runtime.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return rt, cfg, nil
}
