package secrets

import (
	"os"
	"strings"
)

// DefaultEnvPrefix is the uniform environment override channel: the key for
// provider "openai" can always be supplied as GANYMEDE_API_KEY_OPENAI,
// independent of the provider's own env var conventions.
const DefaultEnvPrefix = "GANYMEDE_API_KEY_"

// Env resolves keys from environment variables named <Prefix><PROVIDER>,
// with the provider name uppercased and hyphens mapped to underscores.
type Env struct {
	Prefix string
}

// NewEnv creates an environment source. An empty prefix selects
// DefaultEnvPrefix.
func NewEnv(prefix string) *Env {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return &Env{Prefix: prefix}
}

// Lookup reads the provider's variable.
func (e *Env) Lookup(provider string) (Secret, bool) {
	value := os.Getenv(e.envVar(provider))
	if value == "" {
		return "", false
	}
	return Secret(value), true
}

// Name identifies the source.
func (e *Env) Name() string {
	return "env"
}

// envVar converts a provider name to its variable name.
// Example: "my-gateway" -> "GANYMEDE_API_KEY_MY_GATEWAY".
func (e *Env) envVar(provider string) string {
	name := strings.ToUpper(strings.ReplaceAll(provider, "-", "_"))
	return e.Prefix + name
}

// LookupEnvList returns the first non-empty value among the given
// environment variable names, in order. This implements per-provider env
// conventions such as GEMINI_API_KEY falling back to GOOGLE_API_KEY.
func LookupEnvList(names []string) (Secret, bool) {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return Secret(value), true
		}
	}
	return "", false
}
