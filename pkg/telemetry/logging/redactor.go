package logging

import (
	"fmt"
	"regexp"
	"strings"
)

// Redactor removes API keys and other credentials from log fields. It runs
// two passes: sensitive key names redact their whole value, and string
// values are scrubbed against the compiled secret patterns.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Pattern names.
const (
	PatternOpenAIKey    = "openai_key"
	PatternAnthropicKey = "anthropic_key"
	PatternGoogleKey    = "google_key"
	PatternBearerToken  = "bearer_token"
	PatternGenericKey   = "generic_key"
)

// NewRedactor creates a Redactor with the built-in provider-key patterns.
func NewRedactor() *Redactor {
	r := &Redactor{}

	add := func(name, expr, replacement string) {
		r.patterns = append(r.patterns, &redactPattern{
			name:        name,
			regex:       regexp.MustCompile(expr),
			replacement: replacement,
		})
	}

	// Anthropic keys carry the sk-ant- prefix; check before the generic
	// sk- pattern so the more specific replacement wins.
	add(PatternAnthropicKey, `sk-ant-[a-zA-Z0-9\-_]+`, "sk-ant-***")
	add(PatternOpenAIKey, `sk-[a-zA-Z0-9\-_]+`, "sk-***")
	add(PatternGoogleKey, `AIza[a-zA-Z0-9\-_]{10,}`, "AIza***")
	add(PatternBearerToken, `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***")
	add(PatternGenericKey, `(?i)(api[-_]?key|token|secret)[:=]\s*\S+`, "$1: ***")

	return r
}

// RedactString scrubs every secret pattern out of a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}
	return redacted
}

// RedactArgs scrubs variadic slog arguments (key1, value1, key2, value2...).
// Values under sensitive key names are redacted wholesale; remaining string
// values are pattern-scrubbed.
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && isSensitiveKey(key) {
			redacted[i] = redactValue(redacted[i])
			continue
		}
		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}
	return redacted
}

// isSensitiveKey checks if a key name indicates credential material.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"password", "passwd", "pwd",
		"secret", "token", "api_key", "apikey",
		"auth", "authorization",
		"private_key", "privatekey",
	}
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// redactValue redacts a sensitive value, keeping a short prefix of strings
// for correlation.
func redactValue(value any) any {
	switch v := value.(type) {
	case string:
		if v == "" {
			return ""
		}
		if len(v) <= 4 {
			return "***"
		}
		return v[:4] + "***"
	case fmt.Stringer:
		return "***"
	default:
		return "***"
	}
}

// RedactAPIKey redacts an API key, keeping a 4-character prefix so log
// lines remain correlatable with the configured key.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
