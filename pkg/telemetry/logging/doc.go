// Package logging wraps log/slog for the runtime: leveled text/JSON
// handlers built from configuration, a process-default installer, and a
// Redactor that scrubs provider API keys, bearer tokens, and other
// credentials from log arguments before they reach any handler.
package logging
