// Package journal keeps per-call usage records: who was called, how many
// attempts it took, what it cost in estimated tokens, and how it ended.
// Records carry no message content and no credentials.
//
// Writes go through an async Recorder so the chat path never blocks on
// storage; backends are a bounded in-memory ring and a SQLite database,
// with a cron-scheduled retention pruner for the latter.
package journal

import (
	"context"
	"time"
)

// Outcome of a chat call. Success is "success"; failures record the error
// kind string from the taxonomy.
const OutcomeSuccess = "success"

// Record is one chat call's usage entry.
type Record struct {
	// ID is the journal record id (uuid)
	ID string `json:"id"`

	// RequestID is the runtime-assigned request id, correlating log lines
	RequestID string `json:"request_id"`

	// Timestamp is when the call completed
	Timestamp time.Time `json:"timestamp"`

	// Provider is the normalized provider name
	Provider string `json:"provider"`

	// Model is the requested model
	Model string `json:"model"`

	// Attempts is the number of HTTP attempts made
	Attempts int `json:"attempts"`

	// EstimatedTokens is the admission-control estimate charged
	EstimatedTokens int `json:"estimated_tokens"`

	// LatencyMS is the end-to-end call duration in milliseconds
	LatencyMS int64 `json:"latency_ms"`

	// Outcome is "success" or the error kind
	Outcome string `json:"outcome"`

	// HTTPStatus is the last response status, zero when none was received
	HTTPStatus int `json:"http_status,omitempty"`
}

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	// Provider filters by normalized provider name
	Provider string

	// Model filters by model
	Model string

	// Outcome filters by outcome string
	Outcome string

	// Since excludes records older than this instant
	Since time.Time

	// Limit caps the number of returned records, newest first; zero
	// means no cap
	Limit int
}

// Store persists journal records. Implementations are safe for concurrent
// use.
type Store interface {
	// Save persists one record.
	Save(ctx context.Context, record *Record) error

	// Query returns matching records, newest first.
	Query(ctx context.Context, filter Filter) ([]*Record, error)

	// Prune deletes records older than the cutoff, returning how many
	// were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}
