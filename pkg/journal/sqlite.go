package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS journal (
	id               TEXT PRIMARY KEY,
	request_id       TEXT NOT NULL,
	timestamp        INTEGER NOT NULL,
	provider         TEXT NOT NULL,
	model            TEXT NOT NULL,
	attempts         INTEGER NOT NULL,
	estimated_tokens INTEGER NOT NULL,
	latency_ms       INTEGER NOT NULL,
	outcome          TEXT NOT NULL,
	http_status      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_journal_timestamp ON journal(timestamp);
CREATE INDEX IF NOT EXISTS idx_journal_provider  ON journal(provider, timestamp);
CREATE INDEX IF NOT EXISTS idx_journal_outcome   ON journal(outcome, timestamp);
`

// SQLiteStore persists journal records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a journal database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("journal: sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	// Single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save persists one record.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal
			(id, request_id, timestamp, provider, model, attempts,
			 estimated_tokens, latency_ms, outcome, http_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.RequestID,
		record.Timestamp.UnixMilli(),
		record.Provider,
		record.Model,
		record.Attempts,
		record.EstimatedTokens,
		record.LatencyMS,
		record.Outcome,
		record.HTTPStatus,
	)
	if err != nil {
		return fmt.Errorf("journal: insert record: %w", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.Provider != "" {
		where = append(where, "provider = ?")
		args = append(args, filter.Provider)
	}
	if filter.Model != "" {
		where = append(where, "model = ?")
		args = append(args, filter.Model)
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	if !filter.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, filter.Since.UnixMilli())
	}

	query := `SELECT id, request_id, timestamp, provider, model, attempts,
		estimated_tokens, latency_ms, outcome, http_status FROM journal`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			r  Record
			ts int64
		)
		if err := rows.Scan(&r.ID, &r.RequestID, &ts, &r.Provider, &r.Model,
			&r.Attempts, &r.EstimatedTokens, &r.LatencyMS, &r.Outcome, &r.HTTPStatus); err != nil {
			return nil, fmt.Errorf("journal: scan record: %w", err)
		}
		r.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate records: %w", err)
	}
	return out, nil
}

// Prune deletes records older than the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM journal WHERE timestamp < ?", before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("journal: prune records: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("journal: prune rows affected: %w", err)
	}
	return removed, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
