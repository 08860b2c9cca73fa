package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mercator-hq/ganymede/pkg/registry"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS catalogs (
	provider   TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL,
	models     TEXT NOT NULL
);
`

// Store persists per-provider model catalogs in a SQLite database so
// listings survive restarts without refetching.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) a catalog database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog: store path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load returns the persisted catalog for a provider and when it was
// fetched. The third return is false when no entry exists.
func (s *Store) Load(ctx context.Context, provider string) ([]registry.Model, time.Time, bool, error) {
	var (
		fetchedAt int64
		blob      string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT fetched_at, models FROM catalogs WHERE provider = ?", provider).
		Scan(&fetchedAt, &blob)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("catalog: load %q: %w", provider, err)
	}

	var models []registry.Model
	if err := json.Unmarshal([]byte(blob), &models); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("catalog: decode %q: %w", provider, err)
	}
	return models, time.UnixMilli(fetchedAt).UTC(), true, nil
}

// Save upserts a provider's catalog with the given fetch time.
func (s *Store) Save(ctx context.Context, provider string, models []registry.Model, fetchedAt time.Time) error {
	blob, err := json.Marshal(models)
	if err != nil {
		return fmt.Errorf("catalog: encode %q: %w", provider, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalogs (provider, fetched_at, models) VALUES (?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			models     = excluded.models`,
		provider, fetchedAt.UnixMilli(), string(blob),
	)
	if err != nil {
		return fmt.Errorf("catalog: save %q: %w", provider, err)
	}
	return nil
}

// Delete removes a provider's persisted catalog.
func (s *Store) Delete(ctx context.Context, provider string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM catalogs WHERE provider = ?", provider); err != nil {
		return fmt.Errorf("catalog: delete %q: %w", provider, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
