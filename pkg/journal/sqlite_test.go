package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// ============================================================================
// SQLite Store Tests
// ============================================================================

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	want := &Record{
		ID:              "rec-1",
		RequestID:       "req-1",
		Timestamp:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Provider:        "anthropic",
		Model:           "claude-sonnet-4-5",
		Attempts:        2,
		EstimatedTokens: 850,
		LatencyMS:       1234,
		Outcome:         OutcomeSuccess,
		HTTPStatus:      200,
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	records, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	got := records[0]
	if got.ID != want.ID || got.RequestID != want.RequestID ||
		got.Provider != want.Provider || got.Model != want.Model ||
		got.Attempts != want.Attempts || got.EstimatedTokens != want.EstimatedTokens ||
		got.LatencyMS != want.LatencyMS || got.Outcome != want.Outcome ||
		got.HTTPStatus != want.HTTPStatus {
		t.Errorf("record round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
}

func TestSQLiteStoreQueryFilters(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seed := []*Record{
		{ID: "a", Provider: "openai", Model: "gpt-4o", Outcome: OutcomeSuccess, Timestamp: base},
		{ID: "b", Provider: "anthropic", Model: "claude-sonnet-4-5", Outcome: "upstream", Timestamp: base.Add(time.Hour)},
		{ID: "c", Provider: "openai", Model: "gpt-4o-mini", Outcome: OutcomeSuccess, Timestamp: base.Add(2 * time.Hour)},
	}
	for _, r := range seed {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s): %v", r.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"c", "b", "a"}},
		{"by provider", Filter{Provider: "openai"}, []string{"c", "a"}},
		{"by model", Filter{Model: "gpt-4o"}, []string{"a"}},
		{"by outcome", Filter{Outcome: "upstream"}, []string{"b"}},
		{"since", Filter{Since: base.Add(time.Hour)}, []string{"c", "b"}},
		{"limit", Filter{Limit: 2}, []string{"c", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(records) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(records), len(tt.want))
			}
			for i, id := range tt.want {
				if records[i].ID != id {
					t.Errorf("records[%d].ID = %s, want %s", i, records[i].ID, id)
				}
			}
		})
	}
}

func TestSQLiteStorePrune(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := store.Save(ctx, &Record{
			ID:        fmt.Sprintf("rec-%d", i),
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	removed, err := store.Prune(ctx, base.Add(3*24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	records, _ := store.Query(ctx, Filter{})
	if len(records) != 2 {
		t.Errorf("got %d surviving records, want 2", len(records))
	}
}

func TestSQLiteStoreWithRecorder(t *testing.T) {
	store := newTestSQLiteStore(t)
	rec := NewRecorder(store, RecorderConfig{BufferSize: 8})

	for i := 0; i < 5; i++ {
		rec.Record(&Record{Provider: "ollama", Model: "llama3", Outcome: OutcomeSuccess})
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records, err := store.Query(context.Background(), Filter{Provider: "ollama"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("got %d records, want 5", len(records))
	}
}
