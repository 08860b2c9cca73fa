package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/clock"
	"mercator-hq/ganymede/pkg/registry"
)

// ============================================================================
// Store Tests
// ============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRequiresPath(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, _, ok, err := store.Load(ctx, "openai"); err != nil || ok {
		t.Fatalf("Load on empty store: ok=%v err=%v", ok, err)
	}

	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	models := []registry.Model{
		{ID: "gpt-4o", Provider: "openai", Name: "gpt-4o"},
		{ID: "gpt-4o-mini", Provider: "openai", Name: "gpt-4o-mini", ContextWindow: 128000},
	}
	if err := store.Save(ctx, "openai", models, fetched); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, at, ok, err := store.Load(ctx, "openai")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if !at.Equal(fetched) {
		t.Errorf("fetched_at = %v, want %v", at, fetched)
	}
	if len(got) != 2 || got[0].ID != "gpt-4o" || got[1].ContextWindow != 128000 {
		t.Errorf("models round trip mismatch: %+v", got)
	}
}

func TestStoreUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, "ollama", []registry.Model{{ID: "llama3"}}, time.Now())
	later := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, "ollama", []registry.Model{{ID: "llama3"}, {ID: "mistral"}}, later); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, at, ok, _ := store.Load(ctx, "ollama")
	if !ok || len(got) != 2 {
		t.Fatalf("after upsert: ok=%v len=%d", ok, len(got))
	}
	if !at.Equal(later) {
		t.Errorf("fetched_at = %v, want %v", at, later)
	}
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, "openai", []registry.Model{{ID: "m"}}, time.Now())
	if err := store.Delete(ctx, "openai"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, ok, _ := store.Load(ctx, "openai"); ok {
		t.Error("entry survived Delete")
	}
}

// ============================================================================
// Cache Tests
// ============================================================================

func newTestCache(t *testing.T, modelsURL string, ttl time.Duration, clk clock.Clock) (*Cache, *registry.Registry) {
	t.Helper()

	reg := registry.New(registry.Options{})
	reg.SetAPIKey("openai", "sk-test")
	if _, err := reg.Configure("openai", registry.Partial{ModelsAPIURL: registry.String(modelsURL)}); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	cache := New(Options{
		Registry: reg,
		Store:    newTestStore(t),
		TTL:      ttl,
		Clock:    clk,
	})
	return cache, reg
}

func TestCacheServesFreshPersistedEntry(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(`{"data":[{"id":"gpt-4o"}]}`))
	}))
	defer server.Close()

	clk := clock.NewFake()
	cache, _ := newTestCache(t, server.URL, time.Hour, clk)
	ctx := context.Background()

	if got := cache.Models(ctx, "openai", ""); len(got) != 1 {
		t.Fatalf("first Models: got %d, want 1", len(got))
	}
	if fetches != 1 {
		t.Fatalf("fetches = %d, want 1", fetches)
	}

	// Within TTL the persisted entry answers even though the registry's
	// in-memory cache was cleared by the fetch path.
	clk.Advance(30 * time.Minute)
	if got := cache.Models(ctx, "openai", ""); len(got) != 1 {
		t.Fatalf("second Models: got %d, want 1", len(got))
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1 within TTL", fetches)
	}
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(`{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`))
	}))
	defer server.Close()

	clk := clock.NewFake()
	cache, _ := newTestCache(t, server.URL, time.Hour, clk)
	ctx := context.Background()

	cache.Models(ctx, "openai", "")
	clk.Advance(2 * time.Hour)
	if got := cache.Models(ctx, "openai", ""); len(got) != 2 {
		t.Fatalf("after TTL: got %d models, want 2", len(got))
	}
	if fetches != 2 {
		t.Errorf("fetches = %d, want 2 after TTL expiry", fetches)
	}
}

func TestCacheFallsBackToStaleOnFetchFailure(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":[{"id":"gpt-4o"}]}`))
	}))
	defer server.Close()

	clk := clock.NewFake()
	cache, _ := newTestCache(t, server.URL, time.Hour, clk)
	ctx := context.Background()

	cache.Models(ctx, "openai", "")

	healthy = false
	clk.Advance(2 * time.Hour)
	if got := cache.Models(ctx, "openai", ""); len(got) != 1 {
		t.Errorf("stale fallback: got %d models, want 1", len(got))
	}
}

func TestCacheInvalidate(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(`{"data":[{"id":"gpt-4o"}]}`))
	}))
	defer server.Close()

	cache, _ := newTestCache(t, server.URL, time.Hour, clock.NewFake())
	ctx := context.Background()

	cache.Models(ctx, "openai", "")
	if err := cache.Invalidate(ctx, "openai"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	cache.Models(ctx, "openai", "")
	if fetches != 2 {
		t.Errorf("fetches = %d, want 2 after Invalidate", fetches)
	}
}

func TestRefreshWarmsActiveProviders(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(`{"data":[{"id":"gpt-4o"}]}`))
	}))
	defer server.Close()

	clk := clock.NewFake()
	cache, reg := newTestCache(t, server.URL, time.Hour, clk)
	ctx := context.Background()

	// Only openai points at the test server; other defaults stay inert
	// because their real endpoints are unreachable from the fetch path's
	// error-tolerant boundary.
	active := registry.Bool(false)
	for _, cfg := range reg.List(registry.ListOptions{ActiveOnly: true}) {
		if cfg.Name == "openai" {
			continue
		}
		reg.Configure(cfg.Name, registry.Partial{Active: active})
	}

	cache.Refresh(ctx)
	if fetches != 1 {
		t.Fatalf("fetches = %d, want 1", fetches)
	}

	// Persisted by Refresh: a subsequent Models call inside the TTL does
	// not hit the network.
	cache.Models(ctx, "openai", "")
	if fetches != 1 {
		t.Errorf("fetches = %d after Models, want 1", fetches)
	}
}

// ============================================================================
// Refresher Tests
// ============================================================================

func TestRefresherRejectsBadSchedule(t *testing.T) {
	cache := New(Options{Registry: registry.New(registry.Options{}), Store: newTestStore(t)})
	if _, err := NewRefresher(cache, "bogus"); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRefresherStartStop(t *testing.T) {
	cache := New(Options{Registry: registry.New(registry.Options{}), Store: newTestStore(t)})
	ref, err := NewRefresher(cache, "0 * * * *")
	if err != nil {
		t.Fatalf("NewRefresher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ref.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !ref.IsRunning() {
		t.Error("IsRunning = false after Start")
	}
	if err := ref.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	ref.Stop()
	if ref.IsRunning() {
		t.Error("IsRunning = true after Stop")
	}
}
