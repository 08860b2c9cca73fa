// Package catalog layers a persistent, TTL-bounded cache under the
// registry's in-memory model catalogs. Listings served from a fresh
// persisted entry skip the network entirely; stale entries are refetched
// through the registry and re-persisted, and a cron refresher keeps the
// catalogs of active providers warm. Like the registry boundary it wraps,
// Models never returns an error: a broken endpoint degrades to the last
// persisted catalog, then to an empty list.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/ganymede/pkg/clock"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/secrets"
)

// DefaultTTL is how long a persisted catalog stays fresh.
const DefaultTTL = 24 * time.Hour

// Cache is the persistent catalog layer.
type Cache struct {
	reg    *registry.Registry
	store  *Store
	ttl    time.Duration
	clk    clock.Clock
	logger *slog.Logger
}

// Options configures a Cache.
type Options struct {
	// Registry resolves and fetches live catalogs. Required.
	Registry *registry.Registry

	// Store persists catalogs across runs. Required.
	Store *Store

	// TTL is the persisted-entry freshness window. Zero means DefaultTTL.
	TTL time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock
}

// New creates the cache layer.
func New(opts Options) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Cache{
		reg:    opts.Registry,
		store:  opts.Store,
		ttl:    ttl,
		clk:    clk,
		logger: slog.Default().With("component", "catalog"),
	}
}

// Models returns the provider's catalog: from the persisted store when
// fresh, otherwise fetched through the registry and re-persisted. A failed
// fetch falls back to the stale persisted entry.
func (c *Cache) Models(ctx context.Context, provider string, apiKey secrets.Secret) []registry.Model {
	key := registry.Normalize(provider)

	persisted, fetchedAt, ok, err := c.store.Load(ctx, key)
	if err != nil {
		c.logger.Warn("catalog load failed", "provider", key, "error", err)
	}
	if ok && c.clk.Now().Sub(fetchedAt) < c.ttl {
		return persisted
	}

	models := c.fetch(ctx, key, apiKey)
	if len(models) == 0 && ok {
		// Keep serving the stale entry rather than an empty list.
		c.logger.Warn("catalog refresh returned nothing, keeping stale entry",
			"provider", key, "fetched_at", fetchedAt.Format(time.RFC3339))
		return persisted
	}
	return models
}

// Refresh refetches and persists the catalogs of every active provider.
func (c *Cache) Refresh(ctx context.Context) {
	for _, cfg := range c.reg.List(registry.ListOptions{ActiveOnly: true}) {
		if cfg.ModelsAPIURL == "" {
			continue
		}
		models := c.fetch(ctx, cfg.Name, secrets.Secret(""))
		c.logger.Debug("catalog refreshed", "provider", cfg.Name, "models", len(models))
	}
}

// Invalidate drops both the persisted and in-memory entries for a provider.
func (c *Cache) Invalidate(ctx context.Context, provider string) error {
	key := registry.Normalize(provider)
	c.reg.ClearCache(key)
	return c.store.Delete(ctx, key)
}

// Close closes the persistent store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// fetch forces a live fetch through the registry and persists any
// non-empty result.
func (c *Cache) fetch(ctx context.Context, key string, apiKey secrets.Secret) []registry.Model {
	c.reg.ClearCache(key)
	models := c.reg.GetModels(ctx, key, apiKey)
	if len(models) == 0 {
		return nil
	}
	if err := c.store.Save(ctx, key, models, c.clk.Now()); err != nil {
		c.logger.Warn("catalog persist failed", "provider", key, "error", err)
	}
	return models
}
