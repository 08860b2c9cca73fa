package registry

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"mercator-hq/ganymede/pkg/jsonpath"
	"mercator-hq/ganymede/pkg/secrets"
)

// modelCache is the per-provider catalog cache. "Fetched but empty" is
// cached too, so a provider with a broken models endpoint is not hammered
// on every listing.
type modelCache struct {
	mu      sync.RWMutex
	entries map[string][]Model
}

func newModelCache() *modelCache {
	return &modelCache{entries: make(map[string][]Model)}
}

func (c *modelCache) get(provider string) ([]Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	models, ok := c.entries[provider]
	return models, ok
}

func (c *modelCache) put(provider string, models []Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[provider] = models
}

func (c *modelCache) add(provider string, model Model) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.entries[provider] {
		if existing.ID == model.ID {
			c.entries[provider][i] = model
			return
		}
	}
	c.entries[provider] = append(c.entries[provider], model)
}

func (c *modelCache) invalidate(provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, provider)
}

func (c *modelCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]Model)
}

// GetModels returns the provider's model catalog, fetching and caching it
// on first use. Fetch and parse failures are logged and yield an empty
// (cached) list; this boundary never returns an error.
func (r *Registry) GetModels(ctx context.Context, name string, apiKey secrets.Secret) []Model {
	key := Normalize(name)

	if models, ok := r.cache.get(key); ok {
		return append([]Model(nil), models...)
	}

	models := r.fetchModels(ctx, key, apiKey)
	r.cache.put(key, models)
	return append([]Model(nil), models...)
}

// GetModel looks up one model by id, populating the catalog if needed.
func (r *Registry) GetModel(ctx context.Context, name, modelID string, apiKey secrets.Secret) (*Model, bool) {
	for _, model := range r.GetModels(ctx, name, apiKey) {
		if model.ID == modelID {
			return &model, true
		}
	}
	return nil, false
}

// SaveModel inserts or replaces a catalog entry, for models discovered
// outside the catalog endpoint (a configured fine-tune, say).
func (r *Registry) SaveModel(name string, model Model) {
	key := Normalize(name)
	model.Provider = key
	r.cache.add(key, model)
}

// ClearCache drops the cached catalog for one provider, or for all when
// name is empty.
func (r *Registry) ClearCache(name string) {
	if name == "" {
		r.cache.clear()
		return
	}
	r.cache.invalidate(Normalize(name))
}

// fetchModels GETs and parses the provider's catalog. All failures reduce
// to an empty list.
func (r *Registry) fetchModels(ctx context.Context, key string, apiKey secrets.Secret) []Model {
	cfg, err := r.Get(key)
	if err != nil {
		r.logger.Warn("model fetch for unknown provider", "provider", key)
		return nil
	}
	if cfg.ModelsAPIURL == "" {
		r.logger.Debug("provider has no models endpoint", "provider", key)
		return nil
	}

	headers, err := r.BuildAuthHeaders(key, apiKey, nil)
	if err != nil {
		r.logger.Warn("model fetch auth failed", "provider", key, "error", err)
		return nil
	}
	fetchURL, err := r.BuildAPIURL(key, cfg.ModelsAPIURL, apiKey)
	if err != nil {
		r.logger.Warn("model fetch auth failed", "provider", key, "error", err)
		return nil
	}

	resp, err := r.http.Get(ctx, fetchURL, headers)
	if err != nil {
		r.logger.Warn("model fetch failed", "provider", key, "error", err)
		return nil
	}

	models, err := parseModels(cfg, resp.Body)
	if err != nil {
		r.logger.Warn("model catalog parse failed", "provider", key, "error", err)
		return nil
	}

	r.logger.Debug("model catalog fetched", "provider", key, "models", len(models))
	return models
}

// parseModels extracts the catalog per the provider's ParseConfig.
func parseModels(cfg *ProviderConfig, body []byte) ([]Model, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	list := []interface{}{}
	if cfg.Parse.ModelsPath == "" {
		// No path: the document itself is the list.
		if l, ok := doc.([]interface{}); ok {
			list = l
		}
	} else {
		path, err := jsonpath.Compile(cfg.Parse.ModelsPath)
		if err != nil {
			return nil, err
		}
		if l, ok := path.EvalList(doc); ok {
			list = l
		}
	}

	idField := cfg.Parse.IDField
	if idField == "" {
		idField = "id"
	}

	models := make([]Model, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		id, _ := entry[idField].(string)
		id = strings.TrimPrefix(id, cfg.Parse.IDPrefix)
		if id == "" {
			continue
		}

		model := Model{
			ID:       id,
			Provider: cfg.Name,
			Name:     id,
			Raw:      entry,
		}
		if cfg.Parse.NameField != "" {
			if name, ok := entry[cfg.Parse.NameField].(string); ok && name != "" {
				model.Name = strings.TrimPrefix(name, cfg.Parse.IDPrefix)
			}
		}
		if cfg.Parse.DisplayNameField != "" {
			model.DisplayName, _ = entry[cfg.Parse.DisplayNameField].(string)
		}
		if cfg.Parse.ContextWindowField != "" {
			if window, ok := entry[cfg.Parse.ContextWindowField].(float64); ok {
				model.ContextWindow = int(window)
			}
		}

		models = append(models, model)
	}
	return models, nil
}
