package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mercator-hq/ganymede/pkg/chat"
	"mercator-hq/ganymede/pkg/jsonpath"
	"mercator-hq/ganymede/pkg/secrets"
	"mercator-hq/ganymede/pkg/transport"
)

// Registry holds the provider configurations, the separate API key store,
// and the model-catalog cache. All operations are concurrency-safe, and
// every config leaving the registry is a deep copy.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*ProviderConfig

	keys  *secrets.Static
	extra secrets.Source // optional fallback chain, may be nil

	cache *modelCache
	http  *transport.Client

	logger *slog.Logger
}

// Options configures a Registry.
type Options struct {
	// HTTP is the transport used for model-catalog fetches. When nil, a
	// default client is built.
	HTTP *transport.Client

	// ExtraSecrets is consulted after the static store and before the
	// provider env var lists (e.g. a secrets.Dir mount). May be nil.
	ExtraSecrets secrets.Source
}

// New creates a registry pre-populated with the shipped provider defaults.
func New(opts Options) *Registry {
	httpClient := opts.HTTP
	if httpClient == nil {
		// Config{} cannot fail to build.
		httpClient, _ = transport.New(transport.Config{})
	}

	return &Registry{
		configs: defaultConfigs(),
		keys:    secrets.NewStatic(),
		extra:   opts.ExtraSecrets,
		cache:   newModelCache(),
		http:    httpClient,
		logger:  slog.Default().With("component", "registry"),
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, created on first use. Library
// consumers that want isolation construct their own with New.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = New(Options{})
	})
	return defaultRegistry
}

// Configure merges a partial config over the provider's current config, or
// over a blank one for a previously unknown provider. An APIKey in the
// partial is stripped into the secret store and never stored or returned
// on the config. The provider's model cache is invalidated. The returned
// config is a secret-free deep copy.
func (r *Registry) Configure(name string, partial Partial) (*ProviderConfig, error) {
	key := Normalize(name)
	if key == "" {
		return nil, chat.New(chat.KindConfig, "", "", "provider name is empty")
	}

	r.mu.Lock()

	base := r.configs[key]
	if base == nil {
		base = &ProviderConfig{Name: key, Active: true}
	} else {
		base = base.Clone()
	}

	partial.merge(base)
	base.Name = key

	if err := validateConfig(base); err != nil {
		r.mu.Unlock()
		return nil, err
	}

	r.configs[key] = base
	r.mu.Unlock()

	if !partial.APIKey.Empty() {
		r.keys.Set(key, partial.APIKey)
	}

	r.cache.invalidate(key)

	r.logger.Info("provider configured",
		"provider", key,
		"chat_api_url", base.ChatAPIURL,
		"active", base.Active,
	)
	return base.Clone(), nil
}

// Get returns a deep copy of a provider's config.
func (r *Registry) Get(name string) (*ProviderConfig, error) {
	key := Normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[key]
	if !ok {
		return nil, chat.New(chat.KindConfig, key, "", "unknown provider")
	}
	return cfg.Clone(), nil
}

// ListOptions filters List.
type ListOptions struct {
	// ActiveOnly excludes providers with Active=false
	ActiveOnly bool
}

// List returns copies of the known configs, sorted by name.
func (r *Registry) List(opts ListOptions) []*ProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]*ProviderConfig, 0, len(r.configs))
	for _, cfg := range r.configs {
		if opts.ActiveOnly && !cfg.Active {
			continue
		}
		configs = append(configs, cfg.Clone())
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

// HasAPIKey reports whether a key would resolve for the provider from any
// source: the static store, the extra chain, or the provider's env vars.
func (r *Registry) HasAPIKey(name string) bool {
	key := Normalize(name)

	_, ok := r.resolveKey(key, "")
	return ok
}

// SetAPIKey stores a key for a provider without touching its config.
func (r *Registry) SetAPIKey(name string, apiKey secrets.Secret) {
	r.keys.Set(Normalize(name), apiKey)
}

// Reset restores the shipped defaults and clears keys and caches. Test
// helper; also behind the CLI's troubleshooting path.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.configs = defaultConfigs()
	r.mu.Unlock()

	r.keys.Clear()
	r.cache.clear()
}

// validateConfig rejects configs the pipeline could not execute. Paths are
// compiled here so a bad expression fails at Configure time, not mid-call.
func validateConfig(cfg *ProviderConfig) error {
	switch cfg.Auth.Type {
	case "", AuthTypeHeader, AuthTypeQuery:
	default:
		return chat.New(chat.KindConfig, cfg.Name, "",
			"auth.type must be %q or %q, got %q", AuthTypeHeader, AuthTypeQuery, cfg.Auth.Type)
	}

	switch cfg.Chat.MessageFormat {
	case "", FormatOpenAI, FormatAnthropic, FormatOllama:
	default:
		return chat.New(chat.KindConfig, cfg.Name, "",
			"chat.message_format must be openai, anthropic, or ollama, got %q", cfg.Chat.MessageFormat)
	}

	if cfg.Chat.ResponseParsePath != "" {
		if _, err := jsonpath.Compile(cfg.Chat.ResponseParsePath); err != nil {
			return chat.New(chat.KindConfig, cfg.Name, "",
				"chat.response_parse_path: %v", err)
		}
	}
	if cfg.Parse.ModelsPath != "" {
		if _, err := jsonpath.Compile(cfg.Parse.ModelsPath); err != nil {
			return chat.New(chat.KindConfig, cfg.Name, "",
				"parse.models_path: %v", err)
		}
	}

	if cfg.Auth.Type == AuthTypeQuery && cfg.Auth.QueryParam == "" {
		return chat.New(chat.KindConfig, cfg.Name, "", "auth.query_param required for query auth")
	}
	if cfg.Auth.Type == AuthTypeHeader && cfg.Auth.HeaderName == "" && cfg.Auth.HeaderFormat != "" {
		return chat.New(chat.KindConfig, cfg.Name, "", "auth.header_name required for header auth")
	}

	return nil
}

func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("registry(%d providers)", len(r.configs))
}
