package registry

import (
	"net/url"
	"strings"

	"mercator-hq/ganymede/pkg/chat"
	"mercator-hq/ganymede/pkg/secrets"
)

// resolveKey finds the API key for a provider. Resolution order: explicit
// argument, static store, extra source chain, then the provider's own env
// vars in their listed order.
func (r *Registry) resolveKey(name string, explicit secrets.Secret) (secrets.Secret, bool) {
	if !explicit.Empty() {
		return explicit, true
	}

	if key, ok := r.keys.Lookup(name); ok {
		return key, true
	}
	if r.extra != nil {
		if key, ok := r.extra.Lookup(name); ok {
			return key, true
		}
	}

	r.mu.RLock()
	cfg, ok := r.configs[name]
	var envVars []string
	if ok {
		envVars = append([]string(nil), cfg.EnvVarNames...)
	}
	r.mu.RUnlock()

	return secrets.LookupEnvList(envVars)
}

// BuildAuthHeaders composes the request headers for a provider: the
// resolved API key rendered per the auth config (header type only; query
// auth adds no header), merged over the provider's custom headers and the
// caller's defaults. The caller's defaults have the lowest precedence.
//
// A missing key for a non-optional provider is an Auth error, raised here
// so the pipeline fails before paying any admission cost.
func (r *Registry) BuildAuthHeaders(name string, apiKey secrets.Secret, defaults map[string]string) (map[string]string, error) {
	key := Normalize(name)

	cfg, err := r.Get(key)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(defaults)+len(cfg.CustomHeaders)+1)
	for k, v := range defaults {
		headers[k] = v
	}
	for k, v := range cfg.CustomHeaders {
		headers[k] = v
	}

	resolved, ok := r.resolveKey(key, apiKey)
	if !ok {
		if cfg.Auth.Optional {
			return headers, nil
		}
		return nil, chat.New(chat.KindAuth, key, "",
			"no API key found (checked store and %v)", cfg.EnvVarNames)
	}

	if cfg.Auth.Type == AuthTypeHeader || cfg.Auth.Type == "" {
		headerName := cfg.Auth.HeaderName
		if headerName == "" {
			headerName = "Authorization"
		}
		format := cfg.Auth.HeaderFormat
		if format == "" {
			format = "Bearer {key}"
		}
		headers[headerName] = strings.ReplaceAll(format, "{key}", string(resolved))
	}

	return headers, nil
}

// BuildAPIURL finalizes a provider URL. For query-type auth the resolved
// key is appended as the configured parameter, URL-encoded; header-type
// auth returns the URL unchanged.
func (r *Registry) BuildAPIURL(name string, rawURL string, apiKey secrets.Secret) (string, error) {
	key := Normalize(name)

	cfg, err := r.Get(key)
	if err != nil {
		return "", err
	}

	if cfg.Auth.Type != AuthTypeQuery {
		return rawURL, nil
	}

	resolved, ok := r.resolveKey(key, apiKey)
	if !ok {
		if cfg.Auth.Optional {
			return rawURL, nil
		}
		return "", chat.New(chat.KindAuth, key, "",
			"no API key found (checked store and %v)", cfg.EnvVarNames)
	}

	separator := "?"
	if strings.Contains(rawURL, "?") {
		separator = "&"
	}
	return rawURL + separator + cfg.Auth.QueryParam + "=" + url.QueryEscape(string(resolved)), nil
}
