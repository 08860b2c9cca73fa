package registry

import (
	"strings"
	"unicode"
)

// Auth types.
const (
	// AuthTypeHeader sends the key in a request header, formatted by
	// HeaderFormat
	AuthTypeHeader = "header"

	// AuthTypeQuery sends the key as a URL query parameter
	AuthTypeQuery = "query"
)

// Message dialects.
const (
	// FormatOpenAI keeps system messages inline in the messages array
	FormatOpenAI = "openai"

	// FormatAnthropic extracts the first system message to a top-level
	// system field
	FormatAnthropic = "anthropic"

	// FormatOllama flattens the conversation into a single prompt string
	// for the /api/generate endpoint
	FormatOllama = "ollama"
)

// Tool schema dialects.
const (
	// ToolSchemaOpenAI nests the JSON schema under "parameters"
	ToolSchemaOpenAI = "openai"

	// ToolSchemaAnthropic nests the JSON schema under "input_schema"
	ToolSchemaAnthropic = "anthropic"
)

// ProviderConfig describes how to reach and speak to one provider. It
// never carries the API key; keys live in the secret store and meet the
// config only inside BuildAuthHeaders/BuildAPIURL.
type ProviderConfig struct {
	// Name is the normalized provider name (map key, informational here)
	Name string `yaml:"-" json:"name"`

	// BaseURL is the convenience root the chat/models URLs were derived
	// from, when one was given
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// ChatAPIURL is the chat-completion endpoint; required to chat
	ChatAPIURL string `yaml:"chat_api_url" json:"chat_api_url"`

	// ModelsAPIURL is the model-catalog endpoint; optional
	ModelsAPIURL string `yaml:"models_api_url,omitempty" json:"models_api_url,omitempty"`

	// EnvVarNames is the ordered list of environment variables searched
	// for an API key
	EnvVarNames []string `yaml:"env_var_names,omitempty" json:"env_var_names,omitempty"`

	// DefaultModel is used when a call does not name a model
	DefaultModel string `yaml:"default_model,omitempty" json:"default_model,omitempty"`

	// CustomHeaders are sent verbatim on every request to this provider
	CustomHeaders map[string]string `yaml:"custom_headers,omitempty" json:"custom_headers,omitempty"`

	// Auth describes how the API key reaches the provider
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Parse describes how to read the provider's model catalog
	Parse ParseConfig `yaml:"parse" json:"parse"`

	// Chat describes the provider's chat dialect
	Chat ChatConfig `yaml:"chat" json:"chat"`

	// Active excludes a provider from listings and the doctor when false
	Active bool `yaml:"active" json:"active"`
}

// AuthConfig is the authentication variant for a provider.
type AuthConfig struct {
	// Type is "header" or "query"
	Type string `yaml:"type" json:"type"`

	// HeaderName is the header carrying the key (header type)
	HeaderName string `yaml:"header_name,omitempty" json:"header_name,omitempty"`

	// HeaderFormat renders the header value; "{key}" is replaced by the
	// resolved key (header type)
	HeaderFormat string `yaml:"header_format,omitempty" json:"header_format,omitempty"`

	// QueryParam is the query parameter carrying the key (query type)
	QueryParam string `yaml:"query_param,omitempty" json:"query_param,omitempty"`

	// Optional permits anonymous use when no key resolves (Ollama)
	Optional bool `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// ParseConfig maps a provider's model-catalog response onto Model fields.
type ParseConfig struct {
	// ModelsPath selects the model list in the response document
	ModelsPath string `yaml:"models_path" json:"models_path"`

	// IDField names the model id field within a list entry
	IDField string `yaml:"id_field" json:"id_field"`

	// NameField names the human-readable name field, defaulting to the id
	NameField string `yaml:"name_field,omitempty" json:"name_field,omitempty"`

	// DisplayNameField names a longer display name, when distinct
	DisplayNameField string `yaml:"display_name_field,omitempty" json:"display_name_field,omitempty"`

	// ContextWindowField names the context-window-size field
	ContextWindowField string `yaml:"context_window_field,omitempty" json:"context_window_field,omitempty"`

	// IDPrefix is stripped from the front of ids ("models/" for google)
	IDPrefix string `yaml:"id_prefix,omitempty" json:"id_prefix,omitempty"`
}

// ChatConfig is the provider's chat dialect.
type ChatConfig struct {
	// MessageFormat is openai, anthropic, or ollama
	MessageFormat string `yaml:"message_format" json:"message_format"`

	// ResponseParsePath selects the completion text in the response,
	// e.g. "choices[0].message.content"
	ResponseParsePath string `yaml:"response_parse_path" json:"response_parse_path"`

	// ToolSchemaType is openai or anthropic
	ToolSchemaType string `yaml:"tool_schema_type,omitempty" json:"tool_schema_type,omitempty"`
}

// Model is one entry of a provider's model catalog.
type Model struct {
	// ID is the identifier passed in chat requests
	ID string `json:"id"`

	// Provider is the normalized provider name
	Provider string `json:"provider"`

	// Name is the human-readable name
	Name string `json:"name"`

	// DisplayName is a longer label, when the provider has one
	DisplayName string `json:"display_name,omitempty"`

	// ContextWindow is the input token limit, 0 when unknown
	ContextWindow int `json:"context_window,omitempty"`

	// Raw is the provider's original catalog entry
	Raw map[string]interface{} `json:"raw,omitempty"`
}

// Normalize canonicalizes a provider name: lowercase with all whitespace
// removed, so "OpenAI " and "openai" address the same entry.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Clone returns a deep copy; callers of Get/List receive clones so no
// caller can mutate registry state through a returned config.
func (c *ProviderConfig) Clone() *ProviderConfig {
	if c == nil {
		return nil
	}
	copied := *c

	if c.EnvVarNames != nil {
		copied.EnvVarNames = append([]string(nil), c.EnvVarNames...)
	}
	if c.CustomHeaders != nil {
		copied.CustomHeaders = make(map[string]string, len(c.CustomHeaders))
		for k, v := range c.CustomHeaders {
			copied.CustomHeaders[k] = v
		}
	}
	return &copied
}
