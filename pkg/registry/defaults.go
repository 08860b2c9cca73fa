package registry

import (
	"os"
	"strings"
)

// Default model choices per shipped provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-sonnet-latest"
	DefaultGoogleModel    = "gemini-2.0-flash"
	DefaultOllamaModel    = "llama3.2"
)

// OllamaURLEnvVar overrides the ollama base URL at default-construction
// time, for daemons not on localhost.
const OllamaURLEnvVar = "OLLAMA_API_URL"

// defaultConfigs builds the shipped provider set. Called once per registry
// (and again on Reset) so the ollama URL override is re-read.
func defaultConfigs() map[string]*ProviderConfig {
	ollamaBase := "http://localhost:11434"
	if v := strings.TrimRight(os.Getenv(OllamaURLEnvVar), "/"); v != "" {
		ollamaBase = v
	}

	return map[string]*ProviderConfig{
		"openai": {
			Name:         "openai",
			ChatAPIURL:   "https://api.openai.com/v1/chat/completions",
			ModelsAPIURL: "https://api.openai.com/v1/models",
			EnvVarNames:  []string{"OPENAI_API_KEY"},
			DefaultModel: DefaultOpenAIModel,
			Auth: AuthConfig{
				Type:         AuthTypeHeader,
				HeaderName:   "Authorization",
				HeaderFormat: "Bearer {key}",
			},
			Parse: ParseConfig{
				ModelsPath: "data",
				IDField:    "id",
			},
			Chat: ChatConfig{
				MessageFormat:     FormatOpenAI,
				ResponseParsePath: "choices[0].message.content",
				ToolSchemaType:    ToolSchemaOpenAI,
			},
			Active: true,
		},

		"anthropic": {
			Name:         "anthropic",
			ChatAPIURL:   "https://api.anthropic.com/v1/messages",
			ModelsAPIURL: "https://api.anthropic.com/v1/models",
			EnvVarNames:  []string{"ANTHROPIC_API_KEY"},
			DefaultModel: DefaultAnthropicModel,
			CustomHeaders: map[string]string{
				"anthropic-version": "2023-06-01",
			},
			Auth: AuthConfig{
				Type:         AuthTypeHeader,
				HeaderName:   "x-api-key",
				HeaderFormat: "{key}",
			},
			Parse: ParseConfig{
				ModelsPath:       "data",
				IDField:          "id",
				DisplayNameField: "display_name",
			},
			Chat: ChatConfig{
				MessageFormat:     FormatAnthropic,
				ResponseParsePath: "content[0].text",
				ToolSchemaType:    ToolSchemaAnthropic,
			},
			Active: true,
		},

		// Google's OpenAI-compatible surface for chat; the native
		// endpoint for the model catalog.
		"google": {
			Name:         "google",
			ChatAPIURL:   "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions",
			ModelsAPIURL: "https://generativelanguage.googleapis.com/v1beta/models",
			EnvVarNames:  []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY"},
			DefaultModel: DefaultGoogleModel,
			Auth: AuthConfig{
				Type:       AuthTypeQuery,
				QueryParam: "key",
			},
			Parse: ParseConfig{
				ModelsPath:         "models",
				IDField:            "name",
				DisplayNameField:   "displayName",
				ContextWindowField: "inputTokenLimit",
				IDPrefix:           "models/",
			},
			Chat: ChatConfig{
				MessageFormat:     FormatOpenAI,
				ResponseParsePath: "choices[0].message.content",
				ToolSchemaType:    ToolSchemaOpenAI,
			},
			Active: true,
		},

		"ollama": {
			Name:         "ollama",
			BaseURL:      ollamaBase,
			ChatAPIURL:   ollamaBase + "/api/generate",
			ModelsAPIURL: ollamaBase + "/api/tags",
			EnvVarNames:  []string{"OLLAMA_API_KEY"},
			DefaultModel: DefaultOllamaModel,
			Auth: AuthConfig{
				Type:         AuthTypeHeader,
				HeaderName:   "Authorization",
				HeaderFormat: "Bearer {key}",
				Optional:     true,
			},
			Parse: ParseConfig{
				ModelsPath: "models",
				IDField:    "name",
			},
			Chat: ChatConfig{
				MessageFormat:     FormatOllama,
				ResponseParsePath: "response",
			},
			Active: true,
		},
	}
}

// deriveURLs fills ChatAPIURL/ModelsAPIURL from a base URL, by provider
// family, only where the specific URLs are still unset.
func deriveURLs(cfg *ProviderConfig) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return
	}

	if cfg.Chat.MessageFormat == FormatOllama || cfg.Name == "ollama" {
		if cfg.ChatAPIURL == "" {
			cfg.ChatAPIURL = base + "/api/generate"
		}
		if cfg.ModelsAPIURL == "" {
			cfg.ModelsAPIURL = base + "/api/tags"
		}
		return
	}

	if cfg.ChatAPIURL == "" {
		cfg.ChatAPIURL = base + "/v1/chat/completions"
	}
	if cfg.ModelsAPIURL == "" {
		cfg.ModelsAPIURL = base + "/v1/models"
	}
}
