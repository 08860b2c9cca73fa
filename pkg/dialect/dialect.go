// Package dialect shapes provider-agnostic conversations into each
// provider's chat request body and extracts the completion text from its
// response.
//
// Three dialects cover the shipped providers and every OpenAI-compatible
// endpoint:
//
//   - openai: system messages stay inline in the messages array
//   - anthropic: the first system message moves to a top-level "system"
//     field and tool schemas nest under "input_schema"
//   - ollama: the whole conversation flattens into one prompt string for
//     the /api/generate endpoint
package dialect

import (
	"encoding/json"
	"strings"

	"mercator-hq/ganymede/pkg/chat"
	"mercator-hq/ganymede/pkg/jsonpath"
	"mercator-hq/ganymede/pkg/registry"
)

// DefaultAnthropicMaxTokens is applied when the anthropic dialect is used
// without an explicit max-tokens option; the field is mandatory there.
const DefaultAnthropicMaxTokens = 4096

// Request carries everything a body builder may need. Pointer fields
// distinguish "unset" from zero so callers can pass temperature 0.
type Request struct {
	Model          string
	Messages       []chat.Message
	MaxTokens      int
	Temperature    *float64
	TopP           *float64
	ResponseFormat map[string]interface{}
	Tools          []chat.Tool
	ToolChoice     interface{}
}

// BuildBody produces the JSON-ready request body for a provider's chat
// config.
func BuildBody(cfg registry.ChatConfig, req Request) (map[string]interface{}, error) {
	switch cfg.MessageFormat {
	case registry.FormatAnthropic:
		return buildAnthropicBody(cfg, req), nil
	case registry.FormatOllama:
		return buildOllamaBody(req), nil
	case registry.FormatOpenAI, "":
		return buildOpenAIBody(req), nil
	default:
		return nil, chat.New(chat.KindConfig, "", req.Model,
			"unknown message format %q", cfg.MessageFormat)
	}
}

// buildOpenAIBody keeps the history as-is; system messages ride inline.
func buildOpenAIBody(req Request) map[string]interface{} {
	body := map[string]interface{}{
		"model":    req.Model,
		"messages": req.Messages,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		body["top_p"] = *req.TopP
	}
	if req.ResponseFormat != nil {
		body["response_format"] = req.ResponseFormat
	}
	if len(req.Tools) > 0 {
		body["tools"] = req.Tools
	}
	if req.ToolChoice != nil {
		body["tool_choice"] = req.ToolChoice
	}
	return body
}

// buildAnthropicBody extracts the first system message to the top-level
// system field; any further system messages are dropped from the list (the
// API rejects the role inside messages).
func buildAnthropicBody(cfg registry.ChatConfig, req Request) map[string]interface{} {
	var system string
	messages := make([]chat.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == chat.RoleSystem {
			if system == "" {
				system = msg.Content
			}
			continue
		}
		messages = append(messages, msg)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultAnthropicMaxTokens
	}

	body := map[string]interface{}{
		"model":      req.Model,
		"messages":   messages,
		"max_tokens": maxTokens,
	}
	if system != "" {
		body["system"] = system
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		body["top_p"] = *req.TopP
	}
	if len(req.Tools) > 0 {
		if cfg.ToolSchemaType == registry.ToolSchemaAnthropic {
			body["tools"] = translateTools(req.Tools)
		} else {
			body["tools"] = req.Tools
		}
	}
	return body
}

// translateTools converts OpenAI function schemas to Anthropic's shape:
// the JSON schema moves from "parameters" to "input_schema" and the
// function wrapper flattens away.
func translateTools(tools []chat.Tool) []map[string]interface{} {
	translated := make([]map[string]interface{}, 0, len(tools))
	for _, tool := range tools {
		entry := map[string]interface{}{
			"name": tool.Function.Name,
		}
		if tool.Function.Description != "" {
			entry["description"] = tool.Function.Description
		}
		if tool.Function.Parameters != nil {
			entry["input_schema"] = tool.Function.Parameters
		}
		translated = append(translated, entry)
	}
	return translated
}

// buildOllamaBody flattens the conversation into a single prompt for
// /api/generate, one "role: content" line per message, ending with an
// open "assistant:" line for the model to complete.
func buildOllamaBody(req Request) map[string]interface{} {
	body := map[string]interface{}{
		"model":  req.Model,
		"prompt": FlattenPrompt(req.Messages),
		"stream": false,
	}

	options := map[string]interface{}{}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		options["top_p"] = *req.TopP
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(options) > 0 {
		body["options"] = options
	}
	return body
}

// FlattenPrompt renders a conversation as role-prefixed lines.
func FlattenPrompt(messages []chat.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString(chat.RoleAssistant)
	b.WriteString(":")
	return b.String()
}

// ExtractContent pulls the completion text out of a 2xx response body.
// An unparseable body or an empty/missing path resolution is an Upstream
// error: the provider answered but said nothing usable, which the retry
// executor treats like a transient endpoint failure.
func ExtractContent(path *jsonpath.Path, body []byte) (string, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &chat.Error{
			Kind:    chat.KindUpstream,
			Message: "response is not valid JSON",
			Cause:   err,
		}
	}

	content, ok := path.EvalString(doc)
	if !ok {
		return "", &chat.Error{
			Kind:    chat.KindUpstream,
			Message: "response path " + path.String() + " resolved to nothing",
		}
	}
	return content, nil
}
