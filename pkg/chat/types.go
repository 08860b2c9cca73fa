package chat

// Message represents a single message in a conversation.
// It is provider-agnostic; dialect builders transform it into each
// provider's wire format.
type Message struct {
	// Role identifies the message sender (system, user, assistant, tool)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`

	// Name is an optional sender name (multi-user conversations)
	Name string `json:"name,omitempty"`

	// ToolCallID references the tool call this message responds to
	// when Role is "tool"
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Tool represents a tool/function definition the model may call.
type Tool struct {
	// Type is the tool type (currently always "function")
	Type string `json:"type"`

	// Function contains the function definition
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition defines a callable function.
type FunctionDefinition struct {
	// Name is the function name
	Name string `json:"name"`

	// Description explains what the function does
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the function parameters
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Usage tracks token consumption reported by a provider, when available.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is prompt + completion
	TotalTokens int `json:"total_tokens"`
}

// Result is the outcome of a successful chat call, for callers that want
// more than the completion text.
type Result struct {
	// Content is the extracted completion text
	Content string

	// Provider is the normalized provider name that served the call
	Provider string

	// Model is the model that generated the completion
	Model string

	// Attempts is the number of HTTP attempts made (>= 1)
	Attempts int

	// EstimatedTokens is the admission-control estimate for the prompt
	EstimatedTokens int

	// RequestID is the runtime-assigned id correlating logs and journal rows
	RequestID string
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Tool type constants
const (
	ToolTypeFunction = "function"
)
