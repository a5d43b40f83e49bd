package ai

import "context"

// ChatProvider is the contract every model backend must satisfy.
type ChatProvider interface {
	Name() ProviderName

	// Probe cheaply checks whether the provider is usable (credentials
	// present, endpoint reachable). The gateway adopts the first provider
	// whose probe succeeds.
	Probe(ctx context.Context) error

	// Chat sends a completion request and returns the assistant text.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Message represents a single message in the conversation.
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatResponse represents the response from a chat completion.
type ChatResponse struct {
	Model   string
	Content string
	Usage   Usage
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
