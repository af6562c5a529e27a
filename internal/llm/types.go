package llm

import "context"

// Role is the message role used in chat exchanges.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage represents a single message exchanged with the model.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

// ChatRequest is the input for chat providers.
type ChatRequest struct {
	Model     string
	Messages  []ChatMessage
	MaxTokens int
}

// Usage captures token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse is the result of a chat completion. Model is the model that served it.
type ChatResponse struct {
	Message      ChatMessage
	FinishReason string
	Usage        Usage
	Model        string
}

// Provider defines the contract for LLM providers.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// Completer is the narrow capability the generator needs: one system prompt, one user
// message, the text of the first choice back.
type Completer interface {
	Complete(ctx context.Context, model, systemPrompt, userContent string) (string, error)
}
