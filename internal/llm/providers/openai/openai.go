package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/animus-coder/testgen/internal/llm"
)

// DefaultBaseURL is the public OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider implements an OpenAI-compatible chat provider on top of go-openai.
type Provider struct {
	name    string
	client  *goopenai.Client
	baseURL string
}

// NewProvider constructs a Provider with sane defaults.
func NewProvider(name, baseURL, apiKey string, timeout time.Duration) *Provider {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return newProvider(name, baseURL, apiKey, &http.Client{Timeout: timeout})
}

func newProvider(name, baseURL, apiKey string, httpClient *http.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = httpClient

	return &Provider{
		name:    name,
		client:  goopenai.NewClientWithConfig(cfg),
		baseURL: baseURL,
	}
}

// Name returns provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// BaseURL returns the API root requests are sent to.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

// Chat executes a non-streaming chat completion.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		return llm.ChatResponse{}, fmt.Errorf("model is required")
	}

	body := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(req.Messages),
	}
	// Reasoning models reject max_tokens, so the cap goes out as max_completion_tokens only when set.
	if req.MaxTokens > 0 {
		body.MaxCompletionTokens = req.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, body)
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return llm.ChatResponse{}, fmt.Errorf("openai: status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return llm.ChatResponse{}, fmt.Errorf("send request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.ChatResponse{}, fmt.Errorf("openai: empty choices")
	}

	msg := resp.Choices[0].Message
	served := resp.Model
	if served == "" {
		served = model
	}
	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.Role(msg.Role),
			Content: msg.Content,
		},
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model: served,
	}, nil
}

func toOpenAIMessages(msgs []llm.ChatMessage) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
