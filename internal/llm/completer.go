package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// finishReasonLength marks a reply cut off by the token cap.
const finishReasonLength = "length"

// ProviderCompleter adapts a chat Provider to the Completer capability.
type ProviderCompleter struct {
	Provider  Provider
	MaxTokens int
	Logger    *zap.Logger
}

// NewProviderCompleter wraps p.
func NewProviderCompleter(p Provider, maxTokens int) *ProviderCompleter {
	return &ProviderCompleter{Provider: p, MaxTokens: maxTokens, Logger: zap.NewNop()}
}

// Complete sends a system message and a user message and returns the first choice content.
func (c *ProviderCompleter) Complete(ctx context.Context, model, systemPrompt, userContent string) (string, error) {
	if c == nil || c.Provider == nil {
		return "", errors.New("llm: no provider configured")
	}
	resp, err := c.Provider.Chat(ctx, ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userContent},
		},
		MaxTokens: c.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Provider.Name(), err)
	}

	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	fields := []zap.Field{
		zap.String("provider", c.Provider.Name()),
		zap.String("model", model),
		zap.String("served_model", resp.Model),
		zap.String("finish_reason", resp.FinishReason),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	}
	if resp.FinishReason == finishReasonLength {
		log.Warn("completion truncated at token limit", fields...)
	} else {
		log.Debug("completion received", fields...)
	}
	return resp.Message.Content, nil
}
