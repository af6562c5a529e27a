package mock

import (
	"context"
	"sync"

	"github.com/animus-coder/testgen/internal/llm"
)

// Provider is a test double implementing llm.Provider.
type Provider struct {
	NameValue string
	ChatFn    func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)

	mu       sync.Mutex
	requests []llm.ChatRequest
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.ChatFn != nil {
		return p.ChatFn(ctx, req)
	}
	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: "mock",
		},
		Model: req.Model,
	}, nil
}

// Requests returns the requests seen so far.
func (p *Provider) Requests() []llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.ChatRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Completer is a test double implementing llm.Completer keyed by model.
type Completer struct {
	// Responses maps model -> text. Models in Errors fail instead.
	Responses map[string]string
	Errors    map[string]error

	mu    sync.Mutex
	Calls []string
}

func (c *Completer) Complete(ctx context.Context, model, systemPrompt, userContent string) (string, error) {
	c.mu.Lock()
	c.Calls = append(c.Calls, model)
	c.mu.Unlock()

	if err, ok := c.Errors[model]; ok {
		return "", err
	}
	return c.Responses[model], nil
}
