package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrCompletionFailed is wrapped by every error FallbackClient returns.
var ErrCompletionFailed = errors.New("completion failed")

// Attempt roles reported to the AttemptRecorder.
const (
	RolePrimary  = "primary"
	RoleFallback = "fallback"
)

// AttemptRecorder receives one call per completion attempt.
type AttemptRecorder interface {
	RecordAttempt(role, model string, err error)
}

// Completion is the text of a successful attempt and how it was obtained.
type Completion struct {
	Text     string
	Model    string
	Attempts int
}

// FallbackClient calls the primary model and, on failure, a distinct fallback model once.
type FallbackClient struct {
	completer Completer
	primary   string
	fallback  string
	logger    *zap.Logger
	recorder  AttemptRecorder
}

// FallbackOption customises a FallbackClient.
type FallbackOption func(*FallbackClient)

// WithLogger sets the logger used for attempt failures.
func WithLogger(l *zap.Logger) FallbackOption {
	return func(c *FallbackClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the attempt recorder.
func WithRecorder(r AttemptRecorder) FallbackOption {
	return func(c *FallbackClient) { c.recorder = r }
}

// NewFallbackClient builds a client for the given model pair.
func NewFallbackClient(completer Completer, primary, fallback string, opts ...FallbackOption) *FallbackClient {
	c := &FallbackClient{
		completer: completer,
		primary:   strings.TrimSpace(primary),
		fallback:  strings.TrimSpace(fallback),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasDistinctFallback reports whether a second attempt would be made after a primary failure.
func (c *FallbackClient) HasDistinctFallback() bool {
	return c.fallback != "" && c.fallback != c.primary
}

// Complete runs at most two attempts. There is no backoff between them.
func (c *FallbackClient) Complete(ctx context.Context, systemPrompt, userContent string) (Completion, error) {
	text, primaryErr := c.attempt(ctx, RolePrimary, c.primary, systemPrompt, userContent)
	if primaryErr == nil {
		return Completion{Text: text, Model: c.primary, Attempts: 1}, nil
	}
	c.logger.Error("main model failed", zap.String("model", c.primary), zap.Error(primaryErr))

	if !c.HasDistinctFallback() {
		return Completion{}, fmt.Errorf("%w: model %s: %v", ErrCompletionFailed, c.primary, primaryErr)
	}
	if err := ctx.Err(); err != nil {
		return Completion{}, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	text, fallbackErr := c.attempt(ctx, RoleFallback, c.fallback, systemPrompt, userContent)
	if fallbackErr == nil {
		return Completion{Text: text, Model: c.fallback, Attempts: 2}, nil
	}
	c.logger.Error("fallback model failed", zap.String("model", c.fallback), zap.Error(fallbackErr))

	return Completion{}, &FallbackError{
		Primary:     c.primary,
		Fallback:    c.fallback,
		PrimaryErr:  primaryErr,
		FallbackErr: fallbackErr,
	}
}

func (c *FallbackClient) attempt(ctx context.Context, role, model, systemPrompt, userContent string) (string, error) {
	if model == "" {
		err := errors.New("model is required")
		c.record(role, model, err)
		return "", err
	}
	c.logger.Debug("requesting completion", zap.String("role", role), zap.String("model", model))
	text, err := c.completer.Complete(ctx, model, systemPrompt, userContent)
	c.record(role, model, err)
	return text, err
}

func (c *FallbackClient) record(role, model string, err error) {
	if c.recorder != nil {
		c.recorder.RecordAttempt(role, model, err)
	}
}

// FallbackError reports that both the primary and the fallback model failed.
type FallbackError struct {
	Primary     string
	Fallback    string
	PrimaryErr  error
	FallbackErr error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("%v: model %s: %v; fallback %s: %v", ErrCompletionFailed, e.Primary, e.PrimaryErr, e.Fallback, e.FallbackErr)
}

// Is matches ErrCompletionFailed.
func (e *FallbackError) Is(target error) bool {
	return target == ErrCompletionFailed
}

// Unwrap exposes both attempt errors.
func (e *FallbackError) Unwrap() []error {
	return []error{e.PrimaryErr, e.FallbackErr}
}
