package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/animus-coder/testgen/internal/config"
	"github.com/animus-coder/testgen/internal/llm"
	"github.com/animus-coder/testgen/internal/logging"
	"github.com/animus-coder/testgen/internal/observability"
)

// Status bar texts shown through Notifier.Busy.
const (
	statusGenerated   = "Test File Generated!"
	statusFailed      = "Failed to Generate Tests"
	statusCallFailed  = "Error Generating Tests"
	statusWriteFailed = "Error Writing File"
)

// CompleterFactory builds the remote completion capability from the loaded configuration.
// logger is scoped to the current run.
type CompleterFactory func(cfg *config.Config, logger *zap.Logger) (llm.Completer, error)

// SourceFile is the document tests are generated for.
type SourceFile struct {
	Path    string
	Ext     string
	Content string
}

// TestArtifact is the file the generator writes.
type TestArtifact struct {
	Path    string
	Name    string
	Content string
}

// Result describes a successful run.
type Result struct {
	RunID    string
	Source   SourceFile
	Artifact TestArtifact
	Model    string
	Attempts int
}

// ModelOverrides replaces the configured models for a run when non-empty.
type ModelOverrides struct {
	Main     string
	Fallback string
}

// Generator turns one source file into one sibling test file.
type Generator struct {
	config    config.Provider
	completer CompleterFactory
	files     Files
	notifier  Notifier
	prompter  SecretPrompter
	opener    Opener
	logger    *zap.Logger
	metrics   *observability.Metrics
	overrides ModelOverrides
	now       func() time.Time
}

// Option customises a Generator.
type Option func(*Generator)

// WithNotifier sets where user-facing messages go.
func WithNotifier(n Notifier) Option {
	return func(g *Generator) {
		if n != nil {
			g.notifier = n
		}
	}
}

// WithSecretPrompter enables interactive key setup when the key is missing.
func WithSecretPrompter(p SecretPrompter) Option {
	return func(g *Generator) { g.prompter = p }
}

// WithOpener sets how a generated file is shown.
func WithOpener(o Opener) Option {
	return func(g *Generator) { g.opener = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithModelOverrides replaces the configured model pair.
func WithModelOverrides(o ModelOverrides) Option {
	return func(g *Generator) { g.overrides = o }
}

// New builds a Generator.
func New(cfg config.Provider, completer CompleterFactory, files Files, opts ...Option) *Generator {
	g := &Generator{
		config:    cfg,
		completer: completer,
		files:     files,
		notifier:  nopNotifier{},
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateTests runs the whole flow for the file at path: configuration check, document
// read, target check, prompt, completion with fallback, post-processing and exclusive write.
func (g *Generator) GenerateTests(ctx context.Context, path string) (Result, error) {
	runID := uuid.NewString()
	log := logging.ForRun(g.logger, runID)
	start := g.now()

	res, err := g.generate(ctx, log, path)
	res.RunID = runID

	outcome := OutcomeOf(err)
	g.metrics.RecordGeneration(outcome, g.now().Sub(start))
	if err != nil {
		log.Info("generation aborted", zap.String("outcome", outcome), zap.String("source", path), zap.Error(err))
		return res, err
	}
	log.Info("generation finished",
		zap.String("source", res.Source.Path),
		zap.String("target", res.Artifact.Path),
		zap.String("model", res.Model),
		zap.Int("attempts", res.Attempts))
	return res, nil
}

func (g *Generator) generate(ctx context.Context, log *zap.Logger, path string) (Result, error) {
	cfg, err := g.config.Load()
	if err != nil {
		return Result{}, fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasAPIKey() {
		g.notifier.Warn("Your OpenAI API key is not set.")
		g.offerKeySetup(ctx, log)
		return Result{}, ErrMissingConfiguration
	}

	if strings.TrimSpace(path) == "" {
		g.notifier.Info("Please open a file for which you want to generate unit tests.")
		return Result{}, ErrNoActiveDocument
	}
	content, err := g.files.ReadFile(path)
	if err != nil {
		g.notifier.Error(fmt.Sprintf("Could not open %s.", path))
		return Result{}, fmt.Errorf("%w: %v", ErrNoActiveDocument, err)
	}

	fileName := filepath.Base(path)
	lang := DetectLanguage(fileName)
	source := SourceFile{Path: path, Ext: lang.Ext, Content: content}
	artifact := TestArtifact{Name: TestFileName(fileName), Path: TestFilePath(path)}
	res := Result{Source: source, Artifact: artifact}

	exists, err := g.files.Exists(artifact.Path)
	if err != nil {
		g.notifier.Error("Error writing the test file.")
		return res, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if exists {
		g.notifier.Error(fmt.Sprintf("Test file %s already exists in %s.", artifact.Name, filepath.Dir(artifact.Path)))
		return res, fmt.Errorf("%w: %s", ErrTargetExists, artifact.Path)
	}

	done := g.notifier.Busy(fmt.Sprintf("Generating Unit Tests for %s...", fileName))

	imports := ExtractImports(content, lang.Ext)
	prompt := BuildPrompt(lang, imports, content)
	log.Debug("prompt built",
		zap.String("language", lang.Name),
		zap.Int("relative_imports", len(imports)),
		zap.Int("prompt_bytes", len(prompt)))

	client, err := g.fallbackClient(cfg, log)
	if err != nil {
		done(statusCallFailed)
		g.notifier.Info("Error generating tests.")
		return res, fmt.Errorf("%w: %v", ErrRemoteCall, err)
	}

	completion, err := client.Complete(ctx, prompt, content)
	if err != nil {
		done(statusCallFailed)
		var both *llm.FallbackError
		if errors.As(err, &both) {
			g.notifier.Info("Error generating tests with both main and fallback models.")
		} else {
			g.notifier.Info("Error generating tests.")
		}
		return res, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}
	res.Model = completion.Model
	res.Attempts = completion.Attempts

	text := CleanResponse(completion.Text)
	if IsNotPossible(text) {
		done(statusFailed)
		g.notifier.Info("Couldn't generate unit tests for this file. Try a different file.")
		return res, ErrNoTestsPossible
	}
	res.Artifact.Content = text

	if err := g.files.CreateFile(artifact.Path, text); err != nil {
		if errors.Is(err, fs.ErrExist) {
			done(statusFailed)
			g.notifier.Error(fmt.Sprintf("Test file %s already exists in %s.", artifact.Name, filepath.Dir(artifact.Path)))
			return res, fmt.Errorf("%w: %s", ErrTargetExists, artifact.Path)
		}
		done(statusWriteFailed)
		g.notifier.Error("Error writing the test file.")
		return res, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if g.opener != nil {
		if err := g.opener.Open(ctx, artifact.Path); err != nil {
			log.Warn("could not open generated file", zap.String("path", artifact.Path), zap.Error(err))
		}
	}
	done(statusGenerated)
	g.notifier.Info(fmt.Sprintf("%s generated successfully.", artifact.Name))
	return res, nil
}

func (g *Generator) fallbackClient(cfg *config.Config, log *zap.Logger) (*llm.FallbackClient, error) {
	if g.completer == nil {
		return nil, errors.New("no completion backend configured")
	}
	completer, err := g.completer(cfg, log)
	if err != nil {
		return nil, err
	}

	main := firstNonEmpty(g.overrides.Main, cfg.Generator.MainModel, config.DefaultModel)
	fallback := firstNonEmpty(g.overrides.Fallback, cfg.Generator.FallbackModel)
	return llm.NewFallbackClient(completer, main, fallback,
		llm.WithLogger(log),
		llm.WithRecorder(g.metrics),
	), nil
}

// offerKeySetup runs the interactive key setup when a prompter is available.
// The current run is aborted either way.
func (g *Generator) offerKeySetup(ctx context.Context, log *zap.Logger) {
	if g.prompter == nil {
		return
	}
	ok, err := g.prompter.Confirm(ctx, "Your OpenAI API key is not set.", "Set API Key")
	if err != nil {
		log.Debug("key setup prompt failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if err := g.PromptAndSetAPIKey(ctx); err != nil {
		log.Debug("key setup failed", zap.Error(err))
	}
}

// PromptAndSetAPIKey asks for the key and stores it.
func (g *Generator) PromptAndSetAPIKey(ctx context.Context) error {
	if g.prompter == nil {
		return errors.New("no interactive prompt available")
	}
	secret, err := g.prompter.Secret(ctx, "Please enter your OpenAI API Key")
	if err != nil {
		return fmt.Errorf("read api key: %w", err)
	}
	return g.SetAPIKey(ctx, secret)
}

// SetAPIKey persists a new API key through the configuration provider.
func (g *Generator) SetAPIKey(_ context.Context, secret string) error {
	if strings.TrimSpace(secret) == "" {
		g.notifier.Error("API key not entered. Please try again.")
		return ErrEmptyAPIKey
	}
	if err := g.config.SetAPIKey(secret); err != nil {
		g.notifier.Error("Could not save the OpenAI API Key.")
		return fmt.Errorf("save api key: %w", err)
	}
	g.logger.Info("api key updated")
	g.notifier.Info("OpenAI API Key updated successfully.")
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
