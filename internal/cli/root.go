package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/animus-coder/testgen/internal/config"
	"github.com/animus-coder/testgen/internal/generator"
	"github.com/animus-coder/testgen/internal/llm/configbuilder"
	"github.com/animus-coder/testgen/internal/logging"
	"github.com/animus-coder/testgen/internal/version"
)

// Exit codes returned by Execute.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitNoTestsPossible = 2
)

// Options holds global CLI options.
type Options struct {
	ConfigPath  string
	LogLevel    string
	MetricsFile string
}

// dependencies are the pieces tests replace.
type dependencies struct {
	completer generator.CompleterFactory
	// secrets replaces the OS keyring vault when set.
	secrets config.SecretStore
	stdin   io.Reader
	// interactive reports whether prompts may be shown.
	interactive func() bool
}

func defaultDependencies() *dependencies {
	return &dependencies{
		completer:   configbuilder.BuildCompleter,
		stdin:       os.Stdin,
		interactive: func() bool { return isTerminal(os.Stdin) },
	}
}

// NewRootCmd constructs the base CLI command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultDependencies())
}

func newRootCmd(deps *dependencies) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "testgen",
		Short:         "testgen – generate unit test files with an OpenAI-compatible model",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: ./config.yaml, configs/config.yaml or the user config dir)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")

	cmd.AddCommand(NewGenerateCmd(opts, deps))
	cmd.AddCommand(NewSetAPIKeyCmd(opts, deps))
	cmd.AddCommand(NewDoctorCmd(opts, deps))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if needsReport(err) {
		fmt.Fprintln(os.Stderr, "testgen:", err)
	}
	os.Exit(ExitCode(err))
}

// needsReport reports whether err still has to be printed. Generation outcomes and an empty
// key have already been shown to the user by the notifier.
func needsReport(err error) bool {
	if err == nil || errors.Is(err, generator.ErrEmptyAPIKey) {
		return false
	}
	return generator.OutcomeOf(err) == generator.OutcomeError
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, generator.ErrNoTestsPossible):
		return ExitNoTestsPossible
	default:
		return ExitFailure
	}
}

// loadConfig wraps config loading with shared options.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if lvl := strings.TrimSpace(opts.LogLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func (o *Options) metricsFile(cfg *config.Config) string {
	if strings.TrimSpace(o.MetricsFile) != "" {
		return o.MetricsFile
	}
	return cfg.Metrics.File
}
