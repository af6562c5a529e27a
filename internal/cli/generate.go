package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/animus-coder/testgen/internal/config"
	"github.com/animus-coder/testgen/internal/generator"
	"github.com/animus-coder/testgen/internal/observability"
	"github.com/animus-coder/testgen/internal/workspace"
)

// NewGenerateCmd writes a test file next to the given source file.
func NewGenerateCmd(opts *Options, deps *dependencies) *cobra.Command {
	var (
		mainModel     string
		fallbackModel string
		open          bool
		workspaceDir  string
	)

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Generate a unit test file next to a source file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			files, err := workspace.NewFilesystem(workspaceDir)
			if err != nil {
				return fmt.Errorf("workspace: %w", err)
			}
			metrics := observability.NewMetrics()

			genOpts := []generator.Option{
				generator.WithNotifier(newConsoleNotifier(cmd.ErrOrStderr())),
				generator.WithLogger(logger),
				generator.WithMetrics(metrics),
				generator.WithModelOverrides(generator.ModelOverrides{Main: mainModel, Fallback: fallbackModel}),
			}
			if deps.interactive() {
				genOpts = append(genOpts, generator.WithSecretPrompter(formPrompter{}))
			}
			if open {
				genOpts = append(genOpts, generator.WithOpener(editorOpener{
					stdin:  deps.stdin,
					stdout: cmd.OutOrStdout(),
					stderr: cmd.ErrOrStderr(),
				}))
			}

			gen := generator.New(config.NewManager(opts.ConfigPath, deps.secrets), deps.completer, files, genOpts...)

			var path string
			if len(args) == 1 {
				path = strings.TrimSpace(args[0])
			}
			res, genErr := gen.GenerateTests(cmd.Context(), path)

			if err := metrics.WriteTextfile(opts.metricsFile(cfg)); err != nil {
				logger.Warn("metrics export failed", zap.Error(err))
			}
			if genErr != nil {
				return genErr
			}

			target := res.Artifact.Path
			if abs, err := files.Resolve(target); err == nil {
				target = abs
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&mainModel, "model", "", "Override generator.main_model for this run")
	cmd.Flags().StringVar(&fallbackModel, "fallback-model", "", "Override generator.fallback_model for this run")
	cmd.Flags().BoolVar(&open, "open", false, "Open the generated file in $VISUAL or $EDITOR")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Refuse to read or write outside this directory")
	return cmd
}
