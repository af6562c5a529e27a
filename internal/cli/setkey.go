package cli

import (
	"github.com/spf13/cobra"

	"github.com/animus-coder/testgen/internal/config"
	"github.com/animus-coder/testgen/internal/generator"
)

// NewSetAPIKeyCmd stores the completion API key in the OS keyring or the fallback file.
func NewSetAPIKeyCmd(opts *Options, deps *dependencies) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "set-api-key",
		Short: "Store the OpenAI API key",
		Long: "Store the OpenAI API key outside the config file. The key is read from --key, " +
			"from a masked prompt on a terminal, or from the first line of stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var prompter generator.SecretPrompter = linePrompter{r: deps.stdin}
			if deps.interactive() {
				prompter = formPrompter{}
			}
			gen := generator.New(config.NewManager(opts.ConfigPath, deps.secrets), nil, nil,
				generator.WithNotifier(newConsoleNotifier(cmd.ErrOrStderr())),
				generator.WithSecretPrompter(prompter),
			)

			if cmd.Flags().Changed("key") {
				return gen.SetAPIKey(cmd.Context(), key)
			}
			return gen.PromptAndSetAPIKey(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key value (visible in shell history; prefer the prompt)")
	return cmd
}
