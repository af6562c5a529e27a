package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/animus-coder/testgen/internal/config"
	"github.com/animus-coder/testgen/internal/llm/configbuilder"
	"github.com/animus-coder/testgen/internal/vault"
)

// NewDoctorCmd returns a health-check command validating config and key storage.
func NewDoctorCmd(opts *Options, deps *dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and API key storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if _, err := newLogger(cfg); err != nil {
				return err
			}
			provider, err := configbuilder.BuildProvider(cfg.Provider, "")
			if err != nil {
				return err
			}

			resolved, err := config.NewManager(opts.ConfigPath, deps.secrets).Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Provider: %s", provider.Name())
			if p, ok := provider.(interface{ BaseURL() string }); ok {
				fmt.Fprintf(out, " (%s)", p.BaseURL())
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Models: main=%s fallback=%s\n", cfg.Generator.MainModel, cfg.Generator.FallbackModel)
			fmt.Fprintf(out, "API key: %s\n", keyStatus(resolved))
			fmt.Fprintf(out, "Key storage: %s\n", storageStatus(cfg, deps))
			return nil
		},
	}
}

func keyStatus(cfg *config.Config) string {
	if !cfg.HasAPIKey() {
		return "missing (run `testgen set-api-key`)"
	}
	return "set via " + cfg.APIKeySource
}

func storageStatus(cfg *config.Config, deps *dependencies) string {
	if deps.secrets != nil {
		return "custom store"
	}
	dir, err := cfg.VaultDir()
	if err != nil {
		return "unavailable: " + err.Error()
	}
	v, err := vault.New(vault.Options{ServiceName: cfg.Vault.Service, DataDir: dir})
	if err != nil {
		return "unavailable: " + err.Error()
	}
	if v.UsesKeyring() {
		return "OS keyring"
	}
	return "file " + filepath.Join(dir, "secrets.json")
}
