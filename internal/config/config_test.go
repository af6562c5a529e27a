package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animus-coder/testgen/internal/vault"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("TESTGEN_GENERATOR_API_KEY", "")
}

func TestLoadConfigFromFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `
generator:
  api_key: sk-file
  main_model: gpt-4o
  fallback_model: gpt-4o-mini
provider:
  type: openrouter
  base_url: https://openrouter.ai/api/v1
  timeout: 30s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", cfg.Generator.MainModel)
	require.Equal(t, "gpt-4o-mini", cfg.Generator.FallbackModel)
	require.Equal(t, "openrouter", cfg.Provider.Type)
	require.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	require.Equal(t, "config", cfg.APIKeySource)
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultModel, cfg.Generator.MainModel)
	require.Equal(t, DefaultModel, cfg.Generator.FallbackModel)
	require.Equal(t, "openai", cfg.Provider.Type)
	require.Equal(t, 120*time.Second, cfg.Provider.Timeout)
	require.False(t, cfg.HasAPIKey())
	require.Empty(t, cfg.APIKeySource)
}

func TestEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("TESTGEN_GENERATOR_MAIN_MODEL", "gpt-4.1")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "gpt-4.1", cfg.Generator.MainModel)
	require.Equal(t, "sk-env", cfg.Generator.APIKey)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolateEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{
		Generator: GeneratorConfig{MainModel: "o3-mini"},
		Provider:  ProviderConfig{Type: "openai"},
		Vault:     VaultConfig{Service: AppName},
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"provider type": func(c *Config) { c.Provider.Type = "grpc" },
		"main model":    func(c *Config) { c.Generator.MainModel = " " },
		"timeout":       func(c *Config) { c.Provider.Timeout = -time.Second },
		"max tokens":    func(c *Config) { c.Provider.MaxTokens = -1 },
		"log level":     func(c *Config) { c.Logging.Level = "trace" },
		"log format":    func(c *Config) { c.Logging.Format = "xml" },
		"vault service": func(c *Config) { c.Vault.Service = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

type memStore map[string]string

func (m memStore) Get(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", vault.ErrNotFound
	}
	return v, nil
}

func (m memStore) Set(key, value string) error {
	m[key] = value
	return nil
}

func TestManagerResolvesKeyFromStore(t *testing.T) {
	isolateEnv(t)
	store := memStore{}
	m := NewManager("", store)

	cfg, err := m.Load()
	require.NoError(t, err)
	require.False(t, cfg.HasAPIKey())

	require.Error(t, m.SetAPIKey("   "))
	require.NoError(t, m.SetAPIKey(" sk-stored "))
	require.Equal(t, "sk-stored", store[APIKeyName])

	cfg, err = m.Load()
	require.NoError(t, err)
	require.Equal(t, "sk-stored", cfg.Generator.APIKey)
	require.Equal(t, "vault", cfg.APIKeySource)
}

func TestManagerPrefersConfiguredKey(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	m := NewManager("", memStore{APIKeyName: "sk-stored"})

	cfg, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, "sk-env", cfg.Generator.APIKey)
	require.Equal(t, "config", cfg.APIKeySource)
}

func TestVaultDirDefaultsToUserConfigDir(t *testing.T) {
	isolateEnv(t)
	cfg := &Config{}
	dir, err := cfg.VaultDir()
	require.NoError(t, err)
	require.Equal(t, AppName, filepath.Base(dir))

	cfg.Vault.Dir = "/tmp/secrets"
	dir, err = cfg.VaultDir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/secrets", dir)
}
