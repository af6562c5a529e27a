package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultModel is used for both the main and the fallback model when none is configured.
	DefaultModel = "o3-mini"
	// AppName names the config directory and the keyring service.
	AppName = "testgen"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Generator GeneratorConfig `mapstructure:"generator"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Vault     VaultConfig     `mapstructure:"vault"`

	// APIKeySource records where the key was found: "config", "vault" or "" when missing.
	APIKeySource string `mapstructure:"-"`
}

// GeneratorConfig holds the key and model selection for test generation.
type GeneratorConfig struct {
	APIKey        string `mapstructure:"api_key"`
	MainModel     string `mapstructure:"main_model"`
	FallbackModel string `mapstructure:"fallback_model"`
}

// ProviderConfig selects the completion backend.
type ProviderConfig struct {
	Type      string        `mapstructure:"type"`       // openai, openrouter, ollama, vllm, lmstudio, custom
	BaseURL   string        `mapstructure:"base_url"`   // API base URL, provider default when empty
	Timeout   time.Duration `mapstructure:"timeout"`    // request timeout
	MaxTokens int           `mapstructure:"max_tokens"` // optional completion token cap
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// VaultConfig controls where the API key is persisted.
type VaultConfig struct {
	Service string `mapstructure:"service"`
	Dir     string `mapstructure:"dir"`
}

// Load reads configuration from the provided path or searches the default locations.
// A .env file in the working directory is loaded first. Environment variables override
// file values (prefix: TESTGEN_, dots replaced with underscores); OPENAI_API_KEY is
// accepted for generator.api_key.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if strings.TrimSpace(cfg.Generator.APIKey) != "" {
		cfg.APIKeySource = "config"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func newViper(path string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TESTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("generator.api_key", "TESTGEN_GENERATOR_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.main_model", DefaultModel)
	v.SetDefault("generator.fallback_model", DefaultModel)

	v.SetDefault("provider.type", "openai")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.timeout", 120*time.Second)
	v.SetDefault("provider.max_tokens", 0)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.file", "")

	v.SetDefault("vault.service", AppName)
	v.SetDefault("vault.dir", "")
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// VaultDir returns the configured vault directory or the per-user default.
func (c *Config) VaultDir() (string, error) {
	if strings.TrimSpace(c.Vault.Dir) != "" {
		return c.Vault.Dir, nil
	}
	return DefaultDir()
}

// HasAPIKey reports whether a non-blank key is available.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.Generator.APIKey) != ""
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Provider.Type)) {
	case "openai", "openrouter", "ollama", "vllm", "lmstudio", "custom":
	default:
		return fmt.Errorf("provider.type must be one of openai, openrouter, ollama, vllm, lmstudio, custom, got %q", c.Provider.Type)
	}

	if strings.TrimSpace(c.Generator.MainModel) == "" {
		return errors.New("generator.main_model must be set")
	}

	if c.Provider.Timeout < 0 {
		return errors.New("provider.timeout must be >= 0")
	}
	if c.Provider.MaxTokens < 0 {
		return errors.New("provider.max_tokens cannot be negative")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console or json, got %q", c.Logging.Format)
	}

	if strings.TrimSpace(c.Vault.Service) == "" {
		return errors.New("vault.service must be set")
	}

	return nil
}
