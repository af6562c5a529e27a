package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/animus-coder/testgen/internal/vault"
)

// APIKeyName is the vault entry holding the completion API key.
const APIKeyName = "api_key"

// Provider gives the generator read access to configuration and write access to the API key.
type Provider interface {
	Load() (*Config, error)
	SetAPIKey(key string) error
}

// SecretStore persists secrets outside the config file.
type SecretStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Manager loads configuration from disk/env and resolves the API key from a SecretStore
// when the config does not carry one.
type Manager struct {
	path    string
	secrets SecretStore
}

// NewManager builds a Manager. secrets may be nil, in which case the vault configured
// in the loaded config is opened lazily.
func NewManager(path string, secrets SecretStore) *Manager {
	return &Manager{path: path, secrets: secrets}
}

// Load reads the configuration and fills in the API key from the secret store if needed.
func (m *Manager) Load() (*Config, error) {
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	if cfg.HasAPIKey() {
		return cfg, nil
	}

	store, err := m.store(cfg)
	if err != nil {
		return nil, err
	}
	key, err := store.Get(APIKeyName)
	switch {
	case errors.Is(err, vault.ErrNotFound):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read api key: %w", err)
	}
	if strings.TrimSpace(key) != "" {
		cfg.Generator.APIKey = key
		cfg.APIKeySource = "vault"
	}
	return cfg, nil
}

// SetAPIKey persists the key. The config file is never rewritten.
func (m *Manager) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key is empty")
	}

	cfg, err := Load(m.path)
	if err != nil {
		return err
	}
	store, err := m.store(cfg)
	if err != nil {
		return err
	}
	if err := store.Set(APIKeyName, key); err != nil {
		return fmt.Errorf("store api key: %w", err)
	}
	return nil
}

func (m *Manager) store(cfg *Config) (SecretStore, error) {
	if m.secrets != nil {
		return m.secrets, nil
	}
	dir, err := cfg.VaultDir()
	if err != nil {
		return nil, err
	}
	v, err := vault.New(vault.Options{ServiceName: cfg.Vault.Service, DataDir: dir})
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	m.secrets = v
	return v, nil
}
