package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
)

// ErrNotFound is returned when neither the keyring nor the fallback file holds the key.
var ErrNotFound = errors.New("secret not found in keyring or fallback file")

// Options configures the vault.
type Options struct {
	ServiceName string
	// DataDir holds secrets.json when the OS keyring cannot be used.
	DataDir string
	// Backends restricts keyring backends; empty means every available backend except the
	// encrypted file backend, which would prompt for a password.
	Backends []keyring.BackendType
	// FilePassword unlocks the encrypted file backend when it is selected.
	FilePassword string
}

// Vault stores secrets in the OS keyring and falls back to a 0600 JSON file.
type Vault struct {
	ring         keyring.Keyring
	fallbackPath string
	mu           sync.RWMutex
}

// New opens the keyring. A keyring that cannot be opened is not an error; the file fallback is used instead.
func New(opts Options) (*Vault, error) {
	if opts.ServiceName == "" {
		return nil, errors.New("vault: service name is required")
	}
	if opts.DataDir == "" {
		return nil, errors.New("vault: data dir is required")
	}

	v := &Vault{fallbackPath: filepath.Join(opts.DataDir, "secrets.json")}

	backends := opts.Backends
	if len(backends) == 0 {
		backends = systemBackends()
	}
	if len(backends) == 0 {
		return v, nil
	}

	cfg := keyring.Config{
		ServiceName:     opts.ServiceName,
		AllowedBackends: backends,
		FileDir:         filepath.Join(opts.DataDir, "keyring"),
	}
	if opts.FilePassword != "" {
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(opts.FilePassword)
	}

	ring, err := keyring.Open(cfg)
	if err == nil {
		v.ring = ring
	}
	return v, nil
}

func systemBackends() []keyring.BackendType {
	var out []keyring.BackendType
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			out = append(out, b)
		}
	}
	return out
}

// UsesKeyring reports whether an OS keyring backend is active.
func (v *Vault) UsesKeyring() bool {
	return v.ring != nil
}

// Set stores a secret in the keyring, or in the fallback file if the keyring rejects it.
// Only one location holds the key afterwards, so Get never returns a superseded value.
func (v *Vault) Set(key, value string) error {
	if v.ring != nil {
		err := v.ring.Set(keyring.Item{
			Key:   key,
			Data:  []byte(value),
			Label: key,
		})
		if err == nil {
			// Get reads the keyring first, so a stale file entry is only cleanup.
			_ = v.dropFallback(key)
			return nil
		}
		if rerr := v.ring.Remove(key); rerr != nil && !errors.Is(rerr, keyring.ErrKeyNotFound) {
			return fmt.Errorf("keyring rejected %s and the old entry could not be removed: %w", key, errors.Join(err, rerr))
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.readFallback()
	if err != nil {
		return err
	}
	secrets[key] = value

	return v.writeFallback(secrets)
}

// dropFallback deletes key from the fallback file if it is there.
func (v *Vault) dropFallback(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.readFallback()
	if err != nil {
		return err
	}
	if _, ok := secrets[key]; !ok {
		return nil
	}
	delete(secrets, key)
	return v.writeFallback(secrets)
}

func (v *Vault) writeFallback(secrets map[string]string) error {
	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(v.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}
	if err := os.WriteFile(v.fallbackPath, data, 0o600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	return nil
}

// Get retrieves a secret from the keyring first, then the fallback file.
func (v *Vault) Get(key string) (string, error) {
	if v.ring != nil {
		item, err := v.ring.Get(key)
		if err == nil {
			return string(item.Data), nil
		}
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	secrets, err := v.readFallback()
	if err != nil {
		return "", err
	}
	if val, ok := secrets[key]; ok {
		return val, nil
	}
	return "", ErrNotFound
}

func (v *Vault) readFallback() (map[string]string, error) {
	secrets := make(map[string]string)
	data, err := os.ReadFile(v.fallbackPath)
	if errors.Is(err, os.ErrNotExist) {
		return secrets, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("decode secrets: %w", err)
	}
	return secrets, nil
}
