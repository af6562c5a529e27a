package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/animus-coder/testgen/internal/config"
	"github.com/animus-coder/testgen/internal/generator"
	"github.com/animus-coder/testgen/internal/llm"
	llmmock "github.com/animus-coder/testgen/internal/llm/mock"
	"github.com/animus-coder/testgen/internal/vault"
)

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

type harness struct {
	dir       string
	config    string
	store     memStore
	completer *llmmock.Completer
	stdin     string
	stdout    bytes.Buffer
	stderr    bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("TESTGEN_GENERATOR_API_KEY", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeConfig(t, cfgPath, "")
	return &harness{
		dir:       dir,
		config:    cfgPath,
		store:     memStore{},
		completer: &llmmock.Completer{Responses: map[string]string{}},
	}
}

func writeConfig(t *testing.T, path, apiKey string) {
	t.Helper()
	cfg := fmt.Sprintf(`generator:
  api_key: %q
  main_model: primary-model
  fallback_model: backup-model
provider:
  type: openai
logging:
  level: error
vault:
  dir: %q
`, apiKey, filepath.Dir(path))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
}

func (h *harness) run(args ...string) error {
	deps := &dependencies{
		completer: func(*config.Config, *zap.Logger) (llm.Completer, error) {
			return h.completer, nil
		},
		secrets:     h.store,
		stdin:       strings.NewReader(h.stdin),
		interactive: func() bool { return false },
	}
	cmd := newRootCmd(deps)
	cmd.SetOut(&h.stdout)
	cmd.SetErr(&h.stderr)
	cmd.SetArgs(append(args, "--config", h.config))
	return cmd.Execute()
}

func (h *harness) source(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(buf.String(), "testgen "))
}

func TestDoctorWithExampleConfig(t *testing.T) {
	h := newHarness(t)
	configPath, err := filepath.Abs(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	require.FileExists(t, configPath)
	h.config = configPath

	require.NoError(t, h.run("doctor"))
	out := h.stdout.String()
	require.Contains(t, out, "Config OK. Provider: openai (https://api.openai.com/v1)")
	require.Contains(t, out, "Models: main=o3-mini fallback=o3-mini")
	require.Contains(t, out, "API key: missing")
	require.Contains(t, out, "Key storage: custom store")
}

func TestDoctorReportsStoredKey(t *testing.T) {
	h := newHarness(t)
	h.store[config.APIKeyName] = "sk-stored"

	require.NoError(t, h.run("doctor"))
	require.Contains(t, h.stdout.String(), "API key: set via vault")
}

func TestGenerateWritesSiblingFile(t *testing.T) {
	h := newHarness(t)
	writeConfig(t, h.config, "sk-test")
	h.completer.Responses["primary-model"] = "```python\ndef test_add():\n    assert add(1, 2) == 3\n```"
	src := h.source(t, "calc.py", "def add(a, b):\n    return a + b\n")
	metricsPath := filepath.Join(h.dir, "testgen.prom")

	require.NoError(t, h.run("generate", src, "--metrics-file", metricsPath))

	target := filepath.Join(h.dir, "calc_test.py")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "def test_add():\n    assert add(1, 2) == 3\n", string(data))
	require.Equal(t, target+"\n", h.stdout.String())
	require.Contains(t, h.stderr.String(), "Generating Unit Tests for calc.py...")
	require.Contains(t, h.stderr.String(), "calc_test.py generated successfully.")
	require.Equal(t, []string{"primary-model"}, h.completer.Calls)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(prom), `testgen_generations_total{outcome="written"} 1`)
}

func TestGenerateModelOverrides(t *testing.T) {
	h := newHarness(t)
	writeConfig(t, h.config, "sk-test")
	h.completer.Errors = map[string]error{"cli-main": errors.New("overloaded")}
	h.completer.Responses["cli-backup"] = "it('works', () => {});"
	src := h.source(t, "app.js", "module.exports = 1;\n")

	require.NoError(t, h.run("generate", src, "--model", "cli-main", "--fallback-model", "cli-backup"))
	require.Equal(t, []string{"cli-main", "cli-backup"}, h.completer.Calls)
	require.FileExists(t, filepath.Join(h.dir, "app.spec.js"))
}

func TestGenerateNotPossibleExitCode(t *testing.T) {
	h := newHarness(t)
	writeConfig(t, h.config, "sk-test")
	h.completer.Responses["primary-model"] = "not possible00192"
	src := h.source(t, "data.json.ts", "export {};\n")

	err := h.run("generate", src)
	require.ErrorIs(t, err, generator.ErrNoTestsPossible)
	require.Equal(t, ExitNoTestsPossible, ExitCode(err))
	require.NoFileExists(t, filepath.Join(h.dir, "data.json.spec.ts"))
	require.Contains(t, h.stderr.String(), "Couldn't generate unit tests for this file.")
}

func TestGenerateMissingKey(t *testing.T) {
	h := newHarness(t)
	src := h.source(t, "calc.py", "x = 1\n")

	err := h.run("generate", src)
	require.ErrorIs(t, err, generator.ErrMissingConfiguration)
	require.Equal(t, ExitFailure, ExitCode(err))
	require.Contains(t, h.stderr.String(), "Your OpenAI API key is not set.")
	require.Empty(t, h.completer.Calls)
}

func TestGenerateUsesStoredKey(t *testing.T) {
	h := newHarness(t)
	h.store[config.APIKeyName] = "sk-stored"
	h.completer.Responses["primary-model"] = "def test(): pass"
	src := h.source(t, "calc.py", "x = 1\n")

	require.NoError(t, h.run("generate", src))
	require.FileExists(t, filepath.Join(h.dir, "calc_test.py"))
}

func TestGenerateRejectsPathOutsideWorkspace(t *testing.T) {
	h := newHarness(t)
	writeConfig(t, h.config, "sk-test")
	src := h.source(t, "calc.py", "x = 1\n")

	err := h.run("generate", src, "--workspace", t.TempDir())
	require.ErrorIs(t, err, generator.ErrNoActiveDocument)
	require.Empty(t, h.completer.Calls)
}

func TestGenerateWithoutFile(t *testing.T) {
	h := newHarness(t)
	writeConfig(t, h.config, "sk-test")

	err := h.run("generate")
	require.ErrorIs(t, err, generator.ErrNoActiveDocument)
	require.Contains(t, h.stderr.String(), "Please open a file for which you want to generate unit tests.")
}

func TestSetAPIKeyFromStdin(t *testing.T) {
	h := newHarness(t)
	h.stdin = "  sk-from-stdin \n"

	require.NoError(t, h.run("set-api-key"))
	require.Equal(t, "sk-from-stdin", h.store[config.APIKeyName])
	require.Contains(t, h.stderr.String(), "OpenAI API Key updated successfully.")
}

func TestSetAPIKeyFlag(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("set-api-key", "--key", "sk-flag"))
	require.Equal(t, "sk-flag", h.store[config.APIKeyName])

	err := h.run("set-api-key", "--key", "  ")
	require.ErrorIs(t, err, generator.ErrEmptyAPIKey)
	require.Contains(t, h.stderr.String(), "API key not entered. Please try again.")
	require.Equal(t, "sk-flag", h.store[config.APIKeyName])
}

func TestExitCode(t *testing.T) {
	require.Equal(t, ExitOK, ExitCode(nil))
	require.Equal(t, ExitNoTestsPossible, ExitCode(fmt.Errorf("wrapped: %w", generator.ErrNoTestsPossible)))
	require.Equal(t, ExitFailure, ExitCode(generator.ErrTargetExists))
	require.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
}

func TestNeedsReport(t *testing.T) {
	require.False(t, needsReport(nil))
	require.False(t, needsReport(generator.ErrEmptyAPIKey))
	require.False(t, needsReport(fmt.Errorf("%w: x.py", generator.ErrTargetExists)))
	require.False(t, needsReport(generator.ErrNoTestsPossible))
	require.True(t, needsReport(errors.New("load config: bad yaml")))
	require.True(t, needsReport(fmt.Errorf("save api key: %w", errors.New("read-only fs"))))
}
