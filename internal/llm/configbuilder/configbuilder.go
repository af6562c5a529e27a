package configbuilder

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/animus-coder/testgen/internal/config"
	"github.com/animus-coder/testgen/internal/llm"
	llmopenai "github.com/animus-coder/testgen/internal/llm/providers/openai"
)

// Default API roots for the OpenAI-compatible gateways testgen knows about.
var defaultBaseURLs = map[string]string{
	"openai":     llmopenai.DefaultBaseURL,
	"openrouter": "https://openrouter.ai/api/v1",
	"ollama":     "http://127.0.0.1:11434/v1",
	"vllm":       "http://127.0.0.1:8000/v1",
	"lmstudio":   "http://127.0.0.1:1234/v1",
}

// BuildProvider constructs the chat provider described by cfg.
func BuildProvider(cfg config.ProviderConfig, apiKey string) (llm.Provider, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	baseURL := strings.TrimSpace(cfg.BaseURL)

	switch typ {
	case "openai", "openrouter", "ollama", "vllm", "lmstudio":
		if baseURL == "" {
			baseURL = defaultBaseURLs[typ]
		}
	case "custom":
		if baseURL == "" {
			return nil, fmt.Errorf("provider type custom requires base_url")
		}
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}

	return llmopenai.NewProvider(typ, baseURL, apiKey, cfg.Timeout), nil
}

// BuildCompleter returns a Completer backed by the configured provider and key.
// Each reply's usage and finish reason are logged to logger.
func BuildCompleter(cfg *config.Config, logger *zap.Logger) (llm.Completer, error) {
	p, err := BuildProvider(cfg.Provider, cfg.Generator.APIKey)
	if err != nil {
		return nil, err
	}
	c := llm.NewProviderCompleter(p, cfg.Provider.MaxTokens)
	if logger != nil {
		c.Logger = logger
	}
	return c, nil
}
