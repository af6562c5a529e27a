package configbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/animus-coder/testgen/internal/config"
	"github.com/animus-coder/testgen/internal/llm"
	llmopenai "github.com/animus-coder/testgen/internal/llm/providers/openai"
)

func TestBuildProviderDefaults(t *testing.T) {
	cases := map[string]string{
		"openai":     llmopenai.DefaultBaseURL,
		"OpenRouter": "https://openrouter.ai/api/v1",
		"ollama":     "http://127.0.0.1:11434/v1",
	}
	for typ, wantURL := range cases {
		p, err := BuildProvider(config.ProviderConfig{Type: typ}, "key")
		require.NoError(t, err, typ)

		op, ok := p.(*llmopenai.Provider)
		require.True(t, ok)
		require.Equal(t, wantURL, op.BaseURL())
	}
}

func TestBuildProviderCustom(t *testing.T) {
	_, err := BuildProvider(config.ProviderConfig{Type: "custom"}, "")
	require.Error(t, err)

	p, err := BuildProvider(config.ProviderConfig{Type: "custom", BaseURL: "https://llm.internal/v1/"}, "")
	require.NoError(t, err)
	require.Equal(t, "custom", p.Name())
	require.Equal(t, "https://llm.internal/v1", p.(*llmopenai.Provider).BaseURL())
}

func TestBuildProviderUnknownType(t *testing.T) {
	_, err := BuildProvider(config.ProviderConfig{Type: "grpc"}, "")
	require.Error(t, err)
}

func TestBuildCompleterCarriesMaxTokens(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderConfig{Type: "ollama", MaxTokens: 2048}}
	c, err := BuildCompleter(cfg, zap.NewNop())
	require.NoError(t, err)

	pc, ok := c.(*llm.ProviderCompleter)
	require.True(t, ok)
	require.Equal(t, 2048, pc.MaxTokens)
	require.Equal(t, "ollama", pc.Provider.Name())
	require.NotNil(t, pc.Logger)

	_, err = BuildCompleter(&config.Config{Provider: config.ProviderConfig{Type: "custom"}}, nil)
	require.Error(t, err)
}
