package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-signal-lab/internal/config"
)

func TestNewBackendFromConfig_KeywordDefault(t *testing.T) {
	cfg := config.Default().Sentiment

	b, err := NewBackendFromConfig(cfg, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "keyword", b.Name())
}

func TestNewBackendFromConfig_AI(t *testing.T) {
	cfg := config.Default().Sentiment
	cfg.Backend = "ai"
	cfg.AI.Endpoint = "https://api.example.com/v1/chat/completions"

	b, err := NewBackendFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "ai", b.Name())
}

func TestNewBackendFromConfig_AIWithoutEndpoint(t *testing.T) {
	cfg := config.Default().Sentiment
	cfg.Backend = "ai"
	cfg.AI.Endpoint = ""

	_, err := NewBackendFromConfig(cfg, nil)
	assert.Error(t, err)
}
