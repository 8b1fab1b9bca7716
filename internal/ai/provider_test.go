package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProvider_RegisteredAdapters(t *testing.T) {
	for _, name := range []string{"openai", "claude", "gemini"} {
		p, err := NewProvider(name, map[string]interface{}{"api_key": "test-key"})
		require.NoError(t, err, name)
		require.Equal(t, name, p.Name())
	}
}

func TestNewProvider_UnknownName(t *testing.T) {
	_, err := NewProvider("bedrock", map[string]interface{}{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported")
}

func TestNewProvider_EmptyName(t *testing.T) {
	_, err := NewProvider("  ", nil)
	require.Error(t, err)
}

func TestNewProvider_NameIsCaseInsensitive(t *testing.T) {
	p, err := NewProvider("OpenAI", map[string]interface{}{"api_key": "k"})
	require.NoError(t, err)
	require.Equal(t, "openai", p.Name())
}

func TestNewEmbedProvider_Registered(t *testing.T) {
	for _, name := range []string{"openai", "gemini"} {
		p, err := NewEmbedProvider(name, map[string]interface{}{"api_key": "test-key"})
		require.NoError(t, err, name)
		require.Equal(t, name, p.Name())
	}
}

func TestDecodeConfig(t *testing.T) {
	var cfg openAIConfig
	err := decodeConfig(map[string]interface{}{
		"api_key":  "sk-x",
		"base_url": "http://localhost:11434/v1",
	}, &cfg)
	require.NoError(t, err)
	require.Equal(t, "sk-x", cfg.APIKey)
	require.Equal(t, "http://localhost:11434/v1", cfg.BaseURL)

	require.Error(t, decodeConfig(nil, &cfg))
}

type staticEmbedProvider struct{}

func (staticEmbedProvider) Name() string { return "static" }
func (staticEmbedProvider) Embed(ctx context.Context, modelName, text, taskType string) ([]float32, error) {
	return []float32{float32(len(text)), float32(len(modelName))}, nil
}

func TestEmbedder_BindsModel(t *testing.T) {
	e := NewEmbedder(staticEmbedProvider{}, "embed-1")
	require.Equal(t, "embed-1", e.ModelName())

	vec, err := e.Embed(context.Background(), "abc", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, []float32{3, 7}, vec)

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "bb"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	require.Equal(t, []float32{1, 7}, vecs[0])
	require.Equal(t, []float32{2, 7}, vecs[1])
}
