package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/ragline/ragline/internal/model"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// openAIProvider serves the OpenAI API and anything wire-compatible with
// it (Ollama, OpenRouter, vLLM) through the base_url.
type openAIProvider struct {
	apiKey string
	client *goopenai.Client
}

func newOpenAIClient(cfg *openAIConfig) *goopenai.Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	return goopenai.NewClientWithConfig(clientCfg)
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) Stream(ctx context.Context, messages []model.ChatMessage, modelName string, temperature float64) (<-chan StreamDelta, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       modelName,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(temperature),
		Stream:      true,
	}
	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai stream creation: %w", err)
	}

	out := make(chan StreamDelta)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				out <- StreamDelta{Err: fmt.Errorf("openai stream recv: %w", err)}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			content := resp.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			select {
			case out <- StreamDelta{Content: content}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (p *openAIProvider) TestConnection(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := p.client.ListModels(ctx); err != nil {
		return 0, fmt.Errorf("openai connection test: %w", err)
	}
	return time.Since(start), nil
}

func (p *openAIProvider) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("openai list models: %w", err)
	}
	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.ID)
	}
	sort.Strings(models)
	return models, nil
}

func toOpenAIMessages(messages []model.ChatMessage) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, goopenai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return out
}

type openAIEmbedProvider struct {
	client *goopenai.Client
}

func (p *openAIEmbedProvider) Name() string {
	return "openai"
}

func (p *openAIEmbedProvider) Embed(ctx context.Context, modelName string, text string, taskType string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(modelName),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	return resp.Data[0].Embedding, nil
}

func createOpenAIFactory(args interface{}) (IProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" && strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrUnavailable
	}
	return &openAIProvider{apiKey: cfg.APIKey, client: newOpenAIClient(cfg)}, nil
}

func createOpenAIEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" && strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrUnavailable
	}
	return &openAIEmbedProvider{client: newOpenAIClient(cfg)}, nil
}

func init() {
	Register("openai", createOpenAIFactory)
	RegisterEmbed("openai", createOpenAIEmbedFactory)
}
