package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ragline/ragline/internal/model"
)

// ErrUnavailable marks a provider that exists but has no credentials
// configured.
var ErrUnavailable = fmt.Errorf("ai provider not configured")

// StreamDelta is one increment of a provider's token stream. A non-nil Err
// is terminal; the channel closes right after it.
type StreamDelta struct {
	Content string
	Err     error
}

// IProvider is the capability set every chat provider implements. Adapters
// are value-configured; there is no subclassing, just a registry of
// constructors.
type IProvider interface {
	Name() string
	// Stream starts a completion and returns a finite, non-restartable
	// sequence of text increments. It may fail mid-stream; the error
	// arrives as the last delta.
	Stream(ctx context.Context, messages []model.ChatMessage, modelName string, temperature float64) (<-chan StreamDelta, error)
	TestConnection(ctx context.Context) (time.Duration, error)
	ListModels(ctx context.Context) ([]string, error)
}

// IEmbedProvider produces embedding vectors. Vectors are normalized and of
// constant dimensionality for a given model.
type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, modelName string, text string, taskType string) ([]float32, error)
}

// IEmbedder is an IEmbedProvider bound to one model.
type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	ModelName() string
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.provider.Embed(ctx, e.model, text, taskType)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (e *embedder) ModelName() string {
	return e.model
}

type ProviderFactory func(args interface{}) (IProvider, error)
type EmbedProviderFactory func(args interface{}) (IEmbedProvider, error)

var (
	registry      = map[string]ProviderFactory{}
	embedRegistry = map[string]EmbedProviderFactory{}
)

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func RegisterEmbed(name string, factory EmbedProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.embed_provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embed provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
