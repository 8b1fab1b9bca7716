package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ragline/ragline/internal/model"
)

const claudeMaxOutputTokens = 4096

type claudeConfig struct {
	APIKey string `json:"api_key"`
}

type claudeProvider struct {
	client anthropic.Client
}

func (p *claudeProvider) Name() string {
	return "claude"
}

func (p *claudeProvider) Stream(ctx context.Context, messages []model.ChatMessage, modelName string, temperature float64) (<-chan StreamDelta, error) {
	claudeMessages, systemPrompt := toClaudeMessages(messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelName),
		MaxTokens:   claudeMaxOutputTokens,
		Messages:    claudeMessages,
		Temperature: anthropic.Float(temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	out := make(chan StreamDelta)
	go func() {
		defer close(out)
		stream := p.client.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			textDelta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta)
			if !ok || textDelta.Text == "" {
				continue
			}
			select {
			case out <- StreamDelta{Content: textDelta.Text}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case out <- StreamDelta{Err: fmt.Errorf("claude stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (p *claudeProvider) TestConnection(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := p.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return 0, fmt.Errorf("claude connection test: %w", err)
	}
	return time.Since(start), nil
}

func (p *claudeProvider) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, fmt.Errorf("claude list models: %w", err)
	}
	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// toClaudeMessages splits out the system prompt, which the Anthropic API
// takes as a top-level parameter rather than a message.
func toClaudeMessages(messages []model.ChatMessage) ([]anthropic.MessageParam, string) {
	var out []anthropic.MessageParam
	var systemPrompt string
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			systemPrompt = msg.Content
		case model.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case model.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out, systemPrompt
}

func createClaudeFactory(args interface{}) (IProvider, error) {
	cfg := &claudeConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrUnavailable
	}
	client := anthropic.NewClient(option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	return &claudeProvider{client: client}, nil
}

func init() {
	Register("claude", createClaudeFactory)
}
