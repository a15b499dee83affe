package provider

import (
	"context"
	"strings"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicAdapter generates poems through the Anthropic Messages API.
type AnthropicAdapter struct {
	client  anthropic.Client
	timeout time.Duration
}

// NewAnthropicAdapter creates an adapter for the configured Anthropic account.
func NewAnthropicAdapter(cfg models.ProviderConfig) (*AnthropicAdapter, error) {
	if cfg.APIKey == "" {
		return nil, models.NewProviderError("anthropic", "API key not configured", nil)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	for key, value := range cfg.Headers {
		opts = append(opts, option.WithHeader(key, value))
	}

	return &AnthropicAdapter{
		client:  anthropic.NewClient(opts...),
		timeout: callTimeout(cfg),
	}, nil
}

func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

func (a *AnthropicAdapter) Generate(ctx context.Context, params GenerateParams) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	msgParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(params.Model),
		MaxTokens: params.MaxOutputTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(params.Prompt)),
		},
		Temperature: anthropic.Float(params.Temperature),
	}

	start := time.Now()
	message, err := a.client.Messages.New(ctx, msgParams)
	if err != nil {
		if ctx.Err() != nil {
			return nil, models.NewTimeoutError("anthropic generate", err)
		}
		return nil, models.NewProviderError("anthropic", "message request failed", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &Result{
		Text:             strings.TrimSpace(text.String()),
		Model:            params.Model,
		ResponseID:       message.ID,
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
		ParamsUsed:       models.ParamsUsed{"temperature": params.Temperature},
		LatencyMs:        time.Since(start).Milliseconds(),
	}, nil
}
