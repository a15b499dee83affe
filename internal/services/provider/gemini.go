package provider

import (
	"context"
	"strings"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"

	"google.golang.org/genai"
)

// GeminiAdapter generates poems through the Gemini API.
type GeminiAdapter struct {
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiAdapter creates an adapter for the configured Gemini account.
func NewGeminiAdapter(ctx context.Context, cfg models.ProviderConfig) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, models.NewProviderError("gemini", "API key not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, models.NewProviderError("gemini", "failed to create client", err)
	}

	return &GeminiAdapter{
		client:  client,
		timeout: callTimeout(cfg),
	}, nil
}

func (a *GeminiAdapter) Name() string {
	return "gemini"
}

func (a *GeminiAdapter) Generate(ctx context.Context, params GenerateParams) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	temperature := float32(params.Temperature)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(params.MaxOutputTokens),
		Temperature:     &temperature,
	}
	contents := []*genai.Content{
		genai.NewContentFromText(params.Prompt, genai.RoleUser),
	}

	start := time.Now()
	resp, err := a.client.Models.GenerateContent(ctx, params.Model, contents, config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, models.NewTimeoutError("gemini generate", err)
		}
		return nil, models.NewProviderError("gemini", "generation failed", err)
	}

	var text strings.Builder
	var responseID string
	if resp != nil {
		responseID = resp.ResponseID
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				text.WriteString(part.Text)
			}
		}
	}

	result := &Result{
		Text:       strings.TrimSpace(text.String()),
		Model:      params.Model,
		ResponseID: responseID,
		ParamsUsed: models.ParamsUsed{"temperature": params.Temperature},
		LatencyMs:  time.Since(start).Milliseconds(),
	}

	if resp != nil && resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.ReasoningTokens = int(resp.UsageMetadata.ThoughtsTokenCount)
	}

	return result, nil
}
