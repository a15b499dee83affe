package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
)

// OpenAIAdapter generates poems through the OpenAI Responses API. The
// request body is built by hand and posted raw because the extraction
// layer parses the payload itself rather than trusting SDK convenience
// accessors.
type OpenAIAdapter struct {
	client  openai.Client
	timeout time.Duration
}

// NewOpenAIAdapter creates an adapter for the configured OpenAI account.
func NewOpenAIAdapter(cfg models.ProviderConfig) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, models.NewProviderError("openai", "API key not configured", nil)
	}

	opts := []openaiOption.RequestOption{
		openaiOption.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openaiOption.WithBaseURL(cfg.BaseURL))
	}
	for key, value := range cfg.Headers {
		opts = append(opts, openaiOption.WithHeader(key, value))
	}
	if cfg.TimeoutMs > 0 {
		httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond}
		opts = append(opts, openaiOption.WithHTTPClient(httpClient))
	}

	return &OpenAIAdapter{
		client:  openai.NewClient(opts...),
		timeout: callTimeout(cfg),
	}, nil
}

func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Generate calls the Responses API with model-family-aware parameters.
// Reasoning-class models get verbosity and reasoning-effort controls
// and no temperature; if the provider still rejects temperature on a
// model we classified as classic, the call is retried exactly once
// without it.
func (a *OpenAIAdapter) Generate(ctx context.Context, params GenerateParams) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body := map[string]any{
		"model":             params.Model,
		"input":             params.Prompt,
		"max_output_tokens": params.MaxOutputTokens,
	}
	paramsUsed := models.ParamsUsed{}

	if isReasoningFamily(params.Model) {
		body["text"] = map[string]any{
			"verbosity": params.Verbosity,
			"format":    map[string]any{"type": "text"},
		}
		body["reasoning"] = map[string]any{"effort": params.ReasoningEffort}
		paramsUsed["verbosity"] = params.Verbosity
		paramsUsed["reasoning_effort"] = params.ReasoningEffort
		paramsUsed["temperature"] = false
	} else {
		body["temperature"] = params.Temperature
		paramsUsed["temperature"] = params.Temperature
	}

	start := time.Now()
	retryCount := 0

	var payload ResponsesPayload
	err := a.client.Post(ctx, "responses", body, &payload)
	if err != nil && isUnsupportedTemperature(err) {
		if _, present := body["temperature"]; present {
			fiberlog.Warnf("model %s rejected temperature, retrying without it", params.Model)
			delete(body, "temperature")
			paramsUsed["temperature"] = false
			retryCount = 1
			payload = ResponsesPayload{}
			err = a.client.Post(ctx, "responses", body, &payload)
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, models.NewTimeoutError("openai generate", err)
		}
		return nil, models.NewProviderError("openai", "generation failed", err)
	}

	usage := ExtractUsage(&payload)
	return &Result{
		Text:             ExtractText(&payload),
		Model:            params.Model,
		ResponseID:       payload.ID,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		ReasoningTokens:  usage.ReasoningTokens,
		RetryCount:       retryCount,
		ParamsUsed:       paramsUsed,
		LatencyMs:        time.Since(start).Milliseconds(),
	}, nil
}

// isUnsupportedTemperature matches the 400 the API returns when a model
// does not accept the temperature parameter.
func isUnsupportedTemperature(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		return false
	}

	message := apiErr.Message
	if !strings.Contains(message, "Unsupported parameter") && !strings.Contains(message, "is not supported") {
		return false
	}
	return strings.Contains(message, "temperature") || apiErr.Param == "temperature"
}
