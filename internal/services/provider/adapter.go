// Package provider hosts the LLM adapters and the text extraction that
// turns their heterogeneous payloads into poem text plus usage counters.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"
)

// GenerateParams is the provider-independent generation request.
type GenerateParams struct {
	Model           string
	Prompt          string
	MaxOutputTokens int64
	Temperature     float64
	Verbosity       string
	ReasoningEffort string
}

// Result is the provider-independent generation outcome.
type Result struct {
	Text             string
	Model            string
	ResponseID       string
	PromptTokens     int
	CompletionTokens int
	ReasoningTokens  int
	RetryCount       int
	ParamsUsed       models.ParamsUsed
	LatencyMs        int64
}

// Adapter generates text from one upstream provider. Implementations
// apply their own model-family parameter shaping and surface failures
// as AppError so the orchestrator can route to the fallback poem.
type Adapter interface {
	Generate(ctx context.Context, params GenerateParams) (*Result, error)
	Name() string
}

// Registry resolves a model reference to its adapter.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its provider name.
func (r *Registry) Register(adapter Adapter) {
	r.adapters[strings.ToLower(adapter.Name())] = adapter
}

// Resolve maps a model reference to (adapter, bare model name). The
// reference is either explicit "provider:model" or a bare model name
// whose provider is inferred from its prefix.
func (r *Registry) Resolve(modelRef string) (Adapter, string, error) {
	provider, model := ParseModelRef(modelRef)
	if provider == "" {
		return nil, "", models.NewValidationError(
			fmt.Sprintf("cannot infer provider for model %q; use provider:model syntax", modelRef), nil)
	}

	adapter, exists := r.adapters[provider]
	if !exists {
		return nil, "", models.NewValidationError(
			fmt.Sprintf("provider %q is not configured", provider), nil)
	}
	return adapter, model, nil
}

// ParseModelRef splits "provider:model" or infers the provider from
// well-known model name prefixes. Returns an empty provider when
// neither works.
func ParseModelRef(modelRef string) (provider, model string) {
	if idx := strings.Index(modelRef, ":"); idx >= 0 {
		return strings.ToLower(modelRef[:idx]), modelRef[idx+1:]
	}

	lower := strings.ToLower(modelRef)
	switch {
	case strings.HasPrefix(lower, "gpt-"), strings.HasPrefix(lower, "o1"),
		strings.HasPrefix(lower, "o3"), strings.HasPrefix(lower, "o4"):
		return "openai", modelRef
	case strings.HasPrefix(lower, "claude-"):
		return "anthropic", modelRef
	case strings.HasPrefix(lower, "gemini-"):
		return "gemini", modelRef
	}
	return "", modelRef
}

// isReasoningFamily reports whether the model rejects classic sampling
// knobs and accepts verbosity/reasoning controls instead.
func isReasoningFamily(model string) bool {
	lower := strings.ToLower(model)
	return strings.HasPrefix(lower, "gpt-5") ||
		strings.HasPrefix(lower, "o1") ||
		strings.HasPrefix(lower, "o3") ||
		strings.HasPrefix(lower, "o4")
}

// callTimeout returns the per-call timeout for a provider config.
func callTimeout(cfg models.ProviderConfig) time.Duration {
	if cfg.TimeoutMs > 0 {
		return time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	return 30 * time.Second
}
