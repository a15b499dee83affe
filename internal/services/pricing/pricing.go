// Package pricing converts provider token usage into USD cost. Prices
// are USD per million tokens. The built-in table covers the models the
// service routes to; config entries override or extend it.
package pricing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chronoverse/chronoverse/internal/config"
)

type ModelPricing struct {
	InputTokenCost  float64
	OutputTokenCost float64
}

type ProviderPricing map[string]ModelPricing

var GlobalPricing = map[string]ProviderPricing{
	"openai": {
		"gpt-5": {
			InputTokenCost:  1.25,
			OutputTokenCost: 10.0,
		},
		"gpt-5-mini": {
			InputTokenCost:  0.25,
			OutputTokenCost: 2.0,
		},
		"gpt-5-nano": {
			InputTokenCost:  0.05,
			OutputTokenCost: 0.4,
		},
		"gpt-4o": {
			InputTokenCost:  2.5,
			OutputTokenCost: 10.0,
		},
		"gpt-4o-mini": {
			InputTokenCost:  0.15,
			OutputTokenCost: 0.6,
		},
		"o4-mini": {
			InputTokenCost:  10.0,
			OutputTokenCost: 40.0,
		},
	},
	"anthropic": {
		"claude-sonnet-4-5-20250929": {
			InputTokenCost:  3.0,
			OutputTokenCost: 15.0,
		},
		"claude-3-5-sonnet-20241022": {
			InputTokenCost:  3.0,
			OutputTokenCost: 15.0,
		},
		"claude-3-5-haiku-20241022": {
			InputTokenCost:  0.8,
			OutputTokenCost: 4.0,
		},
		"claude-3-5-haiku-latest": {
			InputTokenCost:  0.8,
			OutputTokenCost: 4.0,
		},
	},
	"gemini": {
		"gemini-2.5-pro": {
			InputTokenCost:  1.25,
			OutputTokenCost: 10.0,
		},
		"gemini-2.5-flash": {
			InputTokenCost:  0.3,
			OutputTokenCost: 1.2,
		},
		"gemini-2.5-flash-lite": {
			InputTokenCost:  0.1,
			OutputTokenCost: 0.4,
		},
		"gemini-2.0-flash": {
			InputTokenCost:  0.1,
			OutputTokenCost: 0.4,
		},
	},
}

// Service resolves prices with config overrides layered over the
// built-in table.
type Service struct {
	overrides map[string]config.ModelPrice
}

// NewService creates a pricing service. Overrides are keyed by bare
// model name (no provider prefix).
func NewService(overrides map[string]config.ModelPrice) *Service {
	return &Service{overrides: overrides}
}

// splitModelRef splits "provider:model" into its parts; a bare model
// name yields an empty provider.
func splitModelRef(ref string) (provider, model string) {
	if idx := strings.Index(ref, ":"); idx >= 0 {
		return strings.ToLower(ref[:idx]), ref[idx+1:]
	}
	return "", ref
}

// Prices returns the per-million-token prompt and completion prices for
// a model reference, and whether a price is known.
func (s *Service) Prices(modelRef string) (prompt, completion float64, ok bool) {
	provider, model := splitModelRef(modelRef)

	if override, exists := s.overrides[model]; exists {
		return override.Prompt, override.Completion, true
	}

	if provider != "" {
		if p, exists := GlobalPricing[provider][model]; exists {
			return p.InputTokenCost, p.OutputTokenCost, true
		}
		return 0, 0, false
	}

	// Bare model name: search every provider table
	for _, table := range GlobalPricing {
		if p, exists := table[model]; exists {
			return p.InputTokenCost, p.OutputTokenCost, true
		}
	}
	return 0, 0, false
}

// CalculateCost computes the USD cost of one generation, rounded to six
// decimal places. Unknown models cost zero; Validate catches those at
// startup so a zero here means the model was added at runtime.
func (s *Service) CalculateCost(modelRef string, promptTokens, completionTokens int) float64 {
	promptPrice, completionPrice, ok := s.Prices(modelRef)
	if !ok {
		return 0
	}

	cost := (float64(promptTokens)*promptPrice + float64(completionTokens)*completionPrice) / 1_000_000.0
	return math.Round(cost*1e6) / 1e6
}

// Validate fails fast when any active model has no known price. Without
// this check an unpriced model would bill every request at zero and the
// daily budget gate would never trip.
func (s *Service) Validate(activeModels []string) error {
	var missing []string
	for _, ref := range activeModels {
		if ref == "" {
			continue
		}
		if _, _, ok := s.Prices(ref); !ok {
			missing = append(missing, ref)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing prices for active models: %s (add a pricing entry in config)", strings.Join(missing, ", "))
	}
	return nil
}
