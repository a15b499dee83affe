// Package poem is the top-level orchestrator. It runs each request
// through the reject gates (rate limit, budget), the minute cache, the
// experiment router, and the provider adapters, and converts every
// non-reject failure into a degraded fallback response.
package poem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chronoverse/chronoverse/internal/config"
	"github.com/chronoverse/chronoverse/internal/models"
	"github.com/chronoverse/chronoverse/internal/services/budget"
	"github.com/chronoverse/chronoverse/internal/services/experiment"
	"github.com/chronoverse/chronoverse/internal/services/minutecache"
	"github.com/chronoverse/chronoverse/internal/services/pricing"
	"github.com/chronoverse/chronoverse/internal/services/prompt"
	"github.com/chronoverse/chronoverse/internal/services/provider"
	"github.com/chronoverse/chronoverse/internal/services/ratelimit"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// EventRecorder is the ledger write side the orchestrator needs.
type EventRecorder interface {
	Record(ctx context.Context, event *models.PoemEvent) error
}

// Generator is the provider call surface, injectable for tests.
type Generator interface {
	Resolve(modelRef string) (provider.Adapter, string, error)
}

// Service orchestrates poem generation.
type Service struct {
	cfg      *config.Config
	builder  *prompt.Builder
	router   *experiment.Router
	limiter  *ratelimit.Limiter
	budget   *budget.Service
	cache    *minutecache.Cache
	registry Generator
	pricing  *pricing.Service
	events   EventRecorder

	now func() time.Time
}

// NewService wires the orchestrator.
func NewService(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	budgetGate *budget.Service,
	cache *minutecache.Cache,
	registry Generator,
	pricingSvc *pricing.Service,
	recorder EventRecorder,
) *Service {
	return &Service{
		cfg:      cfg,
		builder:  prompt.NewBuilder(),
		router:   experiment.NewRouter(cfg.Experiment),
		limiter:  limiter,
		budget:   budgetGate,
		cache:    cache,
		registry: registry,
		pricing:  pricingSvc,
		events:   recorder,
		now:      time.Now,
	}
}

// NewRequestID mints a caller-visible request identifier. The hex
// suffix doubles as the ab-routing bucket input.
func NewRequestID() string {
	return "cv_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Generate serves one poem request. Rejects (invalid input, rate limit,
// budget) return a typed error; every other outcome is a PoemResponse
// with status ok or fallback.
func (s *Service) Generate(ctx context.Context, req *models.PoemRequest, identity models.Identity) (*models.PoemResponse, error) {
	requestID := NewRequestID()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !s.limiter.Allow(ctx, ratelimit.KindUser, identity.UserID, s.cfg.RateLimit.UserPerMinute) {
		s.recordReject(ctx, requestID, req, identity)
		return nil, models.NewRateLimitError(string(ratelimit.KindUser))
	}
	if !s.limiter.Allow(ctx, ratelimit.KindIP, identity.IP, s.cfg.RateLimit.IPPerMinute) {
		s.recordReject(ctx, requestID, req, identity)
		return nil, models.NewRateLimitError(string(ratelimit.KindIP))
	}

	if err := s.budget.Authorize(ctx); err != nil {
		s.recordReject(ctx, requestID, req, identity)
		return nil, err
	}

	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("unknown timezone %q", req.Timezone), err)
	}
	local := s.now().In(loc)

	assignment := s.router.Assign(requestID)
	built := s.builder.Build(local, req.Tone, req.Format, requestID)
	key := minutecache.Key(local, req.Timezone, req.Tone, assignment.Selected)

	// Generation survives a client disconnect: coalesced waiters on the
	// same key still need the result, and the provider cost is already
	// committed once the call is in flight.
	genCtx := context.WithoutCancel(ctx)

	entry, cached, err := s.cache.GetOrGenerate(genCtx, key, req.ForceNew, func(ctx context.Context) (*models.CacheEntry, error) {
		return s.generateEntry(ctx, requestID, assignment.Selected, built), nil
	})
	if err != nil {
		// Cache plumbing failure, not a generation failure. Serve the
		// fallback rather than surfacing an error for a poem request.
		fiberlog.Errorf("[%s] cache path failed for %s: %v", requestID, key, err)
		entry = s.fallbackEntry("")
		cached = false
	}

	if len(assignment.ShadowTargets) > 0 && !cached {
		s.runShadows(genCtx, requestID, req, identity, assignment.ShadowTargets, built)
	}

	response := s.buildResponse(requestID, req, built, entry, cached)
	s.recordEvent(ctx, requestID, req, identity, built, entry, cached)
	return response, nil
}

// generateEntry performs one provider call and never returns an error:
// provider failures and empty extractions become fallback entries so
// coalesced waiters always receive something to serve.
func (s *Service) generateEntry(ctx context.Context, requestID, modelRef string, built models.ResolvedPrompt) *models.CacheEntry {
	adapter, model, err := s.registry.Resolve(modelRef)
	if err != nil {
		fiberlog.Errorf("[%s] cannot resolve model %s: %v", requestID, modelRef, err)
		return s.fallbackEntry(modelRef)
	}

	result, err := adapter.Generate(ctx, provider.GenerateParams{
		Model:           model,
		Prompt:          built.Text,
		MaxOutputTokens: s.cfg.Generation.MaxOutputTokens,
		Temperature:     s.cfg.Generation.Temperature,
		Verbosity:       s.cfg.Generation.Verbosity,
		ReasoningEffort: s.cfg.Generation.ReasoningEffort,
	})
	if err != nil {
		fiberlog.Errorf("[%s] generation failed on %s: %v", requestID, modelRef, err)
		return s.fallbackEntry(modelRef)
	}

	cost := s.pricing.CalculateCost(modelRef, result.PromptTokens, result.CompletionTokens)

	if result.Text == "" {
		// The call was billed but no text came back. Keep the usage for
		// accounting; the poem falls back.
		fiberlog.Warnf("[%s] empty poem from model %s", requestID, modelRef)
		entry := s.fallbackEntry(modelRef)
		entry.PromptTokens = result.PromptTokens
		entry.CompletionTokens = result.CompletionTokens
		entry.ReasoningTokens = result.ReasoningTokens
		entry.CostUSD = cost
		entry.ResponseID = result.ResponseID
		entry.RetryCount = result.RetryCount
		entry.ParamsUsed = result.ParamsUsed
		entry.LatencyMs = result.LatencyMs
		return entry
	}

	return &models.CacheEntry{
		Poem:             result.Text,
		Model:            modelRef,
		GeneratedAt:      s.now().UTC(),
		Status:           models.StatusOK,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		ReasoningTokens:  result.ReasoningTokens,
		CostUSD:          cost,
		ResponseID:       result.ResponseID,
		RetryCount:       result.RetryCount,
		ParamsUsed:       result.ParamsUsed,
		LatencyMs:        result.LatencyMs,
	}
}

// runShadows fires one goroutine per shadow target. Shadow outcomes are
// ledger-only; their failures never reach the caller.
func (s *Service) runShadows(ctx context.Context, requestID string, req *models.PoemRequest, identity models.Identity, targets []string, built models.ResolvedPrompt) {
	for _, target := range targets {
		go func(modelRef string) {
			defer func() {
				if r := recover(); r != nil {
					fiberlog.Errorf("[%s] shadow generation panic on %s: %v", requestID, modelRef, r)
				}
			}()

			entry := s.generateEntry(ctx, requestID, modelRef, built)
			if entry.Status != models.StatusOK {
				fiberlog.Warnf("[%s] shadow generation degraded on %s", requestID, modelRef)
			}

			cost := entry.CostUSD
			if !s.cfg.Experiment.ShadowBudgetCounted {
				cost = 0
			}

			event := &models.PoemEvent{
				RequestID:        requestID,
				Status:           models.StatusShadow,
				Model:            modelRef,
				Tone:             req.Tone,
				Timezone:         req.Timezone,
				Daypart:          built.Daypart,
				PromptTokens:     entry.PromptTokens,
				CompletionTokens: entry.CompletionTokens,
				ReasoningTokens:  entry.ReasoningTokens,
				CostUSD:          cost,
				UserID:           identity.UserID,
				IPAddress:        identity.IP,
				RetryCount:       entry.RetryCount,
				LatencyMs:        entry.LatencyMs,
			}
			_ = s.events.Record(ctx, event)
		}(target)
	}
}

func (s *Service) fallbackEntry(modelRef string) *models.CacheEntry {
	return &models.CacheEntry{
		Poem:        fallbackPoem,
		Model:       modelRef,
		GeneratedAt: s.now().UTC(),
		Status:      models.StatusFallback,
	}
}

func (s *Service) buildResponse(requestID string, req *models.PoemRequest, built models.ResolvedPrompt, entry *models.CacheEntry, cached bool) *models.PoemResponse {
	return &models.PoemResponse{
		Poem:             entry.Poem,
		Model:            entry.Model,
		GeneratedAt:      entry.GeneratedAt,
		TimeUsed:         built.TimeUsed,
		Timezone:         req.Timezone,
		Tone:             req.Tone,
		Daypart:          built.Daypart,
		Cached:           cached,
		Status:           entry.Status,
		PromptTokens:     entry.PromptTokens,
		CompletionTokens: entry.CompletionTokens,
		ReasoningTokens:  entry.ReasoningTokens,
		CostUSD:          entry.CostUSD,
		RequestID:        requestID,
		ResponseID:       entry.ResponseID,
		RetryCount:       entry.RetryCount,
		ParamsUsed:       entry.ParamsUsed,
		LatencyMs:        entry.LatencyMs,
		DirectiveID:      built.DirectiveID,
	}
}

func (s *Service) recordEvent(ctx context.Context, requestID string, req *models.PoemRequest, identity models.Identity, built models.ResolvedPrompt, entry *models.CacheEntry, cached bool) {
	cost := entry.CostUSD
	if cached {
		// A cache hit re-serves an already-billed generation
		cost = 0
	}

	event := &models.PoemEvent{
		RequestID:        requestID,
		Status:           entry.Status,
		Model:            entry.Model,
		Tone:             req.Tone,
		Timezone:         req.Timezone,
		Daypart:          built.Daypart,
		MinuteBucket:     entry.GeneratedAt.UTC().Format("2006-01-02T15:04"),
		PromptTokens:     entry.PromptTokens,
		CompletionTokens: entry.CompletionTokens,
		ReasoningTokens:  entry.ReasoningTokens,
		CostUSD:          cost,
		Cached:           cached,
		UserID:           identity.UserID,
		IPAddress:        identity.IP,
		RetryCount:       entry.RetryCount,
		LatencyMs:        entry.LatencyMs,
	}
	_ = s.events.Record(ctx, event)
}

func (s *Service) recordReject(ctx context.Context, requestID string, req *models.PoemRequest, identity models.Identity) {
	event := &models.PoemEvent{
		RequestID: requestID,
		Status:    models.StatusRejected,
		Tone:      req.Tone,
		Timezone:  req.Timezone,
		UserID:    identity.UserID,
		IPAddress: identity.IP,
	}
	_ = s.events.Record(ctx, event)
}
