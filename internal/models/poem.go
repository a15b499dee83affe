package models

import (
	"fmt"
	"time"
)

// Tone selects the stylistic register of a generated poem.
type Tone string

const (
	ToneWhimsical Tone = "Whimsical"
	ToneStoic     Tone = "Stoic"
	ToneWistful   Tone = "Wistful"
	ToneFunny     Tone = "Funny"
	ToneHaiku     Tone = "Haiku"
	ToneNoir      Tone = "Noir"
	ToneMinimal   Tone = "Minimal"
	ToneCosmic    Tone = "Cosmic"
	ToneRomantic  Tone = "Romantic"
)

// Tones lists every supported tone in display order.
var Tones = []Tone{
	ToneWhimsical,
	ToneStoic,
	ToneWistful,
	ToneFunny,
	ToneHaiku,
	ToneNoir,
	ToneMinimal,
	ToneCosmic,
	ToneRomantic,
}

// Valid reports whether t is a supported tone.
func (t Tone) Valid() bool {
	for _, known := range Tones {
		if t == known {
			return true
		}
	}
	return false
}

// ClockFormat is the caller's preferred clock rendering.
type ClockFormat string

const (
	Clock12h  ClockFormat = "12h"
	Clock24h  ClockFormat = "24h"
	ClockAuto ClockFormat = "auto"
)

// Normalize maps unknown/auto formats to the 12h default.
func (f ClockFormat) Normalize() ClockFormat {
	if f == Clock24h {
		return Clock24h
	}
	return Clock12h
}

// PoemStatus marks whether a response carries a generated poem or the
// static degraded fallback.
type PoemStatus string

const (
	StatusOK       PoemStatus = "ok"
	StatusFallback PoemStatus = "fallback"
	StatusShadow   PoemStatus = "shadow"
	StatusRejected PoemStatus = "rejected"
)

// PoemRequest is the inbound request body for POST /v1/poem.
type PoemRequest struct {
	Tone     Tone        `json:"tone"`
	Timezone string      `json:"timezone"`
	Format   ClockFormat `json:"format"`
	ForceNew bool        `json:"forceNew"`
}

// Validate checks the request fields that can be rejected without any
// clock or provider work.
func (r *PoemRequest) Validate() error {
	if !r.Tone.Valid() {
		return NewValidationError(fmt.Sprintf("invalid tone %q; valid: %v", r.Tone, Tones), nil)
	}
	if r.Timezone == "" {
		return NewValidationError("timezone is required", nil)
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return NewValidationError(fmt.Sprintf("unknown timezone %q", r.Timezone), err)
	}
	return nil
}

// Identity carries the caller identities the rate limiter meters
// independently. UserID comes from the auth layer (external
// collaborator), IP from the transport.
type Identity struct {
	UserID string
	IP     string
}

// ResolvedPrompt is the deterministic output of the prompt builder for
// one request at one wall-clock minute. Never persisted.
type ResolvedPrompt struct {
	Text        string
	TimeUsed    string
	Daypart     string
	DirectiveID string
}

// ExperimentMode selects the model routing policy.
type ExperimentMode string

const (
	ExperimentSingle ExperimentMode = "single"
	ExperimentAB     ExperimentMode = "ab"
	ExperimentShadow ExperimentMode = "shadow"
)

// ModelAssignment is the routing decision for one request.
type ModelAssignment struct {
	Primary       string
	Selected      string
	Mode          ExperimentMode
	ShadowTargets []string
}

// CacheEntry is a write-once generation artifact stored under a minute
// cache key. Only Status==ok entries are ever stored.
type CacheEntry struct {
	Poem             string     `json:"poem"`
	Model            string     `json:"model"`
	GeneratedAt      time.Time  `json:"generated_at"`
	Status           PoemStatus `json:"status"`
	PromptTokens     int        `json:"prompt_tokens"`
	CompletionTokens int        `json:"completion_tokens"`
	ReasoningTokens  int        `json:"reasoning_tokens"`
	CostUSD          float64    `json:"cost_usd"`
	ResponseID       string     `json:"response_id,omitzero"`
	RetryCount       int        `json:"retry_count"`
	ParamsUsed       ParamsUsed `json:"params_used,omitzero"`
	LatencyMs        int64      `json:"latency_ms"`
}

// ParamsUsed records which sampling/reasoning parameters were actually
// sent to the provider, after any unsupported-parameter retry.
type ParamsUsed map[string]any

// PoemResponse is the caller-facing response for POST /v1/poem.
type PoemResponse struct {
	Poem             string      `json:"poem"`
	Model            string      `json:"model,omitzero"`
	GeneratedAt      time.Time   `json:"generated_at"`
	TimeUsed         string      `json:"time_used"`
	Timezone         string      `json:"timezone"`
	Tone             Tone        `json:"tone"`
	Daypart          string      `json:"daypart"`
	Cached           bool        `json:"cached"`
	Status           PoemStatus  `json:"status"`
	PromptTokens     int         `json:"prompt_tokens"`
	CompletionTokens int         `json:"completion_tokens"`
	ReasoningTokens  int         `json:"reasoning_tokens"`
	CostUSD          float64     `json:"cost_usd"`
	RequestID        string      `json:"request_id"`
	ResponseID       string      `json:"response_id,omitzero"`
	RetryCount       int         `json:"retry_count"`
	ParamsUsed       ParamsUsed  `json:"params_used,omitzero"`
	LatencyMs        int64       `json:"latency_ms"`
	DirectiveID      string      `json:"directive_id,omitzero"`
}
