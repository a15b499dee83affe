package models

import "time"

// PoemEvent is one append-only usage ledger row, written for every
// completed request (success, fallback, shadow, and reject alike).
// Rows are never updated; the cost gate reads the running UTC-day sum.
type PoemEvent struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	RequestID        string     `gorm:"not null;size:100;index;default:''" json:"request_id"`
	Status           PoemStatus `gorm:"not null;size:20;index;default:''" json:"status"`
	Model            string     `gorm:"not null;size:100;default:''" json:"model"`
	Tone             Tone       `gorm:"not null;size:20;default:''" json:"tone"`
	Timezone         string     `gorm:"not null;size:64;default:''" json:"timezone"`
	Daypart          string     `gorm:"not null;size:20;default:''" json:"daypart"`
	MinuteBucket     string     `gorm:"not null;size:20;index;default:''" json:"minute_bucket"`
	PromptTokens     int        `gorm:"not null;default:0" json:"prompt_tokens"`
	CompletionTokens int        `gorm:"not null;default:0" json:"completion_tokens"`
	ReasoningTokens  int        `gorm:"not null;default:0" json:"reasoning_tokens"`
	CostUSD          float64    `gorm:"not null;type:decimal(10,6);default:0" json:"cost_usd"`
	Cached           bool       `gorm:"not null;default:false" json:"cached"`
	UserID           string     `gorm:"not null;size:100;index;default:''" json:"user_id,omitzero"`
	IPAddress        string     `gorm:"not null;size:45;default:''" json:"ip_address,omitzero"`
	RetryCount       int        `gorm:"not null;default:0" json:"retry_count"`
	LatencyMs        int64      `gorm:"not null;default:0" json:"latency_ms"`
	Snapshot         string     `gorm:"not null;type:text;default:''" json:"snapshot,omitzero"`
	CreatedAt        time.Time  `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (PoemEvent) TableName() string {
	return "poem_events"
}

// EventStats aggregates ledger rows for the admin usage endpoint
type EventStats struct {
	TotalRequests    int64   `json:"total_requests"`
	TotalCost        float64 `json:"total_cost"`
	TotalTokens      int64   `json:"total_tokens"`
	OKRequests       int64   `json:"ok_requests"`
	FallbackRequests int64   `json:"fallback_requests"`
	CacheHits        int64   `json:"cache_hits"`
	AvgLatencyMs     float64 `json:"avg_latency_ms"`
}
