package models

// BudgetConfig caps total daily spend across all callers
type BudgetConfig struct {
	DailyLimitUSD float64 `yaml:"daily_limit_usd" json:"daily_limit_usd"`
}

// RateLimitConfig holds per-identity request ceilings over a one minute
// window. User and IP counters are independent; either tripping rejects
// the request.
type RateLimitConfig struct {
	UserPerMinute int `yaml:"user_per_minute" json:"user_per_minute"`
	IPPerMinute   int `yaml:"ip_per_minute" json:"ip_per_minute"`
}
