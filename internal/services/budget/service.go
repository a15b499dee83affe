// Package budget gates generation behind a daily USD spend ceiling.
package budget

import (
	"context"

	"github.com/chronoverse/chronoverse/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// LedgerReader exposes the spend already recorded for the current UTC day.
type LedgerReader interface {
	TodayCostSum(ctx context.Context) (float64, error)
}

// Service checks recorded spend against the configured daily limit.
//
// The check reads the ledger before generation and the debit lands after,
// so concurrent requests near the ceiling can overshoot by at most one
// generation each. That overshoot is accepted; the ceiling is a cost
// control, not an exact accounting boundary.
type Service struct {
	ledger        LedgerReader
	dailyLimitUSD float64
}

// NewService creates a budget gate over the given ledger.
func NewService(ledger LedgerReader, dailyLimitUSD float64) *Service {
	return &Service{ledger: ledger, dailyLimitUSD: dailyLimitUSD}
}

// Authorize returns a budget error when today's recorded spend has
// reached the daily limit. Ledger read failures fail open so a broken
// database does not take poem serving down with it.
func (s *Service) Authorize(ctx context.Context) error {
	spent, err := s.ledger.TodayCostSum(ctx)
	if err != nil {
		fiberlog.Warnf("budget check failed, allowing request: %v", err)
		return nil
	}

	if spent >= s.dailyLimitUSD {
		return models.NewBudgetExceededError(s.dailyLimitUSD)
	}
	return nil
}

// Remaining reports how much of today's budget is left. Used by the
// usage endpoints; never gates a request.
func (s *Service) Remaining(ctx context.Context) (float64, error) {
	spent, err := s.ledger.TodayCostSum(ctx)
	if err != nil {
		return 0, err
	}

	remaining := s.dailyLimitUSD - spent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// DailyLimitUSD returns the configured ceiling.
func (s *Service) DailyLimitUSD() float64 {
	return s.dailyLimitUSD
}
