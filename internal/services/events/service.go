// Package events persists the append-only usage ledger and answers the
// aggregate queries built on it.
package events

import (
	"context"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"
	"github.com/chronoverse/chronoverse/internal/services/database"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// Service writes and aggregates poem events.
type Service struct {
	db  *database.DB
	now func() time.Time
}

// NewService creates an events service over the given database.
func NewService(db *database.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Record appends one ledger row. Failures are logged and returned but
// callers on the serving path ignore them; losing one accounting row is
// better than failing a poem that was already generated.
func (s *Service) Record(ctx context.Context, event *models.PoemEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		fiberlog.Errorf("[%s] failed to record poem event: %v", event.RequestID, err)
		return err
	}
	return nil
}

// TodayCostSum returns the total recorded cost for the current UTC
// calendar day. This is the read side of the daily budget gate.
func (s *Service) TodayCostSum(ctx context.Context) (float64, error) {
	dayStart := s.now().UTC().Truncate(24 * time.Hour)

	var sum float64
	err := s.db.WithContext(ctx).
		Model(&models.PoemEvent{}).
		Where("created_at >= ?", dayStart).
		Select("COALESCE(SUM(cost_usd), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// Stats aggregates ledger rows over [from, to) for the usage endpoint.
func (s *Service) Stats(ctx context.Context, from, to time.Time) (*models.EventStats, error) {
	var stats models.EventStats

	base := s.db.WithContext(ctx).
		Model(&models.PoemEvent{}).
		Where("created_at >= ? AND created_at < ?", from, to)

	row := struct {
		TotalRequests int64
		TotalCost     float64
		TotalTokens   int64
		AvgLatencyMs  float64
	}{}
	err := base.Session(&gorm.Session{}).
		Select("COUNT(*) AS total_requests, " +
			"COALESCE(SUM(cost_usd), 0) AS total_cost, " +
			"COALESCE(SUM(prompt_tokens + completion_tokens), 0) AS total_tokens, " +
			"COALESCE(AVG(latency_ms), 0) AS avg_latency_ms").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	stats.TotalRequests = row.TotalRequests
	stats.TotalCost = row.TotalCost
	stats.TotalTokens = row.TotalTokens
	stats.AvgLatencyMs = row.AvgLatencyMs

	counts := []struct {
		Status models.PoemStatus
		Count  int64
	}{}
	err = base.Session(&gorm.Session{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		switch c.Status {
		case models.StatusOK:
			stats.OKRequests = c.Count
		case models.StatusFallback:
			stats.FallbackRequests = c.Count
		}
	}

	err = base.Session(&gorm.Session{}).
		Where("cached = ?", true).
		Count(&stats.CacheHits).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
