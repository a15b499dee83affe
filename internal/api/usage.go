package api

import (
	"time"

	"github.com/chronoverse/chronoverse/internal/models"
	"github.com/chronoverse/chronoverse/internal/services/budget"
	"github.com/chronoverse/chronoverse/internal/services/events"

	"github.com/gofiber/fiber/v2"
)

// UsageHandler serves spend and traffic visibility endpoints.
type UsageHandler struct {
	events *events.Service
	budget *budget.Service
}

// NewUsageHandler creates a usage handler.
func NewUsageHandler(eventsSvc *events.Service, budgetSvc *budget.Service) *UsageHandler {
	return &UsageHandler{events: eventsSvc, budget: budgetSvc}
}

// Today handles GET /v1/usage/today.
func (h *UsageHandler) Today(c *fiber.Ctx) error {
	ctx := c.UserContext()

	spent, err := h.events.TodayCostSum(ctx)
	if err != nil {
		return writeError(c, models.NewInternalError("failed to read usage ledger", err))
	}

	remaining, err := h.budget.Remaining(ctx)
	if err != nil {
		return writeError(c, models.NewInternalError("failed to read usage ledger", err))
	}

	return c.JSON(fiber.Map{
		"date":            time.Now().UTC().Format("2006-01-02"),
		"cost_usd":        spent,
		"daily_limit_usd": h.budget.DailyLimitUSD(),
		"remaining_usd":   remaining,
	})
}

// Stats handles GET /v1/usage/stats. Optional from/to query parameters
// are RFC 3339 timestamps; the default window is the last 24 hours.
func (h *UsageHandler) Stats(c *fiber.Ctx) error {
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return writeError(c, models.NewValidationError("invalid 'from' timestamp, use RFC 3339", err))
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return writeError(c, models.NewValidationError("invalid 'to' timestamp, use RFC 3339", err))
		}
		to = parsed
	}

	stats, err := h.events.Stats(c.UserContext(), from, to)
	if err != nil {
		return writeError(c, models.NewInternalError("failed to aggregate usage", err))
	}

	return c.JSON(fiber.Map{
		"from":  from.Format(time.RFC3339),
		"to":    to.Format(time.RFC3339),
		"stats": stats,
	})
}
