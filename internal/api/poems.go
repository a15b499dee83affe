// Package api holds the HTTP handlers for the public poem surface and
// the operational endpoints.
package api

import (
	"strings"

	"github.com/chronoverse/chronoverse/internal/models"
	"github.com/chronoverse/chronoverse/internal/services/poem"
	"github.com/chronoverse/chronoverse/internal/services/prompt"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// PoemHandler serves poem generation and tone discovery.
type PoemHandler struct {
	service *poem.Service
}

// NewPoemHandler creates a poem handler.
func NewPoemHandler(service *poem.Service) *PoemHandler {
	return &PoemHandler{service: service}
}

// CreatePoem handles POST /v1/poem.
func (h *PoemHandler) CreatePoem(c *fiber.Ctx) error {
	var req models.PoemRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, models.NewValidationError("invalid request body", err))
	}

	identity := models.Identity{
		UserID: c.Get("X-User-ID"),
		IP:     clientIP(c),
	}

	response, err := h.service.Generate(c.UserContext(), &req, identity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(response)
}

// ListTones handles GET /v1/tones.
func (h *PoemHandler) ListTones(c *fiber.Ctx) error {
	tones := make([]fiber.Map, 0, len(models.Tones))
	for _, tone := range models.Tones {
		tones = append(tones, fiber.Map{
			"tone":  tone,
			"style": prompt.ToneStyle(tone),
		})
	}
	return c.JSON(fiber.Map{"tones": tones})
}

// clientIP prefers the first X-Forwarded-For hop so deployments behind
// a proxy still meter the real caller.
func clientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return c.IP()
}

// writeError converts any error to a sanitized JSON error response.
func writeError(c *fiber.Ctx, err error) error {
	appErr := models.SanitizeError(err)
	if appErr.Type == models.ErrorTypeInternal {
		fiberlog.Errorf("internal error on %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(appErr.GetStatusCode()).JSON(fiber.Map{"error": appErr})
}
