package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Pinger reports whether the record source is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health via JSON API.
type HealthHandler struct {
	source  Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new API health handler.
func NewHealthHandler(source Pinger) *HealthHandler {
	return &HealthHandler{
		source:  source,
		timeout: 2 * time.Second,
	}
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	if err := h.source.Ping(ctx); err != nil {
		slog.Warn("health check failed", "component", "api", "error", err)
		return jsonError(c, fiber.StatusServiceUnavailable, "record source unavailable")
	}

	return jsonSuccess(c, fiber.Map{"source": "ok"})
}
