package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"exitviz/internal/validation"
)

// ChartService produces rendered chart documents.
type ChartService interface {
	MovingAverage(ctx context.Context, m, daysBack int) ([]byte, error)
	ExitPie(ctx context.Context, m int) ([]byte, error)
}

// ChartHandler serves chart documents as JSON.
type ChartHandler struct {
	charts ChartService
	logger *slog.Logger
}

// NewChartHandler creates a new API chart handler.
func NewChartHandler(charts ChartService) *ChartHandler {
	return &ChartHandler{
		charts: charts,
		logger: slog.Default().With("component", "api"),
	}
}

// MovingAverage handles GET /exit-moving-avg/:m/:days_back.
func (h *ChartHandler) MovingAverage(c fiber.Ctx) error {
	m, err := intParam(c, "m")
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	daysBack, err := intParam(c, "days_back")
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	payload, err := h.charts.MovingAverage(c.Context(), m, daysBack)
	if err != nil {
		return h.chartError(c, err)
	}
	return sendFigure(c, payload)
}

// ExitPie handles GET /exit-pie/:m.
func (h *ChartHandler) ExitPie(c fiber.Ctx) error {
	m, err := intParam(c, "m")
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	payload, err := h.charts.ExitPie(c.Context(), m)
	if err != nil {
		return h.chartError(c, err)
	}
	return sendFigure(c, payload)
}

func (h *ChartHandler) chartError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, validation.ErrInvalidWindow):
		return jsonError(c, fiber.StatusNotFound, validation.ErrInvalidWindow.Error())
	case errors.Is(err, validation.ErrInvalidDaysBack):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error("failed to build chart", "path", c.Path(), "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to build chart")
	}
}

func intParam(c fiber.Ctx, name string) (int, error) {
	n, err := strconv.Atoi(c.Params(name))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
