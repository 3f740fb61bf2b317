package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"exitviz/internal/config"
	"exitviz/internal/validation"
)

// Dashboard defaults.
const (
	defaultWindow   = validation.Window90
	defaultDaysBack = 365
)

// DashboardHandler renders the chart dashboard.
type DashboardHandler struct {
	cfg *config.Config
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(cfg *config.Config) *DashboardHandler {
	return &DashboardHandler{cfg: cfg}
}

// Index renders both charts for the window and range given by the m and
// days_back query parameters.
func (h *DashboardHandler) Index(c fiber.Ctx) error {
	m, err := queryInt(c, "m", defaultWindow)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validation.ValidateWindow(m); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	daysBack, err := queryInt(c, "days_back", defaultDaysBack)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validation.ValidateDaysBack(daysBack, h.cfg.MaxDaysBack); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.Render("dashboard", fiber.Map{
		"Title":       "Dashboard",
		"Windows":     []int{validation.Window90, validation.Window365},
		"M":           m,
		"DaysBack":    daysBack,
		"MaxDaysBack": h.cfg.MaxDaysBack,
	})
}

func queryInt(c fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, key+" must be an integer")
	}
	return n, nil
}
