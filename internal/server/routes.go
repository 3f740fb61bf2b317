package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"exitviz/internal/handlers"
	"exitviz/internal/handlers/api"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(charts api.ChartService, source api.Pinger) {
	// Initialize handlers
	chartHandler := api.NewChartHandler(charts)
	healthHandler := api.NewHealthHandler(source)
	dashboardHandler := handlers.NewDashboardHandler(s.Cfg)

	// Chart API
	s.App.Get("/exit-moving-avg/:m/:days_back", chartHandler.MovingAverage)
	s.App.Get("/exit-pie/:m", chartHandler.ExitPie)

	// Frontend
	s.App.Get("/", dashboardHandler.Index)

	// Operations
	s.App.Get("/healthz", healthHandler.Check)
	if s.Cfg.MetricsEnabled {
		s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}
}
