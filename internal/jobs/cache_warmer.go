package jobs

import (
	"context"
	"log/slog"
	"time"

	"exitviz/internal/config"
)

// ChartProducer is the subset of the chart service the warmer drives.
type ChartProducer interface {
	MovingAverage(ctx context.Context, m, daysBack int) ([]byte, error)
	ExitPie(ctx context.Context, m int) ([]byte, error)
}

// CacheWarmer periodically requests a fixed set of charts so the first
// request of each day is served from the cache.
type CacheWarmer struct {
	charts   ChartProducer
	presets  []config.WarmPreset
	interval time.Duration
	logger   *slog.Logger
}

// NewCacheWarmer creates a new cache warmer.
func NewCacheWarmer(charts ChartProducer, presets []config.WarmPreset, interval time.Duration) *CacheWarmer {
	return &CacheWarmer{
		charts:   charts,
		presets:  presets,
		interval: interval,
		logger:   slog.Default().With("component", "cache_warmer"),
	}
}

// Start begins the background warm loop. It returns when ctx is cancelled.
func (w *CacheWarmer) Start(ctx context.Context) {
	w.logger.Info("cache warmer started", "interval", w.interval, "presets", len(w.presets))

	// Run immediately on start
	w.WarmAll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cache warmer stopped")
			return
		case <-ticker.C:
			w.WarmAll(ctx)
		}
	}
}

// WarmAll requests every preset once and returns how many succeeded.
func (w *CacheWarmer) WarmAll(ctx context.Context) int {
	var ok int
	for _, p := range w.presets {
		// Check context before each preset
		select {
		case <-ctx.Done():
			return ok
		default:
		}

		if err := w.warm(ctx, p); err != nil {
			w.logger.Warn("failed to warm chart", "chart", p.Chart, "m", p.M, "days_back", p.DaysBack, "error", err)
			continue
		}
		ok++
	}
	return ok
}

func (w *CacheWarmer) warm(ctx context.Context, p config.WarmPreset) error {
	if p.Chart == config.WarmChartPie {
		_, err := w.charts.ExitPie(ctx, p.M)
		return err
	}
	_, err := w.charts.MovingAverage(ctx, p.M, p.DaysBack)
	return err
}
