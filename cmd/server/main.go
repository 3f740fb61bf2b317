package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"exitviz/internal/charts"
	"exitviz/internal/config"
	"exitviz/internal/db"
	"exitviz/internal/handlers/api"
	"exitviz/internal/jobs"
	"exitviz/internal/metrics"
	"exitviz/internal/models"
	"exitviz/internal/plotcache"
	"exitviz/internal/server"
	"exitviz/internal/storage"
)

// source is a record source the server can also health-check.
type source interface {
	charts.RecordSource
	api.Pinger
}

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	// Load YAML config for destination aliases and warm presets
	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		fatal("failed to load YAML config", err)
	}

	// Initialize record source
	var records source
	if cfg.IsSQLite() {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			fatal("failed to open sqlite database", err)
		}
		defer repo.Close()
		records = repo
		slog.Info("using sqlite record source", "path", cfg.SQLiteDBPath)
	} else {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal("failed to connect to database", err)
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			fatal("failed to run migrations", err)
		}
		slog.Info("migrations completed successfully")

		if cfg.IsDev() {
			reference := models.Day(time.Now()).AddDate(0, 0, -cfg.AnchorOffsetDays)
			if n, err := database.SeedDevExits(ctx, reference, 730); err != nil {
				slog.Warn("failed to seed dev exits", "error", err)
			} else if n > 0 {
				slog.Info("seeded dev exits", "count", n)
			}
		}
		records = database
	}

	// Initialize plot cache
	store := plotcache.New(cfg.PlotCacheDir)
	if err := store.Init(); err != nil {
		fatal("failed to initialize plot cache", err)
	}
	if cfg.MetricsEnabled {
		metrics.Init(store)
	}

	svc := charts.NewService(records, store, charts.Options{
		AnchorOffsetDays: cfg.AnchorOffsetDays,
		MaxDaysBack:      cfg.MaxDaysBack,
		Classifier:       models.NewClassifier(yamlCfg.GetDestinationAliases()),
	})

	// Start cache warmer
	if cfg.CacheWarmInterval > 0 {
		warmer := jobs.NewCacheWarmer(svc, yamlCfg.GetWarmPresets(), cfg.CacheWarmInterval)
		go warmer.Start(ctx)
	}

	srv := server.New(cfg)
	srv.RegisterRoutes(svc, records)

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.ServerAddr, "env", cfg.Env)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	cancel()
	if err := srv.Shutdown(); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	svc.Wait()
	slog.Info("server exited")
}

func setupLogging(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
