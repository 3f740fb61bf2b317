package cli

import (
	"context"
	"fmt"
	"time"

	"exitviz/internal/charts"
	"exitviz/internal/config"
	"exitviz/internal/db"
	"exitviz/internal/plotcache"
	"exitviz/internal/storage"
)

// recordSource is what the admin commands need from either backend.
type recordSource interface {
	charts.RecordSource
	Ping(ctx context.Context) error
	CountMembers(ctx context.Context) (int, error)
	SeedDevExits(ctx context.Context, reference time.Time, days int) (int, error)
}

// openSource connects to the configured backend and applies migrations.
// The returned func releases the connection.
func openSource(ctx context.Context, opts *RootOptions) (recordSource, func(), error) {
	switch opts.Backend {
	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil

	case config.BackendPostgres:
		database, err := db.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(opts.DatabaseURL); err != nil {
			database.Close()
			return nil, nil, err
		}
		return database, database.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

// newService builds a chart service over source. A nil store disables caching.
func newService(opts *RootOptions, source charts.RecordSource, store *plotcache.Store) *charts.Service {
	var cache charts.Cache = noCache{}
	if store != nil {
		cache = store
	}
	return charts.NewService(source, cache, charts.Options{
		AnchorOffsetDays: opts.AnchorOffsetDays,
		MaxDaysBack:      opts.MaxDaysBack,
		Classifier:       loadClassifier(),
		Now:              opts.today,
	})
}

type noCache struct{}

func (noCache) Get(plotcache.Key) ([]byte, bool) { return nil, false }
func (noCache) Put(plotcache.Key, []byte) error { return nil }
