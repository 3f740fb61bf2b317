// Package charts serves moving-average and pie chart payloads, reading from a
// day-keyed cache and recomputing from the record source on a miss.
package charts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"exitviz/internal/aggregate"
	"exitviz/internal/chart"
	"exitviz/internal/metrics"
	"exitviz/internal/models"
	"exitviz/internal/plotcache"
	"exitviz/internal/validation"
)

// RecordSource returns exits dated in the half-open range (first, last].
type RecordSource interface {
	ExitsBetween(ctx context.Context, first, last time.Time) ([]models.ExitRow, error)
}

// Cache stores rendered payloads by key.
type Cache interface {
	Get(key plotcache.Key) ([]byte, bool)
	Put(key plotcache.Key, payload []byte) error
}

// Options configures a Service.
type Options struct {
	// AnchorOffsetDays moves the reference date back from today.
	AnchorOffsetDays int
	// MaxDaysBack bounds the moving-average range. 0 means unbounded.
	MaxDaysBack int
	Classifier  *models.Classifier
	Logger      *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service computes chart payloads.
type Service struct {
	source       RecordSource
	cache        Cache
	classifier   *models.Classifier
	anchorOffset int
	maxDaysBack  int
	now          func() time.Time
	logger       *slog.Logger

	group   singleflight.Group
	pending sync.WaitGroup
}

// NewService creates a chart service.
func NewService(source RecordSource, cache Cache, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		source:       source,
		cache:        cache,
		classifier:   opts.Classifier,
		anchorOffset: opts.AnchorOffsetDays,
		maxDaysBack:  opts.MaxDaysBack,
		now:          opts.Now,
		logger:       opts.Logger.With("component", "charts"),
	}
}

// MovingAverage returns the line chart of m-day destination proportions over
// the daysBack days ending at the reference date.
func (s *Service) MovingAverage(ctx context.Context, m, daysBack int) ([]byte, error) {
	if err := validation.ValidateWindow(m); err != nil {
		return nil, err
	}
	if err := validation.ValidateDaysBack(daysBack, s.maxDaysBack); err != nil {
		return nil, err
	}

	today := s.today()
	key := plotcache.LineKey(m, daysBack, models.DayOfYear(today))

	return s.serve(ctx, key, func(ctx context.Context) ([]byte, error) {
		last := s.reference(today)
		records, err := s.records(ctx, last.AddDate(0, 0, -(m+daysBack)), last)
		if err != nil {
			return nil, err
		}
		series, err := aggregate.MovingAverages(records, m, daysBack, last, 0)
		if err != nil {
			return nil, err
		}
		return chart.RenderLine(series, m)
	})
}

// ExitPie returns the pie chart of destination counts over the m days ending
// at the reference date.
func (s *Service) ExitPie(ctx context.Context, m int) ([]byte, error) {
	if err := validation.ValidateWindow(m); err != nil {
		return nil, err
	}

	today := s.today()
	key := plotcache.PieKey(m, models.DayOfYear(today))

	return s.serve(ctx, key, func(ctx context.Context) ([]byte, error) {
		last := s.reference(today)
		records, err := s.records(ctx, last.AddDate(0, 0, -m), last)
		if err != nil {
			return nil, err
		}
		bucket, err := aggregate.PieBreakdown(records, m, last)
		if err != nil {
			return nil, err
		}
		return chart.RenderPie(bucket, m)
	})
}

// Breakdown returns the raw pie breakdown without touching the cache.
func (s *Service) Breakdown(ctx context.Context, m int) (aggregate.Bucket, error) {
	if err := validation.ValidateWindow(m); err != nil {
		return aggregate.Bucket{}, err
	}
	last := s.reference(s.today())
	records, err := s.records(ctx, last.AddDate(0, 0, -m), last)
	if err != nil {
		return aggregate.Bucket{}, err
	}
	return aggregate.PieBreakdown(records, m, last)
}

// Wait blocks until all scheduled cache writes have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) serve(ctx context.Context, key plotcache.Key, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if payload, ok := s.cache.Get(key); ok {
		metrics.RecordCacheLookup(key.Chart, true)
		return payload, nil
	}
	metrics.RecordCacheLookup(key.Chart, false)

	// The shared computation outlives any one caller; each caller stops
	// waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key.Filename(), func() (any, error) {
		start := time.Now()
		payload, err := compute(shared)
		if err != nil {
			return nil, err
		}
		metrics.ObserveCompute(key.Chart, time.Since(start))
		s.store(key, payload)
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// store writes the payload in the background. Failures are logged only.
func (s *Service) store(key plotcache.Key, payload []byte) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.cache.Put(key, payload); err != nil {
			metrics.RecordCacheWriteFailure(key.Chart)
			s.logger.Warn("failed to write plot cache", "key", key.Filename(), "error", err)
		}
	}()
}

func (s *Service) records(ctx context.Context, first, last time.Time) ([]models.ExitRecord, error) {
	rows, err := s.source.ExitsBetween(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to query exits: %w", err)
	}
	return s.classifier.Records(rows), nil
}

func (s *Service) today() time.Time {
	return models.Day(s.now())
}

func (s *Service) reference(today time.Time) time.Time {
	return today.AddDate(0, 0, -s.anchorOffset)
}
