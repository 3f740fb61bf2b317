package metrics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"exitviz/internal/plotcache"
)

// Cache lookup outcomes.
const (
	OutcomeHit  = "hit"
	OutcomeMiss = "miss"
)

var (
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitviz_cache_lookups_total",
			Help: "Chart cache lookups by chart type and outcome",
		},
		[]string{"chart", "outcome"},
	)

	computeSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exitviz_chart_compute_seconds",
			Help:    "Time spent querying records and rendering a chart on cache miss",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chart"},
	)

	cacheWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitviz_cache_write_failures_total",
			Help: "Background cache writes or sweeps that failed",
		},
		[]string{"chart"},
	)

	cacheFilesDesc = prometheus.NewDesc(
		"exitviz_plotcache_files",
		"Number of files in the plot cache directory",
		nil,
		nil,
	)

	cacheBytesDesc = prometheus.NewDesc(
		"exitviz_plotcache_bytes",
		"Total size of files in the plot cache directory",
		nil,
		nil,
	)
)

// CacheCollector is a custom Prometheus collector that reads the plot cache
// directory on each scrape.
type CacheCollector struct {
	store *plotcache.Store
}

// NewCacheCollector returns a collector for store.
func NewCacheCollector(store *plotcache.Store) *CacheCollector {
	return &CacheCollector{store: store}
}

// Describe sends the metric descriptors to the channel.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheFilesDesc
	ch <- cacheBytesDesc
}

// Collect lists the cache directory and emits its file count and size.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	status, err := c.store.Status()
	if err != nil {
		slog.Error("failed to collect plot cache metrics", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(cacheFilesDesc, prometheus.GaugeValue, float64(status.Files))
	ch <- prometheus.MustNewConstMetric(cacheBytesDesc, prometheus.GaugeValue, float64(status.Bytes))
}

var initOnce sync.Once

// Init registers all collectors with the default registry.
// Must be called once at startup.
func Init(store *plotcache.Store) {
	initOnce.Do(func() {
		prometheus.MustRegister(
			cacheLookups,
			computeSeconds,
			cacheWriteFailures,
			NewCacheCollector(store),
		)
	})
}

// RecordCacheLookup counts a cache hit or miss for chart.
func RecordCacheLookup(chart plotcache.ChartType, hit bool) {
	outcome := OutcomeMiss
	if hit {
		outcome = OutcomeHit
	}
	cacheLookups.WithLabelValues(string(chart), outcome).Inc()
}

// ObserveCompute records how long a recomputation took.
func ObserveCompute(chart plotcache.ChartType, d time.Duration) {
	computeSeconds.WithLabelValues(string(chart)).Observe(d.Seconds())
}

// RecordCacheWriteFailure counts a failed background cache write.
func RecordCacheWriteFailure(chart plotcache.ChartType) {
	cacheWriteFailures.WithLabelValues(string(chart)).Inc()
}
