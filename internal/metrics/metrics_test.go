package metrics

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exitviz/internal/plotcache"
)

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("PIE", OutcomeHit))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("PIE", OutcomeMiss))

	RecordCacheLookup(plotcache.PieChart, true)
	RecordCacheLookup(plotcache.PieChart, false)
	RecordCacheLookup(plotcache.PieChart, false)

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("PIE", OutcomeHit)))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookups.WithLabelValues("PIE", OutcomeMiss)))
}

func TestRecordCacheWriteFailure(t *testing.T) {
	before := testutil.ToFloat64(cacheWriteFailures.WithLabelValues("MA"))
	RecordCacheWriteFailure(plotcache.LineChart)
	assert.Equal(t, before+1, testutil.ToFloat64(cacheWriteFailures.WithLabelValues("MA")))
}

func TestObserveCompute(t *testing.T) {
	ObserveCompute(plotcache.LineChart, 250*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(computeSeconds, "exitviz_chart_compute_seconds"))
}

func TestCacheCollector(t *testing.T) {
	store := plotcache.New(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, store.Put(plotcache.PieKey(90, 7), []byte(`{}`)))
	require.NoError(t, store.Put(plotcache.LineKey(90, 30, 7), []byte(`{"x":1}`)))

	collector := NewCacheCollector(store)
	assert.Equal(t, 2, testutil.CollectAndCount(collector))

	expected := `
# HELP exitviz_plotcache_bytes Total size of files in the plot cache directory
# TYPE exitviz_plotcache_bytes gauge
exitviz_plotcache_bytes 9
# HELP exitviz_plotcache_files Number of files in the plot cache directory
# TYPE exitviz_plotcache_files gauge
exitviz_plotcache_files 2
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}
