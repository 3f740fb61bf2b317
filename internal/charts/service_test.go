package charts

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"exitviz/internal/models"
	"exitviz/internal/plotcache"
	"exitviz/internal/validation"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ExitsBetween(ctx context.Context, first, last time.Time) ([]models.ExitRow, error) {
	args := m.Called(ctx, first, last)
	rows, _ := args.Get(0).([]models.ExitRow)
	return rows, args.Error(1)
}

// failingCache never hits and always fails to write.
type failingCache struct {
	mu   sync.Mutex
	puts int
}

func (c *failingCache) Get(plotcache.Key) ([]byte, bool) { return nil, false }

func (c *failingCache) Put(plotcache.Key, []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	return errors.New("disk full")
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// 2024-06-29 is day 181; with a 180 day offset the reference date is 2024-01-01.
var today = time.Date(2024, time.June, 29, 15, 4, 5, 0, time.UTC)

func newTestService(t *testing.T, source RecordSource) (*Service, *plotcache.Store, *clock) {
	t.Helper()
	store := plotcache.New(filepath.Join(t.TempDir(), "plotcache"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Clear() })

	clk := &clock{now: today}
	svc := NewService(source, store, Options{
		AnchorOffsetDays: 180,
		MaxDaysBack:      3650,
		Now:              clk.Now,
	})
	return svc, store, clk
}

func cacheFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func sampleRows() []models.ExitRow {
	return []models.ExitRow{
		{DateOfExit: date(2024, time.January, 1), ExitDestination: "Permanent Exit"},
		{DateOfExit: date(2024, time.January, 1), ExitDestination: "Unknown/Other"},
	}
}

func TestService_InvalidWindowTouchesNothing(t *testing.T) {
	source := &mockSource{}
	svc, store, _ := newTestService(t, source)

	for _, m := range []int{0, 30, 89, 91, 364, 366, -90} {
		_, err := svc.MovingAverage(context.Background(), m, 30)
		assert.ErrorIs(t, err, validation.ErrInvalidWindow)
		assert.Equal(t, "Not found. Try m=90 or m=365", err.Error())

		_, err = svc.ExitPie(context.Background(), m)
		assert.ErrorIs(t, err, validation.ErrInvalidWindow)
	}
	svc.Wait()

	source.AssertNotCalled(t, "ExitsBetween", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, cacheFiles(t, store.Dir()))
}

func TestService_InvalidDaysBack(t *testing.T) {
	source := &mockSource{}
	svc, _, _ := newTestService(t, source)

	_, err := svc.MovingAverage(context.Background(), 90, -1)
	assert.ErrorIs(t, err, validation.ErrInvalidDaysBack)

	_, err = svc.MovingAverage(context.Background(), 90, 3651)
	assert.ErrorIs(t, err, validation.ErrInvalidDaysBack)

	source.AssertNotCalled(t, "ExitsBetween", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ExitPieQueriesWindowAndCaches(t *testing.T) {
	source := &mockSource{}
	source.On("ExitsBetween", mock.Anything, date(2023, time.October, 3), date(2024, time.January, 1)).
		Return(sampleRows(), nil).Once()
	svc, store, _ := newTestService(t, source)

	first, err := svc.ExitPie(context.Background(), 90)
	require.NoError(t, err)
	svc.Wait()

	var fig struct {
		Data []struct {
			Labels []string `json:"labels"`
			Values []int    `json:"values"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(first, &fig))
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []int{1, 0, 0, 0, 1}, fig.Data[0].Values)

	assert.Equal(t, []string{"PIE90-d181.json"}, cacheFiles(t, store.Dir()))

	second, err := svc.ExitPie(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Served from cache: the source was queried exactly once.
	source.AssertExpectations(t)
}

func TestService_MovingAverageIdempotent(t *testing.T) {
	source := &mockSource{}
	source.On("ExitsBetween", mock.Anything, date(2023, time.April, 6), date(2024, time.January, 1)).
		Return(sampleRows(), nil).Once()
	svc, store, _ := newTestService(t, source)

	first, err := svc.MovingAverage(context.Background(), 90, 180)
	require.NoError(t, err)
	svc.Wait()

	cached, err := os.ReadFile(filepath.Join(store.Dir(), "MA90-180-d181.json"))
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	second, err := svc.MovingAverage(context.Background(), 90, 180)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var fig struct {
		Data []struct {
			X []string  `json:"x"`
			Y []float64 `json:"y"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(first, &fig))
	require.Len(t, fig.Data, models.NumCategories)
	assert.Len(t, fig.Data[0].X, 90)
	assert.Equal(t, "2024-01-01", fig.Data[0].X[89])
	assert.InDelta(t, 0.5, fig.Data[0].Y[89], 1e-9)

	source.AssertExpectations(t)
}

func TestService_NewDayExpiresCache(t *testing.T) {
	source := &mockSource{}
	source.On("ExitsBetween", mock.Anything, mock.Anything, mock.Anything).Return(sampleRows(), nil)
	svc, store, clk := newTestService(t, source)

	_, err := svc.MovingAverage(context.Background(), 90, 30)
	require.NoError(t, err)
	_, err = svc.ExitPie(context.Background(), 365)
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, []string{"MA90-30-d181.json", "PIE365-d181.json"}, cacheFiles(t, store.Dir()))

	clk.Advance(24 * time.Hour)

	_, err = svc.ExitPie(context.Background(), 90)
	require.NoError(t, err)
	svc.Wait()

	files := cacheFiles(t, store.Dir())
	assert.Equal(t, []string{"PIE90-d182.json"}, files)
	for _, f := range files {
		assert.False(t, strings.Contains(f, "-d181."), f)
	}
	source.AssertNumberOfCalls(t, "ExitsBetween", 3)
}

func TestService_StorageErrorPropagates(t *testing.T) {
	source := &mockSource{}
	boom := errors.New("connection refused")
	source.On("ExitsBetween", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
	svc, store, _ := newTestService(t, source)

	_, err := svc.MovingAverage(context.Background(), 365, 10)
	assert.ErrorIs(t, err, boom)

	_, err = svc.ExitPie(context.Background(), 90)
	assert.ErrorIs(t, err, boom)

	svc.Wait()
	assert.Empty(t, cacheFiles(t, store.Dir()))
}

func TestService_CacheWriteFailureDoesNotAffectResponse(t *testing.T) {
	source := &mockSource{}
	source.On("ExitsBetween", mock.Anything, mock.Anything, mock.Anything).Return(sampleRows(), nil)
	cache := &failingCache{}
	svc := NewService(source, cache, Options{AnchorOffsetDays: 180, Now: func() time.Time { return today }})

	payload, err := svc.ExitPie(context.Background(), 90)
	require.NoError(t, err)
	assert.True(t, json.Valid(payload))

	svc.Wait()
	assert.Equal(t, 1, cache.puts)
}

func TestService_CorruptCacheFileRecomputes(t *testing.T) {
	source := &mockSource{}
	source.On("ExitsBetween", mock.Anything, mock.Anything, mock.Anything).Return(sampleRows(), nil).Once()
	svc, store, _ := newTestService(t, source)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "PIE90-d181.json"), []byte("{trunc"), 0o644))

	payload, err := svc.ExitPie(context.Background(), 90)
	require.NoError(t, err)
	assert.True(t, json.Valid(payload))
	svc.Wait()

	cached, ok := store.Get(plotcache.PieKey(90, 181))
	require.True(t, ok)
	assert.Equal(t, payload, cached)
	source.AssertExpectations(t)
}

func TestService_AliasesClassifyRows(t *testing.T) {
	source := &mockSource{}
	source.On("ExitsBetween", mock.Anything, mock.Anything, mock.Anything).Return([]models.ExitRow{
		{DateOfExit: date(2023, time.December, 20), ExitDestination: "Rental by client"},
		{DateOfExit: date(2023, time.December, 21), ExitDestination: "Shelter"},
		{DateOfExit: date(2023, time.December, 22), ExitDestination: "somewhere"},
	}, nil)
	store := plotcache.New(t.TempDir())
	svc := NewService(source, store, Options{
		AnchorOffsetDays: 180,
		Now:              func() time.Time { return today },
		Classifier: models.NewClassifier(map[string]string{
			"rental by client": "Permanent Exit",
			"shelter":          "Emergency Shelter",
		}),
	})

	b, err := svc.Breakdown(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Total)
	assert.Equal(t, 1, b.Count(models.PermanentExit))
	assert.Equal(t, 1, b.Count(models.EmergencyShelter))
	assert.Equal(t, 1, b.Count(models.UnknownOther))
	assert.Equal(t, date(2024, time.January, 1), b.End)
}

func TestService_CancelledCallerDoesNotFailOthers(t *testing.T) {
	source := &mockSource{}
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	source.On("ExitsBetween", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
		}).Return(sampleRows(), nil)
	svc, store, _ := newTestService(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.ExitPie(ctx, 90)
		firstErr <- err
	}()
	<-started

	type result struct {
		payload []byte
		err     error
	}
	second := make(chan result, 1)
	go func() {
		payload, err := svc.ExitPie(context.Background(), 90)
		second <- result{payload, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.True(t, json.Valid(res.payload))
	svc.Wait()

	cached, ok := store.Get(plotcache.PieKey(90, 181))
	require.True(t, ok)
	assert.Equal(t, res.payload, cached)
	source.AssertNumberOfCalls(t, "ExitsBetween", 1)
}

func TestService_ConcurrentMissesShareComputation(t *testing.T) {
	source := &mockSource{}
	release := make(chan struct{})
	source.On("ExitsBetween", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).Return(sampleRows(), nil)
	svc, _, _ := newTestService(t, source)

	const n = 8
	results := make([][]byte, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload, err := svc.ExitPie(context.Background(), 365)
			assert.NoError(t, err)
			results[i] = payload
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	svc.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	// Goroutines that started late may recompute once the first call has
	// returned, but never one per caller while the first is in flight.
	calls := len(source.Calls)
	assert.GreaterOrEqual(t, calls, 1)
	assert.Less(t, calls, n)
}
