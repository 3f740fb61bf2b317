// Package aggregate turns exit records into windowed destination breakdowns.
//
// A bucket covers the half-open date range (End-m days, End]: records exactly
// m days before End are excluded and records on End are included.
package aggregate

import (
	"time"

	"exitviz/internal/models"
	"exitviz/internal/validation"
)

// Breakdown counts exits per category over one window.
type Breakdown struct {
	Total  int
	Counts [models.NumCategories]int
}

// Count returns the number of exits to c.
func (b Breakdown) Count(c models.Category) int {
	i := c.Index()
	if i < 0 {
		return 0
	}
	return b.Counts[i]
}

// Proportion returns Count(c)/Total, or 0 when the window is empty.
func (b Breakdown) Proportion(c models.Category) float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Count(c)) / float64(b.Total)
}

// Proportions returns one proportion per category in models.Categories order.
func (b Breakdown) Proportions() []float64 {
	out := make([]float64, models.NumCategories)
	for i, c := range models.Categories {
		out[i] = b.Proportion(c)
	}
	return out
}

// Bucket is a breakdown anchored to the last day of its window.
type Bucket struct {
	Start time.Time
	End   time.Time
	Breakdown
}

// Series is a moving-average series ordered by End descending, newest first.
type Series []Bucket

// DefaultStep caps the number of points at roughly 90 regardless of range.
func DefaultStep(daysBack int) int {
	if step := daysBack / 90; step > 1 {
		return step
	}
	return 1
}

// MovingAverages computes one bucket for every step days walking back from
// reference over daysBack days. A non-positive step uses DefaultStep.
func MovingAverages(records []models.ExitRecord, m, daysBack int, reference time.Time, step int) (Series, error) {
	if err := validation.ValidateWindow(m); err != nil {
		return nil, err
	}
	if daysBack <= 0 {
		return Series{}, nil
	}
	if step <= 0 {
		step = DefaultStep(daysBack)
	}

	last := models.Day(reference)
	idx := newDayIndex(records, last.AddDate(0, 0, -(daysBack+m)), last)

	series := make(Series, 0, (daysBack+step-1)/step)
	for i := 0; i < daysBack; i += step {
		end := last.AddDate(0, 0, -i)
		start := end.AddDate(0, 0, -m)
		series = append(series, Bucket{
			Start:     start,
			End:       end,
			Breakdown: idx.between(start, end),
		})
	}
	return series, nil
}

// PieBreakdown computes the single window ending on reference.
func PieBreakdown(records []models.ExitRecord, m int, reference time.Time) (Bucket, error) {
	if err := validation.ValidateWindow(m); err != nil {
		return Bucket{}, err
	}

	end := models.Day(reference)
	start := end.AddDate(0, 0, -m)
	idx := newDayIndex(records, start, end)

	return Bucket{
		Start:     start,
		End:       end,
		Breakdown: idx.between(start, end),
	}, nil
}

// dayIndex holds cumulative per-category counts for days in (origin, origin+n].
// cum[k] counts records dated in (origin, origin+k days].
type dayIndex struct {
	origin time.Time
	cum    [][models.NumCategories]int
}

func newDayIndex(records []models.ExitRecord, origin, last time.Time) *dayIndex {
	n := models.DaysBetween(origin, last)
	if n < 0 {
		n = 0
	}
	cum := make([][models.NumCategories]int, n+1)

	for _, rec := range records {
		k := models.DaysBetween(origin, rec.ExitDate)
		if k < 1 || k > n {
			continue
		}
		cum[k][categoryIndex(rec.Destination)]++
	}
	for k := 1; k <= n; k++ {
		for c := range cum[k] {
			cum[k][c] += cum[k-1][c]
		}
	}

	return &dayIndex{origin: origin, cum: cum}
}

// between returns the breakdown for records in (start, end].
func (d *dayIndex) between(start, end time.Time) Breakdown {
	lo := d.clamp(models.DaysBetween(d.origin, start))
	hi := d.clamp(models.DaysBetween(d.origin, end))

	var b Breakdown
	if hi <= lo {
		return b
	}
	for c := range b.Counts {
		b.Counts[c] = d.cum[hi][c] - d.cum[lo][c]
		b.Total += b.Counts[c]
	}
	return b
}

func (d *dayIndex) clamp(k int) int {
	if k < 0 {
		return 0
	}
	if k >= len(d.cum) {
		return len(d.cum) - 1
	}
	return k
}

func categoryIndex(c models.Category) int {
	if i := c.Index(); i >= 0 {
		return i
	}
	return models.UnknownOther.Index()
}
