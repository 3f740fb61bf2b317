package plotcache

import (
	"fmt"
	"regexp"
	"strconv"
)

// ChartType tags cache files with the chart they hold.
type ChartType string

// Chart types.
const (
	LineChart ChartType = "MA"
	PieChart  ChartType = "PIE"
)

// Key identifies one cached payload. DayOfYear is part of the key, so a new
// day always misses.
type Key struct {
	Chart     ChartType `json:"chart"`
	M         int       `json:"m"`
	DaysBack  int       `json:"days_back,omitempty"`
	DayOfYear int       `json:"day_of_year"`
}

// LineKey returns the key for a moving-average chart.
func LineKey(m, daysBack, doy int) Key {
	return Key{Chart: LineChart, M: m, DaysBack: daysBack, DayOfYear: doy}
}

// PieKey returns the key for a pie chart.
func PieKey(m, doy int) Key {
	return Key{Chart: PieChart, M: m, DayOfYear: doy}
}

// Filename returns the cache file name, e.g. MA90-30-d145.json or PIE365-d145.json.
func (k Key) Filename() string {
	if k.Chart == LineChart {
		return fmt.Sprintf("MA%d-%d-d%d.json", k.M, k.DaysBack, k.DayOfYear)
	}
	return fmt.Sprintf("PIE%d-d%d.json", k.M, k.DayOfYear)
}

func (k Key) String() string {
	return k.Filename()
}

var filenamePattern = regexp.MustCompile(`^(MA|PIE)(\d+)(?:-(\d+))?-d(\d+)\.json$`)

// ParseFilename is the inverse of Key.Filename.
func ParseFilename(name string) (Key, bool) {
	match := filenamePattern.FindStringSubmatch(name)
	if match == nil {
		return Key{}, false
	}

	chart := ChartType(match[1])
	hasDaysBack := match[3] != ""
	if (chart == LineChart) != hasDaysBack {
		return Key{}, false
	}

	key := Key{Chart: chart}
	var err error
	if key.M, err = strconv.Atoi(match[2]); err != nil {
		return Key{}, false
	}
	if hasDaysBack {
		if key.DaysBack, err = strconv.Atoi(match[3]); err != nil {
			return Key{}, false
		}
	}
	if key.DayOfYear, err = strconv.Atoi(match[4]); err != nil {
		return Key{}, false
	}
	return key, true
}
