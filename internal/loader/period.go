package loader

import (
	"fmt"
	"sort"
	"time"
)

// periodMonths maps a request period to a calendar range in months.
var periodMonths = map[string]int{
	"1mo": 1,
	"3mo": 3,
	"6mo": 6,
	"1y":  12,
	"2y":  24,
}

// DefaultPeriod is used when a request does not name a period.
const DefaultPeriod = "6mo"

// ValidPeriods returns the supported period identifiers, sorted by span.
func ValidPeriods() []string {
	periods := make([]string, 0, len(periodMonths))
	for p := range periodMonths {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periodMonths[periods[i]] < periodMonths[periods[j]]
	})
	return periods
}

// PeriodRange resolves a period identifier into the [start, end] date
// range ending at now.
func PeriodRange(period string, now time.Time) (start, end time.Time, err error) {
	months, ok := periodMonths[period]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q (must be one of %v)", period, ValidPeriods())
	}
	end = now
	start = now.AddDate(0, -months, 0)
	return start, end, nil
}
