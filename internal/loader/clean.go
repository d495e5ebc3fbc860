package loader

import (
	"sort"
	"time"

	"github.com/rmoura/toptenb3/internal/domain"
)

// Clean normalizes a raw fetched series so it satisfies the series
// invariant: sorted, strictly increasing dates, duplicates dropped
// (keeping the latest row for a date), and isolated missing trading
// days filled by linear interpolation between their neighbors.
// Returns the cleaned series and the number of interpolated bars.
func Clean(series domain.PriceSeries) (domain.PriceSeries, int) {
	if len(series) == 0 {
		return series, 0
	}

	// Stable sort keeps the later row first in provider order for
	// duplicate dates, so "keep latest" below is well defined.
	sorted := make(domain.PriceSeries, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	// Drop duplicate dates, keeping the last occurrence.
	deduped := make(domain.PriceSeries, 0, len(sorted))
	for i, b := range sorted {
		if i+1 < len(sorted) && sameDay(b.Date, sorted[i+1].Date) {
			continue
		}
		deduped = append(deduped, b)
	}

	// Fill isolated single-day gaps between consecutive trading days.
	filled := make(domain.PriceSeries, 0, len(deduped))
	gaps := 0
	for i, b := range deduped {
		if i > 0 {
			prev := filled[len(filled)-1]
			if missing, ok := isolatedGap(prev.Date, b.Date); ok {
				filled = append(filled, interpolate(prev, b, missing))
				gaps++
			}
		}
		filled = append(filled, b)
	}

	return filled, gaps
}

// isolatedGap reports whether exactly one trading day is missing
// between two dates. Longer gaps are left alone - interpolating across
// them would invent price history.
func isolatedGap(prev, next time.Time) (time.Time, bool) {
	missing := nextBusinessDay(prev)
	if sameDay(missing, next) {
		return time.Time{}, false // contiguous, nothing missing
	}
	if sameDay(nextBusinessDay(missing), next) {
		return missing, true
	}
	return time.Time{}, false
}

// interpolate builds a bar for a missing trading day halfway between
// its neighbors. All numeric fields are lerped.
func interpolate(prev, next domain.Bar, date time.Time) domain.Bar {
	return domain.Bar{
		Date:   date,
		Open:   (prev.Open + next.Open) / 2,
		High:   (prev.High + next.High) / 2,
		Low:    (prev.Low + next.Low) / 2,
		Close:  (prev.Close + next.Close) / 2,
		Volume: (prev.Volume + next.Volume) / 2,
	}
}

// nextBusinessDay returns the next weekday after d.
func nextBusinessDay(d time.Time) time.Time {
	next := d.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
