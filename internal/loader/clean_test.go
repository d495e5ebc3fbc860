package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoura/toptenb3/internal/domain"
)

// tradingDays generates n consecutive weekdays starting at start, with
// a simple synthetic price walk.
func tradingDays(start time.Time, n int) domain.PriceSeries {
	series := make(domain.PriceSeries, 0, n)
	d := start
	price := 60.0
	for len(series) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			price += 0.1
			series = append(series, domain.Bar{
				Date:   d,
				Open:   price - 0.05,
				High:   price + 0.2,
				Low:    price - 0.2,
				Close:  price,
				Volume: 10_000_000,
			})
		}
		d = d.AddDate(0, 0, 1)
	}
	return series
}

// monday is a fixed reference Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestCleanSortsAndPreservesValidSeries(t *testing.T) {
	series := tradingDays(monday, 10)
	shuffled := domain.PriceSeries{series[3], series[0], series[7], series[1], series[2],
		series[9], series[4], series[6], series[5], series[8]}

	cleaned, gaps := Clean(shuffled)
	assert.Equal(t, 0, gaps)
	require.Len(t, cleaned, 10)
	assert.NoError(t, cleaned.Validate())
	assert.Equal(t, series[0].Date, cleaned[0].Date)
	assert.Equal(t, series[9].Date, cleaned[9].Date)
}

func TestCleanDropsDuplicatesKeepingLatest(t *testing.T) {
	series := tradingDays(monday, 5)
	dup := series[2]
	dup.Close = 99.9 // later row for the same date wins
	withDup := append(domain.PriceSeries{}, series[:3]...)
	withDup = append(withDup, dup)
	withDup = append(withDup, series[3:]...)

	cleaned, gaps := Clean(withDup)
	assert.Equal(t, 0, gaps)
	require.Len(t, cleaned, 5)
	assert.NoError(t, cleaned.Validate())
	assert.InDelta(t, 99.9, cleaned[2].Close, 1e-9)
}

func TestCleanInterpolatesIsolatedGap(t *testing.T) {
	series := tradingDays(monday, 5) // Mon..Fri
	withGap := append(domain.PriceSeries{}, series[:2]...) // Mon, Tue
	withGap = append(withGap, series[3:]...)               // Thu, Fri (Wed missing)

	cleaned, gaps := Clean(withGap)
	assert.Equal(t, 1, gaps)
	require.Len(t, cleaned, 5)
	assert.NoError(t, cleaned.Validate())

	wed := cleaned[2]
	assert.Equal(t, series[2].Date, wed.Date)
	assert.InDelta(t, (series[1].Close+series[3].Close)/2, wed.Close, 1e-9)
	assert.InDelta(t, (series[1].Open+series[3].Open)/2, wed.Open, 1e-9)
	assert.Equal(t, (series[1].Volume+series[3].Volume)/2, wed.Volume)
}

func TestCleanInterpolatesAcrossWeekend(t *testing.T) {
	series := tradingDays(monday, 7) // Mon..Fri, Mon, Tue
	// Drop the second Monday: Fri -> Tue is one missing trading day
	withGap := append(append(domain.PriceSeries{}, series[:5]...), series[6])

	cleaned, gaps := Clean(withGap)
	assert.Equal(t, 1, gaps)
	require.Len(t, cleaned, 7)
	assert.Equal(t, series[5].Date, cleaned[5].Date)
}

func TestCleanLeavesLongGapsAlone(t *testing.T) {
	series := tradingDays(monday, 10)
	// Remove three consecutive trading days - too wide to interpolate
	withGap := append(append(domain.PriceSeries{}, series[:3]...), series[6:]...)

	cleaned, gaps := Clean(withGap)
	assert.Equal(t, 0, gaps)
	assert.Len(t, cleaned, 7)
}

func TestCleanEmptySeries(t *testing.T) {
	cleaned, gaps := Clean(nil)
	assert.Equal(t, 0, gaps)
	assert.Empty(t, cleaned)
}

// Six months of VALE3-like data: a 126-trading-day range where two
// isolated days are missing comes back as a full 126-row series with
// the gap closes interpolated between their neighbors.
func TestCleanSixMonthScenario(t *testing.T) {
	full := tradingDays(monday, 126)

	// Drop two isolated, non-adjacent days
	gapped := make(domain.PriceSeries, 0, 124)
	for i, b := range full {
		if i == 40 || i == 80 {
			continue
		}
		gapped = append(gapped, b)
	}

	cleaned, gaps := Clean(gapped)
	assert.Equal(t, 2, gaps)
	require.Len(t, cleaned, 126)
	assert.NoError(t, cleaned.Validate())

	assert.Equal(t, full[40].Date, cleaned[40].Date)
	assert.InDelta(t, (full[39].Close+full[41].Close)/2, cleaned[40].Close, 1e-9)
	assert.Equal(t, full[80].Date, cleaned[80].Date)
	assert.InDelta(t, (full[79].Close+full[81].Close)/2, cleaned[80].Close, 1e-9)
}
