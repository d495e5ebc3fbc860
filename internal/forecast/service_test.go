package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoura/toptenb3/internal/domain"
)

var testBounds = Bounds{Min: 5, Default: 30, Max: 90}

// linearSeries builds n weekdays with a steady upward close plus a
// small deterministic wiggle so residuals are nonzero.
func linearSeries(n int) domain.PriceSeries {
	series := make(domain.PriceSeries, 0, n)
	d := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	price := 50.0
	for len(series) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			c := price + 0.3*math.Sin(float64(len(series)))
			series = append(series, domain.Bar{
				Date: d, Open: c, High: c + 0.5, Low: c - 0.5,
				Close: c, Volume: 1_000_000,
			})
			price += 0.5
		}
		d = d.AddDate(0, 0, 1)
	}
	return series
}

func TestForecastInsufficientDataBothModels(t *testing.T) {
	svc := NewService(testBounds, zerolog.Nop())
	short := linearSeries(10)

	for _, model := range []domain.ForecastModel{domain.ModelTrend, domain.ModelARIMA} {
		_, err := svc.Forecast("VALE3", short, model, 30)
		require.Error(t, err, "model %s", model)
		assert.True(t, errors.Is(err, domain.ErrInsufficientData), "model %s", model)

		var insuffErr *domain.InsufficientDataError
		require.True(t, errors.As(err, &insuffErr))
		assert.Equal(t, "VALE3", insuffErr.Symbol)
		assert.Equal(t, 10, insuffErr.Got)
	}
}

func TestForecastUnknownModel(t *testing.T) {
	svc := NewService(testBounds, zerolog.Nop())
	_, err := svc.Forecast("VALE3", linearSeries(60), domain.ForecastModel("prophet"), 30)
	assert.Error(t, err)
}

func TestForecastHorizonClamping(t *testing.T) {
	svc := NewService(testBounds, zerolog.Nop())
	series := linearSeries(60)

	result, err := svc.Forecast("VALE3", series, domain.ModelTrend, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Horizon) // default

	result, err = svc.Forecast("VALE3", series, domain.ModelTrend, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Horizon) // clamped to min

	result, err = svc.Forecast("VALE3", series, domain.ModelTrend, 500)
	require.NoError(t, err)
	assert.Equal(t, 90, result.Horizon) // clamped to max
	assert.Len(t, result.Points, 90)
}

func TestForecastResultShape(t *testing.T) {
	svc := NewService(testBounds, zerolog.Nop())
	series := linearSeries(60)

	for _, model := range []domain.ForecastModel{domain.ModelTrend, domain.ModelARIMA} {
		result, err := svc.Forecast("VALE3", series, model, 10)
		require.NoError(t, err, "model %s", model)

		assert.NotEmpty(t, result.ID)
		assert.Equal(t, "VALE3", result.Symbol)
		assert.Equal(t, model, result.Model)
		require.Len(t, result.Points, 10)

		last, _ := series.Last()
		prev := last.Date
		for i, p := range result.Points {
			assert.True(t, p.Date.After(prev), "model %s point %d not after previous", model, i)
			assert.NotEqual(t, time.Saturday, p.Date.Weekday())
			assert.NotEqual(t, time.Sunday, p.Date.Weekday())
			assert.LessOrEqual(t, p.Lower, p.Value, "model %s point %d", model, i)
			assert.GreaterOrEqual(t, p.Upper, p.Value, "model %s point %d", model, i)
			prev = p.Date
		}

		// Intervals widen with the horizon
		first := result.Points[0]
		final := result.Points[len(result.Points)-1]
		assert.Greater(t, final.Upper-final.Lower, first.Upper-first.Lower, "model %s", model)
	}
}

func TestTrendModelFollowsLinearSeries(t *testing.T) {
	svc := NewService(testBounds, zerolog.Nop())
	series := linearSeries(120)
	last, _ := series.Last()

	result, err := svc.Forecast("VALE3", series, domain.ModelTrend, 10)
	require.NoError(t, err)

	// A clean 0.5/day uptrend should keep climbing at roughly that rate
	assert.Greater(t, result.Points[0].Value, last.Close)
	expected := last.Close + 10*0.5
	assert.InDelta(t, expected, result.Points[9].Value, 1.0)
}

func TestARIMAModelFollowsLinearSeries(t *testing.T) {
	svc := NewService(testBounds, zerolog.Nop())
	series := linearSeries(120)
	last, _ := series.Last()

	result, err := svc.Forecast("VALE3", series, domain.ModelARIMA, 10)
	require.NoError(t, err)

	// Differencing turns the trend into a constant drift; forecasts
	// should continue upward from the last close
	assert.Greater(t, result.Points[0].Value, last.Close)
	assert.Greater(t, result.Points[9].Value, result.Points[0].Value)
}

func TestARIMAModelOnFlatSeries(t *testing.T) {
	svc := NewService(testBounds, zerolog.Nop())

	series := make(domain.PriceSeries, 0, 40)
	d := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for len(series) < 40 {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			series = append(series, domain.Bar{Date: d, Open: 50, High: 50, Low: 50, Close: 50, Volume: 1})
		}
		d = d.AddDate(0, 0, 1)
	}

	result, err := svc.Forecast("VALE3", series, domain.ModelARIMA, 5)
	require.NoError(t, err)
	for _, p := range result.Points {
		assert.InDelta(t, 50.0, p.Value, 1e-6)
	}
}

func TestChooseDifferencing(t *testing.T) {
	// A strong linear trend wants at least one difference
	trend := make([]float64, 100)
	for i := range trend {
		trend[i] = float64(i) * 2
	}
	_, d := chooseDifferencing(trend)
	assert.GreaterOrEqual(t, d, 1)

	// White-noise-like alternation should not be differenced
	noise := make([]float64, 100)
	for i := range noise {
		if i%2 == 0 {
			noise[i] = 1
		}
	}
	_, d = chooseDifferencing(noise)
	assert.Equal(t, 0, d)
}
