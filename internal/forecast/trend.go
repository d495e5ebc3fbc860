package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rmoura/toptenb3/internal/domain"
)

// trendModel fits a linear trend plus day-of-week seasonality by least
// squares. The design matrix is [intercept, t, mon..thu dummies] with
// Friday as the baseline; trading-day positions stand in for calendar
// dates, so "day of week" here is position mod 5.
type trendModel struct {
	minWindow int
}

// newTrendModel needs at least six weeks of trading days so every
// seasonal dummy is observed several times.
func newTrendModel() *trendModel {
	return &trendModel{minWindow: 30}
}

func (m *trendModel) Name() domain.ForecastModel { return domain.ModelTrend }
func (m *trendModel) MinWindow() int             { return m.minWindow }

// seasonalPeriod is the length of one trading week.
const seasonalPeriod = 5

// trendFeatures is the number of regression coefficients:
// intercept + slope + (seasonalPeriod - 1) dummies.
const trendFeatures = 2 + seasonalPeriod - 1

func (m *trendModel) Predict(closes []float64, horizon int) ([]float64, []float64, error) {
	n := len(closes)

	x := mat.NewDense(n, trendFeatures, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(i))
		setSeasonalDummies(x, i, i)
		y.Set(i, 0, closes[i])
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return nil, nil, fmt.Errorf("trend fit failed: %w", err)
	}

	// In-sample residual standard deviation drives the interval width.
	residuals := make([]float64, n)
	for i := 0; i < n; i++ {
		residuals[i] = closes[i] - predictRow(&beta, i, i)
	}
	sigma := stat.StdDev(residuals, nil)

	values := make([]float64, horizon)
	stderrs := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		pos := n - 1 + h
		values[h-1] = predictRow(&beta, pos, pos)
		stderrs[h-1] = sigma * math.Sqrt(float64(h))
	}
	return values, stderrs, nil
}

// setSeasonalDummies fills the day-of-week dummy columns for a row.
func setSeasonalDummies(x *mat.Dense, row, pos int) {
	for d := 0; d < seasonalPeriod-1; d++ {
		v := 0.0
		if pos%seasonalPeriod == d {
			v = 1.0
		}
		x.Set(row, 2+d, v)
	}
}

// predictRow evaluates the fitted regression at a trading-day position.
func predictRow(beta *mat.Dense, _ int, pos int) float64 {
	v := beta.At(0, 0) + beta.At(1, 0)*float64(pos)
	if d := pos % seasonalPeriod; d < seasonalPeriod-1 {
		v += beta.At(2+d, 0)
	}
	return v
}
