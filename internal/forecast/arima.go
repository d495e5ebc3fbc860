package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rmoura/toptenb3/internal/domain"
)

// arimaModel fits an AR(1)-with-drift on a differenced series. The
// differencing order d is chosen in [0, maxDifferencing] by walking up
// while another difference still reduces variance materially, mirroring
// the usual stationarity walk.
type arimaModel struct {
	minWindow int
}

func newARIMAModel() *arimaModel {
	return &arimaModel{minWindow: 20}
}

func (m *arimaModel) Name() domain.ForecastModel { return domain.ModelARIMA }
func (m *arimaModel) MinWindow() int             { return m.minWindow }

const (
	maxDifferencing = 2
	// varianceGain is the minimum relative variance reduction that
	// justifies another differencing pass.
	varianceGain = 0.05
)

func (m *arimaModel) Predict(closes []float64, horizon int) ([]float64, []float64, error) {
	work, d := chooseDifferencing(closes)
	if len(work) < 3 {
		return nil, nil, fmt.Errorf("series too short after differencing order %d", d)
	}

	// AR(1) with drift: z_t = c + phi*z_{t-1} + e_t
	prev := work[:len(work)-1]
	cur := work[1:]

	varPrev := stat.Variance(prev, nil)
	var phi float64
	if varPrev > 0 {
		phi = stat.Covariance(prev, cur, nil) / varPrev
	}
	// Keep the recursion stable; near-unit roots explode the forecast.
	phi = clampF(phi, -0.99, 0.99)
	c := stat.Mean(cur, nil) - phi*stat.Mean(prev, nil)

	residuals := make([]float64, len(cur))
	for i := range cur {
		residuals[i] = cur[i] - (c + phi*prev[i])
	}
	sigma := stat.StdDev(residuals, nil)

	// Forecast in differenced space, then integrate back d times.
	z := work[len(work)-1]
	diffs := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		z = c + phi*z
		diffs[h] = z
	}

	values := integrate(closes, diffs, d)

	stderrs := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		stderrs[h-1] = sigma * math.Sqrt(float64(h))
	}
	return values, stderrs, nil
}

// chooseDifferencing walks d from 0 to maxDifferencing, differencing as
// long as it still shrinks the variance by more than varianceGain.
func chooseDifferencing(series []float64) ([]float64, int) {
	work := series
	d := 0
	for d < maxDifferencing {
		v := stat.Variance(work, nil)
		if v == 0 {
			break
		}
		next := difference(work)
		if stat.Variance(next, nil) >= v*(1-varianceGain) {
			break
		}
		work = next
		d++
	}
	return work, d
}

func difference(series []float64) []float64 {
	out := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		out[i-1] = series[i] - series[i-1]
	}
	return out
}

// integrate converts horizon forecasts in d-times-differenced space
// back to price levels, undoing one differencing level at a time by
// cumulative summation from that level's last observed value.
func integrate(closes, diffs []float64, d int) []float64 {
	out := make([]float64, len(diffs))
	copy(out, diffs)

	for k := d; k >= 1; k-- {
		work := closes
		for j := 0; j < k-1; j++ {
			work = difference(work)
		}
		last := work[len(work)-1]
		for i := range out {
			last += out[i]
			out[i] = last
		}
	}
	return out
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
