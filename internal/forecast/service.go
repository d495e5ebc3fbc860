// Package forecast adapts statistical forecasting models behind a single
// call signature. Models receive the canonical close series and produce
// point forecasts with 95% confidence intervals; everything else here is
// input shaping and output normalization.
package forecast

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rmoura/toptenb3/internal/domain"
)

// model is the capability each forecasting backend implements.
// Predict returns, for each of horizon steps, the point estimate and
// the standard error of that step.
type model interface {
	Name() domain.ForecastModel
	MinWindow() int
	Predict(closes []float64, horizon int) (values, stderrs []float64, err error)
}

// z95 is the two-sided 95% normal quantile used for interval bounds.
const z95 = 1.96

// Bounds clamps requested horizons, in trading days
type Bounds struct {
	Min     int
	Default int
	Max     int
}

// Clamp resolves a requested horizon against the bounds. Zero or
// negative means "use the default".
func (b Bounds) Clamp(horizon int) int {
	if horizon <= 0 {
		horizon = b.Default
	}
	if horizon < b.Min {
		return b.Min
	}
	if horizon > b.Max {
		return b.Max
	}
	return horizon
}

// Service provides forecasts over cleaned price series
type Service struct {
	models map[domain.ForecastModel]model
	bounds Bounds
	log    zerolog.Logger
}

// NewService creates a forecast service with both supported models
// registered. Adding a model means registering it here - callers only
// ever see the model tag.
func NewService(bounds Bounds, log zerolog.Logger) *Service {
	s := &Service{
		models: make(map[domain.ForecastModel]model),
		bounds: bounds,
		log:    log.With().Str("service", "forecast").Logger(),
	}
	s.register(newTrendModel())
	s.register(newARIMAModel())
	return s
}

func (s *Service) register(m model) {
	s.models[m.Name()] = m
}

// Forecast fits the tagged model on series and predicts horizonDays
// trading days past its end. Fails with InsufficientData when the
// series is shorter than the model's minimum window. Forecast errors
// are deterministic for a given input, so nothing here retries.
func (s *Service) Forecast(symbol string, series domain.PriceSeries, modelTag domain.ForecastModel, horizonDays int) (*domain.ForecastResult, error) {
	m, ok := s.models[modelTag]
	if !ok {
		_, err := domain.ParseForecastModel(string(modelTag))
		return nil, err
	}

	horizon := s.bounds.Clamp(horizonDays)

	if len(series) < m.MinWindow() {
		return nil, &domain.InsufficientDataError{
			Symbol:   symbol,
			Model:    modelTag,
			Got:      len(series),
			Required: m.MinWindow(),
		}
	}

	values, stderrs, err := m.Predict(series.Closes(), horizon)
	if err != nil {
		return nil, err
	}

	last, _ := series.Last()
	dates := futureTradingDays(last.Date, horizon)

	points := make([]domain.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		points[i] = domain.ForecastPoint{
			Date:  dates[i],
			Value: values[i],
			Lower: values[i] - z95*stderrs[i],
			Upper: values[i] + z95*stderrs[i],
		}
	}

	s.log.Debug().
		Str("symbol", symbol).
		Str("model", string(modelTag)).
		Int("horizon", horizon).
		Int("input_bars", len(series)).
		Msg("Forecast computed")

	return &domain.ForecastResult{
		ID:      uuid.New().String(),
		Symbol:  symbol,
		Model:   modelTag,
		Horizon: horizon,
		Points:  points,
	}, nil
}

// futureTradingDays returns the next n weekdays after start.
func futureTradingDays(start time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := start
	for len(days) < n {
		d = d.AddDate(0, 0, 1)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}
