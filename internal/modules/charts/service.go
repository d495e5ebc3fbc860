// Package charts shapes cleaned price series into chart payloads.
// This is pure presentation shaping - no cleaning, caching, or network
// calls happen here.
package charts

import (
	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/rmoura/toptenb3/internal/domain"
	"github.com/rmoura/toptenb3/internal/loader"
)

// dateFormat is the time axis format expected by the frontend.
const dateFormat = "2006-01-02"

// ChartDataPoint represents a single point on a chart
type ChartDataPoint struct {
	Time  string  `json:"time"` // YYYY-MM-DD
	Value float64 `json:"value"`
}

// Candle represents one candlestick
type Candle struct {
	Time  string  `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// VolumeBar represents one volume bar
type VolumeBar struct {
	Time   string `json:"time"`
	Volume int64  `json:"volume"`
}

// Payload is everything the dashboard needs to render one symbol:
// line, candlestick and volume charts plus indicator overlays.
type Payload struct {
	Symbol   string                      `json:"symbol"`
	Period   string                      `json:"period"`
	Status   domain.LoadStatus           `json:"status"`
	Warning  string                      `json:"warning,omitempty"`
	Line     []ChartDataPoint            `json:"line"`
	Candles  []Candle                    `json:"candles"`
	Volume   []VolumeBar                 `json:"volume"`
	Overlays map[string][]ChartDataPoint `json:"overlays"`
}

// Indicator overlay periods
const (
	smaShortPeriod = 20
	smaLongPeriod  = 50
	emaPeriod      = 20
	rsiPeriod      = 14
)

// Service provides chart data operations
type Service struct {
	log zerolog.Logger
}

// NewService creates a new charts service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "charts").Logger(),
	}
}

// Build shapes a load result into a chart payload.
func (s *Service) Build(result *loader.Result) *Payload {
	series := result.Series

	payload := &Payload{
		Symbol:   result.Symbol,
		Period:   result.Period,
		Status:   result.Status,
		Warning:  result.Warning,
		Line:     make([]ChartDataPoint, 0, len(series)),
		Candles:  make([]Candle, 0, len(series)),
		Volume:   make([]VolumeBar, 0, len(series)),
		Overlays: make(map[string][]ChartDataPoint),
	}

	for _, b := range series {
		t := b.Date.Format(dateFormat)
		payload.Line = append(payload.Line, ChartDataPoint{Time: t, Value: b.Close})
		payload.Candles = append(payload.Candles, Candle{
			Time: t, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
		})
		payload.Volume = append(payload.Volume, VolumeBar{Time: t, Volume: b.Volume})
	}

	// talib reads a full window up front, so each overlay is computed
	// only when the series covers its own window. A short period like
	// 1mo gets the short indicators and no sma50.
	closes := series.Closes()
	if len(closes) >= smaShortPeriod {
		payload.Overlays["sma20"] = s.overlay(series, talib.Sma(closes, smaShortPeriod), smaShortPeriod)
	}
	if len(closes) >= smaLongPeriod {
		payload.Overlays["sma50"] = s.overlay(series, talib.Sma(closes, smaLongPeriod), smaLongPeriod)
	}
	if len(closes) >= emaPeriod {
		payload.Overlays["ema20"] = s.overlay(series, talib.Ema(closes, emaPeriod), emaPeriod)
	}
	if len(closes) >= rsiPeriod+1 {
		payload.Overlays["rsi14"] = s.overlay(series, talib.Rsi(closes, rsiPeriod), rsiPeriod+1)
	}

	return payload
}

// overlay converts a talib output into chart points, skipping the
// zero-filled lead-in before the indicator has a full window. Series
// shorter than the window produce an empty overlay.
func (s *Service) overlay(series domain.PriceSeries, values []float64, leadIn int) []ChartDataPoint {
	if len(series) < leadIn {
		return []ChartDataPoint{}
	}

	points := make([]ChartDataPoint, 0, len(series)-leadIn+1)
	for i := leadIn - 1; i < len(series); i++ {
		points = append(points, ChartDataPoint{
			Time:  series[i].Date.Format(dateFormat),
			Value: values[i],
		})
	}
	return points
}
