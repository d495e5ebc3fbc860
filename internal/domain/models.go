// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"time"
)

// Asset represents one tracked B3 equity
type Asset struct {
	Symbol string `json:"symbol"` // B3 ticker (e.g., "VALE3")
	Name   string `json:"name"`   // Display name (e.g., "Vale")
}

// Bar represents one trading day's OHLCV record
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is an ordered sequence of daily bars.
// After cleaning, dates are strictly increasing with no duplicates.
// Series are treated as immutable once handed to a caller.
type PriceSeries []Bar

// Validate checks the series invariant: strictly increasing,
// duplicate-free dates.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		prev := s[i-1].Date
		cur := s[i].Date
		if !cur.After(prev) {
			return fmt.Errorf("series not strictly increasing at index %d: %s >= %s",
				i, prev.Format("2006-01-02"), cur.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes returns the close column as a slice.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// First returns the earliest bar, or false for an empty series.
func (s PriceSeries) First() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[0], true
}

// Last returns the most recent bar, or false for an empty series.
func (s PriceSeries) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// CacheEntry is one cached price series, keyed by (symbol, period).
// Entries are overwritten on refresh, never merged.
type CacheEntry struct {
	Symbol    string      `json:"symbol"`
	Period    string      `json:"period"`
	FetchedAt time.Time   `json:"fetched_at"`
	Series    PriceSeries `json:"series"`
}

// Age returns how long ago the entry was fetched.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// IsFresh reports whether the entry is younger than the freshness window.
// Staleness never deletes an entry, it only signals the loader to refetch.
func (e *CacheEntry) IsFresh(now time.Time, window time.Duration) bool {
	return e.Age(now) < window
}

// ForecastModel identifies one of the supported forecasting models
type ForecastModel string

const (
	// ModelTrend fits a linear trend with day-of-week seasonality
	ModelTrend ForecastModel = "trend"
	// ModelARIMA fits an autoregressive model on the differenced series
	ModelARIMA ForecastModel = "arima"
)

// ParseForecastModel validates a model tag from user input.
func ParseForecastModel(s string) (ForecastModel, error) {
	switch ForecastModel(s) {
	case ModelTrend:
		return ModelTrend, nil
	case ModelARIMA:
		return ModelARIMA, nil
	default:
		return "", fmt.Errorf("unknown forecast model %q", s)
	}
}

// ForecastPoint is one forecast step: point estimate plus a 95% interval
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// ForecastResult holds a point forecast with confidence bounds for a
// configurable horizon. Results are consumed once by the presentation
// layer and never persisted.
type ForecastResult struct {
	ID      string          `json:"id"` // unique per request, lets the UI correlate runs
	Symbol  string          `json:"symbol"`
	Model   ForecastModel   `json:"model"`
	Horizon int             `json:"horizon"` // trading days
	Points  []ForecastPoint `json:"points"`
}

// LoadStatus describes how a load request was satisfied
type LoadStatus string

const (
	// LoadStatusFresh means the series came from a fresh cache entry
	LoadStatusFresh LoadStatus = "fresh"
	// LoadStatusFetched means the series came from a live provider fetch
	LoadStatusFetched LoadStatus = "fetched"
	// LoadStatusDegraded means the fetch failed and a stale cache entry
	// was served instead. A degraded load is a success with a warning,
	// not a failure.
	LoadStatusDegraded LoadStatus = "degraded"
)
