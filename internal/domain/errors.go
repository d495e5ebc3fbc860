package domain

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable means the provider has no data for a symbol and no
// usable cache fallback exists. This is the only fetch-side error that
// reaches the end user.
var ErrDataUnavailable = errors.New("data unavailable")

// ErrInsufficientData means a forecast was requested on a series shorter
// than the model's minimum window. Deterministic, never retried.
var ErrInsufficientData = errors.New("insufficient data")

// DataUnavailableError wraps ErrDataUnavailable with the symbol and the
// underlying cause so handlers can name the failing symbol.
type DataUnavailableError struct {
	Symbol string
	Cause  error
}

func (e *DataUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no data available for %s: %v", e.Symbol, e.Cause)
	}
	return fmt.Sprintf("no data available for %s", e.Symbol)
}

func (e *DataUnavailableError) Unwrap() error { return ErrDataUnavailable }

// InsufficientDataError wraps ErrInsufficientData with the observed and
// required series lengths.
type InsufficientDataError struct {
	Symbol   string
	Model    ForecastModel
	Got      int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s model %s: have %d bars, need %d",
		e.Symbol, e.Model, e.Got, e.Required)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }
