// Package yahoo provides a Yahoo Finance client for historical B3 price data.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmoura/toptenb3/internal/domain"
)

// Client for the Yahoo Finance chart API
type Client struct {
	baseURL    string
	client     *http.Client
	log        zerolog.Logger
	maxRetries int
	retryDelay time.Duration
}

// Config holds Yahoo client settings
type Config struct {
	BaseURL    string        // e.g. "https://query1.finance.yahoo.com"; tests point this at httptest
	Timeout    time.Duration // per-request HTTP timeout
	MaxRetries int           // total fetch attempts before giving up
	RetryDelay time.Duration // base delay between attempts (grows linearly)
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: cfg.Timeout},
		log:        log.With().Str("client", "yahoo").Logger(),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// chartResponse is the response structure from the Yahoo chart API.
// Quote fields arrive as interface{} because Yahoo fills holidays and
// suspended sessions with JSON nulls.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooTicker maps a B3 symbol to Yahoo's ticker format.
// B3 equities trade under the ".SA" (São Paulo) suffix.
func yahooTicker(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if strings.HasSuffix(symbol, ".SA") {
		return symbol
	}
	return symbol + ".SA"
}

// Fetch retrieves daily bars for symbol over [start, end], normalized
// into the canonical series schema. Transient failures are retried with
// linear backoff; after the last attempt the error is wrapped as
// DataUnavailable so callers can decide on a cache fallback. A symbol
// that resolves to zero rows is also DataUnavailable - stale or
// synthetic data is never substituted here.
func (c *Client) Fetch(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		series, err := c.fetchChart(ctx, symbol, start, end)
		if err == nil {
			c.log.Info().
				Str("symbol", symbol).
				Int("bars", len(series)).
				Int("attempt", attempt).
				Msg("Fetched historical data")
			return series, nil
		}

		lastErr = err
		c.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Int("attempt", attempt).
			Int("max_attempts", c.maxRetries).
			Msg("Fetch attempt failed")

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return nil, &domain.DataUnavailableError{Symbol: symbol, Cause: ctx.Err()}
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}
	}

	return nil, &domain.DataUnavailableError{Symbol: symbol, Cause: lastErr}
}

// fetchChart performs one chart API request.
func (c *Client) fetchChart(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		c.baseURL, url.PathEscape(yahooTicker(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	// Yahoo rejects requests without a browser-like User-Agent
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart API returned status %d", resp.StatusCode)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("no rows returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data returned")
	}
	quote := result.Indicators.Quote[0]

	series := make(domain.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := toFloat(at(quote.Open, i))
		h := toFloat(at(quote.High, i))
		l := toFloat(at(quote.Low, i))
		cl := toFloat(at(quote.Close, i))
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			// Null bar (holiday or suspended session). Skipping it
			// leaves a gap for the loader's interpolation step.
			continue
		}
		series = append(series, domain.Bar{
			Date:   dateOf(time.Unix(ts, 0).UTC()),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: int64(toFloat(at(quote.Volume, i))),
		})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("all rows were null")
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

// at safely indexes a quote column that may be shorter than timestamps.
func at(col []interface{}, i int) interface{} {
	if i >= len(col) {
		return nil
	}
	return col[i]
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// dateOf truncates a timestamp to UTC midnight. Yahoo stamps daily bars
// with the exchange session open, which is irrelevant for daily data.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
