// Package loader orchestrates historical price loading: cache lookup,
// provider fetch, cleaning, and the stale-cache fallback policy.
package loader

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmoura/toptenb3/internal/domain"
)

// MarketSource fetches historical bars from an external provider.
// Implemented by clients/yahoo; tests substitute a deterministic fake.
type MarketSource interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
}

// Cache persists price series keyed by (symbol, period).
// Implemented by pricecache.Store.
type Cache interface {
	Get(symbol, period string) (*domain.CacheEntry, error)
	Put(symbol, period string, series domain.PriceSeries, fetchedAt time.Time) error
}

// Result is a successful load. Status distinguishes fresh-cache hits,
// live fetches, and degraded loads served from stale cache.
type Result struct {
	Symbol    string             `json:"symbol"`
	Period    string             `json:"period"`
	Status    domain.LoadStatus  `json:"status"`
	FetchedAt time.Time          `json:"fetched_at"`
	Series    domain.PriceSeries `json:"series"`
	Warning   string             `json:"warning,omitempty"`
}

// Service loads price series for tracked symbols
type Service struct {
	source    MarketSource
	cache     Cache
	freshness time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a loader service. freshness is the maximum cache
// entry age before a refetch is triggered.
func NewService(source MarketSource, cache Cache, freshness time.Duration, log zerolog.Logger) *Service {
	return &Service{
		source:    source,
		cache:     cache,
		freshness: freshness,
		log:       log.With().Str("service", "loader").Logger(),
		now:       time.Now,
	}
}

// Load returns the price series for (symbol, period).
//
// Within one call the load moves NoData -> Fetching -> one of
// {Cached, Degraded, Failed}; Fetching is never re-entered. A fresh
// cache entry short-circuits before Fetching. On a fetch failure a
// stale entry is served as a degraded result rather than failing the
// request; only fetch failures with no cached fallback surface as
// DataUnavailable.
func (s *Service) Load(ctx context.Context, symbol, period string) (*Result, error) {
	return s.load(ctx, symbol, period, false)
}

// Refresh behaves like Load but skips the fresh-cache check, forcing a
// provider fetch. The degraded fallback still applies.
func (s *Service) Refresh(ctx context.Context, symbol, period string) (*Result, error) {
	return s.load(ctx, symbol, period, true)
}

func (s *Service) load(ctx context.Context, symbol, period string, forceRefresh bool) (*Result, error) {
	if _, _, err := PeriodRange(period, s.now()); err != nil {
		return nil, err
	}

	entry, err := s.cache.Get(symbol, period)
	if err != nil {
		// The store treats corruption as a miss, so this is an I/O
		// level problem. Recover as a miss anyway - cache trouble
		// must never fail a load on its own.
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Cache lookup failed, treating as miss")
		entry = nil
	}

	now := s.now()
	if entry != nil && !forceRefresh && entry.IsFresh(now, s.freshness) {
		s.log.Debug().
			Str("symbol", symbol).
			Str("period", period).
			Dur("age", entry.Age(now)).
			Msg("Serving fresh cache entry")
		return &Result{
			Symbol:    symbol,
			Period:    period,
			Status:    domain.LoadStatusFresh,
			FetchedAt: entry.FetchedAt,
			Series:    entry.Series,
		}, nil
	}

	start, end, _ := PeriodRange(period, now)
	raw, fetchErr := s.source.Fetch(ctx, symbol, start, end)
	if fetchErr != nil {
		if entry != nil {
			// Stale data beats no data. Surface the condition as a
			// warning so the UI can flag it, but the load succeeds.
			s.log.Warn().
				Err(fetchErr).
				Str("symbol", symbol).
				Str("period", period).
				Dur("age", entry.Age(now)).
				Msg("Fetch failed, serving stale cache entry")
			return &Result{
				Symbol:    symbol,
				Period:    period,
				Status:    domain.LoadStatusDegraded,
				FetchedAt: entry.FetchedAt,
				Series:    entry.Series,
				Warning:   "live data unavailable, showing cached data from " + entry.FetchedAt.Format("2006-01-02 15:04"),
			}, nil
		}
		s.log.Error().
			Err(fetchErr).
			Str("symbol", symbol).
			Str("period", period).
			Msg("Fetch failed with no cache fallback")
		return nil, fetchErr
	}

	// A partial range (provider returned fewer days than requested) is
	// cleaned and cached as-is; the freshness window governs when it
	// gets another chance to complete.
	series, gaps := Clean(raw)
	if gaps > 0 {
		s.log.Info().
			Str("symbol", symbol).
			Int("interpolated", gaps).
			Msg("Filled isolated gaps in fetched series")
	}

	if err := s.cache.Put(symbol, period, series, now); err != nil {
		// A failed cache write degrades the next request, not this one.
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to write cache entry")
	}

	return &Result{
		Symbol:    symbol,
		Period:    period,
		Status:    domain.LoadStatusFetched,
		FetchedAt: now,
		Series:    series,
	}, nil
}
