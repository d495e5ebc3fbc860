// Package pricecache provides persistent caching of historical price
// series. Each (symbol, period) pair maps to one columnar file on disk,
// stale data is kept around as a fallback for failed fetches.
package pricecache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rmoura/toptenb3/internal/domain"
)

// fileExt is the extension for cache files.
const fileExt = ".mpk"

// columnarEntry is the on-disk layout: the canonical PriceSeries columns
// stored as parallel slices plus the fetch timestamp. Dates are unix
// seconds at UTC midnight.
type columnarEntry struct {
	Symbol    string    `msgpack:"symbol"`
	Period    string    `msgpack:"period"`
	FetchedAt int64     `msgpack:"fetched_at"`
	Dates     []int64   `msgpack:"dates"`
	Opens     []float64 `msgpack:"opens"`
	Highs     []float64 `msgpack:"highs"`
	Lows      []float64 `msgpack:"lows"`
	Closes    []float64 `msgpack:"closes"`
	Volumes   []int64   `msgpack:"volumes"`
}

// Store provides cache operations for price series.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates a price cache store rooted at dir.
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{
		dir: dir,
		log: log.With().Str("store", "pricecache").Logger(),
	}
}

// path builds the cache file path for a (symbol, period) key.
// Symbols are upper-cased so keys are case-insensitive on disk.
func (s *Store) path(symbol, period string) string {
	name := fmt.Sprintf("%s_%s%s", strings.ToUpper(symbol), period, fileExt)
	return filepath.Join(s.dir, name)
}

// Get returns the cached entry for (symbol, period) regardless of age.
// Returns (nil, nil) when no entry exists. A corrupt or unreadable file
// is treated as a miss, never as a fatal error - stale or broken cache
// data must not take the dashboard down.
func (s *Store) Get(symbol, period string) (*domain.CacheEntry, error) {
	path := s.path(symbol, period)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		s.log.Debug().Err(err).Str("path", path).Msg("Cache file unreadable, treating as miss")
		return nil, nil
	}

	var col columnarEntry
	if err := msgpack.Unmarshal(raw, &col); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("Cache file corrupt, treating as miss")
		return nil, nil
	}

	entry, err := col.toEntry()
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("Cache file inconsistent, treating as miss")
		return nil, nil
	}
	return entry, nil
}

// Put writes a series for (symbol, period), overwriting any previous
// entry. The write is atomic (temp file + rename) so a crash mid-write
// leaves either the old entry or the new one, never a torn file.
func (s *Store) Put(symbol, period string, series domain.PriceSeries, fetchedAt time.Time) error {
	col := toColumnar(strings.ToUpper(symbol), period, series, fetchedAt)

	raw, err := msgpack.Marshal(col)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	path := s.path(symbol, period)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	s.log.Debug().
		Str("symbol", symbol).
		Str("period", period).
		Int("bars", len(series)).
		Msg("Cache entry written")
	return nil
}

// Delete removes the entry for (symbol, period). Missing entries are
// not an error.
func (s *Store) Delete(symbol, period string) error {
	err := os.Remove(s.path(symbol, period))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Clear removes every cache file in the store directory.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// toColumnar converts a series into the on-disk column layout.
func toColumnar(symbol, period string, series domain.PriceSeries, fetchedAt time.Time) columnarEntry {
	col := columnarEntry{
		Symbol:    symbol,
		Period:    period,
		FetchedAt: fetchedAt.Unix(),
		Dates:     make([]int64, len(series)),
		Opens:     make([]float64, len(series)),
		Highs:     make([]float64, len(series)),
		Lows:      make([]float64, len(series)),
		Closes:    make([]float64, len(series)),
		Volumes:   make([]int64, len(series)),
	}
	for i, b := range series {
		col.Dates[i] = b.Date.Unix()
		col.Opens[i] = b.Open
		col.Highs[i] = b.High
		col.Lows[i] = b.Low
		col.Closes[i] = b.Close
		col.Volumes[i] = b.Volume
	}
	return col
}

// toEntry converts the column layout back into a cache entry, checking
// that all columns have matching lengths.
func (c *columnarEntry) toEntry() (*domain.CacheEntry, error) {
	n := len(c.Dates)
	if len(c.Opens) != n || len(c.Highs) != n || len(c.Lows) != n ||
		len(c.Closes) != n || len(c.Volumes) != n {
		return nil, fmt.Errorf("column length mismatch: dates=%d opens=%d highs=%d lows=%d closes=%d volumes=%d",
			n, len(c.Opens), len(c.Highs), len(c.Lows), len(c.Closes), len(c.Volumes))
	}

	series := make(domain.PriceSeries, n)
	for i := 0; i < n; i++ {
		series[i] = domain.Bar{
			Date:   time.Unix(c.Dates[i], 0).UTC(),
			Open:   c.Opens[i],
			High:   c.Highs[i],
			Low:    c.Lows[i],
			Close:  c.Closes[i],
			Volume: c.Volumes[i],
		}
	}

	return &domain.CacheEntry{
		Symbol:    c.Symbol,
		Period:    c.Period,
		FetchedAt: time.Unix(c.FetchedAt, 0).UTC(),
		Series:    series,
	}, nil
}
