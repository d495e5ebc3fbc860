package pricecache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoura/toptenb3/internal/domain"
)

func testSeries() domain.PriceSeries {
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	return domain.PriceSeries{
		{Date: base, Open: 61.0, High: 62.5, Low: 60.8, Close: 62.1, Volume: 18_500_000},
		{Date: base.AddDate(0, 0, 1), Open: 62.1, High: 63.0, Low: 61.9, Close: 62.7, Volume: 21_300_000},
		{Date: base.AddDate(0, 0, 2), Open: 62.7, High: 62.9, Low: 61.5, Close: 61.8, Volume: 16_900_000},
	}
}

func TestRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())

	series := testSeries()
	fetchedAt := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	require.NoError(t, store.Put("VALE3", "6mo", series, fetchedAt))

	entry, err := store.Get("VALE3", "6mo")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, "VALE3", entry.Symbol)
	assert.Equal(t, "6mo", entry.Period)
	assert.Equal(t, fetchedAt, entry.FetchedAt)
	require.Len(t, entry.Series, len(series))
	for i, b := range series {
		got := entry.Series[i]
		assert.Equal(t, b.Date, got.Date)
		assert.InDelta(t, b.Open, got.Open, 1e-9)
		assert.InDelta(t, b.High, got.High, 1e-9)
		assert.InDelta(t, b.Low, got.Low, 1e-9)
		assert.InDelta(t, b.Close, got.Close, 1e-9)
		assert.Equal(t, b.Volume, got.Volume)
	}
}

func TestGetMissingIsNil(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())

	entry, err := store.Get("VALE3", "6mo")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestGetIsCaseInsensitive(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, store.Put("vale3", "6mo", testSeries(), time.Now()))

	entry, err := store.Get("VALE3", "6mo")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "VALE3", entry.Symbol)
}

func TestCorruptFileIsAMiss(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())

	path := filepath.Join(dir, "VALE3_6mo.mpk")
	require.NoError(t, os.WriteFile(path, []byte("not msgpack at all"), 0644))

	entry, err := store.Get("VALE3", "6mo")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestTruncatedFileIsAMiss(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())

	require.NoError(t, store.Put("VALE3", "6mo", testSeries(), time.Now()))

	path := filepath.Join(dir, "VALE3_6mo.mpk")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)/2], 0644))

	entry, err := store.Get("VALE3", "6mo")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPutOverwrites(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())

	require.NoError(t, store.Put("VALE3", "6mo", testSeries(), time.Now()))
	require.NoError(t, store.Put("VALE3", "6mo", testSeries()[:1], time.Now()))

	entry, err := store.Get("VALE3", "6mo")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Len(t, entry.Series, 1)
}

func TestKeysAreIndependent(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())

	require.NoError(t, store.Put("VALE3", "6mo", testSeries(), time.Now()))
	require.NoError(t, store.Put("VALE3", "1y", testSeries()[:2], time.Now()))
	require.NoError(t, store.Put("PETR4", "6mo", testSeries()[:1], time.Now()))

	entry, err := store.Get("VALE3", "1y")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Len(t, entry.Series, 2)
}

func TestDeleteAndClear(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())

	require.NoError(t, store.Put("VALE3", "6mo", testSeries(), time.Now()))
	require.NoError(t, store.Put("PETR4", "6mo", testSeries(), time.Now()))

	require.NoError(t, store.Delete("VALE3", "6mo"))
	entry, err := store.Get("VALE3", "6mo")
	require.NoError(t, err)
	assert.Nil(t, entry)

	// Deleting a missing entry is not an error
	require.NoError(t, store.Delete("VALE3", "6mo"))

	require.NoError(t, store.Clear())
	entry, err = store.Get("PETR4", "6mo")
	require.NoError(t, err)
	assert.Nil(t, entry)
}
