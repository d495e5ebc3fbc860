// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rmoura/toptenb3/internal/domain"
)

// Config holds application configuration
type Config struct {
	CacheDir string // Directory for columnar price cache files (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Tracked B3 assets, in display order
	Assets []domain.Asset

	// Cache entries older than this are stale and trigger a refetch
	FreshnessWindow time.Duration

	// Market data provider settings
	ProviderBaseURL string
	ProviderTimeout time.Duration
	MaxRetries      int
	RetryDelay      time.Duration

	// Forecast horizon bounds, in trading days
	HorizonMin     int
	HorizonDefault int
	HorizonMax     int
}

// defaultAssets is the default Ibovespa top-ten watchlist.
// Symbols are bare B3 tickers; the provider suffix (".SA") is a
// fetcher concern, not a configuration concern.
var defaultAssets = []domain.Asset{
	{Symbol: "VALE3", Name: "Vale"},
	{Symbol: "PETR4", Name: "Petrobras"},
	{Symbol: "ITUB4", Name: "Itaú Unibanco"},
	{Symbol: "BBDC4", Name: "Bradesco"},
	{Symbol: "ABEV3", Name: "Ambev"},
	{Symbol: "MGLU3", Name: "Magazine Luiza"},
	{Symbol: "WEGE3", Name: "WEG"},
	{Symbol: "RENT3", Name: "Localiza"},
	{Symbol: "LREN3", Name: "Lojas Renner"},
	{Symbol: "GGBR4", Name: "Gerdau"},
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cacheDir := getEnv("TOPTEN_CACHE_DIR", "cache")

	// Always resolve to absolute path
	absCacheDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absCacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cfg := &Config{
		CacheDir: absCacheDir,
		Port:     getEnvAsInt("TOPTEN_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		Assets: parseAssets(getEnv("TOPTEN_ASSETS", "")),

		FreshnessWindow: getEnvAsDuration("TOPTEN_CACHE_MAX_AGE", 24*time.Hour),

		ProviderBaseURL: getEnv("TOPTEN_PROVIDER_URL", "https://query1.finance.yahoo.com"),
		ProviderTimeout: getEnvAsDuration("TOPTEN_PROVIDER_TIMEOUT", 30*time.Second),
		MaxRetries:      getEnvAsInt("TOPTEN_MAX_RETRIES", 3),
		RetryDelay:      getEnvAsDuration("TOPTEN_RETRY_DELAY", time.Second),

		HorizonMin:     getEnvAsInt("TOPTEN_HORIZON_MIN", 5),
		HorizonDefault: getEnvAsInt("TOPTEN_HORIZON_DEFAULT", 30),
		HorizonMax:     getEnvAsInt("TOPTEN_HORIZON_MAX", 90),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if len(c.Assets) == 0 {
		return fmt.Errorf("no tracked assets configured")
	}
	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("freshness window must be positive, got %s", c.FreshnessWindow)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.HorizonMin < 1 || c.HorizonMin > c.HorizonMax {
		return fmt.Errorf("invalid horizon bounds [%d, %d]", c.HorizonMin, c.HorizonMax)
	}
	if c.HorizonDefault < c.HorizonMin || c.HorizonDefault > c.HorizonMax {
		return fmt.Errorf("default horizon %d outside bounds [%d, %d]", c.HorizonDefault, c.HorizonMin, c.HorizonMax)
	}
	return nil
}

// Asset returns the configured asset for a symbol, if tracked.
func (c *Config) Asset(symbol string) (domain.Asset, bool) {
	for _, a := range c.Assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return domain.Asset{}, false
}

// parseAssets parses a "SYMBOL:Name,SYMBOL:Name" override string.
// An empty or malformed value falls back to the default watchlist.
func parseAssets(raw string) []domain.Asset {
	if raw == "" {
		return defaultAssets
	}

	var assets []domain.Asset
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		symbol, name, found := strings.Cut(entry, ":")
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		if !found || strings.TrimSpace(name) == "" {
			name = symbol
		}
		assets = append(assets, domain.Asset{Symbol: symbol, Name: strings.TrimSpace(name)})
	}

	if len(assets) == 0 {
		return defaultAssets
	}
	return assets
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
