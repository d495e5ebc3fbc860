// Package main is the entry point for the TopTen B3 dashboard server.
// It serves historical price data for the ten tracked Ibovespa equities,
// cached on disk and fetched from Yahoo Finance, plus statistical price
// forecasts and an embedded web dashboard.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmoura/toptenb3/internal/clients/yahoo"
	"github.com/rmoura/toptenb3/internal/config"
	"github.com/rmoura/toptenb3/internal/forecast"
	"github.com/rmoura/toptenb3/internal/loader"
	"github.com/rmoura/toptenb3/internal/modules/charts"
	"github.com/rmoura/toptenb3/internal/pricecache"
	"github.com/rmoura/toptenb3/internal/server"
	"github.com/rmoura/toptenb3/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().
		Int("assets", len(cfg.Assets)).
		Str("cache_dir", cfg.CacheDir).
		Msg("Starting TopTen B3")

	// Wire services leaves-first: cache store, provider client, loader,
	// forecast adapter, chart shaping. All dependencies are passed by
	// reference - no ambient global state.
	store := pricecache.NewStore(cfg.CacheDir, log)

	yahooClient := yahoo.NewClient(yahoo.Config{
		BaseURL:    cfg.ProviderBaseURL,
		Timeout:    cfg.ProviderTimeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}, log)

	loaderSvc := loader.NewService(yahooClient, store, cfg.FreshnessWindow, log)

	forecastSvc := forecast.NewService(forecast.Bounds{
		Min:     cfg.HorizonMin,
		Default: cfg.HorizonDefault,
		Max:     cfg.HorizonMax,
	}, log)

	chartsSvc := charts.NewService(log)

	srv := server.New(server.Config{
		Log:      log,
		Config:   cfg,
		Loader:   loaderSvc,
		Forecast: forecastSvc,
		Charts:   chartsSvc,
		Cache:    store,
	})

	// Start the server and wait for a shutdown signal
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Goodbye")
}
