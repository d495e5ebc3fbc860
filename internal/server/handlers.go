package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rmoura/toptenb3/internal/domain"
	"github.com/rmoura/toptenb3/internal/loader"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

// handleAssets handles GET /api/assets
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"assets":  s.cfg.Assets,
			"periods": loader.ValidPeriods(),
			"models":  []domain.ForecastModel{domain.ModelTrend, domain.ModelARIMA},
			"horizon": map[string]int{
				"min":     s.cfg.HorizonMin,
				"default": s.cfg.HorizonDefault,
				"max":     s.cfg.HorizonMax,
			},
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleHistory handles GET /api/history/{symbol}?period=&refresh=
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol, ok := s.trackedSymbol(w, r)
	if !ok {
		return
	}
	period := periodParam(r)

	result, err := s.loadSeries(r, symbol, period)
	if err != nil {
		s.writeLoadError(w, symbol, err)
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"bars":      len(result.Series),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleCharts handles GET /api/charts/{symbol}?period=&refresh=
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	symbol, ok := s.trackedSymbol(w, r)
	if !ok {
		return
	}
	period := periodParam(r)

	result, err := s.loadSeries(r, symbol, period)
	if err != nil {
		s.writeLoadError(w, symbol, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": s.charts.Build(result),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// handleForecast handles GET /api/forecast/{symbol}?model=&horizon=&period=
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	symbol, ok := s.trackedSymbol(w, r)
	if !ok {
		return
	}
	period := periodParam(r)

	modelParam := r.URL.Query().Get("model")
	if modelParam == "" {
		modelParam = string(domain.ModelTrend)
	}
	model, err := domain.ParseForecastModel(modelParam)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	horizon := 0 // zero means the configured default
	if horizonStr := r.URL.Query().Get("horizon"); horizonStr != "" {
		parsed, err := strconv.Atoi(horizonStr)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid horizon: "+horizonStr)
			return
		}
		horizon = parsed
	}

	result, err := s.loadSeries(r, symbol, period)
	if err != nil {
		s.writeLoadError(w, symbol, err)
		return
	}

	forecastResult, err := s.forecast.Forecast(symbol, result.Series, model, horizon)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientData) {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := map[string]interface{}{
		"data": forecastResult,
		"metadata": map[string]interface{}{
			"input_bars":  len(result.Series),
			"data_status": result.Status,
			"timestamp":   time.Now().Format(time.RFC3339),
		},
	}
	if result.Warning != "" {
		response["metadata"].(map[string]interface{})["warning"] = result.Warning
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleCacheClear handles DELETE /api/cache. Drops every cached
// series; the next load for each symbol refetches from the provider.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Clear(); err != nil {
		s.log.Error().Err(err).Msg("Failed to clear price cache")
		s.writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"cleared": true},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// handleCacheDelete handles DELETE /api/cache/{symbol}?period=
func (s *Server) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	symbol, ok := s.trackedSymbol(w, r)
	if !ok {
		return
	}
	period := periodParam(r)

	if err := s.cache.Delete(symbol, period); err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to delete cache entry")
		s.writeError(w, http.StatusInternalServerError, "failed to delete cache entry")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":  symbol,
			"period":  period,
			"cleared": true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// trackedSymbol extracts and validates the symbol URL parameter.
func (s *Server) trackedSymbol(w http.ResponseWriter, r *http.Request) (string, bool) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if _, ok := s.cfg.Asset(symbol); !ok {
		s.writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		return "", false
	}
	return symbol, true
}

// loadSeries runs a load, honoring the refresh query parameter.
func (s *Server) loadSeries(r *http.Request, symbol, period string) (*loader.Result, error) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		return s.loader.Refresh(r.Context(), symbol, period)
	}
	return s.loader.Load(r.Context(), symbol, period)
}

func periodParam(r *http.Request) string {
	if period := r.URL.Query().Get("period"); period != "" {
		return period
	}
	return loader.DefaultPeriod
}

// writeLoadError maps loader errors onto HTTP responses. The message
// always names the symbol so the UI can report which asset failed while
// staying interactive.
func (s *Server) writeLoadError(w http.ResponseWriter, symbol string, err error) {
	if errors.Is(err, domain.ErrDataUnavailable) {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	// Anything else is a bad request (unknown period etc.)
	s.writeError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
