// Package server provides the HTTP server and routing for the dashboard.
package server

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/rmoura/toptenb3/internal/config"
	"github.com/rmoura/toptenb3/internal/forecast"
	"github.com/rmoura/toptenb3/internal/loader"
	"github.com/rmoura/toptenb3/internal/modules/charts"
	"github.com/rmoura/toptenb3/pkg/embedded"
)

// CacheAdmin covers the destructive cache operations exposed on the
// API. Implemented by pricecache.Store.
type CacheAdmin interface {
	Delete(symbol, period string) error
	Clear() error
}

// Config holds server dependencies
type Config struct {
	Log      zerolog.Logger
	Config   *config.Config
	Loader   *loader.Service
	Forecast *forecast.Service
	Charts   *charts.Service
	Cache    CacheAdmin
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	loader    *loader.Service
	forecast  *forecast.Service
	charts    *charts.Service
	cache     CacheAdmin
	startedAt time.Time
}

// New creates a new HTTP server with all routes configured
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		loader:    cfg.Loader,
		forecast:  cfg.Forecast,
		charts:    cfg.Charts,
		cache:     cfg.Cache,
		startedAt: time.Now(),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Config.Port),
		Handler: s.router,
	}

	return s
}

// setupMiddleware configures the middleware stack
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout covers the slowest path: a full retry cycle against the provider
	s.router.Use(middleware.Timeout(2 * time.Minute))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/assets", s.handleAssets)
		r.Get("/history/{symbol}", s.handleHistory)
		r.Get("/charts/{symbol}", s.handleCharts)
		r.Get("/forecast/{symbol}", s.handleForecast)
		r.Get("/system/health", s.handleSystemHealth)
		r.Delete("/cache", s.handleCacheClear)
		r.Delete("/cache/{symbol}", s.handleCacheDelete)
	})

	// Embedded dashboard
	s.router.Get("/", s.handleDashboard)
	s.router.Handle("/static/*", http.StripPrefix("/static/", s.staticHandler()))
}

// staticHandler serves the embedded frontend assets
func (s *Server) staticHandler() http.Handler {
	webFS, err := fs.Sub(embedded.Files, "web")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create web filesystem from embedded files")
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(webFS))
}

// handleDashboard serves the dashboard HTML from the embedded filesystem
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	webFS, err := fs.Sub(embedded.Files, "web")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create web filesystem from embedded files")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}

	indexFile, err := webFS.Open("index.html")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to open embedded index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}
	defer indexFile.Close()

	data, err := io.ReadAll(indexFile)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read embedded index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write index.html response")
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
