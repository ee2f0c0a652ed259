// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihandler "github.com/newthinker/pulse/internal/api/handler/api"
	"github.com/newthinker/pulse/internal/api/handler/web"
	"github.com/newthinker/pulse/internal/api/middleware"
	"github.com/newthinker/pulse/internal/dashboard"
	"github.com/newthinker/pulse/internal/logger"
	"github.com/newthinker/pulse/internal/metrics"
	"github.com/newthinker/pulse/internal/storage/archive"
)

// Server represents the HTTP server for pulse.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	APIKey       string
	TemplatesDir string
	MetricsPath  string
	CSRFCookie   string
	// WriteTimeout bounds a whole request, backtest runs included.
	WriteTimeout time.Duration
}

// Dependencies are the components the handlers read from.
type Dependencies struct {
	Board     *dashboard.Board
	Runner    web.BacktestRunner
	Metrics   *metrics.Registry // nil disables metrics
	Intervals dashboard.Intervals
	Assets    []string
	Archive   archive.Storage // nil answers /api/backtests with 503
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, log *zap.Logger) (*Server, error) {
	log = logger.OrNop(log)
	mux := http.NewServeMux()

	if cfg.CSRFCookie == "" {
		cfg.CSRFCookie = "csrftoken"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	s := &Server{
		logger: log,
		mux:    mux,
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	s.handler = metrics.LoggingMiddleware(log)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	webHandler, err := web.NewHandler(web.Options{
		TemplatesDir: cfg.TemplatesDir,
		Board:        deps.Board,
		Runner:       deps.Runner,
		Intervals:    deps.Intervals,
		Assets:       deps.Assets,
		CSRFCookie:   cfg.CSRFCookie,
		Logger:       s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}

	// Web UI routes
	s.mux.HandleFunc("GET /{$}", webHandler.Dashboard)
	s.mux.HandleFunc("GET /regions/{name...}", webHandler.Region)
	s.mux.HandleFunc("GET /backtest", webHandler.Backtest)
	s.mux.Handle("POST /backtest/run", middleware.CSRF(cfg.CSRFCookie)(http.HandlerFunc(webHandler.RunBacktest)))

	// API routes
	auth := middleware.APIKeyAuth(cfg.APIKey)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /api/regions", auth(http.HandlerFunc(webHandler.Regions)))

	archiveHandler := apihandler.NewArchiveHandler(deps.Archive, s.logger)
	s.mux.Handle("GET /api/backtests", auth(http.HandlerFunc(archiveHandler.List)))
	s.mux.Handle("GET /api/backtests/{key...}", auth(http.HandlerFunc(archiveHandler.Get)))

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
	return nil
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
