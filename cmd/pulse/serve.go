package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/pulse/internal/api"
	"github.com/newthinker/pulse/internal/backtest"
	"github.com/newthinker/pulse/internal/config"
	"github.com/newthinker/pulse/internal/dashboard"
	"github.com/newthinker/pulse/internal/logger"
	"github.com/newthinker/pulse/internal/metrics"
	"github.com/newthinker/pulse/internal/scheduler"
	"github.com/newthinker/pulse/internal/storage/archive"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	log.Info("starting pulse server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	client, err := newBackend(cfg, log)
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	// Dashboard regions and their refresh loops
	board := dashboard.Layout(cfg.Dashboard.Regions, cfg.Dashboard.PriceSymbols)
	dash := dashboard.New(client, board, dashboard.Options{
		SignalLimit: cfg.Dashboard.SignalLimit,
		PriceHours:  cfg.Dashboard.PriceHours,
	}, log.Named("dashboard"))

	intervals := dashboard.Intervals{
		Market:    cfg.Poller.MarketInterval,
		Signals:   cfg.Poller.SignalsInterval,
		Sentiment: cfg.Poller.SentimentInterval,
		Price:     cfg.Poller.PriceInterval,
	}
	sched := scheduler.New(log.Named("scheduler"), schedulerOptions(cfg, reg)...)
	if err := dash.Schedule(sched, intervals); err != nil {
		return fmt.Errorf("scheduling dashboard: %w", err)
	}

	store, err := newArchive(cfg, log)
	if err != nil {
		return err
	}
	renderer := newRenderer(client, store, reg, log)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		APIKey:       cfg.Server.APIKey,
		TemplatesDir: cfg.Server.TemplatesDir,
		MetricsPath:  metricsPath,
		CSRFCookie:   cfg.Backend.CSRFCookie,
		WriteTimeout: cfg.Backend.Timeout + 15*time.Second,
	}, api.Dependencies{
		Board:     board,
		Runner:    renderer,
		Metrics:   reg,
		Intervals: intervals,
		Archive:   store,
	}, log.Named("http"))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("server error", zap.Error(err))
		}
	}

	log.Info("shutting down pulse server")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func schedulerOptions(cfg *config.Config, reg *metrics.Registry) []scheduler.Option {
	var opts []scheduler.Option
	if reg != nil {
		opts = append(opts, scheduler.WithRecorder(reg))
	}
	if cfg.Poller.RunOnStart {
		opts = append(opts, scheduler.WithRunOnStart())
	}
	if b := cfg.Poller.Backoff; b.Enabled {
		opts = append(opts, scheduler.WithBackoff(scheduler.Backoff{Min: b.Min, Max: b.Max, Factor: b.Factor}))
	}
	return opts
}

// newArchive opens the configured archive, or returns nil when archiving
// is disabled.
func newArchive(cfg *config.Config, log *zap.Logger) (archive.Storage, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	store, err := archive.New(archive.Config{
		Type: cfg.Archive.Type,
		Path: cfg.Archive.Path,
		S3:   archive.S3Config(cfg.Archive.S3),
	})
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	log.Info("archiving saved backtests", zap.String("type", cfg.Archive.Type))
	return store, nil
}

func newRenderer(client backtest.Backend, store archive.Storage, reg *metrics.Registry, log *zap.Logger) *backtest.Renderer {
	var opts []backtest.Option
	if reg != nil {
		opts = append(opts, backtest.WithMetrics(reg))
	}
	if store != nil {
		opts = append(opts, backtest.WithArchive(store))
	}
	return backtest.NewRenderer(client, log.Named("backtest"), opts...)
}
