package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/pulse/internal/chart"
	"github.com/newthinker/pulse/internal/core"
	"github.com/newthinker/pulse/internal/storage/archive"
	"go.uber.org/zap"
)

// MsgNoCandles is shown when the backend returns no price data.
const MsgNoCandles = "No candle data returned from server. Please check symbol or try again."

// Backend runs backtests.
type Backend interface {
	RunBacktest(ctx context.Context, req core.BacktestRequest) (*core.BacktestResult, error)
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(message string)

func (f AlertFunc) Alert(message string) { f(message) }

// MetricsRecorder receives one observation per run.
type MetricsRecorder interface {
	RecordBacktest(status string, duration float64)
}

// Outcome describes a run that drew its charts.
type Outcome struct {
	RunID      string
	Request    core.BacktestRequest
	Result     *core.BacktestResult
	ArchiveKey string
}

// Renderer runs a backtest and draws its charts.
type Renderer struct {
	backend Backend
	logger  *zap.Logger
	metrics MetricsRecorder
	archive archive.Storage
	now     func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMetrics records run outcomes.
func WithMetrics(m MetricsRecorder) Option {
	return func(r *Renderer) { r.metrics = m }
}

// WithArchive stores drawn figures for runs that ask to be saved.
func WithArchive(s archive.Storage) Option {
	return func(r *Renderer) { r.archive = s }
}

// NewRenderer creates a renderer over backend.
func NewRenderer(backend Backend, logger *zap.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds the request from form, calls the backend once and draws the
// price chart and, when equity samples exist, the equity chart onto
// surface. Any failure is alerted exactly once, logged, and returned;
// nothing is drawn in that case.
func (r *Renderer) Run(ctx context.Context, form Form, surface chart.Surface, alerter Alerter) (*Outcome, error) {
	start := time.Now()
	req := form.Request()
	runID := uuid.NewString()
	log := r.logger.With(zap.String("run_id", runID), zap.String("symbol", req.Symbol))

	result, err := r.backend.RunBacktest(ctx, req)
	if err != nil {
		var se *core.StatusError
		if errors.As(err, &se) {
			log.Error("backtest API error",
				zap.Int("status", se.StatusCode),
				zap.String("body", se.Body),
			)
			alerter.Alert(fmt.Sprintf("Backtest failed: %d", se.StatusCode))
		} else {
			log.Error("backtest request failed", zap.Error(err))
			alerter.Alert("Backtest failed: backend unavailable")
		}
		r.record("failed", start)
		return nil, err
	}

	if result == nil || len(result.Candles) == 0 {
		log.Warn("backtest result missing candles")
		alerter.Alert(MsgNoCandles)
		r.record("empty", start)
		return nil, core.ErrNoData
	}

	figures := []chart.Plot{{
		Target: chart.TargetPrice,
		Figure: chart.PriceFigure(req.Symbol, result, req.ShortWindow, req.LongWindow),
	}}
	if len(result.Equity) > 0 {
		figures = append(figures, chart.Plot{
			Target: chart.TargetEquity,
			Figure: chart.EquityFigure(result.Equity),
		})
	}

	for i, p := range figures {
		if err := surface.Draw(p.Target, p.Figure); err != nil {
			for _, drawn := range figures[:i] {
				surface.Erase(drawn.Target)
			}
			log.Error("drawing chart failed", zap.String("target", p.Target), zap.Error(err))
			alerter.Alert("Backtest failed: could not draw charts")
			r.record("failed", start)
			return nil, core.WrapError(core.ErrRenderFailed, err)
		}
	}

	out := &Outcome{RunID: runID, Request: req, Result: result}
	if req.Save && r.archive != nil {
		out.ArchiveKey = r.save(ctx, log, out, figures)
	}

	log.Info("backtest rendered",
		zap.Int("candles", len(result.Candles)),
		zap.Int("trades", len(result.Trades)),
		zap.Int("figures", len(figures)),
	)
	r.record("success", start)
	return out, nil
}

type archivedRun struct {
	RunID      string                  `json:"run_id"`
	RenderedAt time.Time               `json:"rendered_at"`
	Request    core.BacktestRequest    `json:"request"`
	Metrics    map[string]float64      `json:"metrics,omitempty"`
	Figures    map[string]chart.Figure `json:"figures"`
}

// save archives the run. Failures are logged only; the charts are already
// drawn.
func (r *Renderer) save(ctx context.Context, log *zap.Logger, out *Outcome, plots []chart.Plot) string {
	at := r.now()
	doc := archivedRun{
		RunID:      out.RunID,
		RenderedAt: at.UTC(),
		Request:    out.Request,
		Metrics:    out.Result.Metrics,
		Figures:    make(map[string]chart.Figure, len(plots)),
	}
	for _, p := range plots {
		doc.Figures[p.Target] = p.Figure
	}

	data, err := json.Marshal(doc)
	if err != nil {
		log.Error("encoding archived run failed", zap.Error(err))
		return ""
	}

	key := archive.BacktestKey(out.Request.Symbol, at, out.RunID)
	if err := r.archive.Write(ctx, key, data); err != nil {
		log.Error("archiving backtest failed",
			zap.String("key", key),
			zap.Error(core.WrapError(core.ErrArchiveFailed, err)),
		)
		return ""
	}
	log.Debug("backtest archived", zap.String("key", key))
	return key
}

func (r *Renderer) record(status string, start time.Time) {
	if r.metrics != nil {
		r.metrics.RecordBacktest(status, time.Since(start).Seconds())
	}
}
