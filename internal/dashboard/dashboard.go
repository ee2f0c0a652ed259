// Package dashboard keeps the live dashboard regions current.
//
// Each refresh fetches one snapshot from the backend, renders it to an HTML
// fragment and replaces the matching region on the Board. A missing region
// turns the refresh into a no-op. Fetch failures leave regions untouched and
// are returned to the caller, which logs them.
package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/pulse/internal/chart"
	"github.com/newthinker/pulse/internal/core"
	"github.com/newthinker/pulse/internal/logger"
	"github.com/newthinker/pulse/internal/scheduler"
)

// Region groups as named in configuration.
const (
	GroupMarket    = "market"
	GroupSignals   = "signals"
	GroupSentiment = "sentiment"
	GroupPrice     = "price"
)

// Source is the subset of the backend client the dashboard reads.
type Source interface {
	MarketOverview(ctx context.Context) (core.MarketOverview, error)
	Signals(ctx context.Context, limit int) ([]core.Signal, error)
	Sentiment(ctx context.Context) (*core.Sentiment, error)
	PriceData(ctx context.Context, symbol string, hours int) ([]core.PricePoint, error)
}

// Options tunes what the dashboard fetches and how it renders.
type Options struct {
	SignalLimit int
	PriceHours  int
	Location    *time.Location
	Gauge       chart.Gauge
	Now         func() time.Time
}

// Dashboard refreshes Board regions from a Source.
type Dashboard struct {
	source Source
	board  *Board
	opts   Options
	logger *zap.Logger
}

// New creates a dashboard. Zero options fall back to defaults.
func New(source Source, board *Board, opts Options, log *zap.Logger) *Dashboard {
	if opts.SignalLimit <= 0 {
		opts.SignalLimit = 5
	}
	if opts.PriceHours <= 0 {
		opts.PriceHours = 24
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Gauge == (chart.Gauge{}) {
		opts.Gauge = chart.DefaultGauge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dashboard{source: source, board: board, opts: opts, logger: logger.OrNop(log)}
}

// Board returns the regions the dashboard writes to.
func (d *Dashboard) Board() *Board { return d.board }

// UpdateMarketOverview refreshes the card of every indicator present in the
// response. Cards for absent indicators keep their previous content.
func (d *Dashboard) UpdateMarketOverview(ctx context.Context) error {
	overview, err := d.source.MarketOverview(ctx)
	if err != nil {
		return fmt.Errorf("market overview: %w", err)
	}
	return d.RenderMarketOverview(overview)
}

// RenderMarketOverview writes an overview snapshot to the indicator cards.
func (d *Dashboard) RenderMarketOverview(overview core.MarketOverview) error {
	for _, key := range core.IndicatorKeys {
		ind, ok := overview[key]
		if !ok {
			continue
		}
		region := RegionIndicator(key)
		if !d.board.Has(region) {
			continue
		}
		html, err := RenderIndicator(key, ind)
		if err != nil {
			return err
		}
		d.replace(region, html)
	}
	return nil
}

// UpdateSignals refreshes the signal list.
func (d *Dashboard) UpdateSignals(ctx context.Context) error {
	if !d.board.Has(RegionSignals) {
		return nil
	}
	signals, err := d.source.Signals(ctx, d.opts.SignalLimit)
	if err != nil {
		return fmt.Errorf("signals: %w", err)
	}
	return d.RenderSignals(signals)
}

// RenderSignals writes a signal snapshot. The list is replaced whole.
func (d *Dashboard) RenderSignals(signals []core.Signal) error {
	html, err := RenderSignals(signals, d.opts.Now())
	if err != nil {
		return err
	}
	d.replace(RegionSignals, html)
	return nil
}

// UpdateSentiment refreshes the sentiment gauge.
func (d *Dashboard) UpdateSentiment(ctx context.Context) error {
	if !d.board.Has(RegionSentiment) {
		return nil
	}
	s, err := d.source.Sentiment(ctx)
	if err != nil {
		return fmt.Errorf("sentiment: %w", err)
	}
	if s == nil {
		return core.WrapError(core.ErrNoData, fmt.Errorf("sentiment"))
	}
	return d.RenderSentiment(*s)
}

// RenderSentiment writes a sentiment snapshot.
func (d *Dashboard) RenderSentiment(s core.Sentiment) error {
	html, err := RenderSentiment(s, d.opts.Gauge)
	if err != nil {
		return err
	}
	d.replace(RegionSentiment, html)
	return nil
}

// UpdatePriceChart refreshes the chart of symbol. An empty series leaves the
// chart as it was.
func (d *Dashboard) UpdatePriceChart(ctx context.Context, symbol string) error {
	if !d.board.Has(RegionPrice(symbol)) {
		return nil
	}
	points, err := d.source.PriceData(ctx, symbol, d.opts.PriceHours)
	if err != nil {
		return fmt.Errorf("price data %s: %w", symbol, err)
	}
	return d.RenderPriceChart(symbol, points)
}

// RenderPriceChart writes a price series snapshot.
func (d *Dashboard) RenderPriceChart(symbol string, points []core.PricePoint) error {
	if len(points) == 0 {
		d.logger.Debug("empty price series", zap.String("symbol", symbol))
		return nil
	}
	html, err := RenderPriceChart(symbol, points, d.opts.Location)
	if err != nil {
		return err
	}
	d.replace(RegionPrice(symbol), html)
	return nil
}

// replace drops writes to regions removed since the fetch started.
func (d *Dashboard) replace(region string, html template.HTML) {
	if !d.board.Replace(region, html) {
		d.logger.Debug("region gone, update dropped", zap.String("region", region))
	}
}

// Intervals sets the refresh period of every region group.
type Intervals struct {
	Market    time.Duration
	Signals   time.Duration
	Sentiment time.Duration
	Price     time.Duration
}

// Schedule registers one refresh loop per region group present on the board.
func (d *Dashboard) Schedule(s *scheduler.Scheduler, iv Intervals) error {
	hasIndicator := false
	for _, key := range core.IndicatorKeys {
		if d.board.Has(RegionIndicator(key)) {
			hasIndicator = true
			break
		}
	}
	if hasIndicator {
		if err := s.Schedule(GroupMarket, iv.Market, d.UpdateMarketOverview); err != nil {
			return err
		}
	}
	if d.board.Has(RegionSignals) {
		if err := s.Schedule(GroupSignals, iv.Signals, d.UpdateSignals); err != nil {
			return err
		}
	}
	if d.board.Has(RegionSentiment) {
		if err := s.Schedule(GroupSentiment, iv.Sentiment, d.UpdateSentiment); err != nil {
			return err
		}
	}
	for _, symbol := range d.board.PriceSymbols() {
		task := func(ctx context.Context) error { return d.UpdatePriceChart(ctx, symbol) }
		if err := s.Schedule(RegionPrice(symbol), iv.Price, task); err != nil {
			return err
		}
	}
	return nil
}

// Layout builds a board holding the regions of the configured groups.
func Layout(groups, priceSymbols []string) *Board {
	b := NewBoard()
	for _, g := range groups {
		switch g {
		case GroupMarket:
			for _, key := range core.IndicatorKeys {
				b.Register(RegionIndicator(key))
			}
		case GroupSignals:
			b.Register(RegionSignals)
		case GroupSentiment:
			b.Register(RegionSentiment)
		case GroupPrice:
			for _, sym := range priceSymbols {
				b.Register(RegionPrice(sym))
			}
		}
	}
	return b
}
