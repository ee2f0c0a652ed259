package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/newthinker/pulse/internal/chart"
	"github.com/newthinker/pulse/internal/core"
	"github.com/newthinker/pulse/internal/storage/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	result *core.BacktestResult
	err    error
	calls  int
	got    core.BacktestRequest
}

func (f *fakeBackend) RunBacktest(ctx context.Context, req core.BacktestRequest) (*core.BacktestResult, error) {
	f.calls++
	f.got = req
	return f.result, f.err
}

type alertSpy struct {
	messages []string
}

func (a *alertSpy) Alert(message string) {
	a.messages = append(a.messages, message)
}

type metricsSpy struct {
	statuses []string
}

func (m *metricsSpy) RecordBacktest(status string, duration float64) {
	m.statuses = append(m.statuses, status)
}

func fullResult() *core.BacktestResult {
	return &core.BacktestResult{
		Candles: []core.Candle{
			{Timestamp: "2024-01-01", Open: 1, High: 2, Low: 1, Close: 1},
			{Timestamp: "2024-01-02", Open: 1, High: 3, Low: 1, Close: 2},
		},
		Trades: []core.Trade{{Timestamp: "2024-01-02", Price: 2, Type: "buy"}},
		Equity: []core.EquitySample{
			{Timestamp: "2024-01-01", Equity: 10000},
			{Timestamp: "2024-01-02", Equity: 10100},
		},
		Metrics: map[string]float64{"total_return_pct": 1},
	}
}

func TestRenderer_Run_DrawsBothCharts(t *testing.T) {
	backend := &fakeBackend{result: fullResult()}
	metrics := &metricsSpy{}
	r := NewRenderer(backend, nil, WithMetrics(metrics))

	canvas := chart.NewCanvas()
	alerts := &alertSpy{}

	out, err := r.Run(context.Background(), Form{ShortWindow: "1", LongWindow: "2"}, canvas, alerts)
	require.NoError(t, err)

	assert.Empty(t, alerts.messages)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, []string{chart.TargetEquity, chart.TargetPrice}, canvas.Targets())
	assert.NotEmpty(t, out.RunID)
	assert.Empty(t, out.ArchiveKey)
	assert.Equal(t, []string{"success"}, metrics.statuses)

	price, _ := canvas.Figure(chart.TargetPrice)
	assert.Equal(t, "BTCUSDT Price & Prediction", price.Layout.Title)
	assert.Equal(t, "SMA 1", price.Data[1].Name)
}

func TestRenderer_Run_NoEquity(t *testing.T) {
	res := fullResult()
	res.Equity = nil
	r := NewRenderer(&fakeBackend{result: res}, nil)

	canvas := chart.NewCanvas()
	_, err := r.Run(context.Background(), Form{}, canvas, &alertSpy{})
	require.NoError(t, err)

	assert.Equal(t, []string{chart.TargetPrice}, canvas.Targets())
}

func TestRenderer_Run_ErrorStatus(t *testing.T) {
	backend := &fakeBackend{err: core.WrapError(core.ErrBackendStatus, &core.StatusError{StatusCode: 500, Body: "boom"})}
	metrics := &metricsSpy{}
	r := NewRenderer(backend, nil, WithMetrics(metrics))

	canvas := chart.NewCanvas()
	alerts := &alertSpy{}

	out, err := r.Run(context.Background(), Form{}, canvas, alerts)

	assert.Nil(t, out)
	assert.True(t, errors.Is(err, core.ErrBackendStatus))
	assert.Equal(t, []string{"Backtest failed: 500"}, alerts.messages)
	assert.Equal(t, 0, canvas.Draws())
	assert.Equal(t, 1, backend.calls, "no retry")
	assert.Equal(t, []string{"failed"}, metrics.statuses)
}

func TestRenderer_Run_TransportError(t *testing.T) {
	backend := &fakeBackend{err: core.WrapError(core.ErrBackendFailed, errors.New("connection refused"))}
	r := NewRenderer(backend, nil)

	canvas := chart.NewCanvas()
	alerts := &alertSpy{}

	_, err := r.Run(context.Background(), Form{}, canvas, alerts)
	assert.Error(t, err)
	assert.Len(t, alerts.messages, 1)
	assert.Equal(t, 0, canvas.Draws())
}

func TestRenderer_Run_EmptyCandles(t *testing.T) {
	for name, res := range map[string]*core.BacktestResult{
		"nil result":    nil,
		"no candles":    {},
		"empty candles": {Candles: []core.Candle{}, Equity: fullResult().Equity},
	} {
		t.Run(name, func(t *testing.T) {
			r := NewRenderer(&fakeBackend{result: res}, nil)

			canvas := chart.NewCanvas()
			alerts := &alertSpy{}

			_, err := r.Run(context.Background(), Form{}, canvas, alerts)
			assert.True(t, errors.Is(err, core.ErrNoData))
			assert.Equal(t, []string{MsgNoCandles}, alerts.messages)
			assert.Equal(t, 0, canvas.Draws())
		})
	}
}

// brokenSurface fails every draw onto failOn.
type brokenSurface struct {
	*chart.Canvas
	failOn string
}

func (b *brokenSurface) Draw(target string, fig chart.Figure) error {
	if target == b.failOn {
		return errors.New("surface detached")
	}
	return b.Canvas.Draw(target, fig)
}

func TestRenderer_Run_DrawFailureLeavesNothing(t *testing.T) {
	metrics := &metricsSpy{}
	r := NewRenderer(&fakeBackend{result: fullResult()}, nil, WithMetrics(metrics))

	surface := &brokenSurface{Canvas: chart.NewCanvas(), failOn: chart.TargetEquity}
	alerts := &alertSpy{}

	out, err := r.Run(context.Background(), Form{}, surface, alerts)

	assert.Nil(t, out)
	assert.True(t, errors.Is(err, core.ErrRenderFailed))
	assert.Len(t, alerts.messages, 1)
	assert.Empty(t, surface.Targets(), "price chart must be erased")
	assert.Equal(t, []string{"failed"}, metrics.statuses)
}

func TestRenderer_Run_RedrawsFromScratch(t *testing.T) {
	backend := &fakeBackend{result: fullResult()}
	r := NewRenderer(backend, nil)
	canvas := chart.NewCanvas()

	_, err := r.Run(context.Background(), Form{Symbol: "AAA"}, canvas, &alertSpy{})
	require.NoError(t, err)
	_, err = r.Run(context.Background(), Form{Symbol: "BBB"}, canvas, &alertSpy{})
	require.NoError(t, err)

	assert.Equal(t, 2, backend.calls)
	price, _ := canvas.Figure(chart.TargetPrice)
	assert.Equal(t, "BBB Price & Prediction", price.Layout.Title)
	assert.Len(t, canvas.Targets(), 2)
}

func TestRenderer_Run_ArchivesWhenSaved(t *testing.T) {
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	r := NewRenderer(&fakeBackend{result: fullResult()}, nil, WithArchive(store))

	out, err := r.Run(context.Background(), Form{Symbol: "ETHUSDT", Save: true}, chart.NewCanvas(), &alertSpy{})
	require.NoError(t, err)
	require.NotEmpty(t, out.ArchiveKey)

	data, err := store.Read(context.Background(), out.ArchiveKey)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, out.RunID, doc["run_id"])
	figures := doc["figures"].(map[string]any)
	assert.Contains(t, figures, chart.TargetPrice)
	assert.Contains(t, figures, chart.TargetEquity)

	keys, err := store.List(context.Background(), "backtests/ETHUSDT")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestRenderer_Run_SkipsArchiveWithoutSave(t *testing.T) {
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	r := NewRenderer(&fakeBackend{result: fullResult()}, nil, WithArchive(store))

	out, err := r.Run(context.Background(), Form{}, chart.NewCanvas(), &alertSpy{})
	require.NoError(t, err)
	assert.Empty(t, out.ArchiveKey)

	keys, _ := store.List(context.Background(), "backtests")
	assert.Empty(t, keys)
}

func TestAlertFunc(t *testing.T) {
	var got string
	var a Alerter = AlertFunc(func(m string) { got = m })
	a.Alert("hello")
	assert.Equal(t, "hello", got)
}
