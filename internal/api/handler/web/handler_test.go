package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pulse/internal/api/response"
	"github.com/newthinker/pulse/internal/backtest"
	"github.com/newthinker/pulse/internal/chart"
	"github.com/newthinker/pulse/internal/core"
	"github.com/newthinker/pulse/internal/dashboard"
)

type fakeRunner struct {
	alert   string
	err     error
	metrics map[string]float64
	form    backtest.Form
}

func (f *fakeRunner) Run(_ context.Context, form backtest.Form, surface chart.Surface, alerter backtest.Alerter) (*backtest.Outcome, error) {
	f.form = form
	if f.err != nil {
		alerter.Alert(f.alert)
		return nil, f.err
	}
	surface.Draw(chart.TargetEquity, chart.Figure{Layout: chart.Layout{Title: "Equity Curve"}})
	surface.Draw(chart.TargetPrice, chart.Figure{Layout: chart.Layout{Title: "Price"}})
	return &backtest.Outcome{
		RunID:      "run-1",
		Request:    form.Request(),
		Result:     &core.BacktestResult{Metrics: f.metrics},
		ArchiveKey: "backtests/BTCUSDT/2024-03-01/run-1.json",
	}, nil
}

func newHandler(t *testing.T, runner BacktestRunner) *Handler {
	t.Helper()
	board := dashboard.NewBoard(
		dashboard.RegionIndicator(core.IndicatorBTC),
		dashboard.RegionSentiment,
	)
	h, err := NewHandler(Options{
		Board:     board,
		Runner:    runner,
		Intervals: dashboard.Intervals{Market: 5 * time.Second, Sentiment: 30 * time.Second},
	})
	require.NoError(t, err)
	return h
}

func postRun(h *Handler, form url.Values, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/backtest/run", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	h.RunBacktest(w, req)
	return w
}

func TestDashboard_RendersRegisteredRegions(t *testing.T) {
	h := newHandler(t, nil)
	h.board.Replace(dashboard.RegionSentiment, `<div class="gauge-score">42</div>`)

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Bitcoin")
	assert.NotContains(t, body, "Ethereum")
	assert.Contains(t, body, `hx-trigger="every 5000ms"`)
	assert.Contains(t, body, `hx-trigger="every 30000ms"`)
	assert.Contains(t, body, `id="region-indicator-btc"`)
	assert.Contains(t, body, `<div class="gauge-score">42</div>`)
	assert.NotContains(t, body, "Latest Signals")
}

func TestBacktest_PreselectsSymbol(t *testing.T) {
	h := newHandler(t, nil)

	w := httptest.NewRecorder()
	h.Backtest(w, httptest.NewRequest("GET", "/backtest?symbol=ADAUSDT&risk=2", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<option value="ADAUSDT" selected>`)
	assert.Contains(t, body, `<option value="BTCUSDT" >`)
	assert.Contains(t, body, `href="/backtest?symbol=ETHUSDT"`)
	assert.Contains(t, body, "5 Days")
	assert.Contains(t, body, `<span id="risk-value">High</span>`)
	assert.Contains(t, body, `<option value="1d" selected>`)
}

func TestBacktest_DefaultSymbolAndRisk(t *testing.T) {
	h := newHandler(t, nil)

	w := httptest.NewRecorder()
	h.Backtest(w, httptest.NewRequest("GET", "/backtest", nil))

	body := w.Body.String()
	assert.Contains(t, body, `<option value="BTCUSDT" selected>`)
	assert.Contains(t, body, `<span id="risk-value">Medium</span>`)
}

func TestRunBacktest_JSON(t *testing.T) {
	runner := &fakeRunner{metrics: map[string]float64{"win_rate": 55.5}}
	h := newHandler(t, runner)

	w := postRun(h, url.Values{"bt_symbol": {"BTCUSDT"}, "bt_save": {"on"}}, "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, runner.form.Save)

	var resp struct {
		Data RunView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.Len(t, resp.Data.Figures, 2)
	assert.Equal(t, "Equity Curve", resp.Data.Figures[chart.TargetEquity].Layout.Title)
	assert.Equal(t, []MetricView{{Name: "win_rate", Value: "55.50"}}, resp.Data.Metrics)
	assert.Equal(t, "backtests/BTCUSDT/2024-03-01/run-1.json", resp.Data.ArchiveKey)
}

func TestRunBacktest_HTMLFragment(t *testing.T) {
	h := newHandler(t, &fakeRunner{metrics: map[string]float64{"win_rate": 150}})

	w := postRun(h, url.Values{}, "text/html")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	price := strings.Index(body, `id="pricePlot"`)
	equity := strings.Index(body, `id="equityPlot"`)
	assert.True(t, price >= 0 && equity > price, "price plot should come first")
	assert.Contains(t, body, "data-figure=")
	assert.Contains(t, body, `data-usage="150.00"`)
	assert.Contains(t, body, "width: 100%")
	assert.Contains(t, body, "Saved as backtests/BTCUSDT/2024-03-01/run-1.json")
}

func TestRunBacktest_FailureJSONCarriesAlert(t *testing.T) {
	runner := &fakeRunner{
		alert: "Backtest failed: 500",
		err:   core.WrapError(core.ErrBackendStatus, &core.StatusError{StatusCode: 500, Body: "boom"}),
	}
	h := newHandler(t, runner)

	w := postRun(h, url.Values{}, "application/json")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Backtest failed: 500", resp.Error.Alert)
	assert.Equal(t, "BACKEND_STATUS", resp.Error.Code)
}

func TestRunBacktest_FailureHTMLShowsAlert(t *testing.T) {
	h := newHandler(t, &fakeRunner{alert: backtest.MsgNoCandles, err: core.ErrNoData})

	w := postRun(h, url.Values{}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `class="alert"`)
	assert.Contains(t, body, "No candle data returned from server.")
	assert.NotContains(t, body, "data-figure")
}

func TestRunBacktest_NoRunner(t *testing.T) {
	h := newHandler(t, nil)

	w := postRun(h, url.Values{}, "application/json")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRegion_NotFound(t *testing.T) {
	h := newHandler(t, nil)

	req := httptest.NewRequest("GET", "/regions/signals", nil)
	req.SetPathValue("name", "signals")
	w := httptest.NewRecorder()
	h.Region(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewHandlerWithFS_MissingTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html": {Data: []byte(`{{template "content" .}}`)},
	}

	_, err := NewHandlerWithFS(fsys, Options{})

	assert.Error(t, err)
}

func TestHTMXInterval(t *testing.T) {
	assert.Equal(t, "5000ms", htmxInterval(5*time.Second))
	assert.Equal(t, "10000ms", htmxInterval(0))
}
