package web

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/pulse/internal/api/middleware"
	"github.com/newthinker/pulse/internal/api/response"
	"github.com/newthinker/pulse/internal/backtest"
	"github.com/newthinker/pulse/internal/chart"
	"github.com/newthinker/pulse/internal/core"
)

// BacktestRunner runs one backtest onto a surface.
type BacktestRunner interface {
	Run(ctx context.Context, form backtest.Form, surface chart.Surface, alerter backtest.Alerter) (*backtest.Outcome, error)
}

// BacktestData holds data for the backtest form page.
type BacktestData struct {
	Title        string
	Assets       []string
	Intervals    []string
	Symbol       string
	Interval     string
	ShortWindow  int
	LongWindow   int
	ForecastDays string
	Capital      string
	Risk         string
	CSRFToken    string
	CSRFCookie   string
}

// Backtest renders the backtest form. ?symbol= preselects the asset.
func (h *Handler) Backtest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	symbol := q.Get("symbol")
	if symbol == "" {
		symbol = backtest.DefaultSymbol
	}
	assets := h.assets
	if !slices.Contains(assets, symbol) {
		assets = append([]string{symbol}, assets...)
	}
	risk := q.Get("risk")
	if risk == "" {
		risk = "1"
	}

	h.render(w, "backtest.html", BacktestData{
		Title:        "Backtest",
		Assets:       assets,
		Intervals:    backtest.Intervals,
		Symbol:       symbol,
		Interval:     backtest.DefaultInterval,
		ShortWindow:  backtest.DefaultShortWindow,
		LongWindow:   backtest.DefaultLongWindow,
		ForecastDays: strconv.Itoa(backtest.DefaultForecastDays),
		Capital:      strconv.FormatFloat(backtest.DefaultCapital, 'f', -1, 64),
		Risk:         risk,
		CSRFToken:    middleware.EnsureCSRFCookie(w, r, h.csrfCookie),
		CSRFCookie:   h.csrfCookie,
	})
}

// RunView is the JSON body of a successful run.
type RunView struct {
	RunID      string                  `json:"run_id"`
	Figures    map[string]chart.Figure `json:"figures"`
	Metrics    []MetricView            `json:"metrics,omitempty"`
	ArchiveKey string                  `json:"archive_key,omitempty"`
}

// MetricView is one row of the metrics summary.
type MetricView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type resultData struct {
	Alert      string
	Plots      []chart.Plot
	Metrics    []chart.MetricRow
	ArchiveKey string
}

// alertCollector records alerts raised during a run.
type alertCollector struct {
	messages []string
}

func (a *alertCollector) Alert(message string) {
	a.messages = append(a.messages, message)
}

func (a *alertCollector) first() string {
	if len(a.messages) == 0 {
		return ""
	}
	return a.messages[0]
}

// RunBacktest runs the renderer for the submitted form. It answers with
// JSON when the client accepts it and with an HTML fragment otherwise.
func (h *Handler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		response.Error(w, http.StatusServiceUnavailable,
			core.WrapError(core.ErrConfigMissing, errors.New("backtest runner not configured")))
		return
	}
	if err := r.ParseForm(); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	canvas := chart.NewCanvas()
	alerts := &alertCollector{}
	out, err := h.runner.Run(r.Context(), backtest.FormFromValues(r.PostForm), canvas, alerts)
	jsonWanted := wantsJSON(r)

	if err != nil {
		status := response.StatusFor(err)
		h.logger.Debug("backtest run failed", zap.Int("status", status), zap.Error(err))
		if jsonWanted {
			response.Alert(w, status, err, alerts.first())
			return
		}
		h.writeResult(w, status, resultData{Alert: alerts.first()})
		return
	}

	var metrics []chart.MetricRow
	if out.Result != nil {
		metrics = chart.MetricRows(out.Result.Metrics)
	}

	if jsonWanted {
		view := RunView{RunID: out.RunID, Figures: canvas.Figures(), ArchiveKey: out.ArchiveKey}
		for _, m := range metrics {
			view.Metrics = append(view.Metrics, MetricView{Name: m.Name, Value: m.Value})
		}
		response.JSON(w, http.StatusOK, view)
		return
	}
	h.writeResult(w, http.StatusOK, resultData{
		Plots:      canvas.Plots(),
		Metrics:    metrics,
		ArchiveKey: out.ArchiveKey,
	})
}

func (h *Handler) writeResult(w http.ResponseWriter, status int, data resultData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.result.ExecuteTemplate(w, "result", data); err != nil {
		h.logger.Error("rendering backtest result", zap.Error(err))
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
