package web

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/pulse/internal/api/response"
	"github.com/newthinker/pulse/internal/core"
	"github.com/newthinker/pulse/internal/dashboard"
)

var indicatorLabels = map[string]string{
	core.IndicatorSP500: "S&P 500",
	core.IndicatorBTC:   "Bitcoin",
	core.IndicatorETH:   "Ethereum",
}

// RegionView is one live region on the dashboard page.
type RegionView struct {
	Name  string
	ID    string
	Label string
	URL   string
	Every string
	HTML  template.HTML
}

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title      string
	Indicators []RegionView
	Signals    *RegionView
	Sentiment  *RegionView
	Prices     []RegionView
}

// Dashboard renders the dashboard page with the current content of every
// region. Regions then refresh themselves from /regions/{name}.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := DashboardData{Title: "Dashboard"}

	for _, key := range core.IndicatorKeys {
		if v, ok := h.region(dashboard.RegionIndicator(key), indicatorLabels[key], h.intervals.Market); ok {
			data.Indicators = append(data.Indicators, v)
		}
	}
	if v, ok := h.region(dashboard.RegionSignals, "Latest Signals", h.intervals.Signals); ok {
		data.Signals = &v
	}
	if v, ok := h.region(dashboard.RegionSentiment, "Market Sentiment", h.intervals.Sentiment); ok {
		data.Sentiment = &v
	}
	for _, sym := range h.board.PriceSymbols() {
		if v, ok := h.region(dashboard.RegionPrice(sym), sym, h.intervals.Price); ok {
			data.Prices = append(data.Prices, v)
		}
	}

	h.render(w, "dashboard.html", data)
}

// Region writes the latest fragment of one region.
func (h *Handler) Region(w http.ResponseWriter, r *http.Request) {
	html, err := h.board.Get(r.PathValue("name"))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	fmt.Fprint(w, html)
}

// Regions lists the registered region names.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{"regions": h.board.Names()})
}

func (h *Handler) region(name, label string, every time.Duration) (RegionView, bool) {
	html, err := h.board.Get(name)
	if err != nil {
		return RegionView{}, false
	}
	return RegionView{
		Name:  name,
		ID:    regionID(name),
		Label: label,
		URL:   (&url.URL{Path: "/regions/" + name}).EscapedPath(),
		Every: htmxInterval(every),
		HTML:  html,
	}, true
}

var idReplacer = strings.NewReplacer(":", "-", "/", "-", " ", "-")

func regionID(name string) string {
	return "region-" + idReplacer.Replace(name)
}

// htmxInterval renders d the way hx-trigger "every" expects it.
func htmxInterval(d time.Duration) string {
	if d <= 0 {
		d = 10 * time.Second
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
