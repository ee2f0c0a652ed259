package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/newthinker/pulse/internal/chart"
	"github.com/newthinker/pulse/internal/core"
	"github.com/newthinker/pulse/internal/format"
)

//go:embed templates/*.html
var templateFS embed.FS

var fragments = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type indicatorView struct {
	Key         string
	Value       string
	Change      string
	ChangeClass string
}

type signalView struct {
	Asset      string
	Type       string
	TypeClass  string
	Age        string
	HasEntry   bool
	Entry      string
	Target     string
	Confidence string
	Notes      string
}

type sentimentView struct {
	Score string
	Label string
	Gauge template.HTML
}

type priceView struct {
	Symbol string
	Figure string
}

// RenderIndicator renders one market overview card.
func RenderIndicator(key string, ind core.Indicator) (template.HTML, error) {
	change, class := format.Change(ind.ChangePercent)
	return execute("indicator", indicatorView{
		Key:         key,
		Value:       format.Price(ind.Value, key),
		Change:      change,
		ChangeClass: class,
	})
}

// RenderSignals renders the signal list with ages relative to now.
func RenderSignals(signals []core.Signal, now time.Time) (template.HTML, error) {
	views := make([]signalView, len(signals))
	for i, s := range signals {
		views[i] = signalView{
			Asset:      s.Asset,
			Type:       s.SignalType,
			TypeClass:  format.SignalClass(s.SignalType),
			Age:        format.TimeAgo(now, s.CreatedAt.Time),
			HasEntry:   s.HasEntry(),
			Entry:      format.OptionalNumber(s.EntryPrice),
			Target:     format.OptionalNumber(s.TargetPrice),
			Confidence: format.OptionalNumber(s.Confidence),
			Notes:      s.Notes,
		}
	}
	return execute("signals", views)
}

// RenderSentiment renders the score, its label and the gauge.
func RenderSentiment(s core.Sentiment, gauge chart.Gauge) (template.HTML, error) {
	return execute("sentiment", sentimentView{
		Score: format.Number(s.Score),
		Label: format.SentimentLabel(s.Level),
		// Built from numbers and fixed colors only.
		Gauge: template.HTML(gauge.SVG(s.Score)),
	})
}

// RenderPriceChart renders a price chart container carrying its figure.
func RenderPriceChart(symbol string, points []core.PricePoint, loc *time.Location) (template.HTML, error) {
	fig, err := json.Marshal(chart.PriceSeriesFigure(symbol, points, loc))
	if err != nil {
		return "", fmt.Errorf("encoding price figure: %w", err)
	}
	return execute("price", priceView{Symbol: symbol, Figure: string(fig)})
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", core.WrapError(core.ErrRenderFailed, fmt.Errorf("%s: %w", name, err))
	}
	return template.HTML(buf.String()), nil
}
