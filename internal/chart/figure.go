// Package chart builds Plotly figure documents and SVG gauges.
//
// Figures are plain data: they marshal to the JSON that Plotly.newPlot
// accepts and are drawn onto a Surface under a target name.
package chart

// Figure is a Plotly figure: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is the subset of Plotly trace attributes the dashboard uses.
type Trace struct {
	Type       string  `json:"type,omitempty"`
	Mode       string  `json:"mode,omitempty"`
	Name       string  `json:"name,omitempty"`
	X          []any   `json:"x"`
	Y          []any   `json:"y,omitempty"`
	Open       []any   `json:"open,omitempty"`
	High       []any   `json:"high,omitempty"`
	Low        []any   `json:"low,omitempty"`
	Close      []any   `json:"close,omitempty"`
	Line       *Line   `json:"line,omitempty"`
	Marker     *Marker `json:"marker,omitempty"`
	Fill       string  `json:"fill,omitempty"`
	FillColor  string  `json:"fillcolor,omitempty"`
	ShowLegend *bool   `json:"showlegend,omitempty"`
	Increasing *Side   `json:"increasing,omitempty"`
	Decreasing *Side   `json:"decreasing,omitempty"`
}

// Line styles a trace line. Width is a pointer so zero can be sent.
type Line struct {
	Color string   `json:"color,omitempty"`
	Width *float64 `json:"width,omitempty"`
	Dash  string   `json:"dash,omitempty"`
}

type Marker struct {
	Color  string `json:"color,omitempty"`
	Size   int    `json:"size,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

// Side styles the increasing or decreasing half of a candlestick.
type Side struct {
	Line Line `json:"line"`
}

type Axis struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`
	GridColor string `json:"gridcolor,omitempty"`
	TickColor string `json:"tickcolor,omitempty"`
}

type Font struct {
	Color string `json:"color,omitempty"`
}

type Layout struct {
	Title        string `json:"title,omitempty"`
	XAxis        Axis   `json:"xaxis"`
	YAxis        Axis   `json:"yaxis"`
	ShowLegend   *bool  `json:"showlegend,omitempty"`
	Template     string `json:"template,omitempty"`
	PaperBgColor string `json:"paper_bgcolor,omitempty"`
	PlotBgColor  string `json:"plot_bgcolor,omitempty"`
	Font         Font   `json:"font"`
}

// Palette
const (
	ColorUp       = "#10b981"
	ColorDown     = "#ef4444"
	ColorGaugeBg  = "#1a1f2e"
	colorGrid     = "rgba(255,255,255,0.06)"
	colorTick     = "#9ca3af"
	colorFont     = "#cbd5e1"
	colorBg       = "#071026"
	colorBandFill = "rgba(255,255,0,0.12)"
)

func width(w float64) *float64 { return &w }

func boolPtr(b bool) *bool { return &b }

func darkLayout(title, yTitle string) Layout {
	return Layout{
		Title:        title,
		XAxis:        Axis{Type: "date", GridColor: colorGrid, TickColor: colorTick},
		YAxis:        Axis{Title: yTitle, GridColor: colorGrid, TickColor: colorTick},
		Template:     "plotly_dark",
		PaperBgColor: colorBg,
		PlotBgColor:  colorBg,
		Font:         Font{Color: colorFont},
	}
}

// column collects one field of every element of items as a Plotly array.
func column[T any](items []T, field func(T) any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = field(it)
	}
	return out
}
