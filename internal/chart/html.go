package chart

import (
	"fmt"
	"html/template"
	"io"
	"sort"
)

const plotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Script}}"></script>
<style>body{background:#071026;color:#cbd5e1;font-family:sans-serif;margin:24px}.plot{height:520px;margin-bottom:24px}table{border-collapse:collapse}td{padding:4px 12px}</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Plots}}<div id="{{.Target}}" class="plot"></div>
<script>Plotly.newPlot({{.Target}}, {{.Figure.Data}}, {{.Figure.Layout}}, {responsive: true});</script>
{{end}}{{if .Metrics}}<table class="metrics">
{{range .Metrics}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>
{{end}}</table>{{end}}
</body>
</html>
`))

// Plot is a figure placed on a named target.
type Plot struct {
	Target string
	Figure Figure
}

// MetricRow is one labelled summary value.
type MetricRow struct {
	Name  string
	Value string
}

// MetricRows sorts a metrics map into display rows.
func MetricRows(metrics map[string]float64) []MetricRow {
	rows := make([]MetricRow, 0, len(metrics))
	for name, v := range metrics {
		rows = append(rows, MetricRow{Name: name, Value: fmt.Sprintf("%.2f", v)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

// WriteHTML writes a standalone page that draws every figure on c with
// Plotly, followed by an optional metrics table.
func WriteHTML(w io.Writer, title string, c *Canvas, metrics map[string]float64) error {
	return pageTmpl.Execute(w, struct {
		Title   string
		Script  string
		Plots   []Plot
		Metrics []MetricRow
	}{
		Title:   title,
		Script:  plotlyCDN,
		Plots:   c.Plots(),
		Metrics: MetricRows(metrics),
	})
}

// orderTargets puts the price chart ahead of the equity chart.
func orderTargets(targets []string) []string {
	out := make([]string, 0, len(targets))
	for _, want := range []string{TargetPrice, TargetEquity} {
		for _, t := range targets {
			if t == want {
				out = append(out, t)
			}
		}
	}
	for _, t := range targets {
		if t != TargetPrice && t != TargetEquity {
			out = append(out, t)
		}
	}
	return out
}
