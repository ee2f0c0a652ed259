package chart

import (
	"fmt"
	"math"
	"strings"
)

// Gauge draws a semicircular 0-100 gauge as SVG.
type Gauge struct {
	Width     float64
	Height    float64
	LineWidth float64
}

// DefaultGauge matches the dashboard's sentiment panel.
var DefaultGauge = Gauge{Width: 200, Height: 200, LineWidth: 20}

// Point is an SVG user-space coordinate.
type Point struct {
	X, Y float64
}

func (g Gauge) center() (cx, cy, r float64) {
	cx = g.Width / 2
	cy = g.Height / 2
	r = math.Min(cx, cy) - 10
	return cx, cy, r
}

// Fraction clamps score/100 into [0,1].
func Fraction(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(1, score/100))
}

// GaugeColor is green from 50 up, red below.
func GaugeColor(score float64) string {
	if score >= 50 {
		return ColorUp
	}
	return ColorDown
}

// ArcEnd is where the overlay arc for score ends. The arc starts at the
// left end of the semicircle and sweeps over the top, covering score/100
// of the half turn.
func (g Gauge) ArcEnd(score float64) Point {
	cx, cy, r := g.center()
	theta := math.Pi - Fraction(score)*math.Pi
	return Point{X: cx + r*math.Cos(theta), Y: cy - r*math.Sin(theta)}
}

// SVG renders the background arc and then the score overlay.
func (g Gauge) SVG(score float64) string {
	cx, cy, r := g.center()
	start := Point{X: cx - r, Y: cy}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="gauge" xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(g.Width), num(g.Height), num(g.Width), num(g.Height))
	writeArc(&b, start, Point{X: cx + r, Y: cy}, r, g.LineWidth, ColorGaugeBg)
	if Fraction(score) > 0 {
		writeArc(&b, start, g.ArcEnd(score), r, g.LineWidth, GaugeColor(score))
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// writeArc strokes a clockwise arc of at most a half turn.
func writeArc(b *strings.Builder, from, to Point, r, lineWidth float64, color string) {
	fmt.Fprintf(b, `<path d="M %s %s A %s %s 0 0 1 %s %s" fill="none" stroke="%s" stroke-width="%s"/>`,
		num(from.X), num(from.Y), num(r), num(r), num(to.X), num(to.Y), color, num(lineWidth))
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
