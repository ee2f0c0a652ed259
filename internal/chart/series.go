package chart

import (
	"time"

	"github.com/newthinker/pulse/internal/core"
)

// PriceSeriesFigure plots a price series against clock-time labels in loc.
func PriceSeriesFigure(symbol string, points []core.PricePoint, loc *time.Location) Figure {
	if loc == nil {
		loc = time.Local
	}
	return Figure{
		Data: []Trace{{
			Type: "scatter",
			Mode: "lines",
			Name: symbol,
			X:    column(points, func(p core.PricePoint) any { return p.Timestamp.In(loc).Format("3:04:05 PM") }),
			Y:    column(points, func(p core.PricePoint) any { return p.Price }),
			Line: &Line{Color: ColorUp},
		}},
		Layout: Layout{
			XAxis:        Axis{GridColor: colorGrid, TickColor: colorTick},
			YAxis:        Axis{GridColor: colorGrid, TickColor: colorTick},
			PaperBgColor: colorBg,
			PlotBgColor:  colorBg,
			Font:         Font{Color: colorFont},
		},
	}
}
