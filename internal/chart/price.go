package chart

import (
	"fmt"
	"strings"

	"github.com/newthinker/pulse/internal/core"
	"github.com/newthinker/pulse/internal/indicator"
)

// Draw targets for the backtest page.
const (
	TargetPrice  = "pricePlot"
	TargetEquity = "equityPlot"
)

// PartitionTrades splits trades into buys and sells by case-insensitive
// type. Trades of any other type are dropped.
func PartitionTrades(trades []core.Trade) (buys, sells []core.Trade) {
	for _, t := range trades {
		switch core.TradeType(strings.ToLower(string(t.Type))) {
		case core.TradeBuy:
			buys = append(buys, t)
		case core.TradeSell:
			sells = append(sells, t)
		}
	}
	return buys, sells
}

// PriceFigure builds the candlestick chart with both moving averages,
// the forecast and its confidence band, and trade markers.
func PriceFigure(symbol string, result *core.BacktestResult, shortWindow, longWindow int) Figure {
	candles := result.Candles
	times := column(candles, func(c core.Candle) any { return c.Timestamp })
	closes := result.Closes()

	traces := []Trace{{
		Type:       "candlestick",
		Name:       "Price",
		X:          times,
		Open:       column(candles, func(c core.Candle) any { return c.Open }),
		High:       column(candles, func(c core.Candle) any { return c.High }),
		Low:        column(candles, func(c core.Candle) any { return c.Low }),
		Close:      column(candles, func(c core.Candle) any { return c.Close }),
		Increasing: &Side{Line: Line{Color: ColorUp}},
		Decreasing: &Side{Line: Line{Color: ColorDown}},
	}}

	traces = append(traces,
		smaTrace(times, closes, shortWindow, "orange"),
		smaTrace(times, closes, longWindow, "blue"),
	)

	if fp := result.ForecastPoints; len(fp) > 0 {
		dates := column(fp, func(p core.ForecastPoint) any { return p.Date })
		traces = append(traces,
			Trace{
				Type: "scatter",
				Mode: "lines+markers",
				Name: "Prediction",
				X:    dates,
				Y:    column(fp, func(p core.ForecastPoint) any { return p.Price }),
				Line: &Line{Color: "yellow", Dash: "dot"},
			},
			// Band: upper first, then lower filled back to it.
			Trace{
				Type:       "scatter",
				Mode:       "lines",
				X:          dates,
				Y:          column(fp, func(p core.ForecastPoint) any { return p.ConfidenceUpper }),
				Line:       &Line{Width: width(0)},
				ShowLegend: boolPtr(false),
			},
			Trace{
				Type:       "scatter",
				Mode:       "lines",
				X:          dates,
				Y:          column(fp, func(p core.ForecastPoint) any { return p.ConfidenceLower }),
				Fill:       "tonexty",
				FillColor:  colorBandFill,
				Line:       &Line{Width: width(0)},
				ShowLegend: boolPtr(false),
			},
		)
	}

	buys, sells := PartitionTrades(result.Trades)
	if len(buys) > 0 {
		traces = append(traces, markerTrace("Buys", buys, "green", "triangle-up"))
	}
	if len(sells) > 0 {
		traces = append(traces, markerTrace("Sells", sells, "red", "triangle-down"))
	}

	layout := darkLayout(fmt.Sprintf("%s Price & Prediction", symbol), "Price (USD)")
	layout.ShowLegend = boolPtr(true)

	return Figure{Data: traces, Layout: layout}
}

// EquityFigure plots the equity curve.
func EquityFigure(equity []core.EquitySample) Figure {
	return Figure{
		Data: []Trace{{
			Type: "scatter",
			Mode: "lines",
			Name: "Equity",
			X:    column(equity, func(e core.EquitySample) any { return e.Timestamp }),
			Y:    column(equity, func(e core.EquitySample) any { return e.Equity }),
			Line: &Line{Color: ColorUp},
		}},
		Layout: darkLayout("Equity Curve", "Equity (USD)"),
	}
}

func smaTrace(times []any, closes []float64, window int, color string) Trace {
	ma := indicator.MovingAverage(closes, window)
	y := make([]any, len(ma))
	for i, v := range ma {
		if v != nil {
			y[i] = *v
		}
	}
	return Trace{
		Type: "scatter",
		Mode: "lines",
		Name: fmt.Sprintf("SMA %d", window),
		X:    times,
		Y:    y,
		Line: &Line{Color: color, Width: width(1)},
	}
}

func markerTrace(name string, trades []core.Trade, color, symbol string) Trace {
	return Trace{
		Type:   "scatter",
		Mode:   "markers",
		Name:   name,
		X:      column(trades, func(t core.Trade) any { return t.Timestamp }),
		Y:      column(trades, func(t core.Trade) any { return t.Price }),
		Marker: &Marker{Color: color, Size: 10, Symbol: symbol},
	}
}
