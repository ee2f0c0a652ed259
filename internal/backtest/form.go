package backtest

import (
	"net/url"
	"strconv"

	"github.com/newthinker/pulse/internal/core"
	"github.com/newthinker/pulse/internal/format"
)

// Defaults applied to empty form fields.
const (
	DefaultSymbol       = "BTCUSDT"
	DefaultInterval     = "1d"
	DefaultShortWindow  = 10
	DefaultLongWindow   = 50
	DefaultForecastDays = 5
	DefaultCapital      = 10000.0
)

// Form field names on the backtest page.
const (
	FieldSymbol       = "bt_symbol"
	FieldInterval     = "bt_interval"
	FieldShort        = "bt_short"
	FieldLong         = "bt_long"
	FieldForecastDays = "bt_forecast_days"
	FieldCapital      = "bt_capital"
	FieldSave         = "bt_save"
)

// Intervals offered by the interval select.
var Intervals = []string{"1h", "4h", "1d", "1w"}

// Form is the raw backtest form input.
type Form struct {
	Symbol       string
	Interval     string
	ShortWindow  string
	LongWindow   string
	ForecastDays string
	Capital      string
	Save         bool
}

// FormFromValues reads a submitted backtest form.
func FormFromValues(v url.Values) Form {
	save, _ := strconv.ParseBool(v.Get(FieldSave))
	if v.Get(FieldSave) == "on" {
		save = true
	}
	return Form{
		Symbol:       v.Get(FieldSymbol),
		Interval:     v.Get(FieldInterval),
		ShortWindow:  v.Get(FieldShort),
		LongWindow:   v.Get(FieldLong),
		ForecastDays: v.Get(FieldForecastDays),
		Capital:      v.Get(FieldCapital),
		Save:         save,
	}
}

// Request builds the backtest request, defaulting empty fields.
// Numbers are read from their leading digits; a field with no leading
// number becomes 0 and is left for the backend to reject.
func (f Form) Request() core.BacktestRequest {
	return core.BacktestRequest{
		Symbol:         orDefault(f.Symbol, DefaultSymbol),
		Interval:       orDefault(f.Interval, DefaultInterval),
		ShortWindow:    intOrDefault(f.ShortWindow, DefaultShortWindow),
		LongWindow:     intOrDefault(f.LongWindow, DefaultLongWindow),
		ForecastDays:   intOrDefault(f.ForecastDays, DefaultForecastDays),
		InitialCapital: floatOrDefault(f.Capital, DefaultCapital),
		Save:           f.Save,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOrDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, _ := format.ParseIntPrefix(v)
	return n
}

func floatOrDefault(v string, def float64) float64 {
	if v == "" {
		return def
	}
	n, _ := format.ParseFloatPrefix(v)
	return n
}
