package format

import (
	"strconv"
	"strings"

	"github.com/newthinker/pulse/internal/core"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var enUS = message.NewPrinter(language.AmericanEnglish)

// Price formats an indicator value with en-US grouping and exactly two
// decimals. Every indicator except the S&P 500 index is a USD price.
func Price(value float64, indicator string) string {
	s := enUS.Sprint(number.Decimal(value,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
	if indicator == core.IndicatorSP500 {
		return s
	}
	return "$" + s
}

// Change formats a percentage change with an explicit plus sign for
// non-negative values, and returns the matching CSS class.
func Change(pct float64) (text, class string) {
	sign := ""
	class = "negative"
	if pct >= 0 {
		sign = "+"
		class = "positive"
	}
	return sign + strconv.FormatFloat(pct, 'f', 1, 64) + "%", class
}

// Number renders a float the shortest way that round-trips, e.g. 42 or 42.5.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// OptionalNumber renders v, or "-" when it is missing.
func OptionalNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return Number(*v)
}

// SignalClass is the CSS class for a signal type, e.g. "strong_buy".
func SignalClass(signalType string) string {
	return strings.ToLower(signalType)
}
