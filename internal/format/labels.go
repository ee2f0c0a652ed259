package format

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// SentimentLabel turns a level such as "extreme_fear" into "EXTREME FEAR".
// Only the first underscore is replaced; backend levels carry at most one.
func SentimentLabel(level string) string {
	return strings.Replace(upper.String(level), "_", " ", 1)
}

// HorizonLabel is the caption next to the forecast horizon slider.
func HorizonLabel(value string) string {
	return value + " Days"
}

var riskLabels = map[string]string{
	"0": "Low",
	"1": "Medium",
	"2": "High",
}

// RiskLabel maps the risk slider position to its caption.
func RiskLabel(value string) string {
	if label, ok := riskLabels[value]; ok {
		return label
	}
	return "Medium"
}

// ClampUsage parses a usage percentage and clamps it into [0,100].
// Unparseable input counts as 0.
func ClampUsage(raw string) float64 {
	v, ok := ParseFloatPrefix(raw)
	if !ok || math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// UsageWidth is ClampUsage rendered as a CSS width.
func UsageWidth(raw string) string {
	return Number(ClampUsage(raw)) + "%"
}
