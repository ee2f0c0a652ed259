package format

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	hexPrefix   = regexp.MustCompile(`^([+-]?)0[xX]([0-9a-fA-F]+)`)
)

// ParseFloatPrefix reads the longest leading decimal number of s, ignoring
// leading whitespace and trailing garbage: "12.5px" is 12.5.
func ParseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	for _, inf := range []string{"Infinity", "+Infinity"} {
		if strings.HasPrefix(s, inf) {
			return math.Inf(1), true
		}
	}
	if strings.HasPrefix(s, "-Infinity") {
		return math.Inf(-1), true
	}

	m := floatPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Out of range exponents still carry a sign and magnitude.
		if isRange(err) {
			return v, true
		}
		return 0, false
	}
	return v, true
}

// ParseIntPrefix reads the leading integer of s, with 0x meaning hex:
// "50 days" is 50, "7.9" is 7. Values beyond the int range clamp to its
// bounds.
func ParseIntPrefix(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	if m := hexPrefix.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseInt(m[2], 16, 0)
		if err != nil && !isRange(err) {
			return 0, false
		}
		if m[1] == "-" {
			v = -v
		}
		return int(v), true
	}

	m := intPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil && !isRange(err) {
		return 0, false
	}
	return v, true
}

// isRange reports a strconv overflow. The accompanying value is already
// clamped to the type's bounds.
func isRange(err error) bool {
	return errors.Is(err, strconv.ErrRange)
}
