package metrics

import (
	"math"
	"strconv"
	"strings"
)

// FormatValue renders a metric value the way reports display numbers:
// integers without a fraction, everything else with up to two decimals and
// trailing zeros trimmed.
func FormatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// FormatString parses a raw report value and renders it; unparsable input
// displays as 0, matching what it contributes.
func FormatString(raw string) string {
	return FormatValue(ParseNumber(raw))
}

// Percent renders part/total as a whole percentage, "0%" when total is 0.
func Percent(part, total float64) string {
	if total == 0 {
		return "0%"
	}
	return strconv.Itoa(int(math.Round(part/total*100))) + "%"
}
