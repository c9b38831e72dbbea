package smard

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// leadingNumber matches the part of a string a lenient float parser would
// consume: "1,5" yields "1", "12abc" yields "12".
var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)

// -----------------------------------------------------------------------------

// ParseNumber reads a German formatted value such as "53.511" (thousands
// separated by '.') and returns 0 when nothing numeric is found. A zero
// result is therefore ambiguous: "0", "-" and "" all map to it.
func ParseNumber(text string) float64 {
	s := strings.ReplaceAll(text, ".", "")
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	prefix := leadingNumber.FindString(s)
	if prefix == "" {
		return 0
	}

	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		// Only overflow gets here; ParseFloat still returns ±Inf for it.
		if math.IsInf(v, 0) {
			return v
		}
		return 0
	}
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// -----------------------------------------------------------------------------

// FormatNumber renders v the German way: '.' groups thousands, ',' separates
// the given number of decimals.
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	if decimals < 0 {
		decimals = 0
	}

	raw := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	intPart, fracPart, _ := strings.Cut(raw, ".")

	var b strings.Builder
	if v < 0 && strings.Trim(raw, "0.") != "" {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

// percentSuffix follows de-DE percent formatting (U+00A0 before the sign).
const percentSuffix = "\u00a0%"

// FormatPercent renders a fraction as a whole German percentage: the
// number and "%" are joined by a no-break space, "42\u00a0%".
func FormatPercent(fraction float64) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return "-"
	}
	return FormatNumber(fraction*100, 0) + percentSuffix
}
