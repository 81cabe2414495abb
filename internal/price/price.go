package price

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Glyph is the currency symbol used by catalog price strings.
const Glyph = "₢"

// maxExactInteger bounds the values printed through the integer path; beyond it
// float64 can no longer represent every integer.
const maxExactInteger = 1 << 53

// Parse converts a display price such as "₢1,250" into its numeric value.
// Everything except digits, dots and a leading minus sign is discarded. Inputs
// that do not leave a valid number behind yield 0.
func Parse(display string) float64 {
	if display == "" {
		return 0
	}
	var b strings.Builder
	b.Grow(len(display))
	for _, r := range display {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// FormatTotal renders n with the currency glyph and English digit grouping.
// Example: FormatTotal(1250) => "₢1,250"
func FormatTotal(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}
	p := message.NewPrinter(language.English)
	if n == math.Trunc(n) && math.Abs(n) < maxExactInteger {
		return Glyph + p.Sprintf("%d", int64(n))
	}
	return Glyph + p.Sprint(number.Decimal(n, number.MaxFractionDigits(3)))
}
