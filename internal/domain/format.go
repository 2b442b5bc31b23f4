package domain

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// NonFinitePlaceholder is what FormatMagnitude returns for NaN and ±Inf.
const NonFinitePlaceholder = "-"

type magnitudeTier struct {
	base   float64
	suffix string
}

// magnitudeTiers is ordered smallest first.
var magnitudeTiers = []magnitudeTier{
	{1, ""},
	{1e3, "K"},
	{1e6, "M"},
	{1e9, "B"},
	{1e12, "T"},
	{1e15, "P"},
	{1e18, "E"},
}

// FormatMagnitude renders value compactly for axis labels: 1234 -> "1.2K",
// 3400000 -> "3.4M". The mantissa keeps at most precision fractional digits
// (extra digits are cut, not rounded up) and trailing zeros are trimmed.
// Values under 1000 get no suffix. E (1e18) is the largest tier; anything
// bigger is written as a whole number of E. Negative precision counts as zero.
func FormatMagnitude(value float64, precision int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NonFinitePlaceholder
	}
	if precision < 0 {
		precision = 0
	}

	abs := math.Abs(value)
	tier := 0
	for i := len(magnitudeTiers) - 1; i > 0; i-- {
		if abs >= magnitudeTiers[i].base {
			tier = i
			break
		}
	}

	mantissa := humanize.FtoaWithDigits(abs/magnitudeTiers[tier].base, precision)
	// Float rounding inside the mantissa can land on the next tier's base, e.g. "1000K".
	if tier < len(magnitudeTiers)-1 {
		if v, err := strconv.ParseFloat(mantissa, 64); err == nil && v >= 1000 {
			tier++
			mantissa = humanize.FtoaWithDigits(abs/magnitudeTiers[tier].base, precision)
		}
	}

	if mantissa == "0" {
		return "0"
	}
	out := mantissa + magnitudeTiers[tier].suffix
	if value < 0 {
		return "-" + out
	}
	return out
}

// FormatCount renders a whole count with thousands separators: 4500 -> "4,500".
func FormatCount(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NonFinitePlaceholder
	}
	return humanize.Comma(int64(math.Round(value)))
}

// FormatDelta renders a period increase for tables: "+120", or "0" when nothing changed.
func FormatDelta(value float64) string {
	s := FormatCount(value)
	if s == "0" || s == NonFinitePlaceholder || value < 0 {
		return s
	}
	return "+" + s
}
