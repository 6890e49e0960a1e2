package common

import (
	"fmt"
	"math"
	"strings"
)

// Placeholder rendered for values that cannot be formatted (NaN, ±Inf).
// Call sites display it as-is rather than propagating a failure.
const FormatPlaceholder = "—"

// FormatMoney formats a dollar amount with thousands separators and 2 decimals.
// Negative amounts carry a leading minus: FormatMoney(-1234.5) == "-$1,234.50".
func FormatMoney(v float64) string {
	if !isFormattable(v) {
		return FormatPlaceholder
	}
	if v < 0 {
		return "-$" + groupThousands(fmt.Sprintf("%.2f", -v))
	}
	return "$" + groupThousands(fmt.Sprintf("%.2f", v))
}

// FormatSignedMoney formats a dollar amount with an explicit sign.
// Zero and positive amounts get "+".
func FormatSignedMoney(v float64) string {
	if !isFormattable(v) {
		return FormatPlaceholder
	}
	if v < 0 {
		return "-$" + groupThousands(fmt.Sprintf("%.2f", -v))
	}
	return "+$" + groupThousands(fmt.Sprintf("%.2f", v))
}

// FormatPct formats a percentage with 2 decimals: FormatPct(2.345) == "2.35%".
func FormatPct(v float64) string {
	if !isFormattable(v) {
		return FormatPlaceholder
	}
	return fmt.Sprintf("%.2f%%", v)
}

// FormatSignedPct formats a percentage with an explicit sign for non-negative
// values: FormatSignedPct(2.345) == "+2.35%".
func FormatSignedPct(v float64) string {
	if !isFormattable(v) {
		return FormatPlaceholder
	}
	if v < 0 {
		return fmt.Sprintf("-%.2f%%", -v)
	}
	return fmt.Sprintf("+%.2f%%", v)
}

// FormatPL renders the combined profit/loss string the dashboard cards use,
// e.g. "+$1,234.56 (5.67%)".
func FormatPL(value, percent float64) string {
	if !isFormattable(value) || !isFormattable(percent) {
		return FormatPlaceholder
	}
	return fmt.Sprintf("%s (%.2f%%)", FormatSignedMoney(value), percent)
}

func isFormattable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// groupThousands inserts comma separators into the integer part of a
// fixed-decimal string produced by %.2f.
func groupThousands(s string) string {
	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx:]
	}
	if len(intPart) <= 3 {
		return intPart + fracPart
	}

	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}
	return sb.String() + fracPart
}
