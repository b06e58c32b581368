package domain

import (
	"fmt"
	"math"
)

// RoundCents rounds a fractional cent amount to the nearest whole cent, half
// away from zero.
func RoundCents(v float64) int64 {
	return int64(math.Round(v))
}

// PercentOf returns pct percent of an integer-cents amount, rounded to the
// nearest cent.
func PercentOf(cents int64, pct float64) int64 {
	return RoundCents(float64(cents) * pct / 100)
}

// ScaleCents multiplies an integer-cents amount by a ratio, rounded to the
// nearest cent.
func ScaleCents(cents int64, ratio float64) int64 {
	return RoundCents(float64(cents) * ratio)
}

// FormatUSD renders an integer-cents amount as a dollar string, e.g. -75000 ->
// "-$750.00".
func FormatUSD(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
