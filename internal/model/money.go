package model

import (
	"fmt"
	"math"
)

// FromDecimal converts a decimal amount (e.g. 80.5 euros) to minor units.
func FromDecimal(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ToDecimal converts minor units back to a decimal amount.
func ToDecimal(minor int64) float64 {
	return float64(minor) / 100
}

// Round2 rounds to two decimals, the precision every provider quotes in.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatMinor renders minor units as "80.00".
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
