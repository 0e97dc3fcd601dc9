package utils

import "math"

func RoundTo(n float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(n*pow) / pow
}

// Round8 applies the ledger's fixed-point semantics: every balance and
// amount is kept at 8 decimal places.
func Round8(n float64) float64 {
	return RoundTo(n, 8)
}

// ShortHash truncates a tx hash or address for display.
func ShortHash(s string) string {
	if len(s) <= 20 {
		return s
	}
	return s[:10] + "..." + s[len(s)-10:]
}
