package model

import "math"

// round rounds v to the given number of decimals.
func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// ratio returns num/den rounded to 2dp, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return round(num/den, 2)
}

// pct returns num/den as a percentage rounded to 2dp, or 0 when den is 0.
func pct(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return round(num/den*100.0, 2)
}
