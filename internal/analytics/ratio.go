package analytics

import "math"

// SafeRatio divides num by den. A zero denominator, or any quotient that is
// NaN or infinite, yields 0.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

// Percent is SafeRatio scaled to 0..100.
func Percent(num, den float64) float64 {
	return SafeRatio(num, den) * 100
}

// degenerate reports whether SafeRatio had to substitute zero.
func degenerate(num, den float64) bool {
	if den == 0 {
		return true
	}
	q := num / den
	return math.IsNaN(q) || math.IsInf(q, 0)
}
