package metrics

import "math"

// AbsError returns |pi - math.Pi|.
func AbsError(pi float64) float64 {
	return math.Abs(pi - math.Pi)
}

// CorrectDigits returns the number of correct decimal digits of pi, derived
// from the absolute error. It returns 0 for approximations off by 1 or more
// and 15 (the float64 limit) for exact matches.
func CorrectDigits(pi float64) int {
	e := AbsError(pi)
	if e == 0 {
		return 15
	}
	d := int(math.Floor(-math.Log10(e)))
	return max(0, min(d, 15))
}
