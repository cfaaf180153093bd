// Package schema holds pure helpers for shaping model output into the wire
// schema: fixed-precision rounding and class label resolution
package schema

import "math"

// DefaultPrecision is the number of decimal places kept on wire floats
const DefaultPrecision = 5

// Round rounds x to prec decimal places; NaN and Inf pass through untouched
// since they never come from a well-formed model head and would fail JSON
// encoding either way
func Round(x float64, prec int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	if prec < 0 {
		prec = 0
	}
	p := math.Pow10(prec)
	return math.Round(x*p) / p
}

// RoundSlice rounds every element in place and returns the slice
func RoundSlice(xs []float64, prec int) []float64 {
	for i := range xs {
		xs[i] = Round(xs[i], prec)
	}
	return xs
}
