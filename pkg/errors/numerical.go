package errors

import (
	"math"
)

// CheckFinite returns a FitError naming the first NaN or Inf found in values.
func CheckFinite(op, what string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewFitError(op, "non-finite "+what, Newf("value %v at index %d", v, i))
		}
	}
	return nil
}

// CheckMatrix checks all values in a matrix and reports the first NaN or Inf
// together with its position.
func CheckMatrix(op string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return NewFitError(op, "degenerate design matrix", Newf("value %v at (%d, %d)", v, i, j))
			}
		}
	}
	return nil
}

// SafeDivide performs division with protection against division by zero.
// Returns 0 if denominator is zero or close to zero.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}
