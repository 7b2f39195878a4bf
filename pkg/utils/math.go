package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged and false is returned.
func NormalizeL2(x []float32) bool {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return false
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) * norm)
	}
	return true
}

// IsUnitNorm reports whether the L2 norm of x is within tol of 1.
func IsUnitNorm(x []float32, tol float64) bool {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Abs(math.Sqrt(sum)-1) <= tol
}
