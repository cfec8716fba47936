package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float64) {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range x {
		x[i] *= norm
	}
}

// Clamp01 clamps v into [0, 1]. Dot products of unit vectors can drift past
// 1 by a few ulps; scores are clamped before ranking.
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
