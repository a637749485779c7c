package vm

import "golang.org/x/exp/constraints"

// minOrdered, maxOrdered, and clampOrdered back the SL min/max/clamp
// builtins' scalar comparisons. They are generic over
// constraints.Ordered rather than hardcoded to float32; every current
// caller instantiates them with float32.
func minOrdered[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxOrdered[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func clampOrdered[T constraints.Ordered](v, lo, hi T) T {
	return maxOrdered(lo, minOrdered(v, hi))
}
