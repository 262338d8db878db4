// Package mathutil provides generic math helper functions.
package mathutil

// Signed is the set of signed number types.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Abs returns the absolute value of v.
func Abs[T Signed](v T) T {
	if v < 0 {
		return -v
	}

	return v
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T Signed](v, lo, hi T) T {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
