// Package safeconv provides integer conversions that panic instead of wrapping.
package safeconv

import "math"

// MaxUint32 is the maximum value for uint32 type.
const MaxUint32 = uint32(math.MaxUint32)

// MustIntToUint32 converts int to uint32, panics on bounds violation.
// Use only when bounds violations are logically impossible.
func MustIntToUint32(v int) uint32 {
	if v < 0 || v > int(MaxUint32) {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// MustNonNegative returns v as int64 and panics when it is negative.
func MustNonNegative(v int) int64 {
	if v < 0 {
		panic("safeconv: negative value")
	}

	return int64(v)
}
