package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// InRange reports lo <= v && v <= hi. Unlike Clamp it does not swap the
// bounds: an inverted window contains nothing.
func InRange[T constraints.Ordered](v, lo, hi T) bool {
	return lo <= v && v <= hi
}

// Quantize converts an engineering value onto a register code of the given
// LSB weight, truncating toward zero. A zero LSB yields zero.
func Quantize[T constraints.Integer](v, lsb T) T {
	if lsb == 0 {
		return 0
	}
	return v / lsb
}

// FitsU8 reports whether v is representable as an unsigned byte.
func FitsU8[T constraints.Integer](v T) bool {
	return v >= 0 && uint64(v) <= 0xFF
}
