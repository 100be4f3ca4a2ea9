// Package table implements the calibration tables of the ECU: 2-D curves and
// 3-D maps addressed by non-uniform, monotonically increasing axes.
//
// Lookups interpolate with integer fixed-point arithmetic only. The position
// of an input between two axis entries is expressed in Q16, so 0 is exactly
// the lower entry and fracOne is exactly the upper entry. Interpolated values
// are rounded once, at the very end, which keeps every axis point exact.
package table

import "errors"

const (
	fracBits = 16
	fracOne  = int64(1) << fracBits

	// MinAxisLength is the smallest number of bins an axis may have.
	MinAxisLength = 2

	// MaxAxisLength is the largest number of bins an axis may have.
	MaxAxisLength = 16
)

var (
	// ErrAxisLength is returned when an axis is shorter than MinAxisLength or
	// longer than MaxAxisLength.
	ErrAxisLength = errors.New("table: axis length out of range")

	// ErrShapeMismatch is returned when the value grid does not match the
	// axes.
	ErrShapeMismatch = errors.New("table: values do not match axes")
)

// binCache remembers the last bin an axis lookup resolved to. The zero value
// is a cold cache.
type binCache struct {
	upper int
	valid bool
}

func (c *binCache) invalidate() {
	c.valid = false
}

// position is the result of resolving a value against an axis. Upper is the
// index of the upper bracketing axis entry and frac is the Q16 distance of the
// value from the lower entry.
type position struct {
	upper int
	frac  int64
}

func inBin(axis []int16, upper int, v int32) bool {
	return int32(axis[upper-1]) < v && v <= int32(axis[upper])
}

// findBin returns the index i in [1, len(axis)-1] such that
// axis[i-1] < v <= axis[i]. The cached bin and its neighbours are tried first.
func findBin(axis []int16, v int32, cache *binCache) int {
	n := len(axis)

	if cache.valid && cache.upper >= 1 && cache.upper < n {
		c := cache.upper
		if inBin(axis, c, v) {
			return c
		}

		if c+1 < n && inBin(axis, c+1, v) {
			return c + 1
		}

		if c-1 >= 1 && inBin(axis, c-1, v) {
			return c - 1
		}
	}

	for i := n - 1; i > 1; i-- {
		if v > int32(axis[i-1]) {
			return i
		}
	}

	return 1
}

// resolve clamps v to the axis range and computes its bin position.
func resolve(axis []int16, v int32, cache *binCache) position {
	n := len(axis)

	if v >= int32(axis[n-1]) {
		cache.upper = n - 1
		cache.valid = true

		return position{upper: n - 1, frac: fracOne}
	}

	if v <= int32(axis[0]) {
		cache.upper = 1
		cache.valid = true

		return position{upper: 1, frac: 0}
	}

	upper := findBin(axis, v, cache)
	cache.upper = upper
	cache.valid = true

	lo := int64(axis[upper-1])
	hi := int64(axis[upper])

	if hi <= lo {
		return position{upper: upper, frac: fracOne}
	}

	frac := ((int64(v) - lo) << fracBits) / (hi - lo)
	if frac < 0 {
		frac = 0
	}

	if frac > fracOne {
		frac = fracOne
	}

	return position{upper: upper, frac: frac}
}

// blend returns lo*(1-frac) + hi*frac in Q16 without rounding.
func blend(lo, hi int16, frac int64) int64 {
	return int64(lo)*(fracOne-frac) + int64(hi)*frac
}

func checkAxis(axis []int16) error {
	if len(axis) < MinAxisLength || len(axis) > MaxAxisLength {
		return ErrAxisLength
	}

	return nil
}
