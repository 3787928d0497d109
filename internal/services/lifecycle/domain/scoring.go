package domain

import (
	"math"
	"unicode/utf16"
)

// Clamp bounds value to [min, max]. NaN collapses to min.
func Clamp(value, min, max float64) float64 {
	if math.IsNaN(value) {
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// HashString is a deterministic, non-cryptographic 32-bit string hash
// (h = h*31 + c over UTF-16 code units, wrapping). The result is the absolute
// value of the signed 32-bit hash and is therefore never negative. It exists
// for reproducible flavor choices only.
func HashString(seed string) int64 {
	var h int32
	for _, unit := range utf16.Encode([]rune(seed)) {
		h = (h << 5) - h + int32(unit)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// SeededFloat maps seed to [0,1) in steps of 0.001.
func SeededFloat(seed string) float64 {
	return float64(HashString(seed)%1000) / 1000
}

// Round2 rounds half up to two decimals.
func Round2(value float64) float64 {
	return roundTo(value, 2)
}

func roundTo(value float64, decimals int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	scale := math.Pow(10, float64(decimals))
	return math.Floor(value*scale+0.5) / scale
}

func roundHalfUp(value float64) int {
	return int(math.Floor(value + 0.5))
}

func isBadFloat(value float64) bool {
	return math.IsNaN(value) || math.IsInf(value, 0)
}
