package abi

import "math"

// IsNumber reports whether value is a Go integer or floating point kind.
func IsNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	}
	return false
}

// CoerceToInt64 converts any numeric host value to int64. Floats are
// truncated toward zero the way a C cast does.
func CoerceToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uintptr:
		return int64(v), true
	case float32:
		return floatToInt64(float64(v)), true
	case float64:
		return floatToInt64(v), true
	}
	return 0, false
}

// CoerceToUint64 converts any numeric host value to uint64, wrapping
// negative integers.
func CoerceToUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case uintptr:
		return uint64(v), true
	case float32:
		if v >= 0 {
			return floatToUint64(float64(v)), true
		}
	case float64:
		if v >= 0 {
			return floatToUint64(v), true
		}
	}
	i, ok := CoerceToInt64(value)
	return uint64(i), ok
}

// CoerceToFloat64 converts any numeric host value to float64.
func CoerceToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uintptr:
		return float64(v), true
	}
	i, ok := CoerceToInt64(value)
	return float64(i), ok
}

func floatToInt64(f float64) int64 {
	switch {
	case f != f:
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func floatToUint64(f float64) uint64 {
	if f >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(f)
}
