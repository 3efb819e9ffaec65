package jesd204

import "math"

// saturatingIncr increments n by one, clamping at math.MaxInt32 rather
// than wrapping. Used by CoreTX's restart counter, exposed to callers
// monitoring link health over long runs.
func saturatingIncr(n int) int {
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return n + 1
}
