package field

import "math"

// Round6 rounds to 6 decimal places. Angle bounds are rounded before building
// a grid so float noise in the bounds does not shift every sample.
// It scales by 1e6 and rounds half to even, so values sitting exactly on a
// decimal tie can land one unit off a correctly rounded decimal result.
func Round6(v float64) float64 {
	return math.RoundToEven(v*1e6) / 1e6
}

// Linspace returns n evenly spaced values from start to stop inclusive.
// n == 1 returns start; n <= 0 returns nil.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := 0; i < n-1; i++ {
		out[i] = float64(i)*step + start
	}
	out[n-1] = stop
	return out
}

// Arange returns start, start+step, ... up to but excluding stop, keeping at
// most limit values. A non-positive step, an empty interval or a
// non-positive limit returns nil.
func Arange(start, stop, step float64, limit int) []float64 {
	if !(step > 0) || !(stop > start) || limit <= 0 {
		return nil
	}
	n := limit
	// NaN and values past limit (including +Inf) keep n at limit.
	if steps := math.Ceil((stop - start) / step); steps < float64(limit) {
		n = int(steps)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
