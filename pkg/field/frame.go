package field

import (
	"fmt"
	"math"
)

// ScanFrame is one planar range scan. Sample i lies at roughly
// AngleMin + i*AngleIncrement radians.
type ScanFrame struct {
	AngleMin       float64
	AngleMax       float64
	AngleIncrement float64
	Ranges         []float64 // meters; 0, +Inf and negative values are tolerated
}

// Validate reports why a frame is malformed, wrapping ErrMalformedFrame.
//
// Zero and negative ranges pass: Compute handles them with the fail-safe
// ceiling. +Inf passes as "no return". NaN and -Inf do not.
// A single-sample frame may have AngleMin == AngleMax.
func (f ScanFrame) Validate() error {
	n := len(f.Ranges)
	if n == 0 {
		return fmt.Errorf("%w: no ranges", ErrMalformedFrame)
	}
	if !isFinite(f.AngleMin) || !isFinite(f.AngleMax) {
		return fmt.Errorf("%w: non-finite angle bounds", ErrMalformedFrame)
	}
	if f.AngleMin > f.AngleMax || (f.AngleMin == f.AngleMax && n > 1) {
		return fmt.Errorf("%w: angle_min %.6f >= angle_max %.6f", ErrMalformedFrame, f.AngleMin, f.AngleMax)
	}
	if !isFinite(f.AngleIncrement) || f.AngleIncrement <= 0 {
		return fmt.Errorf("%w: angle_increment %v must be > 0", ErrMalformedFrame, f.AngleIncrement)
	}
	for i, r := range f.Ranges {
		if math.IsNaN(r) || math.IsInf(r, -1) {
			return fmt.Errorf("%w: range[%d] is %v", ErrMalformedFrame, i, r)
		}
	}
	return nil
}

// Vector is a body-frame pseudo-displacement. Its length is a product of the
// field constants, not a metric distance.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Magnitude returns |v|.
func (v Vector) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// Heading returns atan2(y, x).
func (v Vector) Heading() float64 {
	return math.Atan2(v.Y, v.X)
}

// IsZero reports whether v is the null vector.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Sample is one scan sample's contribution to the field.
type Sample struct {
	X     float64
	Y     float64
	Range float64
	Theta float64 // repulsion direction, sensor angle + π
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
