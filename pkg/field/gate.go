package field

import "math"

// Gate decides whether a candidate vector is safe to act on.
// Implementations must be pure functions of their inputs.
type Gate interface {
	Verify(frame ScanFrame, v Vector) bool
}

// GateFunc adapts a function to Gate.
type GateFunc func(frame ScanFrame, v Vector) bool

// Verify calls f.
func (f GateFunc) Verify(frame ScanFrame, v Vector) bool {
	return f(frame, v)
}

// PermissiveGate accepts every vector. It performs no geometric check and is
// the default; goal execution downstream does its own obstacle handling.
type PermissiveGate struct{}

// Verify always returns true.
func (PermissiveGate) Verify(ScanFrame, Vector) bool {
	return true
}

// CorridorGate rejects a vector when a scan return sits inside a corridor of
// half-width Tolerance along the vector, closer than the vector's length.
//
// Sample angles come from a stepped grid (AngleMin, AngleMin+AngleIncrement,
// ... excluding AngleMax) in the sensor's native convention, so the grid may
// be one sample shorter than Ranges. Only finite positive ranges are tested.
// This gate is opt-in.
type CorridorGate struct {
	Tolerance float64
}

// Verify implements Gate.
func (g CorridorGate) Verify(frame ScanFrame, v Vector) bool {
	mag := v.Magnitude()
	if mag == 0 || math.IsNaN(mag) {
		return true
	}
	ux, uy := v.X/mag, v.Y/mag

	grid := Arange(Round6(frame.AngleMin), Round6(frame.AngleMax), Round6(frame.AngleIncrement), len(frame.Ranges))
	for i := range grid {
		r := frame.Ranges[i]
		if !(r > 0) || math.IsInf(r, 1) {
			continue
		}
		px, py := r*math.Cos(grid[i]), r*math.Sin(grid[i])

		along := px*ux + py*uy
		if along <= 0 || along >= mag {
			continue
		}
		if math.Abs(px*uy-py*ux) < g.Tolerance {
			return false
		}
	}
	return true
}

var (
	_ Gate = PermissiveGate{}
	_ Gate = CorridorGate{}
	_ Gate = GateFunc(nil)
)
