package field

import "math"

// Result is the outcome of one Compute call.
type Result struct {
	// Accepted is false when the gate rejected the vector; Vector is then (0, 0).
	Accepted bool
	Vector   Vector
	// Samples holds every per-sample contribution, in scan order.
	Samples []Sample
}

// Computer turns scan frames into field vectors.
type Computer struct {
	params  Params
	gate    Gate
	ceiling float64
	bias    float64
}

// NewComputer creates a Computer. A nil gate means PermissiveGate.
func NewComputer(params Params, gate Gate) *Computer {
	if gate == nil {
		gate = PermissiveGate{}
	}
	return &Computer{
		params:  params,
		gate:    gate,
		ceiling: params.Ceiling(),
		bias:    params.ForwardBias(),
	}
}

// Params returns the constants the Computer was built with.
func (c *Computer) Params() Params {
	return c.params
}

// Compute validates frame and returns its gated field vector.
// A malformed frame returns an error wrapping ErrMalformedFrame and no result.
func (c *Computer) Compute(frame ScanFrame) (Result, error) {
	if err := frame.Validate(); err != nil {
		return Result{}, err
	}

	vec, samples := c.sum(frame)
	if !c.gate.Verify(frame, vec) {
		return Result{Accepted: false, Samples: samples}, nil
	}
	return Result{Accepted: true, Vector: vec, Samples: samples}, nil
}

// sum builds the angle grid, accumulates every sample and adds the forward bias.
func (c *Computer) sum(frame ScanFrame) (Vector, []Sample) {
	n := len(frame.Ranges)
	theta := Linspace(Round6(frame.AngleMin+math.Pi), Round6(frame.AngleMax+math.Pi), n)

	samples := make([]Sample, n)
	var x, y float64
	for i, r := range frame.Ranges {
		mag := c.magnitude(r)
		s := Sample{
			X:     mag * math.Cos(theta[i]),
			Y:     mag * math.Sin(theta[i]),
			Range: r,
			Theta: theta[i],
		}
		samples[i] = s
		x += s.X
		y += s.Y
	}

	// Forward bias at angle 0.
	x += c.bias * math.Cos(0)
	y += c.bias * math.Sin(0)

	return Vector{X: x, Y: y}, samples
}

// magnitude is K/r² with the fail-safe: a return at or below zero range, or
// one so close the magnitude passes the ceiling, contributes the ceiling.
// No return (+Inf) contributes nothing.
func (c *Computer) magnitude(r float64) float64 {
	switch {
	case math.IsInf(r, 1):
		return 0
	case !(r > 0):
		return c.ceiling
	}
	m := c.params.K / (r * r)
	if m > c.ceiling || math.IsInf(m, 0) {
		return c.ceiling
	}
	return m
}
