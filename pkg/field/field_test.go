package field

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const floatTolerance = 1e-9

func uniformFrame(n int, r float64) ScanFrame {
	ranges := make([]float64, n)
	for i := range ranges {
		ranges[i] = r
	}
	return ScanFrame{
		AngleMin:       -math.Pi / 2,
		AngleMax:       math.Pi / 2,
		AngleIncrement: math.Pi / float64(max(n-1, 1)),
		Ranges:         ranges,
	}
}

func TestCompute_ThreeSamplesMatchesFormula(t *testing.T) {
	p := DefaultParams()
	c := NewComputer(p, nil)

	frame := ScanFrame{
		AngleMin:       -math.Pi / 2,
		AngleMax:       math.Pi / 2,
		AngleIncrement: math.Pi / 2,
		Ranges:         []float64{1.0, 1.0, 1.0},
	}

	res, err := c.Compute(frame)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	start := Round6(math.Pi / 2)
	stop := Round6(3 * math.Pi / 2)
	mid := start + (stop-start)/2
	wantX := p.K*(math.Cos(start)+math.Cos(mid)+math.Cos(stop)) + p.K/(p.ForwardWeightD*p.ForwardWeightD)
	wantY := p.K * (math.Sin(start) + math.Sin(mid) + math.Sin(stop))

	assert.InDelta(t, wantX, res.Vector.X, floatTolerance)
	assert.InDelta(t, wantY, res.Vector.Y, floatTolerance)
	require.Len(t, res.Samples, 3)
	assert.InDelta(t, start, res.Samples[0].Theta, floatTolerance)
	assert.InDelta(t, stop, res.Samples[2].Theta, floatTolerance)
}

func TestCompute_Deterministic(t *testing.T) {
	c := NewComputer(DefaultParams(), nil)
	frame := uniformFrame(360, 2.5)

	a, err := c.Compute(frame)
	require.NoError(t, err)
	b, err := c.Compute(frame)
	require.NoError(t, err)

	assert.Equal(t, math.Float64bits(a.Vector.X), math.Float64bits(b.Vector.X))
	assert.Equal(t, math.Float64bits(a.Vector.Y), math.Float64bits(b.Vector.Y))
	assert.Equal(t, a.Samples, b.Samples)
}

func TestCompute_SingleSample(t *testing.T) {
	c := NewComputer(DefaultParams(), nil)

	tests := []struct {
		name  string
		frame ScanFrame
	}{
		{"spanning bounds", ScanFrame{AngleMin: -0.1, AngleMax: 0.1, AngleIncrement: 0.2, Ranges: []float64{1.5}}},
		{"single beam", ScanFrame{AngleMin: 0.3, AngleMax: 0.3, AngleIncrement: 0.01, Ranges: []float64{1.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Compute(tt.frame)
			require.NoError(t, err)
			require.Len(t, res.Samples, 1)
			assert.InDelta(t, Round6(tt.frame.AngleMin+math.Pi), res.Samples[0].Theta, floatTolerance)
			assert.False(t, math.IsNaN(res.Vector.X) || math.IsNaN(res.Vector.Y))
		})
	}
}

func TestCompute_AllInfIsForwardBias(t *testing.T) {
	p := DefaultParams()
	c := NewComputer(p, nil)

	res, err := c.Compute(uniformFrame(5, math.Inf(1)))
	require.NoError(t, err)

	assert.Equal(t, p.K/(p.ForwardWeightD*p.ForwardWeightD), res.Vector.X)
	assert.Equal(t, 0.0, res.Vector.Y)
}

func TestCompute_ZeroRangeFailSafe(t *testing.T) {
	c := NewComputer(DefaultParams(), nil)

	frame := uniformFrame(5, 3.0)
	frame.Ranges[1] = 0

	far := uniformFrame(5, 3.0)
	far.Ranges[1] = 1e6

	zero, err := c.Compute(frame)
	require.NoError(t, err)
	ref, err := c.Compute(far)
	require.NoError(t, err)

	for _, v := range []float64{zero.Vector.X, zero.Vector.Y} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "vector must be finite, got %v", zero.Vector)
	}
	assert.Greater(t, zero.Vector.Magnitude(), ref.Vector.Magnitude())
}

func TestCompute_NegativeRangeUsesCeiling(t *testing.T) {
	p := DefaultParams()
	c := NewComputer(p, nil)

	frame := ScanFrame{AngleMin: -0.1, AngleMax: 0.1, AngleIncrement: 0.2, Ranges: []float64{-1}}
	res, err := c.Compute(frame)
	require.NoError(t, err)

	s := res.Samples[0]
	assert.InDelta(t, p.Ceiling(), math.Hypot(s.X, s.Y), 1e-6)
}

func TestCompute_TinyRangeClamped(t *testing.T) {
	p := DefaultParams()
	p.MaxMagnitude = 10
	c := NewComputer(p, nil)

	frame := ScanFrame{AngleMin: -0.1, AngleMax: 0.1, AngleIncrement: 0.2, Ranges: []float64{1e-200}}
	res, err := c.Compute(frame)
	require.NoError(t, err)

	s := res.Samples[0]
	assert.InDelta(t, 10.0, math.Hypot(s.X, s.Y), 1e-9)
}

func TestCompute_RepelsFromObstacle(t *testing.T) {
	c := NewComputer(DefaultParams(), nil)

	// Obstacle close on the left (positive angles): push right (negative Y).
	frame := uniformFrame(5, math.Inf(1))
	frame.Ranges[3] = 0.5

	res, err := c.Compute(frame)
	require.NoError(t, err)
	assert.Less(t, res.Vector.Y, 0.0)
}

func TestCompute_GateRejectionYieldsNull(t *testing.T) {
	reject := GateFunc(func(ScanFrame, Vector) bool { return false })
	c := NewComputer(DefaultParams(), reject)

	res, err := c.Compute(uniformFrame(4, 1.0))
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.True(t, res.Vector.IsZero())
	assert.Len(t, res.Samples, 4)
}

func TestCompute_GateSeesCandidateVector(t *testing.T) {
	var seen Vector
	spy := GateFunc(func(_ ScanFrame, v Vector) bool {
		seen = v
		return true
	})
	c := NewComputer(DefaultParams(), spy)

	res, err := c.Compute(uniformFrame(4, 1.0))
	require.NoError(t, err)
	assert.Equal(t, res.Vector, seen)
}

func TestCompute_MalformedFrames(t *testing.T) {
	c := NewComputer(DefaultParams(), nil)

	tests := []struct {
		name  string
		frame ScanFrame
	}{
		{"empty", ScanFrame{AngleMin: -1, AngleMax: 1, AngleIncrement: 0.1}},
		{"reversed bounds", ScanFrame{AngleMin: 1, AngleMax: -1, AngleIncrement: 0.1, Ranges: []float64{1, 1}}},
		{"equal bounds", ScanFrame{AngleMin: 1, AngleMax: 1, AngleIncrement: 0.1, Ranges: []float64{1, 1}}},
		{"zero increment", ScanFrame{AngleMin: -1, AngleMax: 1, Ranges: []float64{1, 1}}},
		{"nan range", ScanFrame{AngleMin: -1, AngleMax: 1, AngleIncrement: 2, Ranges: []float64{1, math.NaN()}}},
		{"negative inf range", ScanFrame{AngleMin: -1, AngleMax: 1, AngleIncrement: 2, Ranges: []float64{math.Inf(-1), 1}}},
		{"nan bound", ScanFrame{AngleMin: math.NaN(), AngleMax: 1, AngleIncrement: 2, Ranges: []float64{1, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compute(tt.frame)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedFrame))
		})
	}
}

func TestParams_Defaults(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 0.0005, p.K)
	assert.Equal(t, 0.04, p.ForwardWeightD)
	assert.Equal(t, 0.1, p.SafetyTolerance)
	assert.Equal(t, DefaultUpdateRate, p.UpdateRate)
	assert.InDelta(t, 0.3125, p.ForwardBias(), floatTolerance)
	assert.InDelta(t, 500.0, p.Ceiling(), 1e-6)
}
