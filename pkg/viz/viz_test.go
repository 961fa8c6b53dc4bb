package viz

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-fieldnav/pkg/field"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

func TestMarkers(t *testing.T) {
	c := field.NewComputer(field.DefaultParams(), nil)
	res, err := c.Compute(field.ScanFrame{
		AngleMin:       -math.Pi / 2,
		AngleMax:       math.Pi / 2,
		AngleIncrement: math.Pi / 2,
		Ranges:         []float64{1.0, 2.0, math.Inf(1)},
	})
	require.NoError(t, err)

	stamp := time.UnixMilli(5000)
	markers := Markers(res.Samples, 450*time.Millisecond, stamp)
	require.Len(t, markers, 2)

	// Sample 1 is straight ahead at 2 m; its repulsion points backwards.
	m := markers[1]
	s := res.Samples[1]
	assert.Equal(t, 1, m.ID)
	assert.Equal(t, Namespace, m.NS)
	assert.Equal(t, "base_link", m.FrameID)
	assert.Equal(t, int64(5000), m.Stamp)
	assert.Equal(t, int64(450), m.LifetimeMs)
	assert.Equal(t, Teal, m.Color)
	assert.InDelta(t, 2*math.Cos(s.Theta+math.Pi), m.Position.X, 1e-12)
	assert.InDelta(t, 2*math.Sin(s.Theta+math.Pi), m.Position.Y, 1e-12)
	assert.Equal(t, 0.0, m.Position.Z)
	assert.InDelta(t, 2000*s.X, m.Scale.X, 1e-12)
	assert.InDelta(t, 2000*s.Y, m.Scale.Y, 1e-12)
	assert.Equal(t, ScaleDepth, m.Scale.Z)

	want := protocol.QuaternionFromYaw(math.Atan2(s.Y, s.X) + math.Pi)
	assert.InDelta(t, want.Z, m.Orientation.Z, 1e-12)
	assert.InDelta(t, want.W, m.Orientation.W, 1e-12)
}

type recordingSink struct {
	got [][]protocol.Marker
	err error
}

func (r *recordingSink) PublishMarkers(m []protocol.Marker) error {
	r.got = append(r.got, m)
	return r.err
}

func TestPublisher(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(sink, time.Second)

	samples := []field.Sample{{X: 1e-4, Y: 0, Range: 1, Theta: math.Pi}}
	require.NoError(t, p.Visualize(samples, time.Now()))
	require.Len(t, sink.got, 1)
	assert.Len(t, sink.got[0], 1)

	sink.err = errors.New("closed")
	assert.Error(t, p.Visualize(samples, time.Now()))
}

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Visualize(nil, time.Now()))
}
