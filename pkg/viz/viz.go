// Package viz renders per-sample field contributions as arrow markers.
// It only observes; nothing here feeds back into the field computation.
package viz

import (
	"fmt"
	"math"
	"time"

	"github.com/teslashibe/go-fieldnav/pkg/field"
	"github.com/teslashibe/go-fieldnav/pkg/goal"
	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// Marker appearance.
const (
	Namespace  = "cur_marker"
	ArrowType  = 0
	ScaleGain  = 2000   // per-sample components are tiny; scale for visibility
	ScaleDepth = 0.0001 // arrows are flat
)

// Teal is the marker color.
var Teal = protocol.Color{R: 0, G: 128, B: 128, A: 255}

// Markers builds one arrow per sample. Each arrow sits at the sample's
// return, points along its repulsion and lives for lifetime.
// Samples with no return (+Inf) have no position and are left out; IDs keep
// the sample index so gaps show which samples were dropped.
func Markers(samples []field.Sample, lifetime time.Duration, stamp time.Time) []protocol.Marker {
	markers := make([]protocol.Marker, 0, len(samples))
	for i, s := range samples {
		if math.IsInf(s.Range, 0) || math.IsNaN(s.Range) {
			continue
		}
		markers = append(markers, protocol.Marker{
			NS:      Namespace,
			ID:      i,
			Type:    ArrowType,
			FrameID: goal.BaseFrame,
			Stamp:   stamp.UnixMilli(),
			Position: protocol.Point{
				X: s.Range * math.Cos(s.Theta+math.Pi),
				Y: s.Range * math.Sin(s.Theta+math.Pi),
			},
			Orientation: protocol.QuaternionFromYaw(math.Atan2(s.Y, s.X) + math.Pi),
			Scale: protocol.Point{
				X: ScaleGain * s.X,
				Y: ScaleGain * s.Y,
				Z: ScaleDepth,
			},
			Color:      Teal,
			LifetimeMs: lifetime.Milliseconds(),
		})
	}
	return markers
}

// Sink receives marker arrays.
type Sink interface {
	PublishMarkers(markers []protocol.Marker) error
}

// Publisher builds markers and hands them to a Sink.
type Publisher struct {
	sink     Sink
	lifetime time.Duration
}

// NewPublisher creates a Publisher. lifetime is normally the update rate.
func NewPublisher(sink Sink, lifetime time.Duration) *Publisher {
	return &Publisher{sink: sink, lifetime: lifetime}
}

// Visualize publishes the markers for one frame.
func (p *Publisher) Visualize(samples []field.Sample, stamp time.Time) error {
	if p == nil || p.sink == nil {
		return nil
	}
	if err := p.sink.PublishMarkers(Markers(samples, p.lifetime, stamp)); err != nil {
		return fmt.Errorf("publish markers: %w", err)
	}
	return nil
}
