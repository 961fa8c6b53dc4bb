package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Point is a 3D position, or a 3D scale on a Marker.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// QuaternionFromYaw returns the rotation of yaw radians about Z
// (roll and pitch zero, static XYZ axes).
func QuaternionFromYaw(yaw float64) Quaternion {
	return Quaternion{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)}
}

// Yaw recovers the Z rotation of a quaternion with zero roll and pitch.
func (q Quaternion) Yaw() float64 {
	return 2 * math.Atan2(q.Z, q.W)
}

// Color is RGBA on a 0-255 scale.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Ranges is a list of scan ranges that survives JSON.
//
// JSON has no Inf or NaN, so they travel as null (+Inf, no return) or as
// the strings "inf", "-inf" and "nan".
type Ranges []float64

// MarshalJSON implements json.Marshaler.
func (r Ranges) MarshalJSON() ([]byte, error) {
	out := make([]interface{}, len(r))
	for i, v := range r {
		switch {
		case math.IsInf(v, 1):
			out[i] = nil
		case math.IsInf(v, -1):
			out[i] = "-inf"
		case math.IsNaN(v):
			out[i] = "nan"
		default:
			out[i] = v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ranges) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Ranges, len(raw))
	for i, item := range raw {
		v, err := parseRange(item)
		if err != nil {
			return fmt.Errorf("ranges[%d]: %w", i, err)
		}
		out[i] = v
	}
	*r = out
	return nil
}

func parseRange(item json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(item))
	if s == "null" {
		return math.Inf(1), nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(item, &str); err != nil {
			return 0, err
		}
		switch strings.ToLower(strings.TrimSpace(str)) {
		case "inf", "+inf", "infinity":
			return math.Inf(1), nil
		case "-inf", "-infinity":
			return math.Inf(-1), nil
		case "nan":
			return math.NaN(), nil
		}
		return 0, fmt.Errorf("unknown range value %q", str)
	}
	var v float64
	if err := json.Unmarshal(item, &v); err != nil {
		return 0, err
	}
	return v, nil
}
