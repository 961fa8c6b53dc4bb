package field

import "time"

// Default field constants.
const (
	DefaultK               = 0.0005
	DefaultForwardWeightD  = 0.04
	DefaultSafetyTolerance = 0.1
	DefaultUpdateRate      = 450 * time.Millisecond

	// FailSafeRange is the range used to derive the repulsion ceiling when
	// Params.MaxMagnitude is zero.
	FailSafeRange = 0.001
)

// Params are the field constants. They are fixed at startup.
type Params struct {
	K               float64       `yaml:"k" json:"k"`                               // field gain
	ForwardWeightD  float64       `yaml:"forward_weight_d" json:"forward_weight_d"` // virtual distance of the forward bias
	SafetyTolerance float64       `yaml:"safety_tolerance" json:"safety_tolerance"` // meters
	UpdateRate      time.Duration `yaml:"update_rate" json:"update_rate"`

	// MaxMagnitude caps a single sample's repulsion. Zero derives it from K
	// and FailSafeRange.
	MaxMagnitude float64 `yaml:"max_magnitude" json:"max_magnitude"`
}

// DefaultParams returns the stock constants.
func DefaultParams() Params {
	return Params{
		K:               DefaultK,
		ForwardWeightD:  DefaultForwardWeightD,
		SafetyTolerance: DefaultSafetyTolerance,
		UpdateRate:      DefaultUpdateRate,
	}
}

// ForwardBias is the magnitude added along +X every frame.
func (p Params) ForwardBias() float64 {
	return p.K / (p.ForwardWeightD * p.ForwardWeightD)
}

// Ceiling is the largest magnitude a single sample may contribute.
func (p Params) Ceiling() float64 {
	if p.MaxMagnitude > 0 {
		return p.MaxMagnitude
	}
	return p.K / (FailSafeRange * FailSafeRange)
}
