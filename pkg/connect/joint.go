package connect

import (
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
)

// Default soft-limit constants for ball-socket twist.
const (
	DefaultTwistSpring = 100.0
	DefaultTwistDamper = 10.0
)

// JointConfig carries the tunables the synthesizer does not read from the
// connection points.
type JointConfig struct {
	TwistSpring float64 `yaml:"twist_spring" json:"twist_spring"`
	TwistDamper float64 `yaml:"twist_damper" json:"twist_damper"`
}

// DefaultJointConfig returns the stock spring/damper pair.
func DefaultJointConfig() JointConfig {
	return JointConfig{TwistSpring: DefaultTwistSpring, TwistDamper: DefaultTwistDamper}
}

// HingeParams configures a single-axis joint. Axis is in part A's local
// frame; limits are degrees.
type HingeParams struct {
	Axis      geom.Vec3  `json:"axis"`
	Limits    part.Limit `json:"limits"`
	UseLimits bool       `json:"use_limits"`
}

// BallSocketParams configures a swing joint with a soft, symmetric twist
// limit. Angles are degrees.
type BallSocketParams struct {
	SwingAxis geom.Vec3 `json:"swing_axis"`
	LowTwist  float64   `json:"low_twist"`
	HighTwist float64   `json:"high_twist"`
	Spring    float64   `json:"spring"`
	Damper    float64   `json:"damper"`
}

// JointSpec describes a joint between two bodies independently of any
// physics engine. Anchor is in A's local space, ConnectedAnchor in B's.
// Exactly one of Hinge and BallSocket is set for those types; both are nil
// for Fixed.
type JointSpec struct {
	Type            part.ConnectionType `json:"type"`
	Anchor          geom.Vec3           `json:"anchor"`
	ConnectedAnchor geom.Vec3           `json:"connected_anchor"`
	Hinge           *HingeParams        `json:"hinge,omitempty"`
	BallSocket      *BallSocketParams   `json:"ball_socket,omitempty"`
}

// Synthesize builds the joint for a validated pair. The joint type and its
// parameters come from a; b only contributes its anchor.
func Synthesize(a, b *part.ConnectionPoint, cfg JointConfig) JointSpec {
	spec := JointSpec{
		Type:            a.Type,
		Anchor:          a.LocalPosition,
		ConnectedAnchor: b.LocalPosition,
	}

	switch a.Type {
	case part.Hinge:
		spec.Hinge = &HingeParams{
			Axis:      a.HingeAxis,
			Limits:    a.HingeLimit,
			UseLimits: true,
		}
	case part.BallSocket:
		spec.BallSocket = &BallSocketParams{
			SwingAxis: a.Direction,
			LowTwist:  -a.MaxTwistAngle,
			HighTwist: a.MaxTwistAngle,
			Spring:    cfg.TwistSpring,
			Damper:    cfg.TwistDamper,
		}
	}
	return spec
}
