package part

import (
	"fmt"
	"strings"

	"github.com/danielgardiner81/MotoRouge/pkg/geom"
)

// ConnectionType enumerates the joint a connection point asks for.
type ConnectionType int

const (
	Fixed      ConnectionType = iota // full lock
	Hinge                            // one rotational axis with limits
	BallSocket                       // swing plus limited twist
)

// ConnectionTypes lists every type in declaration order.
var ConnectionTypes = []ConnectionType{Fixed, Hinge, BallSocket}

func (t ConnectionType) String() string {
	switch t {
	case Fixed:
		return "fixed"
	case Hinge:
		return "hinge"
	case BallSocket:
		return "ball-socket"
	default:
		return fmt.Sprintf("ConnectionType(%d)", int(t))
	}
}

// ParseConnectionType accepts the String forms plus a few spellings seen in
// hand-written catalogs ("ball_socket", "ballsocket", "ball").
func ParseConnectionType(s string) (ConnectionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return Fixed, nil
	case "hinge":
		return Hinge, nil
	case "ball-socket", "ball_socket", "ballsocket", "ball":
		return BallSocket, nil
	}
	return 0, fmt.Errorf("unknown connection type %q, expected fixed, hinge or ball-socket", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t ConnectionType) MarshalText() ([]byte, error) {
	if t < Fixed || t > BallSocket {
		return nil, fmt.Errorf("invalid connection type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ConnectionType) UnmarshalText(b []byte) error {
	v, err := ParseConnectionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Limit is a closed angular range in degrees.
type Limit struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// ConnectionPoint is a named attachment location on a part.
// Hinge fields are read only for Hinge points, MaxTwistAngle only for
// BallSocket points.
type ConnectionPoint struct {
	ID            string         `yaml:"id" json:"id"`
	Type          ConnectionType `yaml:"type" json:"type"`
	LocalPosition geom.Vec3      `yaml:"position" json:"position"`
	Direction     geom.Vec3      `yaml:"direction" json:"direction"` // outward, unit
	Radius        float64        `yaml:"radius" json:"radius"`
	HingeAxis     geom.Vec3      `yaml:"hinge_axis" json:"hinge_axis"`
	HingeLimit    Limit          `yaml:"hinge_limit" json:"hinge_limit"`
	MaxTwistAngle float64        `yaml:"max_twist_angle" json:"max_twist_angle"` // degrees
}

// AxisMask selects rotation axes.
type AxisMask struct {
	X bool `yaml:"x" json:"x"`
	Y bool `yaml:"y" json:"y"`
	Z bool `yaml:"z" json:"z"`
}

// PhysicsProperties are rigid-body settings handed to the physics backend
// when an instance is created.
type PhysicsProperties struct {
	Drag               float64  `yaml:"drag" json:"drag"`
	AngularDrag        float64  `yaml:"angular_drag" json:"angular_drag"`
	PhysicsMaterial    string   `yaml:"physics_material,omitempty" json:"physics_material,omitempty"`
	FreezeRotation     bool     `yaml:"freeze_rotation" json:"freeze_rotation"`
	LockedRotationAxes AxisMask `yaml:"locked_rotation_axes" json:"locked_rotation_axes"`
}

// ScalingMode selects how a part's scale is chosen.
type ScalingMode string

const (
	ScaleUniform    ScalingMode = "uniform"
	ScaleNonUniform ScalingMode = "non-uniform"
	ScaleComputed   ScalingMode = "computed" // derived by the importer, not authored
)

// Scaling describes the authored scale and its permitted range.
type Scaling struct {
	Mode       ScalingMode `yaml:"mode" json:"mode"`
	Uniform    float64     `yaml:"uniform" json:"uniform"`
	NonUniform geom.Vec3   `yaml:"non_uniform" json:"non_uniform"`
	Limit      Limit       `yaml:"limit" json:"limit"`
}

// Scale returns the active per-axis scale.
func (s Scaling) Scale() geom.Vec3 {
	switch s.Mode {
	case ScaleNonUniform:
		return s.NonUniform
	case ScaleComputed:
		return geom.Vec3{1, 1, 1}
	default:
		return geom.Vec3{s.Uniform, s.Uniform, s.Uniform}
	}
}

// ShapeKind selects the stand-in geometry for a part.
type ShapeKind string

const (
	ShapeBox      ShapeKind = "box"
	ShapeCylinder ShapeKind = "cylinder" // axis along local Y
)

// Shape is the stand-in geometry used for bounds and previews. Size is the
// full box size; Height and Radius apply to cylinders.
type Shape struct {
	Kind   ShapeKind `yaml:"kind" json:"kind"`
	Size   geom.Vec3 `yaml:"size,omitempty" json:"size,omitempty"`
	Height float64   `yaml:"height,omitempty" json:"height,omitempty"`
	Radius float64   `yaml:"radius,omitempty" json:"radius,omitempty"`
}

// Bounds is an axis-aligned box given by center and half extents.
type Bounds struct {
	Center  geom.Vec3
	Extents geom.Vec3
}

// Bounds returns the shape's local bounds, centered on the origin.
func (s Shape) Bounds() Bounds {
	switch s.Kind {
	case ShapeCylinder:
		return Bounds{Extents: geom.Vec3{s.Radius, s.Height / 2, s.Radius}}
	default:
		return Bounds{Extents: s.Size.Mul(0.5)}
	}
}

// BoundsFromMinMax converts min/max corners, as returned by a geometry
// kernel, into Bounds.
func BoundsFromMinMax(min, max [3]float64) Bounds {
	lo := geom.Vec3(min)
	hi := geom.Vec3(max)
	return Bounds{
		Center:  lo.Add(hi).Mul(0.5),
		Extents: hi.Sub(lo).Mul(0.5),
	}
}

// Definition is an authored part: asset handles, rigid-body settings and
// an ordered list of connection points with unique ids. Definitions are
// read-only once loaded.
type Definition struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Mesh        string            `yaml:"mesh,omitempty" json:"mesh,omitempty"`         // opaque asset handle
	Material    string            `yaml:"material,omitempty" json:"material,omitempty"` // opaque asset handle
	Mass        float64           `yaml:"mass" json:"mass"`
	UseGravity  bool              `yaml:"use_gravity" json:"use_gravity"`
	Friction    float64           `yaml:"friction" json:"friction"`
	Physics     PhysicsProperties `yaml:"physics" json:"physics"`
	Scaling     Scaling           `yaml:"scaling" json:"scaling"`
	Shape       Shape             `yaml:"shape" json:"shape"`
	Points      []ConnectionPoint `yaml:"connection_points" json:"connection_points"`
}

// Point returns the connection point with the given id, or nil.
func (d *Definition) Point(id string) *ConnectionPoint {
	if d == nil {
		return nil
	}
	for i := range d.Points {
		if d.Points[i].ID == id {
			return &d.Points[i]
		}
	}
	return nil
}

// PointIDs returns the connection point ids in authored order.
func (d *Definition) PointIDs() []string {
	ids := make([]string, len(d.Points))
	for i, p := range d.Points {
		ids[i] = p.ID
	}
	return ids
}

// Clone returns a deep copy, so callers can edit a definition without
// touching the catalog's shared instance.
func (d *Definition) Clone() *Definition {
	c := *d
	c.Points = append([]ConnectionPoint(nil), d.Points...)
	return &c
}
