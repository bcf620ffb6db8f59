package part

import (
	"fmt"

	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"gopkg.in/yaml.v3"
)

// Authoring defaults.
const (
	DefaultRadius        = 0.1
	DefaultMaxTwistAngle = 60.0
	DefaultMass          = 1.0
	DefaultFriction      = 0.5
	DefaultDrag          = 0.1
	DefaultAngularDrag   = 0.05
)

// DefaultHingeLimit is the hinge range given to new points.
var DefaultHingeLimit = Limit{Min: 0, Max: 360}

// DefaultScaleLimit is the scale range given to new definitions.
var DefaultScaleLimit = Limit{Min: 0.1, Max: 5}

// ScaleLimitBounds is the widest range a scale limit may take.
var ScaleLimitBounds = Limit{Min: 0.1, Max: 10}

// NewPoint returns a point of the given type with every optional field at
// its default. Direction points up.
func NewPoint(id string, t ConnectionType) ConnectionPoint {
	return ConnectionPoint{
		ID:            id,
		Type:          t,
		Direction:     geom.Up,
		Radius:        DefaultRadius,
		HingeAxis:     geom.Up,
		HingeLimit:    DefaultHingeLimit,
		MaxTwistAngle: DefaultMaxTwistAngle,
	}
}

// NewDefinition returns a definition named name with default physics and
// scaling and a unit box shape.
func NewDefinition(name string) *Definition {
	return &Definition{
		Name:       name,
		Mass:       DefaultMass,
		UseGravity: true,
		Friction:   DefaultFriction,
		Physics: PhysicsProperties{
			Drag:        DefaultDrag,
			AngularDrag: DefaultAngularDrag,
		},
		Scaling: Scaling{
			Mode:       ScaleUniform,
			Uniform:    1,
			NonUniform: geom.Vec3{1, 1, 1},
			Limit:      DefaultScaleLimit,
		},
		Shape: Shape{Kind: ShapeBox, Size: geom.Vec3{1, 1, 1}},
	}
}

// AddPoint appends a new Fixed point named Connection_N and returns it. N
// starts at the point count and moves up past ids already in use.
func (d *Definition) AddPoint() *ConnectionPoint {
	n := len(d.Points)
	for d.Point(fmt.Sprintf("Connection_%d", n)) != nil {
		n++
	}
	p := NewPoint(fmt.Sprintf("Connection_%d", n), Fixed)
	d.Points = append(d.Points, p)
	return &d.Points[len(d.Points)-1]
}

// Normalize brings authored values into canonical form: point directions
// and hinge axes become unit length, and locked rotation axes are cleared
// when rotation is not frozen. Zero vectors are left alone for Validate to
// report.
func (d *Definition) Normalize() {
	for i := range d.Points {
		p := &d.Points[i]
		if !geom.IsZero(p.Direction) {
			p.Direction = geom.Normalize(p.Direction)
		}
		if !geom.IsZero(p.HingeAxis) {
			p.HingeAxis = geom.Normalize(p.HingeAxis)
		}
	}
	if !d.Physics.FreezeRotation {
		d.Physics.LockedRotationAxes = AxisMask{}
	}
}

// UnmarshalYAML fills omitted point fields with their defaults.
func (p *ConnectionPoint) UnmarshalYAML(n *yaml.Node) error {
	type plain ConnectionPoint
	v := plain(NewPoint("", Fixed))
	if err := n.Decode(&v); err != nil {
		return err
	}
	*p = ConnectionPoint(v)
	return nil
}

// UnmarshalYAML fills omitted definition fields with their defaults.
func (d *Definition) UnmarshalYAML(n *yaml.Node) error {
	type plain Definition
	v := plain(*NewDefinition(""))
	if err := n.Decode(&v); err != nil {
		return err
	}
	*d = Definition(v)
	return nil
}
