// Package planar implements physics.Backend on the Chipmunk2D port
// github.com/jakecoffman/cp. Bodies and joints are projected onto the world
// XY plane (the side view of a vehicle): positions keep X and Y, rotations
// keep only the angle about Z, and every joint rotates about Z.
//
// Joint mapping:
//
//	Fixed      pivot + rotary limit pinned at the current relative angle
//	Hinge      pivot + rotary limit over the hinge range
//	BallSocket pivot + damped rotary spring + rotary limit over ±twist
package planar

import (
	"fmt"
	"math"

	"github.com/danielgardiner81/MotoRouge/pkg/connect"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/physics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

// Compile-time interface check.
var _ physics.Backend = (*Backend)(nil)

// DefaultGravity is the downward acceleration along -Y.
const DefaultGravity = 9.81

type body struct {
	cp    *cp.Body
	shape *cp.Shape
	z     float64 // out-of-plane coordinate, restored on read
}

type joint struct {
	a, b physics.BodyID
	cs   []*cp.Constraint
}

// Backend owns a cp.Space. It is not safe for concurrent use.
type Backend struct {
	space  *cp.Space
	bodies map[physics.BodyID]*body
	joints map[physics.JointID]*joint
	nextID uint64
}

// New returns a backend whose space pulls bodies down -Y by gravity.
func New(gravity float64) *Backend {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{X: 0, Y: -gravity})
	return &Backend{
		space:  space,
		bodies: make(map[physics.BodyID]*body),
		joints: make(map[physics.JointID]*joint),
	}
}

func (b *Backend) next() uint64 {
	b.nextID++
	return b.nextID
}

// planarAngle returns the rotation about Z that best matches q: the angle of
// q's rotated X axis in the XY plane.
func planarAngle(q geom.Quat) float64 {
	x := q.Rotate(geom.Right)
	return math.Atan2(x[1], x[0])
}

func toVector(v geom.Vec3) cp.Vector {
	return cp.Vector{X: v[0], Y: v[1]}
}

// CreateBody adds a box-shaped body sized by spec.Extents.
func (b *Backend) CreateBody(spec physics.BodySpec) (physics.BodyID, error) {
	if spec.Mass <= 0 {
		return 0, fmt.Errorf("planar: body %q: mass %.4f must be positive", spec.Name, spec.Mass)
	}
	w := math.Max(2*spec.Extents[0], 1e-3)
	h := math.Max(2*spec.Extents[1], 1e-3)

	moment := cp.MomentForBox(spec.Mass, w, h)
	if spec.Frozen.Z {
		moment = math.Inf(1)
	}

	cb := cp.NewBody(spec.Mass, moment)
	useGravity := spec.UseGravity
	drag, angularDrag := spec.Drag, spec.AngularDrag
	cb.SetVelocityUpdateFunc(func(body *cp.Body, gravity cp.Vector, damping float64, dt float64) {
		if !useGravity {
			gravity = cp.Vector{}
		}
		cp.BodyUpdateVelocity(body, gravity, damping*math.Exp(-drag*dt), dt)
		body.SetAngularVelocity(body.AngularVelocity() * math.Exp(-angularDrag*dt))
	})
	b.space.AddBody(cb)

	shape := cp.NewBox(cb, w, h, 0)
	shape.SetFriction(spec.Friction)
	b.space.AddShape(shape)

	id := physics.BodyID(b.next())
	b.bodies[id] = &body{cp: cb, shape: shape}
	if err := b.SetPose(id, spec.Pose); err != nil {
		return 0, err
	}
	return id, nil
}

// RemoveBody removes a body, its shape and every joint attached to it.
func (b *Backend) RemoveBody(id physics.BodyID) error {
	bd, ok := b.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %d", physics.ErrUnknownBody, id)
	}
	for jid, j := range b.joints {
		if j.a == id || j.b == id {
			b.removeConstraints(j)
			delete(b.joints, jid)
		}
	}
	b.space.RemoveShape(bd.shape)
	b.space.RemoveBody(bd.cp)
	delete(b.bodies, id)
	return nil
}

// SetPose teleports a body to the planar projection of pose.
func (b *Backend) SetPose(id physics.BodyID, pose geom.Pose) error {
	bd, ok := b.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %d", physics.ErrUnknownBody, id)
	}
	bd.cp.SetPosition(toVector(pose.Position))
	bd.cp.SetAngle(planarAngle(pose.Rotation))
	bd.z = pose.Position[2]
	return nil
}

// Pose reads a body's current pose back in world space.
func (b *Backend) Pose(id physics.BodyID) (geom.Pose, error) {
	bd, ok := b.bodies[id]
	if !ok {
		return geom.Pose{}, fmt.Errorf("%w: %d", physics.ErrUnknownBody, id)
	}
	p := bd.cp.Position()
	return geom.Pose{
		Position: geom.Vec3{p.X, p.Y, bd.z},
		Rotation: mgl64.QuatRotate(bd.cp.Angle(), geom.Forward),
	}, nil
}

// Step advances the simulation by dt seconds.
func (b *Backend) Step(dt float64) {
	b.space.Step(dt)
}

// JointCount returns the number of live joints.
func (b *Backend) JointCount() int {
	return len(b.joints)
}

func (b *Backend) pair(a, c physics.BodyID) (*cp.Body, *cp.Body, error) {
	ba, ok := b.bodies[a]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", physics.ErrUnknownBody, a)
	}
	bc, ok := b.bodies[c]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", physics.ErrUnknownBody, c)
	}
	return ba.cp, bc.cp, nil
}

func (b *Backend) add(a, c physics.BodyID, cs ...*cp.Constraint) physics.JointID {
	for _, con := range cs {
		b.space.AddConstraint(con)
	}
	id := physics.JointID(b.next())
	b.joints[id] = &joint{a: a, b: c, cs: cs}
	return id
}

func (b *Backend) removeConstraints(j *joint) {
	for _, con := range j.cs {
		b.space.RemoveConstraint(con)
	}
}

// CreateFixedJoint pins the anchors together and freezes the relative angle.
func (b *Backend) CreateFixedJoint(a, c physics.BodyID, spec connect.JointSpec) (physics.JointID, error) {
	ba, bc, err := b.pair(a, c)
	if err != nil {
		return 0, err
	}
	rel := bc.Angle() - ba.Angle()
	return b.add(a, c,
		cp.NewPivotJoint2(ba, bc, toVector(spec.Anchor), toVector(spec.ConnectedAnchor)),
		cp.NewRotaryLimitJoint(ba, bc, rel, rel),
	), nil
}

// CreateHingeJoint pins the anchors and limits rotation to the hinge range,
// measured from the current relative angle.
func (b *Backend) CreateHingeJoint(a, c physics.BodyID, spec connect.JointSpec) (physics.JointID, error) {
	if spec.Hinge == nil {
		return 0, fmt.Errorf("%w: hinge parameters missing", physics.ErrJointType)
	}
	ba, bc, err := b.pair(a, c)
	if err != nil {
		return 0, err
	}
	cs := []*cp.Constraint{
		cp.NewPivotJoint2(ba, bc, toVector(spec.Anchor), toVector(spec.ConnectedAnchor)),
	}
	if spec.Hinge.UseLimits {
		rel := bc.Angle() - ba.Angle()
		cs = append(cs, cp.NewRotaryLimitJoint(ba, bc,
			rel+mgl64.DegToRad(spec.Hinge.Limits.Min),
			rel+mgl64.DegToRad(spec.Hinge.Limits.Max)))
	}
	return b.add(a, c, cs...), nil
}

// CreateBallSocketJoint pins the anchors, springs the relative angle back
// to its current value and hard-limits it to the twist range.
func (b *Backend) CreateBallSocketJoint(a, c physics.BodyID, spec connect.JointSpec) (physics.JointID, error) {
	bs := spec.BallSocket
	if bs == nil {
		return 0, fmt.Errorf("%w: ball-socket parameters missing", physics.ErrJointType)
	}
	ba, bc, err := b.pair(a, c)
	if err != nil {
		return 0, err
	}
	rest := bc.Angle() - ba.Angle()
	return b.add(a, c,
		cp.NewPivotJoint2(ba, bc, toVector(spec.Anchor), toVector(spec.ConnectedAnchor)),
		cp.NewDampedRotarySpring(ba, bc, rest, bs.Spring, bs.Damper),
		cp.NewRotaryLimitJoint(ba, bc, rest+mgl64.DegToRad(bs.LowTwist), rest+mgl64.DegToRad(bs.HighTwist)),
	), nil
}

// RemoveJoint removes every constraint making up the joint.
func (b *Backend) RemoveJoint(id physics.JointID) error {
	j, ok := b.joints[id]
	if !ok {
		return fmt.Errorf("%w: %d", physics.ErrUnknownJoint, id)
	}
	b.removeConstraints(j)
	delete(b.joints, id)
	return nil
}
