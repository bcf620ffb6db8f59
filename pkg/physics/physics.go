// Package physics defines the abstract physics backend the assembly drives.
// Implementations (record, planar) materialize bodies and joints behind
// this interface; the assembly never touches a concrete joint type.
package physics

import (
	"errors"
	"fmt"

	"github.com/danielgardiner81/MotoRouge/pkg/connect"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
)

// BodyID identifies a rigid body inside a backend.
type BodyID uint64

// JointID identifies a joint inside a backend.
type JointID uint64

// Backend errors.
var (
	ErrUnknownBody  = errors.New("physics: unknown body")
	ErrUnknownJoint = errors.New("physics: unknown joint")
	ErrJointType    = errors.New("physics: joint spec does not match requested joint type")
)

// BodySpec carries the rigid-body settings of a part instance.
type BodySpec struct {
	Name        string
	Pose        geom.Pose
	Mass        float64
	UseGravity  bool
	Friction    float64
	Drag        float64
	AngularDrag float64
	Frozen      part.AxisMask // rotation axes locked in place
	Extents     geom.Vec3     // half size, for inertia
}

// BodySpecFor derives a BodySpec from a definition placed at pose.
func BodySpecFor(name string, def *part.Definition, pose geom.Pose) BodySpec {
	spec := BodySpec{
		Name:        name,
		Pose:        pose,
		Mass:        def.Mass,
		UseGravity:  def.UseGravity,
		Friction:    def.Friction,
		Drag:        def.Physics.Drag,
		AngularDrag: def.Physics.AngularDrag,
		Extents:     def.Shape.Bounds().Extents,
	}
	if def.Physics.FreezeRotation {
		spec.Frozen = def.Physics.LockedRotationAxes
	}
	return spec
}

// Backend is the capability set the assembly needs from a physics engine.
type Backend interface {
	CreateBody(spec BodySpec) (BodyID, error)
	RemoveBody(id BodyID) error
	SetPose(id BodyID, pose geom.Pose) error

	CreateFixedJoint(a, b BodyID, spec connect.JointSpec) (JointID, error)
	CreateHingeJoint(a, b BodyID, spec connect.JointSpec) (JointID, error)
	CreateBallSocketJoint(a, b BodyID, spec connect.JointSpec) (JointID, error)
	RemoveJoint(id JointID) error
}

// Materialize creates the joint described by spec, dispatching on its type.
func Materialize(be Backend, a, b BodyID, spec connect.JointSpec) (JointID, error) {
	switch spec.Type {
	case part.Fixed:
		return be.CreateFixedJoint(a, b, spec)
	case part.Hinge:
		if spec.Hinge == nil {
			return 0, fmt.Errorf("%w: hinge parameters missing", ErrJointType)
		}
		return be.CreateHingeJoint(a, b, spec)
	case part.BallSocket:
		if spec.BallSocket == nil {
			return 0, fmt.Errorf("%w: ball-socket parameters missing", ErrJointType)
		}
		return be.CreateBallSocketJoint(a, b, spec)
	}
	return 0, fmt.Errorf("%w: %s", ErrJointType, spec.Type)
}
