// Package record implements physics.Backend by recording bodies and joints
// in memory. It runs no simulation; it backs dry runs of assembly scripts
// and lets tests observe what the assembly asked the engine to do.
package record

import (
	"fmt"
	"sort"

	"github.com/danielgardiner81/MotoRouge/pkg/connect"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"github.com/danielgardiner81/MotoRouge/pkg/physics"
)

// Compile-time interface check.
var _ physics.Backend = (*Backend)(nil)

// Body is a recorded rigid body.
type Body struct {
	ID   physics.BodyID
	Spec physics.BodySpec
	Pose geom.Pose
}

// Joint is a recorded joint.
type Joint struct {
	ID   physics.JointID
	Kind part.ConnectionType
	A, B physics.BodyID
	Spec connect.JointSpec
}

// Backend records every call. The zero value is not usable; call New.
type Backend struct {
	bodies map[physics.BodyID]*Body
	joints map[physics.JointID]*Joint
	nextID uint64

	// FailNext, when set, is returned by the next create call and cleared.
	FailNext error
}

// New returns an empty recording backend.
func New() *Backend {
	return &Backend{
		bodies: make(map[physics.BodyID]*Body),
		joints: make(map[physics.JointID]*Joint),
	}
}

func (b *Backend) next() uint64 {
	b.nextID++
	return b.nextID
}

func (b *Backend) takeFailure() error {
	err := b.FailNext
	b.FailNext = nil
	return err
}

// CreateBody records a body at spec.Pose.
func (b *Backend) CreateBody(spec physics.BodySpec) (physics.BodyID, error) {
	if err := b.takeFailure(); err != nil {
		return 0, err
	}
	id := physics.BodyID(b.next())
	b.bodies[id] = &Body{ID: id, Spec: spec, Pose: spec.Pose}
	return id, nil
}

// RemoveBody forgets a body and every joint attached to it.
func (b *Backend) RemoveBody(id physics.BodyID) error {
	if _, ok := b.bodies[id]; !ok {
		return fmt.Errorf("%w: %d", physics.ErrUnknownBody, id)
	}
	for jid, j := range b.joints {
		if j.A == id || j.B == id {
			delete(b.joints, jid)
		}
	}
	delete(b.bodies, id)
	return nil
}

// SetPose moves a body.
func (b *Backend) SetPose(id physics.BodyID, pose geom.Pose) error {
	body, ok := b.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %d", physics.ErrUnknownBody, id)
	}
	body.Pose = pose
	return nil
}

// CreateFixedJoint records a fixed joint.
func (b *Backend) CreateFixedJoint(a, c physics.BodyID, spec connect.JointSpec) (physics.JointID, error) {
	return b.addJoint(part.Fixed, a, c, spec)
}

// CreateHingeJoint records a hinge joint.
func (b *Backend) CreateHingeJoint(a, c physics.BodyID, spec connect.JointSpec) (physics.JointID, error) {
	return b.addJoint(part.Hinge, a, c, spec)
}

// CreateBallSocketJoint records a ball-socket joint.
func (b *Backend) CreateBallSocketJoint(a, c physics.BodyID, spec connect.JointSpec) (physics.JointID, error) {
	return b.addJoint(part.BallSocket, a, c, spec)
}

func (b *Backend) addJoint(kind part.ConnectionType, a, c physics.BodyID, spec connect.JointSpec) (physics.JointID, error) {
	if err := b.takeFailure(); err != nil {
		return 0, err
	}
	if spec.Type != kind {
		return 0, fmt.Errorf("%w: %s spec for %s joint", physics.ErrJointType, spec.Type, kind)
	}
	for _, id := range []physics.BodyID{a, c} {
		if _, ok := b.bodies[id]; !ok {
			return 0, fmt.Errorf("%w: %d", physics.ErrUnknownBody, id)
		}
	}
	id := physics.JointID(b.next())
	b.joints[id] = &Joint{ID: id, Kind: kind, A: a, B: c, Spec: spec}
	return id, nil
}

// RemoveJoint forgets a joint.
func (b *Backend) RemoveJoint(id physics.JointID) error {
	if _, ok := b.joints[id]; !ok {
		return fmt.Errorf("%w: %d", physics.ErrUnknownJoint, id)
	}
	delete(b.joints, id)
	return nil
}

// Body returns the recorded body, or nil.
func (b *Backend) Body(id physics.BodyID) *Body {
	return b.bodies[id]
}

// Joint returns the recorded joint, or nil.
func (b *Backend) Joint(id physics.JointID) *Joint {
	return b.joints[id]
}

// Bodies returns the recorded bodies ordered by id.
func (b *Backend) Bodies() []*Body {
	out := make([]*Body, 0, len(b.bodies))
	for _, body := range b.bodies {
		out = append(out, body)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Joints returns the recorded joints ordered by id.
func (b *Backend) Joints() []*Joint {
	out := make([]*Joint, 0, len(b.joints))
	for _, j := range b.joints {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}
