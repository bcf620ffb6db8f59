package assembly

import (
	"github.com/danielgardiner81/MotoRouge/pkg/connect"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"github.com/danielgardiner81/MotoRouge/pkg/physics"
	"github.com/google/uuid"
)

// State is the lifecycle state of an assembly.
type State int

const (
	Empty State = iota
	Building
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Building:
		return "building"
	}
	return "unknown"
}

// InstanceID identifies a placed part.
type InstanceID string

// NewInstanceID returns a random (v4) instance id.
func NewInstanceID() InstanceID {
	return InstanceID(uuid.NewString())
}

// PointRef addresses one connection point of one placed part.
type PointRef struct {
	Instance InstanceID
	Point    string
}

func (r PointRef) String() string {
	return string(r.Instance) + "/" + r.Point
}

// Instance is a part definition placed in the world.
type Instance struct {
	ID   InstanceID
	Name string
	Def  *part.Definition
	Pose geom.Pose
	Body physics.BodyID

	connected map[string]PointRef
}

// IsConnected reports whether the named point of this instance is bonded.
func (in *Instance) IsConnected(point string) bool {
	_, ok := in.connected[point]
	return ok
}

// Peer returns the point bonded to the named point.
func (in *Instance) Peer(point string) (PointRef, bool) {
	ref, ok := in.connected[point]
	return ref, ok
}

// ConnectedCount returns how many of the instance's points are bonded.
func (in *Instance) ConnectedCount() int {
	return len(in.connected)
}

// Bond is one joint between two points. A is the point the connection was
// made from; B's part was moved onto it.
type Bond struct {
	A, B  PointRef
	Joint physics.JointID
	Spec  connect.JointSpec
}

// Marker is the visual state of one connection point.
type Marker struct {
	Ref       PointRef
	Type      part.ConnectionType
	Position  geom.Vec3
	Direction geom.Vec3
	Radius    float64
	Color     connect.Color
	Bonded    bool
}
