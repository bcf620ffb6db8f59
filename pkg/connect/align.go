package connect

import (
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
)

// WorldPoint is a connection point resolved into world space.
type WorldPoint struct {
	Position  geom.Vec3
	Direction geom.Vec3
}

// Resolve places p in world space through the owning part's pose.
func Resolve(pose geom.Pose, p *part.ConnectionPoint) WorldPoint {
	return WorldPoint{
		Position:  pose.TransformPoint(p.LocalPosition),
		Direction: pose.TransformDirection(p.Direction),
	}
}

// Align returns the pose part B must take so that pointB lands on pointA
// with the two directions anti-parallel. Part A does not move.
func Align(poseA geom.Pose, pointA *part.ConnectionPoint, poseB geom.Pose, pointB *part.ConnectionPoint) geom.Pose {
	a := Resolve(poseA, pointA)
	b := Resolve(poseB, pointB)

	r := geom.FromTo(b.Direction, a.Direction.Mul(-1))
	next := poseB.Rotated(r)

	offset := a.Position.Sub(next.TransformPoint(pointB.LocalPosition))
	return next.Translated(offset)
}
