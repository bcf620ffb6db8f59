// Package geom holds the small amount of rigid-body math the assembly
// needs: vectors, rotations and poses. World space is Y-up, right handed.
package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a 3D vector. It decodes from a YAML sequence [x, y, z].
type Vec3 = mgl64.Vec3

// Quat is a unit rotation quaternion.
type Quat = mgl64.Quat

// World axes.
var (
	Zero    = Vec3{0, 0, 0}
	Right   = Vec3{1, 0, 0}
	Up      = Vec3{0, 1, 0}
	Forward = Vec3{0, 0, 1}
)

const (
	// Epsilon is the tolerance used for "same point" and "unit length" checks.
	Epsilon = 1e-6

	// parallelEpsilon bounds 1-|cos| under which two directions are treated
	// as exactly parallel or anti-parallel.
	parallelEpsilon = 1e-12
)

// Identity returns the identity rotation.
func Identity() Quat {
	return mgl64.QuatIdent()
}

// IsZero reports whether v has (near) zero length.
func IsZero(v Vec3) bool {
	return v.Len() < Epsilon
}

// Normalize returns v scaled to unit length, or the zero vector if v has no
// length. mgl64's Normalize divides by zero in that case.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l < Epsilon {
		return Zero
	}
	return v.Mul(1 / l)
}

// Near reports whether a and b are within tol of each other.
func Near(a, b Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

// FromTo returns the minimal rotation taking direction from onto direction
// to. Parallel inputs give the identity. Anti-parallel inputs give a half
// turn about an axis orthogonal to from: from x Up, or from x Right when
// from is vertical. A zero-length input gives the identity.
func FromTo(from, to Vec3) Quat {
	f := Normalize(from)
	t := Normalize(to)
	if IsZero(f) || IsZero(t) {
		return Identity()
	}

	cos := f.Dot(t)
	if cos >= 1-parallelEpsilon {
		return Identity()
	}
	if cos <= -1+parallelEpsilon {
		axis := f.Cross(Up)
		if axis.Len() < 1e-3 {
			axis = f.Cross(Right)
		}
		return mgl64.QuatRotate(math.Pi, Normalize(axis))
	}

	axis := f.Cross(t)
	s := math.Sqrt((1 + cos) * 2)
	return mgl64.Quat{W: s * 0.5, V: axis.Mul(1 / s)}.Normalize()
}

// Euler builds a rotation from angles in degrees, applied X then Y then Z.
func Euler(x, y, z float64) Quat {
	return mgl64.AnglesToQuat(mgl64.DegToRad(z), mgl64.DegToRad(y), mgl64.DegToRad(x), mgl64.ZYX)
}

// AxisAngle decomposes q into a unit axis and an angle in radians. The
// identity decomposes to (Up, 0).
func AxisAngle(q Quat) (Vec3, float64) {
	q = q.Normalize()
	if q.W < 0 {
		q = mgl64.Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	s := math.Sqrt(1 - q.W*q.W)
	if s < Epsilon {
		return Up, 0
	}
	return q.V.Mul(1 / s), 2 * math.Acos(math.Min(1, q.W))
}

// Pose is a rigid transform: rotation then translation.
type Pose struct {
	Position Vec3 `yaml:"position" json:"position"`
	Rotation Quat `yaml:"-" json:"-"`
}

// IdentityPose is the pose at the world origin with no rotation.
func IdentityPose() Pose {
	return Pose{Rotation: Identity()}
}

// At returns a pose at p with the identity rotation.
func At(p Vec3) Pose {
	return Pose{Position: p, Rotation: Identity()}
}

// TransformPoint maps a local point to world space.
func (p Pose) TransformPoint(local Vec3) Vec3 {
	return p.Position.Add(p.rot().Rotate(local))
}

// TransformDirection maps a local direction to world space. Length is kept.
func (p Pose) TransformDirection(local Vec3) Vec3 {
	return p.rot().Rotate(local)
}

// InverseTransformPoint maps a world point into the pose's local space.
func (p Pose) InverseTransformPoint(world Vec3) Vec3 {
	return p.rot().Inverse().Rotate(world.Sub(p.Position))
}

// Rotated returns the pose with q applied on top of its current rotation,
// about the pose's own origin.
func (p Pose) Rotated(q Quat) Pose {
	return Pose{Position: p.Position, Rotation: q.Mul(p.rot()).Normalize()}
}

// Translated returns the pose moved by d.
func (p Pose) Translated(d Vec3) Pose {
	return Pose{Position: p.Position.Add(d), Rotation: p.rot()}
}

// ApproxEqual compares positions and rotations within tol. q and -q are the
// same rotation.
func (p Pose) ApproxEqual(o Pose, tol float64) bool {
	if !Near(p.Position, o.Position, tol) {
		return false
	}
	return math.Abs(p.rot().Dot(o.rot())) >= 1-tol
}

func (p Pose) String() string {
	axis, angle := AxisAngle(p.rot())
	return fmt.Sprintf("pos(%.3f %.3f %.3f) rot(%.1f° about %.2f %.2f %.2f)",
		p.Position[0], p.Position[1], p.Position[2],
		mgl64.RadToDeg(angle), axis[0], axis[1], axis[2])
}

// rot treats the zero quaternion (an unset Pose) as the identity.
func (p Pose) rot() Quat {
	if p.Rotation.W == 0 && p.Rotation.V == Zero {
		return Identity()
	}
	return p.Rotation
}
