package part

import (
	"fmt"

	"github.com/danielgardiner81/MotoRouge/pkg/geom"
)

// Preset is a canned layout of connection points derived from a part's
// bounds.
type Preset int

const (
	TwoPointsX   Preset = iota // Left, Right
	TwoPointsY                 // Bottom, Top
	TwoPointsZ                 // Front, Back
	FourPointsXY               // corners in the XY plane
	FourPointsXZ               // corners in the XZ plane
	CenterPoint                // single point at the center
)

var presetNames = map[Preset]string{
	TwoPointsX:   "two-x",
	TwoPointsY:   "two-y",
	TwoPointsZ:   "two-z",
	FourPointsXY: "four-xy",
	FourPointsXZ: "four-xz",
	CenterPoint:  "center",
}

func (p Preset) String() string {
	if s, ok := presetNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Preset(%d)", int(p))
}

// ParsePreset maps a preset name (see String) back to its value.
func ParsePreset(s string) (Preset, error) {
	for p, name := range presetNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown preset %q", s)
}

// GeneratePoints lays out Fixed connection points for preset on the faces,
// edges or center of b. Radii scale with the bounds: a tenth of the
// extents' length, half again for the center point.
func GeneratePoints(preset Preset, b Bounds) []ConnectionPoint {
	e := b.Extents
	r := e.Len() * 0.1
	left, down, back := geom.Right.Mul(-1), geom.Up.Mul(-1), geom.Forward.Mul(-1)

	switch preset {
	case TwoPointsX:
		return []ConnectionPoint{
			presetPoint("Left", geom.Vec3{-e[0], 0, 0}, left, r),
			presetPoint("Right", geom.Vec3{e[0], 0, 0}, geom.Right, r),
		}
	case TwoPointsY:
		return []ConnectionPoint{
			presetPoint("Bottom", geom.Vec3{0, -e[1], 0}, down, r),
			presetPoint("Top", geom.Vec3{0, e[1], 0}, geom.Up, r),
		}
	case TwoPointsZ:
		return []ConnectionPoint{
			presetPoint("Front", geom.Vec3{0, 0, -e[2]}, back, r),
			presetPoint("Back", geom.Vec3{0, 0, e[2]}, geom.Forward, r),
		}
	case FourPointsXY:
		return []ConnectionPoint{
			presetPoint("TopLeft", geom.Vec3{-e[0], e[1], 0}, geom.Up.Add(left), r),
			presetPoint("TopRight", geom.Vec3{e[0], e[1], 0}, geom.Up.Add(geom.Right), r),
			presetPoint("BottomLeft", geom.Vec3{-e[0], -e[1], 0}, down.Add(left), r),
			presetPoint("BottomRight", geom.Vec3{e[0], -e[1], 0}, down.Add(geom.Right), r),
		}
	case FourPointsXZ:
		return []ConnectionPoint{
			presetPoint("FrontLeft", geom.Vec3{-e[0], 0, -e[2]}, back.Add(left), r),
			presetPoint("FrontRight", geom.Vec3{e[0], 0, -e[2]}, back.Add(geom.Right), r),
			presetPoint("BackLeft", geom.Vec3{-e[0], 0, e[2]}, geom.Forward.Add(left), r),
			presetPoint("BackRight", geom.Vec3{e[0], 0, e[2]}, geom.Forward.Add(geom.Right), r),
		}
	case CenterPoint:
		return []ConnectionPoint{presetPoint("Center", b.Center, geom.Up, r*1.5)}
	}
	return nil
}

func presetPoint(id string, pos, dir geom.Vec3, radius float64) ConnectionPoint {
	p := NewPoint(id, Fixed)
	p.LocalPosition = pos
	p.Direction = geom.Normalize(dir)
	p.Radius = radius
	return p
}
