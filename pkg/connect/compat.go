// Package connect holds the pure rules for joining two connection points:
// which types may join, what joint the pair produces, and where the second
// part must move so the points meet. Nothing here mutates state.
package connect

import "github.com/danielgardiner81/MotoRouge/pkg/part"

// compatible lists, for each type of the first point, the types the second
// point may have. The rule is read from a's side only, so Fixed→Hinge is
// refused while Hinge→Fixed is allowed.
var compatible = map[part.ConnectionType][]part.ConnectionType{
	part.Fixed:      {part.Fixed},
	part.Hinge:      {part.Fixed, part.Hinge},
	part.BallSocket: {part.Fixed, part.BallSocket},
}

// CanConnect reports whether point a may be joined to point b. It fails
// closed when either point is missing or has an unknown type. Occupancy is
// not considered here; see assembly.Manager.
func CanConnect(a, b *part.ConnectionPoint) bool {
	if a == nil || b == nil {
		return false
	}
	for _, t := range compatible[a.Type] {
		if t == b.Type {
			return true
		}
	}
	return false
}

// Color is a linear RGB triple in [0, 1].
type Color struct {
	R, G, B float64
}

// Marker colors for visualisation consumers.
var (
	ColorFixed      = Color{0.3, 0.5, 1}
	ColorHinge      = Color{0.3, 1, 0.5}
	ColorBallSocket = Color{1, 0.8, 0.3}
	ColorBonded     = Color{0, 1, 0}
	ColorUnknown    = Color{1, 1, 1}
)

// ColorFor returns the marker color for a connection type.
func ColorFor(t part.ConnectionType) Color {
	switch t {
	case part.Fixed:
		return ColorFixed
	case part.Hinge:
		return ColorHinge
	case part.BallSocket:
		return ColorBallSocket
	default:
		return ColorUnknown
	}
}
