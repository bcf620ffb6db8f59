package part

import (
	"strings"

	"github.com/danielgardiner81/MotoRouge/pkg/geom"
)

// Node is one entry of an imported model's transform hierarchy. Marker
// nodes are named by the modeller, e.g. "hinge_SteeringHead".
type Node struct {
	Name          string    `yaml:"name"`
	LocalPosition geom.Vec3 `yaml:"position"`
	Forward       geom.Vec3 `yaml:"forward"` // zero means geom.Forward
	Up            geom.Vec3 `yaml:"up"`      // zero means geom.Up
	Children      []*Node   `yaml:"children"`
}

// markerPrefixes maps lower-case name prefixes to connection types. Order
// matters only for readability; the prefixes do not overlap.
var markerPrefixes = []struct {
	prefix string
	typ    ConnectionType
}{
	{"joint_", Fixed},
	{"hinge_", Hinge},
	{"ball_", BallSocket},
	{"socket_", BallSocket},
	{"connect_", Fixed},
}

// Per-type settings given to detected points.
var (
	DetectedHingeLimit    = Limit{Min: -45, Max: 45}
	DetectedMaxTwistAngle = 30.0
)

// DetectPoints walks root depth-first and returns a connection point for
// every marker node. The point id is the part of the name after the first
// underscore, with its original case.
func DetectPoints(root *Node) []ConnectionPoint {
	var points []ConnectionPoint
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if p, ok := pointFromMarker(n); ok {
			points = append(points, p)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return points
}

func pointFromMarker(n *Node) (ConnectionPoint, bool) {
	lower := strings.ToLower(n.Name)
	for _, m := range markerPrefixes {
		if !strings.HasPrefix(lower, m.prefix) {
			continue
		}
		_, id, found := strings.Cut(n.Name, "_")
		if !found || id == "" {
			return ConnectionPoint{}, false
		}

		p := NewPoint(id, m.typ)
		p.LocalPosition = n.LocalPosition
		p.Direction = orDefault(n.Forward, geom.Forward)
		switch m.typ {
		case Hinge:
			p.HingeAxis = orDefault(n.Up, geom.Up)
			p.HingeLimit = DetectedHingeLimit
		case BallSocket:
			p.MaxTwistAngle = DetectedMaxTwistAngle
		}
		return p, true
	}
	return ConnectionPoint{}, false
}

func orDefault(v, fallback geom.Vec3) geom.Vec3 {
	if geom.IsZero(v) {
		return fallback
	}
	return v
}
