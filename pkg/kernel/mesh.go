package kernel

import (
	"math"

	"github.com/danielgardiner81/MotoRouge/pkg/geom"
)

// Mesh is a flat triangle list for one posed part instance: three floats
// per vertex and per normal, three indices per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`

	// Instance and Part tag the mesh with the assembly instance it was
	// built for and that instance's definition name.
	Instance string `json:"instance"`
	Part     string `json:"part"`
}

func (m *Mesh) VertexCount() int { return len(m.Vertices) / 3 }

func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty reports whether m is nil or has no vertices.
func (m *Mesh) IsEmpty() bool { return m == nil || len(m.Vertices) == 0 }

func (m *Mesh) vertex(i int) geom.Vec3 {
	v := m.Vertices[3*i : 3*i+3]
	return geom.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// Bounds returns the axis-aligned box around the vertices, zero for an
// empty mesh.
func (m *Mesh) Bounds() (min, max geom.Vec3) {
	if m.IsEmpty() {
		return min, max
	}
	min = geom.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = geom.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i < m.VertexCount(); i++ {
		v := m.vertex(i)
		for a := range v {
			min[a] = math.Min(min[a], v[a])
			max[a] = math.Max(max[a], v[a])
		}
	}
	return min, max
}

// Center is the midpoint of Bounds.
func (m *Mesh) Center() geom.Vec3 {
	lo, hi := m.Bounds()
	return lo.Add(hi).Mul(0.5)
}
