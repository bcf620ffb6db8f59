// Package sdfx builds stand-in part solids with the deadsy/sdfx signed
// distance library and meshes them with uniform marching cubes.
package sdfx

import (
	"fmt"
	"math"

	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ kernel.Kernel = (*Kernel)(nil)

// DefaultMeshCells is the marching cubes resolution along the longest axis.
const DefaultMeshCells = 48

type solid struct{ sdf.SDF3 }

func (s solid) BoundingBox() (min, max [3]float64) {
	bb := s.SDF3.BoundingBox()
	return [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}, [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

// Kernel is a kernel.Kernel backed by sdfx.
type Kernel struct {
	cells int
}

// New returns a kernel meshing at the given resolution; values below 1
// select DefaultMeshCells.
func New(cells int) *Kernel {
	if cells < 1 {
		cells = DefaultMeshCells
	}
	return &Kernel{cells: cells}
}

// must panics on primitive construction errors. sdfx only fails on
// non-positive sizes, which callers rule out before asking for a solid.
func must(op string, s sdf.SDF3, err error) kernel.Solid {
	if err != nil {
		panic(fmt.Sprintf("sdfx %s: %v", op, err))
	}
	return solid{s}
}

func sdf3(s kernel.Solid) sdf.SDF3 { return s.(solid).SDF3 }

func toV3(v geom.Vec3) v3.Vec { return v3.Vec{X: v[0], Y: v[1], Z: v[2]} }

func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	return must("box", s, err)
}

// Cylinder runs along Y to match wheel and fork axles. sdf.Cylinder3D
// runs along Z, so it is turned a quarter about X.
func (k *Kernel) Cylinder(height, radius float64) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return must("cylinder", nil, err)
	}
	return solid{sdf.Transform3D(s, sdf.RotateX(math.Pi/2))}
}

func (k *Kernel) Sphere(radius float64) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	return must("sphere", s, err)
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return solid{sdf.Union3D(sdf3(a), sdf3(b))}
}

// Place rotates about the origin, then translates to pose.Position.
func (k *Kernel) Place(s kernel.Solid, pose geom.Pose) kernel.Solid {
	m := sdf.Translate3d(toV3(pose.Position))
	if axis, angle := geom.AxisAngle(pose.Rotation); angle != 0 {
		m = m.Mul(sdf.Rotate3d(toV3(axis), angle))
	}
	return solid{sdf.Transform3D(sdf3(s), m)}
}

// ToMesh runs marching cubes and emits flat-shaded triangles. Degenerate
// triangles are skipped since they have no usable normal.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	tris := render.ToTriangles(sdf3(s), render.NewMarchingCubesUniform(k.cells))

	mb := newMeshBuilder(len(tris))
	for _, t := range tris {
		mb.add(t.Normal(), t[0], t[1], t[2])
	}
	if mb.mesh.IsEmpty() {
		return nil, fmt.Errorf("sdfx: solid produced no triangles at %d cells", k.cells)
	}
	return mb.mesh, nil
}

type meshBuilder struct {
	mesh *kernel.Mesh
}

func newMeshBuilder(tris int) *meshBuilder {
	return &meshBuilder{mesh: &kernel.Mesh{
		Vertices: make([]float32, 0, tris*9),
		Normals:  make([]float32, 0, tris*9),
		Indices:  make([]uint32, 0, tris*3),
	}}
}

func (b *meshBuilder) add(n v3.Vec, corners ...v3.Vec) {
	if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) || n == (v3.Vec{}) {
		return
	}
	m := b.mesh
	for _, v := range corners {
		m.Indices = append(m.Indices, uint32(m.VertexCount()))
		m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
}
