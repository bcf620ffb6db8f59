// Package kernel defines the geometry kernel used to build stand-in solids
// for parts that have no mesh of their own, and to turn them into triangle
// meshes for preview and export.
package kernel

import "github.com/danielgardiner81/MotoRouge/pkg/geom"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centred on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid // axis along Y
	Sphere(radius float64) Solid

	Union(a, b Solid) Solid

	// Place applies a rigid pose: rotation about the origin, then translation.
	Place(s Solid, pose geom.Pose) Solid

	ToMesh(s Solid) (*Mesh, error)
}
