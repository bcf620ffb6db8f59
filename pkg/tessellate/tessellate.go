// Package tessellate turns a built assembly into triangle meshes using a
// geometry kernel. One mesh is produced per placed instance, posed in world
// space, from the stand-in shape of its definition.
package tessellate

import (
	"context"
	"fmt"

	"github.com/danielgardiner81/MotoRouge/pkg/assembly"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/kernel"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"golang.org/x/sync/errgroup"
)

// Source is anything that can list placed instances. *assembly.Manager
// satisfies it.
type Source interface {
	Instances() []assembly.Instance
}

// Options controls what goes into each mesh.
type Options struct {
	// Markers unions a small sphere at every connection point.
	Markers bool
	// Workers bounds parallel meshing. Zero or less means one per instance.
	Workers int
}

// Tessellate produces one mesh per instance of src, in placement order. The
// assembly is only read.
func Tessellate(ctx context.Context, src Source, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	if src == nil {
		return nil, nil
	}
	instances := src.Instances()
	meshes := make([]*kernel.Mesh, len(instances))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, in := range instances {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := instanceMesh(k, in, opts)
			if err != nil {
				return fmt.Errorf("tessellate: instance %s (%s): %w", in.ID, in.Name, err)
			}
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}

func instanceMesh(k kernel.Kernel, in assembly.Instance, opts Options) (*kernel.Mesh, error) {
	solid, err := ShapeSolid(k, in.Def.Shape)
	if err != nil {
		return nil, err
	}
	if opts.Markers {
		for _, p := range in.Def.Points {
			if p.Radius <= 0 {
				continue
			}
			marker := k.Place(k.Sphere(p.Radius), geom.At(p.LocalPosition))
			solid = k.Union(solid, marker)
		}
	}

	mesh, err := k.ToMesh(k.Place(solid, in.Pose))
	if err != nil {
		return nil, err
	}
	mesh.Instance = string(in.ID)
	mesh.Part = in.Name
	return mesh, nil
}

// ShapeSolid builds the local, origin-centred solid for a stand-in shape.
func ShapeSolid(k kernel.Kernel, s part.Shape) (kernel.Solid, error) {
	switch s.Kind {
	case part.ShapeCylinder:
		if s.Height <= 0 || s.Radius <= 0 {
			return nil, fmt.Errorf("cylinder needs positive height and radius, got %g x %g", s.Height, s.Radius)
		}
		return k.Cylinder(s.Height, s.Radius), nil
	case part.ShapeBox, "":
		if s.Size[0] <= 0 || s.Size[1] <= 0 || s.Size[2] <= 0 {
			return nil, fmt.Errorf("box needs a positive size, got %v", s.Size)
		}
		return k.Box(s.Size[0], s.Size[1], s.Size[2]), nil
	default:
		return nil, fmt.Errorf("unsupported shape kind %q", s.Kind)
	}
}
