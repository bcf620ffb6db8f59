// Package session holds interactive editing state that outlives a single
// input event. A Placement adds one connection point to a definition
// previewed at the origin: the caller starts it, forwards a click ray, and
// gets back an edited copy.
package session

import (
	"errors"
	"fmt"

	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"go.uber.org/zap"
)

var (
	// ErrNotActive is returned by Click when no placement is in progress.
	ErrNotActive = errors.New("session: no placement in progress")
	// ErrMiss is returned by Click when the ray never reaches the ground.
	ErrMiss = errors.New("session: ray misses the ground plane")
)

// Ray is a half line from Origin along Direction.
type Ray struct {
	Origin    geom.Vec3
	Direction geom.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) geom.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// GroundHit intersects r with the plane y=0. Rays parallel to the plane, or
// pointing away from it, miss.
func GroundHit(r Ray) (geom.Vec3, bool) {
	denom := r.Direction.Dot(geom.Up)
	if denom > -geom.Epsilon && denom < geom.Epsilon {
		return geom.Vec3{}, false
	}
	t := -r.Origin.Dot(geom.Up) / denom
	if t <= 0 {
		return geom.Vec3{}, false
	}
	hit := r.At(t)
	hit[1] = 0
	return hit, true
}

// Placement places a single connection point. The zero value is idle and
// ready to use.
type Placement struct {
	Log *zap.Logger

	def    *part.Definition
	kind   part.ConnectionType
	active bool
}

func (p *Placement) log() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// Start begins placing a point of type kind on def. A placement already in
// progress is replaced.
func (p *Placement) Start(def *part.Definition, kind part.ConnectionType) error {
	if def == nil {
		return fmt.Errorf("session: start placement: nil definition")
	}
	if kind < part.Fixed || kind > part.BallSocket {
		return fmt.Errorf("session: start placement: unknown connection type %d", int(kind))
	}
	p.def = def
	p.kind = kind
	p.active = true
	p.log().Debug("placement started", zap.String("part", def.Name), zap.Stringer("type", kind))
	return nil
}

// Active reports whether a placement is in progress.
func (p *Placement) Active() bool {
	return p.active
}

// Type returns the connection type being placed.
func (p *Placement) Type() part.ConnectionType {
	return p.kind
}

// Click adds a point where r meets the ground and ends the placement. The
// returned definition is a copy; the one passed to Start is not modified.
// A miss leaves the placement active.
func (p *Placement) Click(r Ray) (*part.Definition, error) {
	if !p.active {
		return nil, ErrNotActive
	}
	hit, ok := GroundHit(r)
	if !ok {
		return nil, ErrMiss
	}

	def := p.def.Clone()
	pt := def.AddPoint()
	*pt = part.NewPoint(pt.ID, p.kind)
	pt.LocalPosition = hit

	p.log().Info("connection point placed",
		zap.String("part", def.Name),
		zap.String("point", pt.ID),
		zap.Stringer("type", p.kind))
	p.stop()
	return def, nil
}

// Cancel ends the placement without change.
func (p *Placement) Cancel() {
	if p.active {
		p.log().Debug("placement cancelled", zap.String("part", p.def.Name))
	}
	p.stop()
}

func (p *Placement) stop() {
	p.active = false
	p.def = nil
}
