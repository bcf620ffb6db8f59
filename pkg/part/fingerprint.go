package part

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies a definition's content. Equal definitions have
// equal fingerprints; any authored change yields a different one with
// overwhelming probability.
type Fingerprint uint64

func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Fingerprint hashes every authored field of d in a fixed order.
func (d *Definition) Fingerprint() Fingerprint {
	h := xxhash.New()
	var buf [8]byte

	str := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.WriteString(s)
	}
	num := func(vs ...float64) {
		for _, v := range vs {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	flag := func(bs ...bool) {
		for _, b := range bs {
			if b {
				num(1)
			} else {
				num(0)
			}
		}
	}

	str(d.Name)
	str(d.Description)
	str(d.Mesh)
	str(d.Material)
	num(d.Mass, d.Friction)
	flag(d.UseGravity)

	ph := d.Physics
	num(ph.Drag, ph.AngularDrag)
	str(ph.PhysicsMaterial)
	flag(ph.FreezeRotation, ph.LockedRotationAxes.X, ph.LockedRotationAxes.Y, ph.LockedRotationAxes.Z)

	sc := d.Scaling
	str(string(sc.Mode))
	num(sc.Uniform, sc.NonUniform[0], sc.NonUniform[1], sc.NonUniform[2], sc.Limit.Min, sc.Limit.Max)

	sh := d.Shape
	str(string(sh.Kind))
	num(sh.Size[0], sh.Size[1], sh.Size[2], sh.Height, sh.Radius)

	num(float64(len(d.Points)))
	for _, p := range d.Points {
		str(p.ID)
		num(float64(p.Type))
		num(p.LocalPosition[0], p.LocalPosition[1], p.LocalPosition[2])
		num(p.Direction[0], p.Direction[1], p.Direction[2])
		num(p.Radius)
		num(p.HingeAxis[0], p.HingeAxis[1], p.HingeAxis[2])
		num(p.HingeLimit.Min, p.HingeLimit.Max, p.MaxTwistAngle)
	}

	return Fingerprint(h.Sum64())
}
