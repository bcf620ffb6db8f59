package assembly_test

import (
	"errors"
	"fmt"

	"github.com/danielgardiner81/MotoRouge/pkg/assembly"
	"github.com/danielgardiner81/MotoRouge/pkg/connect"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"github.com/danielgardiner81/MotoRouge/pkg/physics/record"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func withPoint(def *part.Definition, id string, t part.ConnectionType, pos, dir geom.Vec3) *part.Definition {
	p := part.NewPoint(id, t)
	p.LocalPosition = pos
	p.Direction = dir
	def.Points = append(def.Points, p)
	return def
}

// frame has a Fixed point on +X and a Hinge point on +Y.
func frame() *part.Definition {
	def := part.NewDefinition("frame")
	withPoint(def, "Right", part.Fixed, geom.Vec3{0.5, 0, 0}, geom.Right)
	withPoint(def, "Top", part.Hinge, geom.Vec3{0, 0.5, 0}, geom.Up)
	return def
}

// arm has a Fixed point on -X and a Hinge point on -Y.
func arm() *part.Definition {
	def := part.NewDefinition("arm")
	withPoint(def, "Left", part.Fixed, geom.Vec3{-0.5, 0, 0}, geom.Right.Mul(-1))
	withPoint(def, "Pivot", part.Hinge, geom.Vec3{0, -0.5, 0}, geom.Up.Mul(-1))
	return def
}

var _ = Describe("Manager", func() {
	var (
		be  *record.Backend
		mgr *assembly.Manager
		seq int
	)

	nextID := func() assembly.InstanceID {
		seq++
		return assembly.InstanceID(fmt.Sprintf("inst-%d", seq))
	}

	BeforeEach(func() {
		seq = 0
		be = record.New()
		mgr = assembly.New(be, assembly.WithIDGenerator(nextID))
	})

	mustAdd := func(def *part.Definition, pose geom.Pose) assembly.InstanceID {
		id, err := mgr.AddPart(def, pose)
		Expect(err).NotTo(HaveOccurred())
		return id
	}

	Describe("AddPart", func() {
		It("starts empty", func() {
			Expect(mgr.State()).To(Equal(assembly.Empty))
			Expect(mgr.Instances()).To(BeEmpty())
		})

		It("enters Building and creates a body", func() {
			id := mustAdd(frame(), geom.At(geom.Vec3{1, 2, 3}))

			Expect(mgr.State()).To(Equal(assembly.Building))
			in, ok := mgr.Instance(id)
			Expect(ok).To(BeTrue())
			Expect(in.Name).To(Equal("frame"))
			Expect(be.Body(in.Body)).NotTo(BeNil())
			Expect(be.Body(in.Body).Pose.Position).To(Equal(geom.Vec3{1, 2, 3}))
		})

		It("copies the definition", func() {
			def := frame()
			id := mustAdd(def, geom.IdentityPose())
			def.Points = nil

			in, _ := mgr.Instance(id)
			Expect(in.Def.Points).To(HaveLen(2))
		})

		It("rejects invalid definitions", func() {
			_, err := mgr.AddPart(nil, geom.IdentityPose())
			Expect(err).To(MatchError(assembly.ErrInvalidDefinition))

			bad := frame()
			bad.Mass = -1
			_, err = mgr.AddPart(bad, geom.IdentityPose())
			Expect(err).To(MatchError(assembly.ErrInvalidDefinition))
			Expect(mgr.State()).To(Equal(assembly.Empty))
			Expect(be.Bodies()).To(BeEmpty())
		})

		It("surfaces backend failures", func() {
			boom := errors.New("boom")
			be.FailNext = boom
			_, err := mgr.AddPart(frame(), geom.IdentityPose())
			Expect(err).To(MatchError(boom))
			Expect(mgr.Instances()).To(BeEmpty())
		})
	})

	Describe("Connect", func() {
		var a, b assembly.InstanceID

		BeforeEach(func() {
			a = mustAdd(frame(), geom.IdentityPose())
			b = mustAdd(arm(), geom.Pose{
				Position: geom.Vec3{4, -2, 1},
				Rotation: geom.Euler(20, 45, 10),
			})
		})

		It("bonds both ends and aligns the second part", func() {
			Expect(mgr.Connect(a, "Right", b, "Left")).To(Succeed())

			refA := assembly.PointRef{Instance: a, Point: "Right"}
			refB := assembly.PointRef{Instance: b, Point: "Left"}
			Expect(mgr.AssemblyState()).To(Equal(map[assembly.PointRef]assembly.PointRef{
				refA: refB,
				refB: refA,
			}))

			inA, _ := mgr.Instance(a)
			inB, _ := mgr.Instance(b)
			Expect(inA.IsConnected("Right")).To(BeTrue())
			Expect(inB.IsConnected("Left")).To(BeTrue())
			Expect(inB.IsConnected("Pivot")).To(BeFalse())

			wa := connect.Resolve(inA.Pose, inA.Def.Point("Right"))
			wb := connect.Resolve(inB.Pose, inB.Def.Point("Left"))
			Expect(geom.Near(wa.Position, wb.Position, 1e-4)).To(BeTrue())
			Expect(wa.Direction.Dot(wb.Direction)).To(BeNumerically("~", -1, 1e-4))

			Expect(be.Body(inB.Body).Pose.ApproxEqual(inB.Pose, 1e-12)).To(BeTrue())
			Expect(inA.Pose.ApproxEqual(geom.IdentityPose(), 1e-12)).To(BeTrue())
		})

		It("materializes the synthesized joint", func() {
			Expect(mgr.Connect(a, "Top", b, "Pivot")).To(Succeed())

			bonds := mgr.Bonds()
			Expect(bonds).To(HaveLen(1))
			j := be.Joint(bonds[0].Joint)
			Expect(j).NotTo(BeNil())
			Expect(j.Kind).To(Equal(part.Hinge))
			Expect(j.Spec.Hinge).NotTo(BeNil())
			Expect(j.Spec.Hinge.UseLimits).To(BeTrue())
		})

		It("rejects Fixed driving Hinge and leaves state unchanged", func() {
			c := mustAdd(arm(), geom.IdentityPose())
			before, _ := mgr.Instance(c)

			err := mgr.Connect(a, "Right", c, "Pivot")
			Expect(err).To(MatchError(assembly.ErrIncompatibleConnection))

			var ce *assembly.ConnectError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.A).To(Equal(assembly.PointRef{Instance: a, Point: "Right"}))

			after, _ := mgr.Instance(c)
			Expect(after.Pose).To(Equal(before.Pose))
			Expect(mgr.AssemblyState()).To(BeEmpty())
			Expect(be.Joints()).To(BeEmpty())
		})

		It("rejects an already bonded point without duplicating it", func() {
			Expect(mgr.Connect(a, "Right", b, "Left")).To(Succeed())
			c := mustAdd(arm(), geom.IdentityPose())

			err := mgr.Connect(a, "Right", c, "Left")
			Expect(err).To(MatchError(assembly.ErrPointAlreadyBonded))
			err = mgr.Connect(c, "Left", b, "Left")
			Expect(err).To(MatchError(assembly.ErrPointAlreadyBonded))

			Expect(mgr.Bonds()).To(HaveLen(1))
			Expect(be.Joints()).To(HaveLen(1))
			Expect(mgr.AssemblyState()).To(HaveLen(2))
		})

		It("rejects unknown parts and points", func() {
			Expect(mgr.Connect("nope", "Right", b, "Left")).To(MatchError(assembly.ErrUnknownPart))
			Expect(mgr.Connect(a, "Right", "nope", "Left")).To(MatchError(assembly.ErrUnknownPart))
			Expect(mgr.Connect(a, "Missing", b, "Left")).To(MatchError(assembly.ErrUnknownConnectionPoint))
			Expect(mgr.Connect(a, "Right", b, "Missing")).To(MatchError(assembly.ErrUnknownConnectionPoint))
			Expect(mgr.AssemblyState()).To(BeEmpty())
		})

		It("rejects connecting a part to itself", func() {
			Expect(mgr.Connect(a, "Top", a, "Right")).To(MatchError(assembly.ErrSelfConnection))
		})

		It("records nothing when the joint cannot be created", func() {
			before, _ := mgr.Instance(b)
			boom := errors.New("solver full")
			be.FailNext = boom

			err := mgr.Connect(a, "Right", b, "Left")
			Expect(err).To(MatchError(boom))

			after, _ := mgr.Instance(b)
			Expect(after.Pose).To(Equal(before.Pose))
			Expect(be.Body(after.Body).Pose).To(Equal(before.Pose))
			Expect(mgr.AssemblyState()).To(BeEmpty())
			Expect(after.IsConnected("Left")).To(BeFalse())
		})

		It("keeps parts at identity when already aligned", func() {
			mgr.Reset()
			left := part.NewDefinition("left")
			withPoint(left, "P", part.Fixed, geom.Zero, geom.Right)
			right := part.NewDefinition("right")
			withPoint(right, "P", part.Fixed, geom.Zero, geom.Right.Mul(-1))

			x := mustAdd(left, geom.IdentityPose())
			y := mustAdd(right, geom.IdentityPose())
			Expect(mgr.Connect(x, "P", y, "P")).To(Succeed())

			inX, _ := mgr.Instance(x)
			inY, _ := mgr.Instance(y)
			Expect(inX.Pose.ApproxEqual(geom.IdentityPose(), 1e-9)).To(BeTrue())
			Expect(inY.Pose.ApproxEqual(geom.IdentityPose(), 1e-9)).To(BeTrue())
		})

		It("connects two instances of the same definition", func() {
			c := mustAdd(frame(), geom.At(geom.Vec3{0, 3, 0}))
			d := mustAdd(frame(), geom.At(geom.Vec3{0, 6, 0}))
			Expect(mgr.Connect(c, "Top", d, "Right")).To(Succeed())
			Expect(mgr.Bonded(assembly.PointRef{Instance: c, Point: "Top"})).To(BeTrue())
			Expect(mgr.Bonded(assembly.PointRef{Instance: a, Point: "Top"})).To(BeFalse())
		})
	})

	Describe("Disconnect", func() {
		var a, b assembly.InstanceID

		BeforeEach(func() {
			a = mustAdd(frame(), geom.IdentityPose())
			b = mustAdd(arm(), geom.At(geom.Vec3{3, 0, 0}))
		})

		It("restores the bond map after connect", func() {
			before := mgr.AssemblyState()
			Expect(mgr.Connect(a, "Right", b, "Left")).To(Succeed())
			Expect(mgr.Disconnect(a, "Right")).To(Succeed())

			Expect(mgr.AssemblyState()).To(Equal(before))
			Expect(be.Joints()).To(BeEmpty())
			inA, _ := mgr.Instance(a)
			inB, _ := mgr.Instance(b)
			Expect(inA.ConnectedCount()).To(BeZero())
			Expect(inB.ConnectedCount()).To(BeZero())
		})

		It("works from either end", func() {
			Expect(mgr.Connect(a, "Top", b, "Pivot")).To(Succeed())
			Expect(mgr.Disconnect(b, "Pivot")).To(Succeed())
			Expect(mgr.AssemblyState()).To(BeEmpty())
		})

		It("rejects unbonded and unknown points", func() {
			Expect(mgr.Disconnect(a, "Right")).To(MatchError(assembly.ErrPointNotBonded))
			Expect(mgr.Disconnect("ghost", "Right")).To(MatchError(assembly.ErrPointNotBonded))
		})

		It("allows reconnecting afterwards", func() {
			Expect(mgr.Connect(a, "Right", b, "Left")).To(Succeed())
			Expect(mgr.Disconnect(a, "Right")).To(Succeed())
			Expect(mgr.Connect(a, "Right", b, "Left")).To(Succeed())
			Expect(mgr.Bonds()).To(HaveLen(1))
		})
	})

	Describe("Reset", func() {
		It("empties the assembly and the backend", func() {
			a := mustAdd(frame(), geom.IdentityPose())
			b := mustAdd(arm(), geom.At(geom.Vec3{2, 0, 0}))
			Expect(mgr.Connect(a, "Right", b, "Left")).To(Succeed())

			mgr.Reset()
			Expect(mgr.State()).To(Equal(assembly.Empty))
			Expect(mgr.Instances()).To(BeEmpty())
			Expect(mgr.AssemblyState()).To(BeEmpty())
			Expect(be.Bodies()).To(BeEmpty())
			Expect(be.Joints()).To(BeEmpty())
		})

		It("is idempotent", func() {
			mustAdd(frame(), geom.IdentityPose())
			mgr.Reset()
			first := mgr.AssemblyState()
			mgr.Reset()

			Expect(mgr.State()).To(Equal(assembly.Empty))
			Expect(mgr.AssemblyState()).To(Equal(first))
			Expect(mgr.Instances()).To(BeEmpty())
		})
	})

	Describe("Markers", func() {
		It("colours points by type and bond", func() {
			a := mustAdd(frame(), geom.At(geom.Vec3{0, 1, 0}))
			b := mustAdd(arm(), geom.At(geom.Vec3{2, 0, 0}))
			Expect(mgr.Connect(a, "Right", b, "Left")).To(Succeed())

			markers := mgr.Markers()
			Expect(markers).To(HaveLen(4))

			byRef := make(map[assembly.PointRef]assembly.Marker)
			for _, mk := range markers {
				byRef[mk.Ref] = mk
			}
			right := byRef[assembly.PointRef{Instance: a, Point: "Right"}]
			Expect(right.Bonded).To(BeTrue())
			Expect(right.Color).To(Equal(connect.ColorBonded))
			Expect(right.Position).To(Equal(geom.Vec3{0.5, 1, 0}))

			top := byRef[assembly.PointRef{Instance: a, Point: "Top"}]
			Expect(top.Bonded).To(BeFalse())
			Expect(top.Color).To(Equal(connect.ColorHinge))
			Expect(top.Radius).To(Equal(part.DefaultRadius))
		})
	})
})
