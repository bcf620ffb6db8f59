package engine

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/danielgardiner81/MotoRouge/pkg/assembly"
	"github.com/danielgardiner81/MotoRouge/pkg/catalog"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"github.com/danielgardiner81/MotoRouge/pkg/physics"
	"github.com/danielgardiner81/MotoRouge/pkg/physics/record"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(add-part "frame" :at v)`,
			expect: `(add_part "frame" "__kw_at" v)`,
		},
		{
			name:   "multiple keywords",
			input:  `(point "A" :min -30 :max 30)`,
			expect: `(point "A" "__kw_min" -30 "__kw_max" 30)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case in string preserved",
			input:  `(add-part "rear-wheel")`,
			expect: `(add_part "rear-wheel")`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:ball-socket`,
			expect: `"__kw_ball-socket"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	frame := part.NewDefinition("frame")
	frame.Mesh = "frame.obj"
	for _, p := range []struct {
		id  string
		typ part.ConnectionType
		pos geom.Vec3
		dir geom.Vec3
	}{
		{"Right", part.Fixed, geom.Vec3{0.5, 0, 0}, geom.Right},
		{"Top", part.Hinge, geom.Vec3{0, 0.5, 0}, geom.Up},
	} {
		cp := part.NewPoint(p.id, p.typ)
		cp.LocalPosition, cp.Direction = p.pos, p.dir
		frame.Points = append(frame.Points, cp)
	}

	arm := part.NewDefinition("arm")
	arm.Mesh = "arm.obj"
	left := part.NewPoint("Left", part.Fixed)
	left.LocalPosition, left.Direction = geom.Vec3{-0.5, 0, 0}, geom.Right.Mul(-1)
	pivot := part.NewPoint("Pivot", part.Hinge)
	pivot.LocalPosition, pivot.Direction = geom.Vec3{0, -0.5, 0}, geom.Up.Mul(-1)
	arm.Points = append(arm.Points, left, pivot)

	c, err := catalog.New(frame, arm)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func mustEvaluate(t *testing.T, eng *Engine, source string) *Result {
	t.Helper()
	res, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return res
}

func expectEvalError(t *testing.T, eng *Engine, source, want string) {
	t.Helper()
	res, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res != nil {
		t.Fatal("expected nil result on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatalf("expected an eval error containing %q", want)
	}
	var msgs []string
	for _, e := range evalErrs {
		msgs = append(msgs, e.Error())
	}
	if joined := strings.Join(msgs, "\n"); !strings.Contains(joined, want) {
		t.Errorf("eval errors %q do not mention %q", joined, want)
	}
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

func TestAddPartAndConnect(t *testing.T) {
	eng := NewEngine(testCatalog(t))

	res := mustEvaluate(t, eng, `
(def f (add-part "frame" :at (vec3 0 1 0)))
(def a (add-part "arm" :at (vec3 3 0 0) :rotate (vec3 0 90 0)))
(connect f "Right" a "Left")
`)
	mgr := res.Assembly
	if mgr.State() != assembly.Building {
		t.Fatalf("expected building, got %s", mgr.State())
	}
	ins := mgr.Instances()
	if len(ins) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(ins))
	}
	bonds := mgr.Bonds()
	if len(bonds) != 1 {
		t.Fatalf("expected 1 bond, got %d", len(bonds))
	}
	if bonds[0].A.Point != "Right" || bonds[0].B.Point != "Left" {
		t.Errorf("unexpected bond %+v", bonds[0])
	}

	// The arm was moved so its Left point sits on the frame's Right point.
	arm, _ := mgr.Instance(ins[1].ID)
	got := arm.Pose.TransformPoint(geom.Vec3{-0.5, 0, 0})
	if !geom.Near(got, geom.Vec3{0.5, 1, 0}, 1e-4) {
		t.Errorf("arm point at %v, want (0.5, 1, 0)", got)
	}
}

func TestDisconnectAndReset(t *testing.T) {
	eng := NewEngine(testCatalog(t))

	res := mustEvaluate(t, eng, `
(def f (add-part "frame"))
(def a (add-part "arm" :at (vec3 2 0 0)))
(connect f "Top" a "Pivot")
(disconnect a "Pivot")
`)
	if len(res.Assembly.Bonds()) != 0 {
		t.Errorf("expected no bonds after disconnect")
	}
	if len(res.Assembly.Instances()) != 2 {
		t.Errorf("disconnect should keep the parts")
	}

	res = mustEvaluate(t, eng, `
(add-part "frame")
(reset)
(reset)
`)
	if res.Assembly.State() != assembly.Empty {
		t.Errorf("expected empty after reset, got %s", res.Assembly.State())
	}
}

func TestDefpartWithPoints(t *testing.T) {
	eng := NewEngine(nil)

	res := mustEvaluate(t, eng, `
(defpart "bracket" :mass 2 :size (vec3 1 0.2 0.2)
  (point "A" :type :hinge :at (vec3 0.5 0 0) :dir (vec3 2 0 0) :axis (vec3 0 0 1) :min -30 :max 30)
  (point "B" :type :ball-socket :at (vec3 -0.5 0 0) :dir (vec3 -1 0 0) :twist 45))
(defpart "stub" (point "S" :dir (vec3 -1 0 0)))
(def b (add-part "bracket"))
(def s (add-part "stub" :at (vec3 4 0 0)))
(connect b "A" s "S")
`)
	def := res.Parts["bracket"]
	if def == nil {
		t.Fatal("bracket not recorded")
	}
	if def.Mass != 2 {
		t.Errorf("mass = %v, want 2", def.Mass)
	}
	a := def.Point("A")
	if a == nil || a.Type != part.Hinge {
		t.Fatalf("point A = %+v", a)
	}
	if a.HingeLimit != (part.Limit{Min: -30, Max: 30}) {
		t.Errorf("hinge limit = %+v", a.HingeLimit)
	}
	if !geom.Near(a.Direction, geom.Right, 1e-12) {
		t.Errorf("direction should be normalized, got %v", a.Direction)
	}
	if b := def.Point("B"); b == nil || b.Type != part.BallSocket || b.MaxTwistAngle != 45 {
		t.Errorf("point B = %+v", b)
	}
	if len(res.Assembly.Bonds()) != 1 {
		t.Errorf("expected the hinge to bond to the stub")
	}
	// neither part has a mesh handle
	if len(res.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", res.Warnings)
	}
}

func TestBackendFactory(t *testing.T) {
	var be *record.Backend
	eng := NewEngine(testCatalog(t), WithBackend(func() physics.Backend {
		be = record.New()
		return be
	}))

	mustEvaluate(t, eng, `
(def f (add-part "frame"))
(def a (add-part "arm" :at (vec3 2 0 0)))
(connect f "Top" a "Pivot")
`)
	if len(be.Bodies()) != 2 || len(be.Joints()) != 1 {
		t.Fatalf("backend saw %d bodies and %d joints", len(be.Bodies()), len(be.Joints()))
	}
	if be.Joints()[0].Kind != part.Hinge {
		t.Errorf("expected hinge joint, got %s", be.Joints()[0].Kind)
	}
}

func TestAssemblyErrorsSurface(t *testing.T) {
	eng := NewEngine(testCatalog(t))

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "incompatible",
			source: `(def f (add-part "frame")) (def a (add-part "arm")) (connect f "Right" a "Pivot")`,
			want:   assembly.ErrIncompatibleConnection.Error(),
		},
		{
			name:   "unknown point",
			source: `(def f (add-part "frame")) (def a (add-part "arm")) (connect f "Nope" a "Left")`,
			want:   assembly.ErrUnknownConnectionPoint.Error(),
		},
		{
			name: "already bonded",
			source: `(def f (add-part "frame")) (def a (add-part "arm")) (def b (add-part "arm"))
(connect f "Right" a "Left")
(connect f "Right" b "Left")`,
			want: assembly.ErrPointAlreadyBonded.Error(),
		},
		{
			name:   "not bonded",
			source: `(def f (add-part "frame")) (disconnect f "Right")`,
			want:   assembly.ErrPointNotBonded.Error(),
		},
		{
			name:   "unknown part",
			source: `(add-part "spaceship")`,
			want:   "spaceship",
		},
		{
			name:   "bad connection type",
			source: `(point "X" :type :welded)`,
			want:   "welded",
		},
		{
			name:   "connect wrong arity",
			source: `(connect 1 2)`,
			want:   "connect requires 4 arguments",
		},
		{
			name:   "vec3 arity",
			source: `(vec3 1 2)`,
			want:   "vec3 requires exactly 3 arguments",
		},
		{
			name:   "invalid defpart",
			source: `(defpart "heavy" :mass 0)`,
			want:   "mass",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectEvalError(t, eng, tt.source, tt.want)
		})
	}
}

func TestEvaluateIsolatesRuns(t *testing.T) {
	eng := NewEngine(testCatalog(t))

	first := mustEvaluate(t, eng, `(add-part "frame")`)
	second := mustEvaluate(t, eng, `(add-part "frame") (add-part "arm")`)
	if len(first.Assembly.Instances()) != 1 || len(second.Assembly.Instances()) != 2 {
		t.Errorf("evaluations should not share state")
	}
}

func TestExampleScript(t *testing.T) {
	cat, err := catalog.Load(context.Background(), "../../examples/motorbike", nil)
	if err != nil {
		t.Fatal(err)
	}
	src, err := os.ReadFile("../../examples/motorbike/bike.zy")
	if err != nil {
		t.Fatal(err)
	}

	res := mustEvaluate(t, NewEngine(cat), string(src))
	if n := len(res.Assembly.Instances()); n != 6 {
		t.Errorf("expected 6 parts, got %d", n)
	}
	if n := len(res.Assembly.Bonds()); n != 5 {
		t.Errorf("expected 5 bonds, got %d", n)
	}
}
