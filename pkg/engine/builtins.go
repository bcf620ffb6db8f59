package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danielgardiner81/MotoRouge/pkg/assembly"
	"github.com/danielgardiner81/MotoRouge/pkg/catalog"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec3.
type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPoint wraps a connection point built by `point` for `defpart`.
type sexpPoint struct {
	point part.ConnectionPoint
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(point %q :type :%s)", p.point.ID, p.point.Type)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpInstance refers to a placed part.
type sexpInstance struct {
	id   assembly.InstanceID
	name string
}

func (in *sexpInstance) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(instance %q)", in.name)
}
func (in *sexpInstance) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// trailing keyword acts as a flag
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toInstance extracts a placed part from a sexpInstance.
func toInstance(s zygo.Sexp) (*sexpInstance, error) {
	if in, ok := s.(*sexpInstance); ok {
		return in, nil
	}
	return nil, fmt.Errorf("expected part instance, got %T (%s)", s, s.SexpString(nil))
}

// floatKW sets *dst from the keyword arg when present.
func floatKW(pa kwArgs, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// vecKW sets *dst from the keyword arg when present.
func vecKW(pa kwArgs, key string, dst *geom.Vec3) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = vec
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// scope is what the builtins of one evaluation share.
type scope struct {
	catalog *catalog.Catalog
	result  *Result
}

var errNoCatalog = errors.New("no catalog loaded")

// lookup resolves a part name, preferring script-local definitions.
func (s *scope) lookup(name string) (*part.Definition, error) {
	if d, ok := s.result.Parts[name]; ok {
		return d.Clone(), nil
	}
	if s.catalog == nil {
		return nil, fmt.Errorf("part %q: %w", name, errNoCatalog)
	}
	return s.catalog.Get(name)
}

// registerBuiltins installs the assembly DSL into a zygomys environment.
// Source must go through preprocessSource first so that :keyword tokens
// and kebab-case names are recognisable.
func registerBuiltins(env *zygo.Zlisp, s *scope) {
	mgr := s.result.Assembly

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var vec geom.Vec3
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			vec[i] = f
		}
		return &sexpVec3{vec: vec}, nil
	})

	// (point "Front" :type :hinge :at (vec3 1 0 0) :dir (vec3 1 0 0)
	//        :axis (vec3 0 0 1) :min -30 :max 30 :twist 45 :radius 0.1)
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("point requires an id")
		}
		id, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: id: %w", err)
		}

		typ := part.Fixed
		if v, ok := pa.kw["type"]; ok {
			kw, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point %q: type: %w", id, err)
			}
			if typ, err = part.ParseConnectionType(kw); err != nil {
				return zygo.SexpNull, fmt.Errorf("point %q: %w", id, err)
			}
		}

		p := part.NewPoint(id, typ)
		for _, err := range []error{
			vecKW(pa, "at", &p.LocalPosition),
			vecKW(pa, "dir", &p.Direction),
			vecKW(pa, "axis", &p.HingeAxis),
			floatKW(pa, "min", &p.HingeLimit.Min),
			floatKW(pa, "max", &p.HingeLimit.Max),
			floatKW(pa, "twist", &p.MaxTwistAngle),
			floatKW(pa, "radius", &p.Radius),
		} {
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point %q: %w", id, err)
			}
		}
		return &sexpPoint{point: p}, nil
	})

	// (defpart "bracket" :mass 2 :size (vec3 1 0.2 0.2) (point "A") ...)
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name")
		}
		partName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		if _, dup := s.result.Parts[partName]; dup {
			return zygo.SexpNull, fmt.Errorf("defpart: %q is already defined", partName)
		}

		def := part.NewDefinition(partName)
		if v, ok := pa.kw["mesh"]; ok {
			if def.Mesh, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("defpart %q: mesh: %w", partName, err)
			}
		}
		for _, err := range []error{
			floatKW(pa, "mass", &def.Mass),
			floatKW(pa, "friction", &def.Friction),
			vecKW(pa, "size", &def.Shape.Size),
		} {
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defpart %q: %w", partName, err)
			}
		}
		for i, a := range pa.positional[1:] {
			p, ok := a.(*sexpPoint)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("defpart %q: argument %d: expected point, got %T", partName, i+2, a)
			}
			def.Points = append(def.Points, p.point)
		}
		def.Normalize()

		findings := part.Validate(def)
		if errs := part.Errors(findings); len(errs) > 0 {
			return zygo.SexpNull, fmt.Errorf("defpart: %s", errs[0])
		}
		for _, f := range findings {
			s.result.Warnings = append(s.result.Warnings, EvalWarning{Part: partName, Message: f.Error()})
		}
		s.result.Parts[partName] = def
		return &zygo.SexpStr{S: partName}, nil
	})

	// (add-part "frame" :at (vec3 0 1 0) :rotate (vec3 0 90 0))
	env.AddFunction("add_part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("add-part requires a part name")
		}
		partName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-part: name: %w", err)
		}
		def, err := s.lookup(partName)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-part: %w", err)
		}

		pose := geom.IdentityPose()
		if err := vecKW(pa, "at", &pose.Position); err != nil {
			return zygo.SexpNull, fmt.Errorf("add-part %q: %w", partName, err)
		}
		var euler geom.Vec3
		if err := vecKW(pa, "rotate", &euler); err != nil {
			return zygo.SexpNull, fmt.Errorf("add-part %q: %w", partName, err)
		}
		pose.Rotation = geom.Euler(euler[0], euler[1], euler[2])

		id, err := mgr.AddPart(def, pose)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-part: %w", err)
		}
		return &sexpInstance{id: id, name: partName}, nil
	})

	// (connect frame "Front" fork "Top")
	env.AddFunction("connect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("connect requires 4 arguments (part point part point), got %d", len(args))
		}
		a, err := toInstance(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: %w", err)
		}
		pointA, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: point: %w", err)
		}
		b, err := toInstance(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: %w", err)
		}
		pointB, err := toString(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: point: %w", err)
		}

		if err := mgr.Connect(a.id, pointA, b.id, pointB); err != nil {
			return zygo.SexpNull, fmt.Errorf("connect %s.%s -> %s.%s: %w", a.name, pointA, b.name, pointB, errors.Unwrap(err))
		}
		return zygo.SexpNull, nil
	})

	// (disconnect frame "Front")
	env.AddFunction("disconnect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("disconnect requires 2 arguments (part point), got %d", len(args))
		}
		in, err := toInstance(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("disconnect: %w", err)
		}
		point, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("disconnect: point: %w", err)
		}
		if err := mgr.Disconnect(in.id, point); err != nil {
			return zygo.SexpNull, fmt.Errorf("disconnect %s.%s: %w", in.name, point, errors.Unwrap(err))
		}
		return zygo.SexpNull, nil
	})

	// (reset)
	env.AddFunction("reset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		mgr.Reset()
		return zygo.SexpNull, nil
	})
}
