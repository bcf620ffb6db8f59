package part

import (
	"fmt"

	"github.com/danielgardiner81/MotoRouge/pkg/geom"
)

// ValidationSeverity indicates whether a validation finding blocks loading
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks loading
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Part     string             // definition name
	Point    string             // connection point id, empty if part-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Point == "" {
		return fmt.Sprintf("[%s] part %q: %s", e.Severity, e.Part, e.Message)
	}
	return fmt.Sprintf("[%s] part %q point %q: %s", e.Severity, e.Part, e.Point, e.Message)
}

// HasErrors reports whether findings contains an error-severity entry.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors filters findings down to error-severity entries.
func Errors(findings []ValidationError) []ValidationError {
	var errs []ValidationError
	for _, f := range findings {
		if f.Severity == SeverityError {
			errs = append(errs, f)
		}
	}
	return errs
}

// Validate runs every check on d and returns the findings. An empty slice
// means the definition is valid. Validate never mutates d.
func Validate(d *Definition) []ValidationError {
	if d == nil {
		return []ValidationError{{Message: "definition is nil", Severity: SeverityError}}
	}
	var errs []ValidationError
	errs = append(errs, validateBody(d)...)
	errs = append(errs, validatePointIDs(d)...)
	for i := range d.Points {
		errs = append(errs, validatePoint(d.Name, &d.Points[i])...)
	}
	return errs
}

// ValidatePoints reports only whether the point ids are non-empty and
// unique, the check the assembly relies on.
func ValidatePoints(d *Definition) bool {
	return len(validatePointIDs(d)) == 0
}

// validateBody checks part-level fields.
func validateBody(d *Definition) []ValidationError {
	var errs []ValidationError
	add := func(sev ValidationSeverity, format string, args ...any) {
		errs = append(errs, ValidationError{Part: d.Name, Message: fmt.Sprintf(format, args...), Severity: sev})
	}

	if d.Name == "" {
		add(SeverityError, "name is empty")
	}
	if d.Mass <= 0 {
		add(SeverityError, "mass is %.4f, must be positive", d.Mass)
	}
	if d.Friction < 0 || d.Friction > 1 {
		add(SeverityError, "friction %.4f outside [0, 1]", d.Friction)
	}
	if d.Physics.Drag < 0 {
		add(SeverityError, "drag %.4f is negative", d.Physics.Drag)
	}
	if d.Physics.AngularDrag < 0 {
		add(SeverityError, "angular drag %.4f is negative", d.Physics.AngularDrag)
	}
	if d.Mesh == "" {
		add(SeverityWarning, "no mesh handle, stand-in %s shape will be used", d.Shape.Kind)
	}

	switch d.Shape.Kind {
	case ShapeBox:
		if d.Shape.Size[0] <= 0 || d.Shape.Size[1] <= 0 || d.Shape.Size[2] <= 0 {
			add(SeverityError, "box size %v must be positive on every axis", d.Shape.Size)
		}
	case ShapeCylinder:
		if d.Shape.Height <= 0 || d.Shape.Radius <= 0 {
			add(SeverityError, "cylinder height %.4f and radius %.4f must be positive", d.Shape.Height, d.Shape.Radius)
		}
	default:
		add(SeverityError, "unknown shape kind %q", d.Shape.Kind)
	}

	errs = append(errs, validateScaling(d)...)
	return errs
}

// validateScaling checks the limit range and that the active scale sits
// inside it.
func validateScaling(d *Definition) []ValidationError {
	var errs []ValidationError
	s := d.Scaling
	lim := s.Limit

	switch s.Mode {
	case ScaleUniform, ScaleNonUniform, ScaleComputed:
	default:
		return []ValidationError{{Part: d.Name, Message: fmt.Sprintf("unknown scaling mode %q", s.Mode), Severity: SeverityError}}
	}

	if lim.Min > lim.Max || lim.Min < ScaleLimitBounds.Min || lim.Max > ScaleLimitBounds.Max {
		errs = append(errs, ValidationError{
			Part:     d.Name,
			Message:  fmt.Sprintf("scale limit [%.2f, %.2f] must be ordered and within [%.1f, %.1f]", lim.Min, lim.Max, ScaleLimitBounds.Min, ScaleLimitBounds.Max),
			Severity: SeverityError,
		})
		return errs
	}

	scale := s.Scale()
	for axis, v := range scale {
		if v < lim.Min || v > lim.Max {
			errs = append(errs, ValidationError{
				Part:     d.Name,
				Message:  fmt.Sprintf("scale %.3f on axis %c outside limit [%.2f, %.2f]", v, "XYZ"[axis], lim.Min, lim.Max),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validatePointIDs checks that every point has a non-empty id and that ids
// are unique within the part.
func validatePointIDs(d *Definition) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(d.Points))
	for i, p := range d.Points {
		if p.ID == "" {
			errs = append(errs, ValidationError{
				Part:     d.Name,
				Message:  fmt.Sprintf("connection point %d has an empty id", i),
				Severity: SeverityError,
			})
			continue
		}
		if seen[p.ID] {
			errs = append(errs, ValidationError{
				Part:     d.Name,
				Point:    p.ID,
				Message:  "duplicate connection point id",
				Severity: SeverityError,
			})
		}
		seen[p.ID] = true
	}
	return errs
}

// validatePoint checks a single point's geometry and type-specific limits.
func validatePoint(partName string, p *ConnectionPoint) []ValidationError {
	var errs []ValidationError
	add := func(sev ValidationSeverity, format string, args ...any) {
		errs = append(errs, ValidationError{Part: partName, Point: p.ID, Message: fmt.Sprintf(format, args...), Severity: sev})
	}

	if p.Type < Fixed || p.Type > BallSocket {
		add(SeverityError, "invalid connection type %d", int(p.Type))
	}
	if p.Radius <= 0 {
		add(SeverityError, "radius %.4f must be positive", p.Radius)
	}
	if geom.IsZero(p.Direction) {
		add(SeverityError, "direction is zero")
	}

	switch p.Type {
	case Hinge:
		if geom.IsZero(p.HingeAxis) {
			add(SeverityError, "hinge axis is zero")
		}
		if p.HingeLimit.Min > p.HingeLimit.Max {
			add(SeverityError, "hinge limit min %.1f exceeds max %.1f", p.HingeLimit.Min, p.HingeLimit.Max)
		} else if p.HingeLimit.Max-p.HingeLimit.Min > 360 {
			add(SeverityWarning, "hinge range %.1f° exceeds a full turn", p.HingeLimit.Max-p.HingeLimit.Min)
		}
	case BallSocket:
		if p.MaxTwistAngle < 0 || p.MaxTwistAngle > 180 {
			add(SeverityError, "max twist angle %.1f outside [0, 180]", p.MaxTwistAngle)
		}
	}
	return errs
}
