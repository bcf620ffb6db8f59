// Package preview turns an assembly script into a JSON-ready scene: posed
// meshes with display colors, connection point markers, bonds and any
// evaluation errors. It is the single call a viewer front end needs.
package preview

import (
	"context"
	"fmt"

	"github.com/danielgardiner81/MotoRouge/pkg/connect"
	"github.com/danielgardiner81/MotoRouge/pkg/engine"
	"github.com/danielgardiner81/MotoRouge/pkg/kernel"
	"github.com/danielgardiner81/MotoRouge/pkg/tessellate"
	"go.uber.org/zap"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the JSON-serializable mesh format sent to a viewer.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Instance string    `json:"instance"`
	Part     string    `json:"part"`
	Color    string    `json:"color"`
}

// MarkerData is a connection point marker in world space.
type MarkerData struct {
	Instance  string     `json:"instance"`
	Point     string     `json:"point"`
	Type      string     `json:"type"`
	Position  [3]float64 `json:"position"`
	Direction [3]float64 `json:"direction"`
	Radius    float64    `json:"radius"`
	Color     string     `json:"color"`
	Bonded    bool       `json:"bonded"`
}

// BondData is one joint between two points.
type BondData struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Joint string `json:"joint"`
}

// ErrorData is a JSON-serializable evaluation error or warning.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Result is the full scene. Every slice is non-nil so it encodes as [].
type Result struct {
	Meshes   []MeshData   `json:"meshes"`
	Markers  []MarkerData `json:"markers"`
	Bonds    []BondData   `json:"bonds"`
	Errors   []ErrorData  `json:"errors"`
	Warnings []ErrorData  `json:"warnings"`
}

// Options controls what a Service produces.
type Options struct {
	// MarkerSpheres unions marker spheres into the part meshes as well as
	// listing them in Result.Markers.
	MarkerSpheres bool
}

// Service evaluates scripts and tessellates the assemblies they build.
type Service struct {
	engine *engine.Engine
	kernel kernel.Kernel
	log    *zap.Logger
	opts   Options
}

// NewService creates a Service. A nil logger discards output.
func NewService(eng *engine.Engine, k kernel.Kernel, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{engine: eng, kernel: k, log: log, opts: opts}
}

func newResult() Result {
	return Result{
		Meshes:   []MeshData{},
		Markers:  []MarkerData{},
		Bonds:    []BondData{},
		Errors:   []ErrorData{},
		Warnings: []ErrorData{},
	}
}

// Evaluate runs source and returns the scene it builds. Failures are
// reported in Result.Errors; a result with errors has no meshes.
func (s *Service) Evaluate(ctx context.Context, source string) Result {
	result := newResult()

	res, evalErrs, err := s.engine.EvaluateContext(ctx, source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		s.log.Error("evaluate failed", zap.Error(err))
		result.Errors = append(result.Errors, ErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, ErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, ErrorData{Message: fmt.Sprintf("part %q: %s", w.Part, w.Message)})
	}

	meshes, err := tessellate.Tessellate(ctx, res.Assembly, s.kernel, tessellate.Options{Markers: s.opts.MarkerSpheres})
	if err != nil {
		s.log.Error("tessellate failed", zap.Error(err))
		result.Errors = append(result.Errors, ErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Instance: m.Instance,
			Part:     m.Part,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}

	for _, mk := range res.Assembly.Markers() {
		result.Markers = append(result.Markers, MarkerData{
			Instance:  string(mk.Ref.Instance),
			Point:     mk.Ref.Point,
			Type:      mk.Type.String(),
			Position:  mk.Position,
			Direction: mk.Direction,
			Radius:    mk.Radius,
			Color:     Hex(mk.Color),
			Bonded:    mk.Bonded,
		})
	}
	for _, b := range res.Assembly.Bonds() {
		result.Bonds = append(result.Bonds, BondData{A: b.A.String(), B: b.B.String(), Joint: b.Spec.Type.String()})
	}

	s.log.Debug("preview built",
		zap.Int("meshes", len(result.Meshes)),
		zap.Int("markers", len(result.Markers)),
		zap.Int("bonds", len(result.Bonds)))
	return result
}

// Hex formats a linear color as #RRGGBB, clamping each channel to [0, 1].
func Hex(c connect.Color) string {
	ch := func(v float64) int {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 255
		}
		return int(v*255 + 0.5)
	}
	return fmt.Sprintf("#%02X%02X%02X", ch(c.R), ch(c.G), ch(c.B))
}
