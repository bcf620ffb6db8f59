package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danielgardiner81/MotoRouge/pkg/catalog"
	"github.com/danielgardiner81/MotoRouge/pkg/engine"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/kernel/sdfx"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"github.com/danielgardiner81/MotoRouge/pkg/physics"
	"github.com/danielgardiner81/MotoRouge/pkg/preview"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// stepRate is the fixed step used when settling a simulated assembly.
const stepRate = 60

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [catalog]",
		Short: "load a part catalog and report findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, findings, err := catalog.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, partsTable(cat))
			if len(findings) == 0 {
				fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("%d parts, no findings", cat.Len())))
				return nil
			}
			fmt.Fprint(out, findingsTable(findings))

			errs := 0
			for _, f := range findings {
				if f.Severity == part.SeverityError {
					errs++
				}
			}
			if errs > 0 {
				return fmt.Errorf("%s: %d of %d findings are errors", args[0], errs, len(findings))
			}
			return nil
		},
	}
}

func newPresetsCmd(c *cli) *cobra.Command {
	var (
		catalogPath string
		presetName  string
		asTable     bool
	)
	cmd := &cobra.Command{
		Use:   "presets [part]",
		Short: "generate connection points for a part from a layout preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, err := part.ParsePreset(presetName)
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cmd.Context(), catalogPath, c.log)
			if err != nil {
				return err
			}
			def, err := cat.Get(args[0])
			if err != nil {
				return err
			}
			points := part.GeneratePoints(preset, def.Shape.Bounds())
			if asTable {
				fmt.Fprint(cmd.OutOrStdout(), pointsTable(fmt.Sprintf("%s: %s", def.Name, preset), points))
				return nil
			}
			return writeYAML(cmd.OutOrStdout(), map[string]any{"connection_points": points})
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", ".", "catalog file or directory")
	cmd.Flags().StringVar(&presetName, "preset", part.TwoPointsX.String(),
		"layout: two-x, two-y, two-z, four-xy, four-xz, center")
	cmd.Flags().BoolVar(&asTable, "table", false, "print a table instead of yaml")
	return cmd
}

func newDetectCmd(c *cli) *cobra.Command {
	var asTable bool
	cmd := &cobra.Command{
		Use:   "detect [hierarchy.yaml]",
		Short: "derive connection points from named marker nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var root part.Node
			if err := yaml.Unmarshal(data, &root); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			points := part.DetectPoints(&root)
			c.log.Info("markers detected", zap.String("file", args[0]), zap.Int("points", len(points)))
			if asTable {
				fmt.Fprint(cmd.OutOrStdout(), pointsTable(root.Name, points))
				return nil
			}
			return writeYAML(cmd.OutOrStdout(), map[string]any{"connection_points": points})
		},
	}
	cmd.Flags().BoolVar(&asTable, "table", false, "print a table instead of yaml")
	return cmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (c *cli) loadCatalog(cmd *cobra.Command, path string) (*catalog.Catalog, error) {
	if path == "" {
		return nil, nil
	}
	return catalog.Load(cmd.Context(), path, c.log)
}

func (c *cli) newEngine(cat *catalog.Catalog) *engine.Engine {
	return engine.NewEngine(cat,
		engine.WithLogger(c.log),
		engine.WithJointConfig(c.cfg.JointConfig()),
		engine.WithBackend(c.newBackend()))
}

// evaluate loads the catalog and runs a script file through the engine.
func (c *cli) evaluate(cmd *cobra.Command, catalogPath, script string) (*engine.Result, error) {
	src, err := os.ReadFile(script)
	if err != nil {
		return nil, err
	}
	cat, err := c.loadCatalog(cmd, catalogPath)
	if err != nil {
		return nil, err
	}

	res, evalErrs, err := c.newEngine(cat).EvaluateContext(cmd.Context(), string(src))
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		msgs := make([]string, len(evalErrs))
		for i, e := range evalErrs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("%s: %s", script, strings.Join(msgs, "; "))
	}
	for _, w := range res.Warnings {
		c.log.Warn("script warning", zap.String("part", w.Part), zap.String("message", w.Message))
	}
	return res, nil
}

// stepper is implemented by backends that simulate.
type stepper interface {
	Step(dt float64)
	Pose(id physics.BodyID) (geom.Pose, error)
}

func newRunCmd(c *cli) *cobra.Command {
	var (
		catalogPath string
		settle      time.Duration
		markers     bool
	)
	cmd := &cobra.Command{
		Use:   "run [script]",
		Short: "evaluate an assembly script and print the assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.evaluate(cmd, catalogPath, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, instancesTable(res.Assembly.Instances()))
			fmt.Fprint(out, bondsTable(res.Assembly.Bonds()))
			if markers {
				fmt.Fprint(out, markersTable(res.Assembly.Markers()))
			}

			if settle <= 0 {
				return nil
			}
			sim, ok := res.Backend.(stepper)
			if !ok {
				return fmt.Errorf("physics backend %q does not simulate", c.cfg.Physics.Backend)
			}
			return settleReport(out, sim, res, settle)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file or directory")
	cmd.Flags().DurationVar(&settle, "settle", 0, "simulate for this long and print final poses")
	cmd.Flags().BoolVar(&markers, "markers", false, "list connection points")
	return cmd
}

func settleReport(out io.Writer, sim stepper, res *engine.Result, d time.Duration) error {
	dt := 1.0 / stepRate
	steps := int(d.Seconds() * stepRate)
	for i := 0; i < steps; i++ {
		sim.Step(dt)
	}

	instances := res.Assembly.Instances()
	rows := make([][]string, 0, len(instances))
	for _, in := range instances {
		pose, err := sim.Pose(in.Body)
		if err != nil {
			return err
		}
		rows = append(rows, []string{shortID(in.ID), in.Name, formatVec(in.Pose.Position), formatVec(pose.Position)})
	}
	title := fmt.Sprintf("After %s (%d steps)", d, steps)
	fmt.Fprint(out, renderTable(title, []string{"ID", "Part", "Assembled", "Settled"}, rows, nil))
	return nil
}

func newMeshCmd(c *cli) *cobra.Command {
	var (
		catalogPath string
		output      string
		spheres     bool
	)
	cmd := &cobra.Command{
		Use:   "mesh [script]",
		Short: "evaluate an assembly script and export the posed scene as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cat, err := c.loadCatalog(cmd, catalogPath)
			if err != nil {
				return err
			}

			svc := preview.NewService(c.newEngine(cat), sdfx.New(c.cfg.Mesh.Cells), c.log,
				preview.Options{MarkerSpheres: spheres})
			scene := svc.Evaluate(cmd.Context(), string(src))
			if len(scene.Errors) > 0 {
				msgs := make([]string, len(scene.Errors))
				for i, e := range scene.Errors {
					msgs[i] = engine.EvalError{Line: e.Line, Col: e.Col, Message: e.Message}.Error()
				}
				return fmt.Errorf("%s: %s", args[0], strings.Join(msgs, "; "))
			}

			if err := writeJSON(cmd.OutOrStdout(), output, scene); err != nil {
				return err
			}
			c.log.Info("scene written", zap.String("output", output), zap.Int("meshes", len(scene.Meshes)))
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file or directory")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&spheres, "markers", false, "union connection point spheres into the meshes")
	return cmd
}

// writeJSON encodes v to path, or to stdout when path is empty or "-".
func writeJSON(stdout io.Writer, path string, v any) error {
	if path == "" || path == "-" {
		return json.NewEncoder(stdout).Encode(v)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
