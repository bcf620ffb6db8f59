package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/danielgardiner81/MotoRouge/pkg/assembly"
	"github.com/danielgardiner81/MotoRouge/pkg/catalog"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))

	errorStyle   = cellStyle.Foreground(lipgloss.Color("#ff4444")).Bold(true)
	warningStyle = cellStyle.Foreground(lipgloss.Color("#ffaa00"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true)
)

func renderTable(title string, headers []string, rows [][]string, style table.StyleFunc) string {
	if style == nil {
		style = func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(style)
	return titleStyle.Render(title) + "\n" + t.Render() + "\n"
}

func formatVec(v geom.Vec3) string {
	return fmt.Sprintf("%.3f %.3f %.3f", v[0], v[1], v[2])
}

func shortID(id assembly.InstanceID) string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func shortRef(r assembly.PointRef) string {
	return shortID(r.Instance) + "/" + r.Point
}

func partsTable(c *catalog.Catalog) string {
	var rows [][]string
	for _, name := range c.Names() {
		def, err := c.Get(name)
		if err != nil {
			continue
		}
		rows = append(rows, []string{
			name,
			c.Source(name),
			strconv.Itoa(len(def.Points)),
			def.Fingerprint().String(),
		})
	}
	return renderTable("Parts", []string{"Name", "Source", "Points", "Fingerprint"}, rows, nil)
}

func findingsTable(findings []catalog.Finding) string {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{f.Severity.String(), f.Source, f.Part, f.Point, f.Message}
	}
	style := func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == 0 && findings[row].Severity == part.SeverityError:
			return errorStyle
		case col == 0:
			return warningStyle
		}
		return cellStyle
	}
	return renderTable("Findings", []string{"Severity", "Source", "Part", "Point", "Message"}, rows, style)
}

func pointsTable(title string, points []part.ConnectionPoint) string {
	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{p.ID, p.Type.String(), formatVec(p.LocalPosition), formatVec(p.Direction), fmt.Sprintf("%.3f", p.Radius)}
	}
	return renderTable(title, []string{"ID", "Type", "Position", "Direction", "Radius"}, rows, nil)
}

func instancesTable(instances []assembly.Instance) string {
	rows := make([][]string, len(instances))
	for i, in := range instances {
		rows[i] = []string{
			shortID(in.ID),
			in.Name,
			formatVec(in.Pose.Position),
			fmt.Sprintf("%d/%d", in.ConnectedCount(), len(in.Def.Points)),
		}
	}
	return renderTable("Instances", []string{"ID", "Part", "Position", "Bonded"}, rows, nil)
}

func bondsTable(bonds []assembly.Bond) string {
	rows := make([][]string, len(bonds))
	for i, b := range bonds {
		rows[i] = []string{shortRef(b.A), shortRef(b.B), b.Spec.Type.String()}
	}
	return renderTable("Bonds", []string{"A", "B", "Joint"}, rows, nil)
}

func markersTable(markers []assembly.Marker) string {
	rows := make([][]string, len(markers))
	for i, m := range markers {
		state := "free"
		if m.Bonded {
			state = "bonded"
		}
		rows[i] = []string{shortRef(m.Ref), m.Type.String(), formatVec(m.Position), formatVec(m.Direction), state}
	}
	return renderTable("Connection points", []string{"Point", "Type", "Position", "Direction", "State"}, rows, nil)
}
