// Package report renders a compiled model as markdown documents: one table
// of rate equations, one of differential equations, and a summary of the
// model's collections.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/biosimlabs/textode/pkg/model"
)

// File names written by Write.
const (
	RateEquationsFile         = "rate_equations.md"
	DifferentialEquationsFile = "differential_equations.md"
	SummaryFile               = "summary.md"
)

// Write renders the model into dir, creating it if needed.
func Write(m *model.Model, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	files := map[string]string{
		RateEquationsFile:         RateEquations(m),
		DifferentialEquationsFile: DifferentialEquations(m),
		SummaryFile:               Summary(m),
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// RateEquations renders the rate-law table. Multiplication renders as a
// middle dot so the expressions survive markdown emphasis rules.
func RateEquations(m *model.Model) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"No.", "Rate equation"})
	for _, r := range m.Reactions {
		t.AppendRow(table.Row{r.Line, mdExpr(r.Expr)})
	}
	return t.RenderMarkdown() + "\n"
}

// DifferentialEquations renders the per-species equation table.
func DifferentialEquations(m *model.Model) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Species", "d[x]/dt"})
	for _, eq := range m.Equations {
		s := eq.String()
		// Strip the "dX/dt = " prefix; the species has its own column.
		if i := strings.Index(s, "= "); i >= 0 {
			s = s[i+2:]
		}
		t.AppendRow(table.Row{eq.Species, mdExpr(s)})
	}
	return t.RenderMarkdown() + "\n"
}

// Summary renders the model's collection sizes and annotation inventory.
func Summary(m *model.Model) string {
	var sb strings.Builder
	sb.WriteString("# Model summary\n\n")

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Collection", "Count"})
	t.AppendRow(table.Row{"Species", len(m.Species)})
	t.AppendRow(table.Row{"Reactions", len(m.Reactions)})
	t.AppendRow(table.Row{"Parameters", len(m.Parameters)})
	t.AppendRow(table.Row{"Excluded parameters", len(m.Excluded)})
	t.AppendRow(table.Row{"Observables", len(m.Observables)})
	t.AppendRow(table.Row{"Conditions", len(m.Conditions)})
	sb.WriteString(t.RenderMarkdown())
	sb.WriteString("\n")

	if len(m.Species) > 0 {
		sb.WriteString("\nSpecies, in order of first mention: ")
		sb.WriteString(strings.Join(m.Species, ", "))
		sb.WriteString("\n")
	}
	if m.Tspan != nil {
		fmt.Fprintf(&sb, "\nSimulation interval: [%d, %d]\n", m.Tspan.T0, m.Tspan.Tf)
	}
	return sb.String()
}

// mdExpr prepares a symbolic expression for a markdown cell.
func mdExpr(expr string) string {
	return strings.ReplaceAll(expr, "*", "·")
}
