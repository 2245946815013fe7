package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/pid"
)

var comparisonColumns = []string{"VARIANT", "FINAL", "FINAL ERR", "OVERSHOOT", "IAE", "SETTLED", "CLAMPS", "TREND"}

// RenderComparison lays out one row per result.
func RenderComparison(results []*experiment.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		actual := pid.Series(r.Records, func(rec pid.Record) float64 { return rec.Actual })
		rows = append(rows, []string{
			r.Variant.String(),
			fmt.Sprintf("%.6f", r.Final),
			fmt.Sprintf("%.2e", r.Metrics["final_error"]),
			fmt.Sprintf("%.3f", r.Metrics["overshoot"]),
			fmt.Sprintf("%.1f", r.Metrics["iae"]),
			fmt.Sprintf("%.0f", r.Metrics["settling_step"]),
			fmt.Sprintf("%.0f", r.Metrics["deadband_clamps"]),
			Sparkline(actual, 24),
		})
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(comparisonColumns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.Render()
}
