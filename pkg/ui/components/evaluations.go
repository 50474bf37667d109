// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// EvaluationRow represents one scored opportunity in the list.
type EvaluationRow struct {
	Timestamp string
	PoolPair  string
	SpreadPct decimal.Decimal
	Profit    decimal.Decimal
	Score     int
	Risk      float64
	Approved  bool
	Reason    string
}

// EvaluationsComponent renders the recent evaluations list.
type EvaluationsComponent struct {
	rows    []EvaluationRow
	maxRows int
}

// NewEvaluationsComponent creates a new evaluations component.
func NewEvaluationsComponent(maxRows int) *EvaluationsComponent {
	return &EvaluationsComponent{
		rows:    make([]EvaluationRow, 0),
		maxRows: maxRows,
	}
}

// Add adds a new evaluation, newest first.
func (e *EvaluationsComponent) Add(row EvaluationRow) {
	e.rows = append([]EvaluationRow{row}, e.rows...)
	if len(e.rows) > e.maxRows {
		e.rows = e.rows[:e.maxRows]
	}
}

// Clear clears all evaluations.
func (e *EvaluationsComponent) Clear() {
	e.rows = make([]EvaluationRow, 0)
}

// View renders the evaluations component.
func (e *EvaluationsComponent) View() string {
	if len(e.rows) == 0 {
		return "No opportunities evaluated yet..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	approvedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	rejectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	result := headerStyle.Render(fmt.Sprintf("EVALUATIONS (last %d)\n", e.maxRows))
	result += "┌──────────┬──────────────────────┬─────────┬──────────┬───────┬──────┬────────────────────────┐\n"
	result += "│   Time   │        Pools         │ Spread  │  Profit  │ Score │ Risk │        Verdict         │\n"
	result += "├──────────┼──────────────────────┼─────────┼──────────┼───────┼──────┼────────────────────────┤\n"

	for _, row := range e.rows {
		verdictStyle := approvedStyle
		verdict := "✓ approved"
		if !row.Approved {
			verdictStyle = rejectedStyle
			verdict = "✗ " + row.Reason
		}

		result += fmt.Sprintf("│ %8s │ %-20s │%8s │%9s │ %5d │%5.0f │ %-22s │\n",
			row.Timestamp,
			truncate(row.PoolPair, 20),
			fmt.Sprintf("%.2f%%", row.SpreadPct.InexactFloat64()*100),
			fmt.Sprintf("$%.2f", row.Profit.InexactFloat64()),
			row.Score,
			row.Risk,
			verdictStyle.Render(truncate(verdict, 22)),
		)
	}

	result += "└──────────┴──────────────────────┴─────────┴──────────┴───────┴──────┴────────────────────────┘"
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
