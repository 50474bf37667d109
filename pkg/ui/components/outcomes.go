package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OutcomeRow represents one execution outcome in the list.
type OutcomeRow struct {
	Timestamp string
	PoolPair  string
	Status    string
	Amount    decimal.Decimal
	Realized  decimal.Decimal
	Success   bool
}

// OutcomesComponent renders the recent execution outcomes.
type OutcomesComponent struct {
	rows    []OutcomeRow
	maxRows int
}

// NewOutcomesComponent creates a new outcomes component.
func NewOutcomesComponent(maxRows int) *OutcomesComponent {
	return &OutcomesComponent{
		rows:    make([]OutcomeRow, 0),
		maxRows: maxRows,
	}
}

// Add adds a new outcome, newest first.
func (o *OutcomesComponent) Add(row OutcomeRow) {
	o.rows = append([]OutcomeRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// Clear clears all outcomes.
func (o *OutcomesComponent) Clear() {
	o.rows = make([]OutcomeRow, 0)
}

// View renders the outcomes component.
func (o *OutcomesComponent) View() string {
	if len(o.rows) == 0 {
		return "No executions yet..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failureStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	result := headerStyle.Render(fmt.Sprintf("EXECUTIONS (last %d)\n", o.maxRows))
	result += "┌──────────┬──────────────────────┬─────────────────────────┬─────────┬──────────┐\n"
	result += "│   Time   │        Pools         │         Status          │  Size   │ Realized │\n"
	result += "├──────────┼──────────────────────┼─────────────────────────┼─────────┼──────────┤\n"

	for _, row := range o.rows {
		statusStyle := failureStyle
		icon := "✗"
		if row.Success {
			statusStyle = successStyle
			icon = "✓"
		}

		result += fmt.Sprintf("│ %8s │ %-20s │ %s %-21s │%8s │%9s │\n",
			row.Timestamp,
			truncate(row.PoolPair, 20),
			icon,
			statusStyle.Render(truncate(row.Status, 21)),
			row.Amount.StringFixed(0),
			fmt.Sprintf("$%.2f", row.Realized.InexactFloat64()),
		)
	}

	result += "└──────────┴──────────────────────┴─────────────────────────┴─────────┴──────────┘"
	return result
}
