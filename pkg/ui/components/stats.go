package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds pipeline statistics for display.
type Stats struct {
	Ticks       int64
	Evaluated   int64
	Approved    int64
	Executed    int64
	Rejected    int64
	TotalProfit float64
	Errors      int64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	profitStyle := valueStyle
	if s.stats.TotalProfit < 0 {
		profitStyle = errorStyle
	}

	approvalRate := float64(0)
	if s.stats.Evaluated > 0 {
		approvalRate = float64(s.stats.Approved) / float64(s.stats.Evaluated) * 100
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Evaluated: %s  │  Approved: %s (%.1f%%)  │  Executed: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Evaluated)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Approved)),
			approvalRate,
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Executed)),
		) +
		fmt.Sprintf("Total profit: %s  │  Rejections: %s  │  Errors: %s",
			profitStyle.Render(fmt.Sprintf("$%.2f", s.stats.TotalProfit)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Rejected)),
			errorsDisplay,
		)
}
