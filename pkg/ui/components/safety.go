package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// SafetyView holds the safety gate state for display.
type SafetyView struct {
	State               string
	Shutdown            bool
	ConsecutiveFailures int
	MaxFailures         int
	LossSinceReset      decimal.Decimal
	LossCap             decimal.Decimal
	LastLossReset       time.Time
}

// SafetyComponent renders the safety gate panel.
type SafetyComponent struct {
	view SafetyView
}

// NewSafetyComponent creates a new safety component.
func NewSafetyComponent(maxFailures int, lossCap decimal.Decimal) *SafetyComponent {
	return &SafetyComponent{view: SafetyView{
		State:       "CLOSED",
		MaxFailures: maxFailures,
		LossCap:     lossCap,
	}}
}

// Update replaces the displayed state.
func (s *SafetyComponent) Update(view SafetyView) {
	view.MaxFailures = s.view.MaxFailures
	view.LossCap = s.view.LossCap
	s.view = view
}

// View renders the safety component.
func (s *SafetyComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	openStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	closedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	state := closedStyle.Render("● " + s.view.State)
	if s.view.State != "CLOSED" {
		state = openStyle.Render("○ " + s.view.State)
	}
	if s.view.Shutdown {
		state += openStyle.Render("  SHUTDOWN")
	}

	result := headerStyle.Render("SAFETY GATE") + "\n"
	result += fmt.Sprintf("State: %s\n", state)
	result += fmt.Sprintf("Failures: %d/%d\n", s.view.ConsecutiveFailures, s.view.MaxFailures)
	result += fmt.Sprintf("Loss: $%.2f / $%.2f\n",
		s.view.LossSinceReset.InexactFloat64(), s.view.LossCap.InexactFloat64())
	if !s.view.LastLossReset.IsZero() {
		result += mutedStyle.Render(
			fmt.Sprintf("Window since %s", s.view.LastLossReset.Format("15:04:05")))
	}
	return result
}
