package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ParamsView holds the dynamic parameter set for display.
type ParamsView struct {
	MinSpreadPct    decimal.Decimal
	MinProfit       decimal.Decimal
	MaxSlippagePct  decimal.Decimal
	TargetTradeSize decimal.Decimal
	RiskTolerance   float64
}

// ParamsComponent renders the live parameter panel.
type ParamsComponent struct {
	view    ParamsView
	retunes int
}

// NewParamsComponent creates a new params component.
func NewParamsComponent() *ParamsComponent {
	return &ParamsComponent{}
}

// Update replaces the displayed parameters, counting retunes.
func (p *ParamsComponent) Update(view ParamsView) {
	if p.view != (ParamsView{}) && p.view != view {
		p.retunes++
	}
	p.view = view
}

// View renders the params component.
func (p *ParamsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	result := headerStyle.Render("PARAMETERS") + "\n"
	result += fmt.Sprintf("Min spread: %s   Min profit: %s\n",
		valueStyle.Render(fmt.Sprintf("%.2f%%", p.view.MinSpreadPct.InexactFloat64()*100)),
		valueStyle.Render("$"+p.view.MinProfit.StringFixed(2)),
	)
	result += fmt.Sprintf("Max slippage: %s   Target size: %s\n",
		valueStyle.Render(fmt.Sprintf("%.2f%%", p.view.MaxSlippagePct.InexactFloat64()*100)),
		valueStyle.Render(p.view.TargetTradeSize.StringFixed(0)),
	)
	result += fmt.Sprintf("Risk tolerance: %s   %s\n",
		valueStyle.Render(fmt.Sprintf("%.2f", p.view.RiskTolerance)),
		mutedStyle.Render(fmt.Sprintf("(%d retunes)", p.retunes)),
	)
	return result
}
