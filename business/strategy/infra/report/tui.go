package report

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	executionDomain "github.com/crosspool/poolarb/business/execution/domain"
	marketDomain "github.com/crosspool/poolarb/business/market/domain"
	"github.com/crosspool/poolarb/business/strategy/app"
	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/pkg/ui"
)

// TUIReporter forwards engine activity to the Bubble Tea dashboard.
// Sends are non-blocking from the caller's perspective: Program.Send is
// safe from any goroutine.
type TUIReporter struct {
	program *tea.Program
}

// NewTUIReporter wraps a running Bubble Tea program.
func NewTUIReporter(program *tea.Program) *TUIReporter {
	return &TUIReporter{program: program}
}

// Start is a no-op; the composition root runs the program.
func (r *TUIReporter) Start(ctx context.Context) error { return nil }

// ReportEvaluation forwards a scored opportunity to the dashboard.
func (r *TUIReporter) ReportEvaluation(eval app.Evaluation) {
	r.program.Send(ui.EvaluationMsg{
		Opportunity: eval.Opportunity,
		Score:       eval.Score,
		Risk:        eval.Risk,
		Approved:    eval.Decision.Approved,
		Reason:      string(eval.Decision.Reason),
	})
}

// ReportOutcome forwards an execution outcome.
func (r *TUIReporter) ReportOutcome(rec executionDomain.OutcomeRecord) {
	r.program.Send(ui.OutcomeMsg{Record: rec})
}

// ReportParameters forwards the current parameter set.
func (r *TUIReporter) ReportParameters(params domain.DynamicParameters) {
	r.program.Send(ui.ParametersMsg{Params: params})
}

// ReportSafety forwards the safety gate status.
func (r *TUIReporter) ReportSafety(status executionDomain.SafetyStatus) {
	r.program.Send(ui.SafetyMsg{Status: status})
}

// UpdateSnapshots forwards the current pool set.
func (r *TUIReporter) UpdateSnapshots(snaps []marketDomain.PoolSnapshot) {
	r.program.Send(ui.SnapshotsMsg{Snapshots: snaps})
}

// Stop quits the dashboard.
func (r *TUIReporter) Stop() error {
	r.program.Quit()
	return nil
}
