// Package report provides Reporter implementations: a structured log
// reporter for headless operation and a Bubble Tea dashboard reporter.
package report

import (
	"context"

	executionDomain "github.com/crosspool/poolarb/business/execution/domain"
	marketDomain "github.com/crosspool/poolarb/business/market/domain"
	"github.com/crosspool/poolarb/business/strategy/app"
	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/logger"
)

// ConsoleReporter surfaces engine activity through the structured logger.
type ConsoleReporter struct {
	logger logger.LoggerInterface
}

// NewConsoleReporter creates a log-backed reporter.
func NewConsoleReporter(log logger.LoggerInterface) *ConsoleReporter {
	return &ConsoleReporter{logger: log}
}

// Start is a no-op for the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error { return nil }

// ReportEvaluation logs a scored opportunity and its verdict.
func (r *ConsoleReporter) ReportEvaluation(eval app.Evaluation) {
	ctx := context.Background()
	fields := []any{
		"opportunity_id", eval.Opportunity.ID,
		"pool_pair", eval.Opportunity.PoolPair(),
		"spread_pct", eval.Opportunity.SpreadPct.String(),
		"profit", eval.Opportunity.EstimatedProfit.String(),
		"score", eval.Score.Overall,
		"confidence", eval.Score.Confidence,
		"risk", eval.Risk.Overall,
	}
	if eval.Decision.Approved {
		r.logger.Info(ctx, "opportunity approved", fields...)
		return
	}
	r.logger.Debug(ctx, "opportunity rejected",
		append(fields, "reason", string(eval.Decision.Reason))...)
}

// ReportOutcome logs an execution outcome.
func (r *ConsoleReporter) ReportOutcome(rec executionDomain.OutcomeRecord) {
	ctx := context.Background()
	fields := []any{
		"outcome_id", rec.ID,
		"opportunity_id", rec.OpportunityID,
		"status", string(rec.Status),
		"trade_amount", rec.TradeAmount.String(),
		"realized_profit", rec.RealizedProfit.String(),
		"elapsed_ms", rec.Elapsed.Milliseconds(),
	}
	if rec.Status.Fault() {
		r.logger.Error(ctx, "execution attempt failed",
			append(fields, "error", rec.Err)...)
		return
	}
	r.logger.Info(ctx, "execution attempt finished", fields...)
}

// ReportParameters logs the current dynamic parameter set.
func (r *ConsoleReporter) ReportParameters(params domain.DynamicParameters) {
	r.logger.Debug(context.Background(), "dynamic parameters",
		"min_spread_pct", params.MinSpreadPct.String(),
		"min_profit", params.MinProfit.String(),
		"max_slippage_pct", params.MaxSlippagePct.String(),
		"target_trade_size", params.TargetTradeSize.String(),
		"risk_tolerance", params.RiskTolerance,
	)
}

// ReportSafety logs safety gate changes. Only non-closed states are
// worth a line.
func (r *ConsoleReporter) ReportSafety(status executionDomain.SafetyStatus) {
	if status.State == executionDomain.GateClosed && !status.Shutdown {
		return
	}
	r.logger.Warn(context.Background(), "safety gate not closed",
		"state", string(status.State),
		"shutdown", status.Shutdown,
		"consecutive_failures", status.ConsecutiveFailures,
		"loss_since_reset", status.LossSinceReset.String(),
	)
}

// UpdateSnapshots is a no-op for the console reporter.
func (r *ConsoleReporter) UpdateSnapshots([]marketDomain.PoolSnapshot) {}

// Stop is a no-op for the console reporter.
func (r *ConsoleReporter) Stop() error { return nil }
