// Package app contains application services and port definitions for the strategy context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	executionDomain "github.com/crosspool/poolarb/business/execution/domain"
	marketDomain "github.com/crosspool/poolarb/business/market/domain"
	"github.com/crosspool/poolarb/business/strategy/domain"
)

// HistoryView is an immutable snapshot of outcome history taken at tick
// start, so scoring stays deterministic within a tick.
type HistoryView interface {
	// SuccessRate returns the historical success rate for a pool pair.
	// ok is false when no history exists for the pair.
	SuccessRate(poolPair string) (rate float64, ok bool)

	// OptimalSize returns the historically best trade size for a pool
	// pair, or zero when unknown.
	OptimalSize(poolPair string) decimal.Decimal
}

// Executor drives one opportunity through the safety-gated execution pipeline.
type Executor interface {
	Execute(ctx context.Context, opp *domain.Opportunity, score domain.Score) executionDomain.ExecutionResult
	SafetyStatus() executionDomain.SafetyStatus
}

// HistoryProvider produces the per-tick history snapshot.
type HistoryProvider interface {
	Snapshot() HistoryView
}

// Reporter defines the interface for surfacing engine activity.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportEvaluation surfaces a scored opportunity and its decision.
	ReportEvaluation(eval Evaluation)

	// ReportOutcome surfaces the result of an execution attempt.
	ReportOutcome(rec executionDomain.OutcomeRecord)

	// ReportParameters surfaces the current dynamic parameter set.
	ReportParameters(params domain.DynamicParameters)

	// ReportSafety surfaces the current safety gate status.
	ReportSafety(status executionDomain.SafetyStatus)

	// UpdateSnapshots surfaces the current pool set.
	UpdateSnapshots(snaps []marketDomain.PoolSnapshot)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// Evaluation bundles an opportunity with everything the decision consumed.
type Evaluation struct {
	Opportunity *domain.Opportunity
	Score       domain.Score
	Risk        domain.RiskProfile
	Decision    Decision
}
