package app

import (
	"context"

	"github.com/crosspool/poolarb/business/execution/domain"
	strategyDomain "github.com/crosspool/poolarb/business/strategy/domain"
)

// ActionBuilder translates an approved, sized opportunity into a
// concrete trade action.
type ActionBuilder interface {
	Build(ctx context.Context, opp *strategyDomain.Opportunity, params strategyDomain.DynamicParameters) (domain.TradeAction, error)
}

// TradeExecutor is the external execution capability. Simulate must be
// side-effect free; Submit commits capital.
type TradeExecutor interface {
	Simulate(ctx context.Context, action domain.TradeAction) (domain.SimulationOutcome, error)
	Submit(ctx context.Context, action domain.TradeAction) (domain.SubmissionOutcome, error)
}

// OutcomeSink receives every outcome record exactly once, in completion
// order. Emit must not block the pipeline on slow storage.
type OutcomeSink interface {
	Emit(ctx context.Context, rec domain.OutcomeRecord)
}

// ParamSource exposes the current dynamic parameters to the pipeline.
type ParamSource interface {
	Snapshot() strategyDomain.DynamicParameters
}
