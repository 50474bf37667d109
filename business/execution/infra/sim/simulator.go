// Package sim provides an offline trade executor for dry-run operation:
// simulation is computed locally from the action itself and submission
// is refused.
package sim

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/crosspool/poolarb/business/execution/domain"
	"github.com/crosspool/poolarb/internal/apperror"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
)

// Simulator approximates on-chain simulation without a node. Slippage
// is modeled as the trade's share of the shallower pool's depth.
type Simulator struct {
	cfg    config.StrategyConfig
	logger logger.LoggerInterface
}

// NewSimulator creates an offline simulator.
func NewSimulator(cfg config.StrategyConfig, log logger.LoggerInterface) *Simulator {
	return &Simulator{cfg: cfg, logger: log}
}

// Simulate estimates the outcome from the action's own expectations.
func (s *Simulator) Simulate(ctx context.Context, action domain.TradeAction) (domain.SimulationOutcome, error) {
	slippage := decimal.Zero
	if action.PoolDepth.IsPositive() {
		slippage = action.Amount.Div(action.PoolDepth)
	}

	gas := s.cfg.GasEstimateDecimal()
	profit := action.ExpectedProfit.Sub(action.ExpectedProfit.Mul(slippage))

	s.logger.Debug(ctx, "offline simulation",
		"opportunity_id", action.OpportunityID,
		"profit", profit.String(),
		"slippage", slippage.String())

	return domain.SimulationOutcome{
		Success:           true,
		EstimatedProfit:   profit,
		EstimatedGas:      gas,
		EstimatedSlippage: slippage,
	}, nil
}

// Submit always fails: the offline executor never commits capital. The
// pipeline's dry-run short circuit means this is only reachable through
// misconfiguration.
func (s *Simulator) Submit(context.Context, domain.TradeAction) (domain.SubmissionOutcome, error) {
	return domain.SubmissionOutcome{}, apperror.New(apperror.CodeInvalidState,
		apperror.WithContext("offline executor cannot submit trades"))
}
