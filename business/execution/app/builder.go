package app

import (
	"context"
	"time"

	"github.com/crosspool/poolarb/business/execution/domain"
	strategyDomain "github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/apperror"
)

// defaultActionDeadline bounds how long a built action stays submittable.
const defaultActionDeadline = 30 * time.Second

// StandardActionBuilder translates an approved opportunity into a trade
// action using the opportunity's own pools and sizing.
type StandardActionBuilder struct {
	now func() time.Time
}

// NewActionBuilder creates the default action builder.
func NewActionBuilder() *StandardActionBuilder {
	return &StandardActionBuilder{now: time.Now}
}

// Build produces a TradeAction. It fails when the opportunity was never
// sized; the pipeline treats that as an execution fault.
func (b *StandardActionBuilder) Build(_ context.Context, opp *strategyDomain.Opportunity, params strategyDomain.DynamicParameters) (domain.TradeAction, error) {
	if !opp.TradeAmount.IsPositive() {
		return domain.TradeAction{}, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("opportunity has no trade amount"))
	}

	return domain.TradeAction{
		OpportunityID:  opp.ID,
		PoolPair:       opp.PoolPair(),
		BuyPoolID:      opp.BuyPool.PoolID,
		SellPoolID:     opp.SellPool.PoolID,
		BaseSymbol:     opp.BuyPool.BaseSymbol,
		Amount:         opp.TradeAmount,
		PoolDepth:      opp.MinLiquidity(),
		ExpectedProfit: opp.EstimatedProfit,
		MinProfit:      params.MinProfit,
		MaxSlippagePct: params.MaxSlippagePct,
		Deadline:       b.now().Add(defaultActionDeadline),
	}, nil
}
