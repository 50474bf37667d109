package app

import (
	"github.com/shopspring/decimal"

	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
)

// SizeOptimizer derives a final trade size from the target size, the
// available pool depth and past results for the pool pair.
type SizeOptimizer struct {
	cfg config.SizingConfig
}

// NewSizeOptimizer creates a SizeOptimizer.
func NewSizeOptimizer(cfg config.SizingConfig) *SizeOptimizer {
	return &SizeOptimizer{cfg: cfg}
}

// Size computes the trade amount for an approved opportunity and writes
// it onto the opportunity. The size starts at the target from the
// current parameters, is capped at a fraction of the shallower pool's
// liquidity, is averaged with the historically optimal size for the
// pair when one exists, and is floored to a whole unit. A result below
// one unit means the pools are too shallow to trade.
func (s *SizeOptimizer) Size(opp *domain.Opportunity, params domain.DynamicParameters, history HistoryView) decimal.Decimal {
	size := params.TargetTradeSize

	depthCap := opp.MinLiquidity().Mul(decimal.NewFromFloat(s.cfg.LiquidityCapPct))
	if size.GreaterThan(depthCap) {
		size = depthCap
	}

	if history != nil {
		if optimal := history.OptimalSize(opp.PoolPair()); optimal.IsPositive() {
			size = size.Add(optimal).Div(decimal.NewFromInt(2))
			if size.GreaterThan(depthCap) {
				size = depthCap
			}
		}
	}

	size = size.Floor()
	opp.TradeAmount = size
	return size
}
