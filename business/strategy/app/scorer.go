package app

import (
	"math"
	"time"

	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
)

// Scorer computes the composite desirability score for an opportunity.
// Pure function of the opportunity, the current parameters and the tick's
// history snapshot; no side effects.
type Scorer struct {
	cfg config.ScoringConfig
	now func() time.Time
}

// NewScorer creates a Scorer.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// Score evaluates one opportunity. Every sub-score is clipped to [0,100]
// and confidence lies in [0,1].
func (s *Scorer) Score(opp *domain.Opportunity, params domain.DynamicParameters, history HistoryView) domain.Score {
	features := s.extractFeatures(opp)

	spreadScore := s.spreadScore(features.SpreadPct, params)
	liquidityScore := s.liquidityScore(features.MinLiquidity, params)
	profitScore := s.profitScore(features.EstimatedProfit, params)
	volatilityScore := domain.Clip100(100 - features.Volatility*s.cfg.VolatilitySlope)
	gasScore := domain.Clip100(features.ProfitToGas * s.cfg.GasEfficiencyScale)
	historicalScore := s.historicalScore(opp.PoolPair(), history)

	overall := spreadScore*s.cfg.SpreadWeight +
		liquidityScore*s.cfg.LiquidityWeight +
		profitScore*s.cfg.ProfitWeight +
		volatilityScore*s.cfg.VolatilityWeight +
		gasScore*s.cfg.GasWeight +
		historicalScore*s.cfg.HistoricalWeight

	confidence := 1.0
	if features.MinLiquidity < params.TargetTradeSize.InexactFloat64() {
		confidence *= s.cfg.ThinLiquidityFactor
	}
	if features.Age > s.cfg.StaleAge {
		confidence *= s.cfg.StaleAgeFactor
	}

	return domain.Score{
		Overall:    int(math.Round(domain.Clip100(overall))),
		Spread:     spreadScore,
		Liquidity:  liquidityScore,
		Profit:     profitScore,
		Volatility: volatilityScore,
		GasEff:     gasScore,
		Historical: historicalScore,
		Confidence: confidence,
		Features:   features,
	}
}

func (s *Scorer) extractFeatures(opp *domain.Opportunity) domain.FeatureVector {
	gas := opp.GasEstimate.InexactFloat64()
	profit := opp.EstimatedProfit.InexactFloat64()

	profitToGas := 0.0
	if gas > 0 {
		profitToGas = profit / gas
	}

	// Volatility proxy: price divergence normalized by the mid price.
	buyPrice := opp.BuyPool.CanonicalPrice().InexactFloat64()
	sellPrice := opp.SellPool.CanonicalPrice().InexactFloat64()
	volatility := 0.0
	if mid := (buyPrice + sellPrice) / 2; mid > 0 {
		volatility = math.Abs(sellPrice-buyPrice) / mid
	}

	return domain.FeatureVector{
		SpreadPct:       opp.SpreadPct.InexactFloat64(),
		EstimatedProfit: profit,
		MinLiquidity:    opp.MinLiquidity().InexactFloat64(),
		Volatility:      volatility,
		ProfitToGas:     profitToGas,
		Age:             opp.Age(s.now()),
	}
}

// spreadScore scales linearly, reaching 100 at full-scale-mult times the
// minimum spread threshold.
func (s *Scorer) spreadScore(spreadPct float64, params domain.DynamicParameters) float64 {
	fullScale := params.MinSpreadPct.InexactFloat64() * s.cfg.SpreadFullScaleMult
	if fullScale <= 0 {
		return 0
	}
	return domain.Clip100(spreadPct / fullScale * 100)
}

// liquidityScore is the ratio of observed depth to depth_mult times the
// target trade size, scaled to 100.
func (s *Scorer) liquidityScore(minLiquidity float64, params domain.DynamicParameters) float64 {
	depthTarget := params.TargetTradeSize.InexactFloat64() * s.cfg.LiquidityDepthMult
	if depthTarget <= 0 {
		return 0
	}
	return domain.Clip100(minLiquidity / depthTarget * 100)
}

// profitScore is the profit-to-threshold ratio scaled by profit_scale,
// so profit at 4x the threshold caps the score with the default scale.
func (s *Scorer) profitScore(profit float64, params domain.DynamicParameters) float64 {
	minProfit := params.MinProfit.InexactFloat64()
	if minProfit <= 0 {
		return 0
	}
	return domain.Clip100(profit / minProfit * s.cfg.ProfitScale)
}

func (s *Scorer) historicalScore(poolPair string, history HistoryView) float64 {
	if history == nil {
		return s.cfg.NeutralHistorical
	}
	rate, ok := history.SuccessRate(poolPair)
	if !ok {
		return s.cfg.NeutralHistorical
	}
	return domain.Clip100(rate * 100)
}
