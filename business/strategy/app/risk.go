package app

import (
	"fmt"

	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
)

// RiskAssessor computes the composite risk profile for a scored opportunity.
type RiskAssessor struct {
	cfg config.RiskConfig
}

// NewRiskAssessor creates a RiskAssessor.
func NewRiskAssessor(cfg config.RiskConfig) *RiskAssessor {
	return &RiskAssessor{cfg: cfg}
}

// Assess computes the four sub-risks and their unweighted mean. The
// acceptable flag holds exactly when overall <= tolerance*100.
func (r *RiskAssessor) Assess(opp *domain.Opportunity, score domain.Score, params domain.DynamicParameters) domain.RiskProfile {
	tradeAmount := opp.TradeAmount.InexactFloat64()
	minLiquidity := score.Features.MinLiquidity
	profit := score.Features.EstimatedProfit
	gas := opp.GasEstimate.InexactFloat64()

	liquidityRisk := 100.0
	slippageRisk := 100.0
	if minLiquidity > 0 {
		liquidityRisk = domain.Clip100(tradeAmount / minLiquidity * r.cfg.LiquidityScale)
		slippageRisk = domain.Clip100(tradeAmount / minLiquidity * r.cfg.SlippageScale)
	}

	// Zero or negative expected profit makes gas exposure unbounded.
	gasRisk := 100.0
	if profit > 0 {
		gasRisk = domain.Clip100(gas / profit * r.cfg.GasScale)
	}

	agePenalty := score.Features.Age.Seconds()
	if agePenalty > r.cfg.MaxAgePenalty {
		agePenalty = r.cfg.MaxAgePenalty
	}
	executionRisk := domain.Clip100(r.cfg.ExecutionBase + agePenalty)

	overall := (liquidityRisk + slippageRisk + gasRisk + executionRisk) / 4

	var warnings []string
	if liquidityRisk > r.cfg.WarnSubRisk {
		warnings = append(warnings, fmt.Sprintf("liquidity risk %.0f: trade is large for pool depth", liquidityRisk))
	}
	if slippageRisk > r.cfg.WarnSubRisk {
		warnings = append(warnings, fmt.Sprintf("slippage risk %.0f: expect significant price impact", slippageRisk))
	}
	if gasRisk > r.cfg.WarnSubRisk {
		warnings = append(warnings, fmt.Sprintf("gas risk %.0f: fees consume most of the expected profit", gasRisk))
	}
	if overall > r.cfg.WarnOverallRisk {
		warnings = append(warnings, fmt.Sprintf("overall risk %.0f exceeds %.0f", overall, r.cfg.WarnOverallRisk))
	}

	return domain.RiskProfile{
		Overall:    overall,
		Liquidity:  liquidityRisk,
		Slippage:   slippageRisk,
		Gas:        gasRisk,
		Execution:  executionRisk,
		Acceptable: overall <= params.RiskTolerance*100,
		Warnings:   warnings,
	}
}
