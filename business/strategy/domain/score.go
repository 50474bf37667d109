package domain

import "time"

// FeatureVector holds the opportunity features the scorer and risk
// assessor work from. Extracted once per evaluation so both see the
// same inputs.
type FeatureVector struct {
	SpreadPct       float64
	EstimatedProfit float64
	MinLiquidity    float64
	Volatility      float64 // normalized price divergence between the two pools
	ProfitToGas     float64
	Age             time.Duration
}

// Score is the composite desirability of an opportunity. Immutable once
// computed; it lives only as long as the decision that consumed it,
// except inside an outcome record.
type Score struct {
	Overall    int // in [0,100], rounded
	Spread     float64
	Liquidity  float64
	Profit     float64
	Volatility float64
	GasEff     float64
	Historical float64
	Confidence float64 // in [0,1]
	Features   FeatureVector
}

// RiskProfile is the composite risk assessment of an opportunity.
// Invariant: Acceptable == (Overall <= tolerance*100).
type RiskProfile struct {
	Overall    float64 // in [0,100]
	Liquidity  float64
	Slippage   float64
	Gas        float64
	Execution  float64
	Acceptable bool
	Warnings   []string
}

// Clip100 bounds a score component to [0,100].
func Clip100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
