package app

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRiskAssessor_ReferenceScenario(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testStrategyConfig()
	scorer := NewScorer(cfg.Scoring)
	scorer.now = func() time.Time { return now }
	assessor := NewRiskAssessor(cfg.Risk)

	opp := makeOpportunity("1.00", "1.03", "28.1", "100000", now)
	score := scorer.Score(opp, testParams(), nil)
	risk := assessor.Assess(opp, score, testParams())

	// liquidity = 1000/100000*200 = 2, slippage = 1000/100000*100 = 1,
	// gas = 1/28.1*100 = 3.56, execution = 20 + 0; mean = 6.64.
	if math.Abs(risk.Overall-6.64) > 0.01 {
		t.Errorf("Overall = %.4f, want 6.64", risk.Overall)
	}
	if !risk.Acceptable {
		t.Error("reference opportunity should be within tolerance")
	}
	if len(risk.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", risk.Warnings)
	}
}

func TestRiskAssessor_Components(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testStrategyConfig()
	scorer := NewScorer(cfg.Scoring)
	scorer.now = func() time.Time { return now }
	assessor := NewRiskAssessor(cfg.Risk)

	tests := []struct {
		name           string
		profit         string
		liquidity      string
		age            time.Duration
		wantLiquidity  float64
		wantSlippage   float64
		wantGas        float64
		wantExecution  float64
		wantAcceptable bool
	}{
		{
			name:   "deep_pool_fresh",
			profit: "28.1", liquidity: "100000", age: 0,
			wantLiquidity: 2, wantSlippage: 1, wantGas: 100.0 / 28.1, wantExecution: 20,
			wantAcceptable: true,
		},
		{
			name:   "trade_half_the_pool",
			profit: "28.1", liquidity: "2000", age: 0,
			// 1000/2000*200 saturates liquidity risk; mean still 43.4.
			wantLiquidity: 100, wantSlippage: 50, wantGas: 100.0 / 28.1, wantExecution: 20,
			wantAcceptable: true,
		},
		{
			name:   "zero_profit_unbounded_gas",
			profit: "0", liquidity: "100000", age: 0,
			wantLiquidity: 2, wantSlippage: 1, wantGas: 100, wantExecution: 20,
			wantAcceptable: true,
		},
		{
			name:   "aged_out_penalty_caps",
			profit: "28.1", liquidity: "100000", age: 45 * time.Second,
			wantLiquidity: 2, wantSlippage: 1, wantGas: 100.0 / 28.1, wantExecution: 50,
			wantAcceptable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp := makeOpportunity("1.00", "1.03", tt.profit, tt.liquidity, now.Add(-tt.age))
			score := scorer.Score(opp, testParams(), nil)
			risk := assessor.Assess(opp, score, testParams())

			for name, got := range map[string]struct{ got, want float64 }{
				"liquidity": {risk.Liquidity, tt.wantLiquidity},
				"slippage":  {risk.Slippage, tt.wantSlippage},
				"gas":       {risk.Gas, tt.wantGas},
				"execution": {risk.Execution, tt.wantExecution},
			} {
				if math.Abs(got.got-got.want) > 1e-9 {
					t.Errorf("%s risk = %v, want %v", name, got.got, got.want)
				}
			}
			if risk.Acceptable != tt.wantAcceptable {
				t.Errorf("Acceptable = %v, want %v", risk.Acceptable, tt.wantAcceptable)
			}
		})
	}
}

func TestRiskAssessor_ToleranceBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testStrategyConfig()
	scorer := NewScorer(cfg.Scoring)
	scorer.now = func() time.Time { return now }
	assessor := NewRiskAssessor(cfg.Risk)

	// liquidity 2500: liquidity risk 80, slippage 40, gas 100 (no profit),
	// execution 20; overall exactly 60.
	opp := makeOpportunity("1.00", "1.03", "0", "2500", now)
	score := scorer.Score(opp, testParams(), nil)

	above := testParams()
	above.RiskTolerance = 0.61
	if risk := assessor.Assess(opp, score, above); !risk.Acceptable {
		t.Errorf("overall %.2f at tolerance 0.61 should be acceptable", risk.Overall)
	}

	below := testParams()
	below.RiskTolerance = 0.59
	if risk := assessor.Assess(opp, score, below); risk.Acceptable {
		t.Errorf("overall %.2f at tolerance 0.59 should be rejected", risk.Overall)
	}
}

func TestRiskAssessor_Warnings(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testStrategyConfig()
	scorer := NewScorer(cfg.Scoring)
	scorer.now = func() time.Time { return now }
	assessor := NewRiskAssessor(cfg.Risk)

	opp := makeOpportunity("1.00", "1.03", "0.5", "1500", now)
	opp.TradeAmount = decimal.NewFromInt(1000)
	score := scorer.Score(opp, testParams(), nil)
	risk := assessor.Assess(opp, score, testParams())

	// 1000/1500 of the pool with gas double the profit: every component
	// past its warn threshold plus the overall one.
	if len(risk.Warnings) != 4 {
		t.Errorf("warnings = %v, want 4 entries", risk.Warnings)
	}
}
