package sim

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosspool/poolarb/business/execution/domain"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
)

func newTestSimulator() *Simulator {
	cfg := config.StrategyConfig{GasEstimate: 1.0}
	return NewSimulator(cfg, logger.New(io.Discard, logger.LevelError, "test", nil))
}

func TestSimulator_Simulate(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	tests := []struct {
		name         string
		amount       string
		depth        string
		profit       string
		wantSlippage string
		wantProfit   string
	}{
		{
			// 1000 into a 100000 pool: 1% slippage shaves 1% off profit.
			name:   "deep_pool",
			amount: "1000", depth: "100000", profit: "28.1",
			wantSlippage: "0.01", wantProfit: "27.819",
		},
		{
			// half the pool: profit halves.
			name:   "shallow_pool",
			amount: "500", depth: "1000", profit: "10",
			wantSlippage: "0.5", wantProfit: "5",
		},
		{
			name:   "zero_depth",
			amount: "1000", depth: "0", profit: "28.1",
			wantSlippage: "0", wantProfit: "28.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := domain.TradeAction{
				OpportunityID:  "opp-1",
				Amount:         decimal.RequireFromString(tt.amount),
				PoolDepth:      decimal.RequireFromString(tt.depth),
				ExpectedProfit: decimal.RequireFromString(tt.profit),
				Deadline:       time.Now().Add(30 * time.Second),
			}

			out, err := sim.Simulate(ctx, action)
			if err != nil {
				t.Fatalf("Simulate: %v", err)
			}
			if !out.Success {
				t.Error("offline simulation should always succeed")
			}
			if want := decimal.RequireFromString(tt.wantSlippage); !out.EstimatedSlippage.Equal(want) {
				t.Errorf("EstimatedSlippage = %s, want %s", out.EstimatedSlippage, want)
			}
			if want := decimal.RequireFromString(tt.wantProfit); !out.EstimatedProfit.Equal(want) {
				t.Errorf("EstimatedProfit = %s, want %s", out.EstimatedProfit, want)
			}
		})
	}
}

func TestSimulator_SubmitRefused(t *testing.T) {
	sim := newTestSimulator()
	if _, err := sim.Submit(context.Background(), domain.TradeAction{}); err == nil {
		t.Fatal("offline executor must refuse to submit")
	}
}
