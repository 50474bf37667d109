package app

import (
	"context"
	"math"
	"testing"

	executionDomain "github.com/crosspool/poolarb/business/execution/domain"
	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/shopspring/decimal"
)

func newTestTuner(t *testing.T) (*ParameterTuner, *ParamStore) {
	t.Helper()
	store := NewParamStore(domain.DefaultParameters())
	tuner, err := NewParameterTuner(testStrategyConfig().Tuner, store, testLogger())
	if err != nil {
		t.Fatalf("NewParameterTuner: %v", err)
	}
	return tuner, store
}

func outcomeRecord(success bool, profit string) executionDomain.OutcomeRecord {
	status := executionDomain.StatusExecuted
	if !success {
		status = executionDomain.StatusExecutionFailed
	}
	return executionDomain.OutcomeRecord{
		Status:         status,
		Success:        success,
		RealizedProfit: decimal.RequireFromString(profit),
	}
}

func observeN(ctx context.Context, tuner *ParameterTuner, n int, success bool, profit string) {
	for i := 0; i < n; i++ {
		tuner.Observe(ctx, outcomeRecord(success, profit))
	}
}

func TestParameterTuner_NoRetuneBeforeCadence(t *testing.T) {
	ctx := context.Background()
	tuner, store := newTestTuner(t)

	observeN(ctx, tuner, 9, true, "10")

	got := store.Snapshot()
	want := domain.DefaultParameters()
	if got.RiskTolerance != want.RiskTolerance || !got.MinProfit.Equal(want.MinProfit) {
		t.Errorf("parameters changed before cadence: %+v", got)
	}
}

func TestParameterTuner_HighSuccessRateRaisesRiskTolerance(t *testing.T) {
	ctx := context.Background()
	tuner, store := newTestTuner(t)

	// 9 of 10 successes: rate 0.9 > 0.8 raises tolerance. Mean profit
	// 9*0.8/10 = 0.72 sits inside [0.5, 2.0], so the bar holds.
	observeN(ctx, tuner, 9, true, "0.8")
	observeN(ctx, tuner, 1, false, "0")

	got := store.Snapshot()
	if math.Abs(got.RiskTolerance-0.55) > 1e-9 {
		t.Errorf("RiskTolerance = %v, want 0.55", got.RiskTolerance)
	}
	if want := decimal.NewFromInt(1); !got.MinProfit.Equal(want) {
		t.Errorf("MinProfit = %s, want %s", got.MinProfit, want)
	}
}

func TestParameterTuner_LowSuccessRateLowersRiskTolerance(t *testing.T) {
	ctx := context.Background()
	tuner, store := newTestTuner(t)

	// 3 of 10 successes: rate 0.3 < 0.5 lowers tolerance. Mean profit
	// 3*2.5/10 = 0.75 keeps the bar steady.
	observeN(ctx, tuner, 3, true, "2.5")
	observeN(ctx, tuner, 7, false, "0")

	got := store.Snapshot()
	if math.Abs(got.RiskTolerance-0.45) > 1e-9 {
		t.Errorf("RiskTolerance = %v, want 0.45", got.RiskTolerance)
	}
	if want := decimal.NewFromInt(1); !got.MinProfit.Equal(want) {
		t.Errorf("MinProfit = %s, want %s", got.MinProfit, want)
	}
}

func TestParameterTuner_RichMeanProfitRaisesBar(t *testing.T) {
	ctx := context.Background()
	tuner, store := newTestTuner(t)

	// Mean realized profit 10 is above 2x the bar of 1, so the bar
	// rises by 10% even as the perfect rate also raises tolerance.
	observeN(ctx, tuner, 10, true, "10")

	got := store.Snapshot()
	if want := decimal.RequireFromString("1.1"); !got.MinProfit.Equal(want) {
		t.Errorf("MinProfit = %s, want %s", got.MinProfit, want)
	}
	if math.Abs(got.RiskTolerance-0.55) > 1e-9 {
		t.Errorf("RiskTolerance = %v, want 0.55", got.RiskTolerance)
	}
}

func TestParameterTuner_ThinMeanProfitLowersBar(t *testing.T) {
	ctx := context.Background()
	tuner, store := newTestTuner(t)

	// Rate 0.6 sits between the thresholds, so tolerance holds, but
	// mean profit 6*0.5/10 = 0.3 is below half the bar and lowers it.
	observeN(ctx, tuner, 6, true, "0.5")
	observeN(ctx, tuner, 4, false, "0")

	got := store.Snapshot()
	if want := decimal.RequireFromString("0.9"); !got.MinProfit.Equal(want) {
		t.Errorf("MinProfit = %s, want %s", got.MinProfit, want)
	}
	if got.RiskTolerance != 0.5 {
		t.Errorf("RiskTolerance = %v, want unchanged 0.5", got.RiskTolerance)
	}
}

func TestParameterTuner_MiddlingRateHoldsSteady(t *testing.T) {
	ctx := context.Background()
	tuner, store := newTestTuner(t)

	// rate 0.6 between thresholds, mean profit 0.9 inside the band.
	observeN(ctx, tuner, 6, true, "1.5")
	observeN(ctx, tuner, 4, false, "0")

	got := store.Snapshot()
	want := domain.DefaultParameters()
	if got.RiskTolerance != want.RiskTolerance || !got.MinProfit.Equal(want.MinProfit) {
		t.Errorf("parameters changed on a middling window: %+v", got)
	}
}

func TestParameterTuner_RateThresholdsAreExclusive(t *testing.T) {
	ctx := context.Background()

	t.Run("exactly_high", func(t *testing.T) {
		tuner, store := newTestTuner(t)
		// rate exactly 0.8 does not cross the strict > threshold.
		observeN(ctx, tuner, 8, true, "1.25")
		observeN(ctx, tuner, 2, false, "0")
		if got := store.Snapshot().RiskTolerance; got != 0.5 {
			t.Errorf("RiskTolerance = %v, want unchanged 0.5", got)
		}
	})

	t.Run("exactly_low", func(t *testing.T) {
		tuner, store := newTestTuner(t)
		// rate exactly 0.5 does not cross the strict < threshold.
		observeN(ctx, tuner, 5, true, "2")
		observeN(ctx, tuner, 5, false, "0")
		if got := store.Snapshot().RiskTolerance; got != 0.5 {
			t.Errorf("RiskTolerance = %v, want unchanged 0.5", got)
		}
	})
}

func TestParameterTuner_RiskToleranceBounds(t *testing.T) {
	ctx := context.Background()

	t.Run("capped_at_max", func(t *testing.T) {
		tuner, store := newTestTuner(t)
		// 6 retunes of +0.05 from 0.5 would pass 0.7 without the cap.
		observeN(ctx, tuner, 60, true, "1")
		if got := store.Snapshot().RiskTolerance; math.Abs(got-0.7) > 1e-9 {
			t.Errorf("RiskTolerance = %v, want capped at 0.7", got)
		}
	})

	t.Run("floored_at_min", func(t *testing.T) {
		tuner, store := newTestTuner(t)
		observeN(ctx, tuner, 60, false, "0")
		if got := store.Snapshot().RiskTolerance; math.Abs(got-0.3) > 1e-9 {
			t.Errorf("RiskTolerance = %v, want floored at 0.3", got)
		}
	})
}

func TestParameterTuner_WindowIsBounded(t *testing.T) {
	ctx := context.Background()
	tuner, _ := newTestTuner(t)

	observeN(ctx, tuner, 55, false, "0")
	observeN(ctx, tuner, 5, true, "1")

	window := tuner.Window()
	if len(window) != 50 {
		t.Fatalf("window length = %d, want 50", len(window))
	}
	// The newest five successes survive; the oldest failures slid out.
	successes := 0
	for _, rec := range window {
		if rec.Success {
			successes++
		}
	}
	if successes != 5 {
		t.Errorf("successes in window = %d, want 5", successes)
	}
}
