package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspool/poolarb/business/execution/domain"
	strategyDomain "github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
)

type pipelineFixture struct {
	pipeline *Pipeline
	gate     *SafetyGate
	trader   *fakeTrader
	history  *HistoryRing
	sink     *captureSink
}

func newPipelineFixture(t *testing.T, cfg config.ExecutionConfig, trader *fakeTrader) *pipelineFixture {
	t.Helper()

	gate := NewSafetyGate(testSafetyConfig(), testLogger())
	history := NewHistoryRing(100)
	sink := &captureSink{}

	pipeline, err := NewPipeline(cfg, PipelineDeps{
		Safety:  gate,
		Builder: NewActionBuilder(),
		Trader:  trader,
		Params:  stubParams{params: strategyDomain.DefaultParameters()},
		History: history,
		Sink:    sink,
	}, testLogger())
	require.NoError(t, err)

	return &pipelineFixture{pipeline: pipeline, gate: gate, trader: trader, history: history, sink: sink}
}

func profitableTrader() *fakeTrader {
	return &fakeTrader{
		sim: domain.SimulationOutcome{
			Success:           true,
			EstimatedProfit:   decimal.RequireFromString("27.5"),
			EstimatedGas:      decimal.NewFromInt(1),
			EstimatedSlippage: decimal.RequireFromString("0.01"),
		},
		sub: domain.SubmissionOutcome{
			Success:        true,
			ReferenceID:    "0xabc123",
			RealizedProfit: decimal.RequireFromString("26.9"),
			GasCost:        decimal.RequireFromString("1.1"),
		},
	}
}

// requireOneOutcome asserts the single-record contract: exactly one
// record reached both the ring and the sink, with the given status.
func requireOneOutcome(t *testing.T, f *pipelineFixture, status domain.Status) domain.OutcomeRecord {
	t.Helper()

	recs := f.sink.records()
	require.Len(t, recs, 1, "sink must receive exactly one record")
	require.Len(t, f.history.Recent(0), 1, "history must hold exactly one record")
	require.Equal(t, status, recs[0].Status)
	return recs[0]
}

func TestPipeline_ExecutesProfitableTrade(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, testExecutionConfig(), profitableTrader())
	opp := sizedOpportunity(time.Now())

	result := f.pipeline.Execute(ctx, opp, strategyDomain.Score{Overall: 92, Confidence: 1})

	require.Equal(t, domain.StatusExecuted, result.Status)
	assert.True(t, result.Success())
	require.NotNil(t, result.Submission)
	assert.Equal(t, "0xabc123", result.Submission.ReferenceID)

	rec := requireOneOutcome(t, f, domain.StatusExecuted)
	assert.True(t, rec.Success)
	assert.Equal(t, "0xabc123", rec.ReferenceID)
	assert.True(t, rec.RealizedProfit.Equal(decimal.RequireFromString("26.9")))
	assert.Equal(t, opp.ID, rec.OpportunityID)

	sims, subs := f.trader.calls()
	assert.Equal(t, 1, sims)
	assert.Equal(t, 1, subs)
	assert.Zero(t, f.gate.Status().ConsecutiveFailures)
}

func TestPipeline_SafetyRejected(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, testExecutionConfig(), profitableTrader())
	f.gate.Shutdown(ctx)

	result := f.pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})

	require.Equal(t, domain.StatusSafetyRejected, result.Status)
	assert.Equal(t, domain.ReasonShutdown, result.Reason)
	requireOneOutcome(t, f, domain.StatusSafetyRejected)

	sims, subs := f.trader.calls()
	assert.Zero(t, sims, "a blocked attempt must not reach simulation")
	assert.Zero(t, subs)
}

func TestPipeline_OversizedTradeRejectedBeforeBuild(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, testExecutionConfig(), profitableTrader())

	opp := sizedOpportunity(time.Now())
	opp.TradeAmount = decimal.NewFromInt(20000)

	result := f.pipeline.Execute(ctx, opp, strategyDomain.Score{})

	require.Equal(t, domain.StatusSafetyRejected, result.Status)
	assert.Equal(t, domain.ReasonPositionSize, result.Reason)
	requireOneOutcome(t, f, domain.StatusSafetyRejected)
	assert.Equal(t, domain.GateClosed, f.gate.Status().State,
		"an oversized trade must not latch the gate open")
}

func TestPipeline_UnsizedOpportunityFailsBuild(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, testExecutionConfig(), profitableTrader())

	opp := sizedOpportunity(time.Now())
	opp.TradeAmount = decimal.Zero

	result := f.pipeline.Execute(ctx, opp, strategyDomain.Score{})

	require.Equal(t, domain.StatusExecutionFailed, result.Status)
	assert.Equal(t, "action build failed", result.Reason)
	requireOneOutcome(t, f, domain.StatusExecutionFailed)
	assert.Equal(t, 1, f.gate.Status().ConsecutiveFailures)
}

func TestPipeline_SimulationFailure(t *testing.T) {
	ctx := context.Background()
	trader := profitableTrader()
	trader.simErr = errors.New("rpc: connection refused")
	f := newPipelineFixture(t, testExecutionConfig(), trader)

	result := f.pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})

	require.Equal(t, domain.StatusSimulationFailed, result.Status)
	rec := requireOneOutcome(t, f, domain.StatusSimulationFailed)
	assert.Contains(t, rec.Err, "connection refused")
	assert.Equal(t, 1, f.gate.Status().ConsecutiveFailures)

	_, subs := f.trader.calls()
	assert.Zero(t, subs)
}

func TestPipeline_UnprofitableSimulation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		sim  domain.SimulationOutcome
	}{
		{
			name: "profit_below_threshold",
			sim: domain.SimulationOutcome{
				Success:         true,
				EstimatedProfit: decimal.RequireFromString("0.5"),
			},
		},
		{
			name: "slippage_above_limit",
			sim: domain.SimulationOutcome{
				Success:           true,
				EstimatedProfit:   decimal.NewFromInt(20),
				EstimatedSlippage: decimal.RequireFromString("0.05"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trader := profitableTrader()
			trader.sim = tt.sim
			f := newPipelineFixture(t, testExecutionConfig(), trader)

			result := f.pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})

			require.Equal(t, domain.StatusUnprofitable, result.Status)
			requireOneOutcome(t, f, domain.StatusUnprofitable)

			// A stale opportunity is a filter outcome, not a fault.
			assert.Zero(t, f.gate.Status().ConsecutiveFailures)
			_, subs := f.trader.calls()
			assert.Zero(t, subs)
		})
	}
}

func TestPipeline_SimulatedRevertIsFault(t *testing.T) {
	ctx := context.Background()
	trader := profitableTrader()
	trader.sim = domain.SimulationOutcome{Success: false}
	f := newPipelineFixture(t, testExecutionConfig(), trader)

	result := f.pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})

	require.Equal(t, domain.StatusSimulationFailed, result.Status)
	assert.Equal(t, "simulation reports revert", result.Reason)
	requireOneOutcome(t, f, domain.StatusSimulationFailed)

	// Unlike a thin margin, a revert counts against the failure streak.
	assert.Equal(t, 1, f.gate.Status().ConsecutiveFailures)
	_, subs := f.trader.calls()
	assert.Zero(t, subs)
}

func TestPipeline_DryRunShortCircuits(t *testing.T) {
	ctx := context.Background()
	cfg := testExecutionConfig()
	cfg.DryRun = true
	f := newPipelineFixture(t, cfg, profitableTrader())

	result := f.pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})

	require.Equal(t, domain.StatusDryRun, result.Status)
	rec := requireOneOutcome(t, f, domain.StatusDryRun)
	assert.True(t, rec.Success)
	assert.True(t, rec.RealizedProfit.Equal(decimal.RequireFromString("27.5")),
		"dry run must carry the simulated profit")

	sims, subs := f.trader.calls()
	assert.Equal(t, 1, sims)
	assert.Zero(t, subs, "dry run must never submit")
}

func TestPipeline_SubmissionFailure(t *testing.T) {
	ctx := context.Background()
	trader := profitableTrader()
	trader.subErr = errors.New("nonce too low")
	f := newPipelineFixture(t, testExecutionConfig(), trader)

	result := f.pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})

	require.Equal(t, domain.StatusExecutionFailed, result.Status)
	assert.Equal(t, "submission failed", result.Reason)
	requireOneOutcome(t, f, domain.StatusExecutionFailed)
	assert.Equal(t, 1, f.gate.Status().ConsecutiveFailures)
}

func TestPipeline_SubmissionFailureChargesLoss(t *testing.T) {
	ctx := context.Background()
	trader := profitableTrader()
	trader.subErr = errors.New("execution reverted")
	trader.sub = domain.SubmissionOutcome{GasCost: decimal.NewFromInt(200)}
	f := newPipelineFixture(t, testExecutionConfig(), trader)

	// Three failed submissions burning 200 gas each cross the 500 cap.
	for i := 0; i < 3; i++ {
		result := f.pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})
		require.Equal(t, domain.StatusExecutionFailed, result.Status)
	}

	status := f.gate.Status()
	assert.True(t, status.LossSinceReset.Equal(decimal.NewFromInt(600)),
		"gas burned on failed submissions must reach the loss counter, got %s", status.LossSinceReset)
	assert.Equal(t, domain.GateOpen, status.State)

	recs := f.sink.records()
	require.Len(t, recs, 3)
	assert.True(t, recs[0].GasCost.Equal(decimal.NewFromInt(200)),
		"the recorded outcome must carry the reported gas cost")
}

func TestPipeline_SingleFlight(t *testing.T) {
	ctx := context.Background()
	trader := profitableTrader()
	trader.hold = make(chan struct{})
	f := newPipelineFixture(t, testExecutionConfig(), trader)

	first := make(chan domain.ExecutionResult, 1)
	go func() {
		first <- f.pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})
	}()

	// Wait for the first attempt to reach simulation, then race a second.
	require.Eventually(t, func() bool {
		sims, _ := trader.calls()
		return sims == 1
	}, time.Second, time.Millisecond)

	second := f.pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})
	require.Equal(t, domain.StatusConcurrencyRejected, second.Status)

	close(trader.hold)
	require.Equal(t, domain.StatusExecuted, (<-first).Status)

	recs := f.sink.records()
	require.Len(t, recs, 2, "both attempts must still record an outcome")

	statuses := map[domain.Status]int{}
	for _, rec := range recs {
		statuses[rec.Status]++
	}
	assert.Equal(t, 1, statuses[domain.StatusConcurrencyRejected])
	assert.Equal(t, 1, statuses[domain.StatusExecuted])

	sims, subs := trader.calls()
	assert.Equal(t, 1, sims, "the rejected attempt must not simulate")
	assert.Equal(t, 1, subs)
}

func TestPipeline_PanicBecomesFailedOutcome(t *testing.T) {
	ctx := context.Background()

	gate := NewSafetyGate(testSafetyConfig(), testLogger())
	history := NewHistoryRing(100)
	sink := &captureSink{}
	pipeline, err := NewPipeline(testExecutionConfig(), PipelineDeps{
		Safety:  gate,
		Builder: panicBuilder{},
		Trader:  profitableTrader(),
		Params:  stubParams{params: strategyDomain.DefaultParameters()},
		History: history,
		Sink:    sink,
	}, testLogger())
	require.NoError(t, err)

	result := pipeline.Execute(ctx, sizedOpportunity(time.Now()), strategyDomain.Score{})

	require.Equal(t, domain.StatusExecutionFailed, result.Status)
	assert.Equal(t, "internal", result.Reason)

	recs := sink.records()
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Err, "builder bug")
	assert.Equal(t, 1, gate.Status().ConsecutiveFailures)
}
