package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/crosspool/poolarb/business/execution/domain"
	strategyDomain "github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/apm"
	"github.com/crosspool/poolarb/internal/circuitbreaker"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
	"github.com/crosspool/poolarb/internal/ratelimit"
)

const meterName = "github.com/crosspool/poolarb/business/execution/app"

// Pipeline drives one approved opportunity through gating, building,
// simulation, verification and submission. At most one attempt runs at
// a time across the whole process; a second caller is turned away with
// a concurrency-rejected outcome rather than queued, because a queued
// opportunity would be stale by the time its turn came.
//
// Every call, on every path, produces exactly one OutcomeRecord: it is
// appended to the history ring and emitted to the sink before Execute
// returns.
type Pipeline struct {
	cfg     config.ExecutionConfig
	logger  logger.LoggerInterface
	tracer  apm.Tracer
	safety  *SafetyGate
	builder ActionBuilder
	trader  TradeExecutor
	params  ParamSource
	history *HistoryRing
	sink    OutcomeSink

	simBreaker    *circuitbreaker.CircuitBreaker[domain.SimulationOutcome]
	submitBreaker *circuitbreaker.CircuitBreaker[domain.SubmissionOutcome]
	submitLimiter *ratelimit.Limiter

	busy atomic.Bool

	meter          metric.Meter
	attemptsTotal  metric.Int64Counter
	outcomesTotal  metric.Int64Counter
	attemptSeconds metric.Float64Histogram
}

// PipelineDeps bundles the pipeline's collaborators.
type PipelineDeps struct {
	Safety  *SafetyGate
	Builder ActionBuilder
	Trader  TradeExecutor
	Params  ParamSource
	History *HistoryRing
	Sink    OutcomeSink
}

// NewPipeline creates the execution pipeline.
func NewPipeline(cfg config.ExecutionConfig, deps PipelineDeps, log logger.LoggerInterface) (*Pipeline, error) {
	p := &Pipeline{
		cfg:     cfg,
		logger:  log,
		tracer:  apm.NewTracer(meterName),
		safety:  deps.Safety,
		builder: deps.Builder,
		trader:  deps.Trader,
		params:  deps.Params,
		history: deps.History,
		sink:    deps.Sink,

		simBreaker:    circuitbreaker.New[domain.SimulationOutcome](circuitbreaker.DefaultConfig("trade-simulate")),
		submitBreaker: circuitbreaker.New[domain.SubmissionOutcome](circuitbreaker.DefaultConfig("trade-submit")),
		submitLimiter: ratelimit.New(cfg.SubmitsPerMinute),

		meter: otel.Meter(meterName),
	}
	if err := p.initMetrics(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) initMetrics() error {
	var err error
	p.attemptsTotal, err = p.meter.Int64Counter("poolarb_execution_attempts_total",
		metric.WithDescription("Number of execution attempts started"))
	if err != nil {
		return err
	}
	p.outcomesTotal, err = p.meter.Int64Counter("poolarb_execution_outcomes_total",
		metric.WithDescription("Execution outcomes by status"))
	if err != nil {
		return err
	}
	p.attemptSeconds, err = p.meter.Float64Histogram("poolarb_execution_attempt_duration_seconds",
		metric.WithDescription("Wall time of one execution attempt"))
	return err
}

// Execute runs one attempt end to end and returns a structured result.
// It never panics outward: an internal panic surfaces as an
// execution-failed result.
func (p *Pipeline) Execute(ctx context.Context, opp *strategyDomain.Opportunity, score strategyDomain.Score) (result domain.ExecutionResult) {
	start := time.Now()
	attemptID := uuid.NewString()

	rec := domain.OutcomeRecord{
		ID:              attemptID,
		Timestamp:       start,
		OpportunityID:   opp.ID,
		PoolPair:        opp.PoolPair(),
		Score:           score,
		TradeAmount:     opp.TradeAmount,
		PredictedProfit: opp.EstimatedProfit,
	}

	if !p.busy.CompareAndSwap(false, true) {
		rec.Status = domain.StatusConcurrencyRejected
		rec.Reason = "attempt already in flight"
		rec.Elapsed = time.Since(start)
		p.record(ctx, rec)
		return domain.ExecutionResult{Status: rec.Status, Reason: rec.Reason, Record: rec}
	}
	defer p.busy.Store(false)

	ctx, span := p.tracer.StartSpanFromContext(ctx, "pipeline.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("attempt.id", attemptID),
		attribute.String("opportunity.id", opp.ID),
		attribute.String("pool.pair", rec.PoolPair),
	)

	p.attemptsTotal.Add(ctx, 1)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in execution pipeline: %v", r)
			p.logger.Error(ctx, "execution pipeline panic", "error", err, "attempt_id", attemptID)
			span.NoticeError(err)

			rec.Status = domain.StatusExecutionFailed
			rec.Reason = "internal"
			rec.Err = err.Error()
			rec.Elapsed = time.Since(start)
			p.safety.RecordFailure(ctx, decimal.Zero)
			p.record(ctx, rec)
			result = domain.ExecutionResult{Status: rec.Status, Reason: rec.Reason, Record: rec}
		}
	}()

	result = p.run(ctx, opp, &rec)
	rec = result.Record
	rec.Elapsed = time.Since(start)
	result.Record = rec

	switch {
	case result.Status == domain.StatusExecuted:
		p.safety.RecordSuccess(ctx)
	case result.Status.Fault():
		loss := rec.GasCost
		if rec.RealizedProfit.IsNegative() {
			loss = loss.Add(rec.RealizedProfit.Neg())
		}
		p.safety.RecordFailure(ctx, loss)
	}

	p.record(ctx, rec)
	return result
}

func (p *Pipeline) run(ctx context.Context, opp *strategyDomain.Opportunity, rec *domain.OutcomeRecord) domain.ExecutionResult {
	params := p.params.Snapshot()

	// Gating
	if ok, reason := p.safety.Allow(ctx, opp.TradeAmount); !ok {
		rec.Status = domain.StatusSafetyRejected
		rec.Reason = reason
		p.logger.Warn(ctx, "attempt blocked by safety gate",
			"reason", reason, "opportunity_id", opp.ID)
		return domain.ExecutionResult{Status: rec.Status, Reason: reason, Record: *rec}
	}

	// Building
	action, err := p.builder.Build(ctx, opp, params)
	if err != nil {
		rec.Status = domain.StatusExecutionFailed
		rec.Reason = "action build failed"
		rec.Err = err.Error()
		return domain.ExecutionResult{Status: rec.Status, Reason: rec.Reason, Record: *rec}
	}

	// Simulating
	sim, err := p.simulate(ctx, action)
	if err != nil {
		rec.Status = domain.StatusSimulationFailed
		rec.Reason = "simulation failed"
		rec.Err = err.Error()
		return domain.ExecutionResult{Status: rec.Status, Reason: rec.Reason, Record: *rec}
	}

	// A revert is a fault, not a changed market: the action was built
	// wrong or the chain rejected it.
	if !sim.Success {
		rec.Status = domain.StatusSimulationFailed
		rec.Reason = "simulation reports revert"
		return domain.ExecutionResult{Status: rec.Status, Reason: rec.Reason, Record: *rec, Simulation: &sim}
	}

	// Verifying
	if reason, ok := p.verify(sim, params); !ok {
		rec.Status = domain.StatusUnprofitable
		rec.Reason = reason
		return domain.ExecutionResult{Status: rec.Status, Reason: reason, Record: *rec, Simulation: &sim}
	}

	if p.cfg.DryRun {
		rec.Status = domain.StatusDryRun
		rec.Success = true
		rec.Reason = "dry run"
		rec.RealizedProfit = sim.EstimatedProfit
		rec.GasCost = sim.EstimatedGas
		return domain.ExecutionResult{Status: rec.Status, Reason: rec.Reason, Record: *rec, Simulation: &sim}
	}

	// Submitting
	sub, err := p.submit(ctx, action)
	if err != nil {
		rec.Status = domain.StatusExecutionFailed
		rec.Reason = "submission failed"
		rec.Err = err.Error()
		// A failed submission can still burn gas or leave a partial
		// fill; carry what the executor reports so the loss counter
		// sees the real cost.
		rec.RealizedProfit = sub.RealizedProfit
		rec.GasCost = sub.GasCost
		return domain.ExecutionResult{Status: rec.Status, Reason: rec.Reason, Record: *rec, Simulation: &sim}
	}

	rec.Status = domain.StatusExecuted
	rec.Success = true
	rec.ReferenceID = sub.ReferenceID
	rec.RealizedProfit = sub.RealizedProfit
	rec.GasCost = sub.GasCost
	p.logger.Info(ctx, "trade executed",
		"opportunity_id", opp.ID,
		"reference_id", sub.ReferenceID,
		"realized_profit", sub.RealizedProfit.String())
	return domain.ExecutionResult{Status: rec.Status, Record: *rec, Simulation: &sim, Submission: &sub}
}

func (p *Pipeline) simulate(ctx context.Context, action domain.TradeAction) (domain.SimulationOutcome, error) {
	simCtx, cancel := context.WithTimeout(ctx, p.cfg.SimulationTimeout)
	defer cancel()

	return p.simBreaker.Execute(func() (domain.SimulationOutcome, error) {
		return p.trader.Simulate(simCtx, action)
	})
}

// verify rejects an attempt whose simulation shows the trade is no
// longer worth taking. Not a fault: market conditions moved, nothing
// broke.
func (p *Pipeline) verify(sim domain.SimulationOutcome, params strategyDomain.DynamicParameters) (string, bool) {
	if sim.EstimatedProfit.LessThan(params.MinProfit) {
		return "simulated profit below threshold", false
	}
	if sim.EstimatedSlippage.GreaterThan(params.MaxSlippagePct) {
		return "simulated slippage above limit", false
	}
	return "", true
}

func (p *Pipeline) submit(ctx context.Context, action domain.TradeAction) (domain.SubmissionOutcome, error) {
	if err := p.submitLimiter.Wait(ctx); err != nil {
		return domain.SubmissionOutcome{}, err
	}

	subCtx, cancel := context.WithTimeout(ctx, p.cfg.SubmitTimeout)
	defer cancel()

	return p.submitBreaker.Execute(func() (domain.SubmissionOutcome, error) {
		return p.trader.Submit(subCtx, action)
	})
}

// record appends to history and emits to the sink. The one place an
// outcome leaves the pipeline.
func (p *Pipeline) record(ctx context.Context, rec domain.OutcomeRecord) {
	p.outcomesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(rec.Status))))
	p.attemptSeconds.Record(ctx, rec.Elapsed.Seconds())
	p.history.Append(rec)
	p.sink.Emit(ctx, rec)
}

// SafetyStatus exposes the current safety gate snapshot.
func (p *Pipeline) SafetyStatus() domain.SafetyStatus {
	return p.safety.Status()
}
