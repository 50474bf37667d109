package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	marketDomain "github.com/crosspool/poolarb/business/market/domain"
	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
)

// SnapshotProvider hands the engine the current pool set at tick start.
type SnapshotProvider interface {
	Snapshots(ctx context.Context) ([]marketDomain.PoolSnapshot, error)
}

// Engine runs the periodic evaluation loop: detect opportunities, score
// and gate them concurrently, size the approved ones and hand them to
// the execution pipeline one at a time. Parameters and history are
// snapshotted once per tick so every opportunity in a tick sees the
// same inputs.
type Engine struct {
	cfg      config.StrategyConfig
	logger   logger.LoggerInterface
	market   SnapshotProvider
	detector *Detector
	scorer   *Scorer
	risk     *RiskAssessor
	gate     *DecisionGate
	sizer    *SizeOptimizer
	tuner    *ParameterTuner
	params   *ParamStore
	history  HistoryProvider
	executor Executor
	reporter Reporter

	meter           metric.Meter
	ticksTotal      metric.Int64Counter
	evaluatedTotal  metric.Int64Counter
	approvedTotal   metric.Int64Counter
	tickDurationSec metric.Float64Histogram
}

// EngineDeps bundles the engine's collaborators.
type EngineDeps struct {
	Market   SnapshotProvider
	Detector *Detector
	Scorer   *Scorer
	Risk     *RiskAssessor
	Gate     *DecisionGate
	Sizer    *SizeOptimizer
	Tuner    *ParameterTuner
	Params   *ParamStore
	History  HistoryProvider
	Executor Executor
	Reporter Reporter
}

// NewEngine creates the evaluation engine.
func NewEngine(cfg config.StrategyConfig, deps EngineDeps, log logger.LoggerInterface) (*Engine, error) {
	e := &Engine{
		cfg:      cfg,
		logger:   log,
		market:   deps.Market,
		detector: deps.Detector,
		scorer:   deps.Scorer,
		risk:     deps.Risk,
		gate:     deps.Gate,
		sizer:    deps.Sizer,
		tuner:    deps.Tuner,
		params:   deps.Params,
		history:  deps.History,
		executor: deps.Executor,
		reporter: deps.Reporter,
		meter:    otel.Meter(meterName),
	}
	if err := e.initMetrics(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) initMetrics() error {
	var err error
	e.ticksTotal, err = e.meter.Int64Counter("poolarb_engine_ticks_total",
		metric.WithDescription("Number of evaluation ticks"))
	if err != nil {
		return err
	}
	e.evaluatedTotal, err = e.meter.Int64Counter("poolarb_opportunities_evaluated_total",
		metric.WithDescription("Number of opportunities scored and gated"))
	if err != nil {
		return err
	}
	e.approvedTotal, err = e.meter.Int64Counter("poolarb_opportunities_approved_total",
		metric.WithDescription("Number of opportunities approved for execution"))
	if err != nil {
		return err
	}
	e.tickDurationSec, err = e.meter.Float64Histogram("poolarb_engine_tick_duration_seconds",
		metric.WithDescription("Wall time of one evaluation tick"))
	return err
}

// Start runs the tick loop until ctx is cancelled. It blocks; callers
// run it on its own goroutine.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info(ctx, "engine starting", "tick_interval", e.cfg.TickInterval.String())

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info(ctx, "engine stopping")
			return ctx.Err()
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick runs one full evaluation pass.
func (e *Engine) Tick(ctx context.Context) {
	start := time.Now()
	defer func() {
		e.ticksTotal.Add(ctx, 1)
		e.tickDurationSec.Record(ctx, time.Since(start).Seconds())
	}()

	snaps, err := e.market.Snapshots(ctx)
	if err != nil {
		e.logger.Warn(ctx, "snapshot fetch failed, skipping tick", "error", err)
		return
	}
	e.reporter.UpdateSnapshots(snaps)

	params := e.params.Snapshot()
	history := e.history.Snapshot()

	opps := e.detector.Detect(ctx, snaps, params)
	if len(opps) == 0 {
		return
	}

	evals := e.evaluate(ctx, opps, params, history)

	var approved []Evaluation
	for _, ev := range evals {
		e.reporter.ReportEvaluation(ev)
		if ev.Decision.Approved {
			approved = append(approved, ev)
		}
	}
	e.evaluatedTotal.Add(ctx, int64(len(evals)))
	if len(approved) == 0 {
		return
	}
	e.approvedTotal.Add(ctx, int64(len(approved)))

	for _, ev := range approved {
		size := e.sizer.Size(ev.Opportunity, params, history)
		if !size.IsPositive() {
			e.logger.Debug(ctx, "approved opportunity too small to trade",
				"opportunity_id", ev.Opportunity.ID, "pool_pair", ev.Opportunity.PoolPair())
			continue
		}

		result := e.executor.Execute(ctx, ev.Opportunity, ev.Score)
		e.tuner.Observe(ctx, result.Record)
		e.reporter.ReportOutcome(result.Record)
		e.reporter.ReportSafety(e.executor.SafetyStatus())
	}

	e.reporter.ReportParameters(e.params.Snapshot())
}

// evaluate scores, risk-assesses and gates the detected opportunities.
// Opportunities are independent at this stage, so they run concurrently.
func (e *Engine) evaluate(ctx context.Context, opps []*domain.Opportunity, params domain.DynamicParameters, history HistoryView) []Evaluation {
	evals := make([]Evaluation, len(opps))

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, opp := range opps {
		g.Go(func() error {
			score := e.scorer.Score(opp, params, history)
			risk := e.risk.Assess(opp, score, params)
			decision := e.gate.Decide(opp, score, risk, params)

			mu.Lock()
			evals[i] = Evaluation{Opportunity: opp, Score: score, Risk: risk, Decision: decision}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return evals
}
