// Package strategy implements the strategy bounded context: opportunity
// detection, scoring, risk, decisioning, sizing and parameter tuning.
package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	executionApp "github.com/crosspool/poolarb/business/execution/app"
	"github.com/crosspool/poolarb/business/strategy/app"
	strategyDI "github.com/crosspool/poolarb/business/strategy/di"
	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/di"
	"github.com/crosspool/poolarb/internal/logger"
	"github.com/crosspool/poolarb/internal/monolith"
)

// Module wires the strategy context. Market, Executor, History and
// Reporter are injected by the composition root before registration;
// the strategy context owns everything between the market snapshot and
// the execution handoff.
type Module struct {
	Market   app.SnapshotProvider
	Executor app.Executor
	History  *executionApp.HistoryRing
	Reporter app.Reporter

	params *app.ParamStore
	engine *app.Engine

	cancel context.CancelFunc
}

// InitialParameters derives the starting dynamic parameter set from
// configuration.
func InitialParameters(cfg config.StrategyConfig) domain.DynamicParameters {
	return domain.DynamicParameters{
		MinSpreadPct:    decimal.NewFromFloat(cfg.MinSpreadPct),
		MinProfit:       decimal.NewFromFloat(cfg.MinProfit),
		MaxSlippagePct:  decimal.NewFromFloat(cfg.MaxSlippagePct),
		TargetTradeSize: decimal.NewFromFloat(cfg.TargetTradeSize),
		RiskTolerance:   cfg.RiskTolerance,
	}
}

// Params returns the shared parameter store, creating it on first use
// so the execution module can be wired against it before registration.
func (m *Module) Params(cfg config.StrategyConfig) *app.ParamStore {
	if m.params == nil {
		m.params = app.NewParamStore(InitialParameters(cfg))
	}
	return m.params
}

// RegisterServices registers all strategy services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	cfg, err := di.Resolve[*config.Config](c, "config")
	if err != nil {
		return err
	}
	log, err := di.Resolve[logger.LoggerInterface](c, "logger")
	if err != nil {
		return err
	}

	params := m.Params(cfg.Strategy)

	detector, err := app.NewDetector(cfg.Strategy, log)
	if err != nil {
		return err
	}
	tuner, err := app.NewParameterTuner(cfg.Strategy.Tuner, params, log)
	if err != nil {
		return err
	}

	m.engine, err = app.NewEngine(cfg.Strategy, app.EngineDeps{
		Market:   m.Market,
		Detector: detector,
		Scorer:   app.NewScorer(cfg.Strategy.Scoring),
		Risk:     app.NewRiskAssessor(cfg.Strategy.Risk),
		Gate:     app.NewDecisionGate(cfg.Strategy.Gate),
		Sizer:    app.NewSizeOptimizer(cfg.Strategy.Sizing),
		Tuner:    tuner,
		Params:   params,
		History:  historyAdapter{ring: m.History},
		Executor: m.Executor,
		Reporter: m.Reporter,
	}, log)
	if err != nil {
		return err
	}

	c.Register(strategyDI.ParamStore, params)
	c.Register(strategyDI.Detector, detector)
	c.Register(strategyDI.Engine, m.engine)
	return nil
}

// Startup launches the evaluation loop on its own goroutine.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go func() {
		if err := m.engine.Start(runCtx); err != nil && runCtx.Err() == nil {
			mono.Logger().Error(runCtx, "engine stopped unexpectedly", "error", err)
		}
	}()

	mono.Logger().Info(ctx, "strategy module started")
	return nil
}

// Shutdown stops the evaluation loop.
func (m *Module) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Engine exposes the engine for operator tooling.
func (m *Module) Engine() *app.Engine { return m.engine }

// historyAdapter narrows the execution history ring to the engine's
// per-tick snapshot port.
type historyAdapter struct {
	ring *executionApp.HistoryRing
}

func (a historyAdapter) Snapshot() app.HistoryView {
	return a.ring.Snapshot()
}
