// Package execution implements the execution bounded context: the
// safety gate, the simulate-then-submit pipeline and outcome recording.
package execution

import (
	"context"
	"sync"

	"github.com/crosspool/poolarb/business/execution/app"
	executionDI "github.com/crosspool/poolarb/business/execution/di"
	executionDomain "github.com/crosspool/poolarb/business/execution/domain"
	"github.com/crosspool/poolarb/business/execution/infra/ethereum"
	"github.com/crosspool/poolarb/business/execution/infra/sim"
	"github.com/crosspool/poolarb/business/execution/infra/store"
	strategyDomain "github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/di"
	"github.com/crosspool/poolarb/internal/logger"
	"github.com/crosspool/poolarb/internal/monolith"
)

// Module wires the execution context.
type Module struct {
	// Params supplies the dynamic parameter snapshot to the pipeline.
	// Set by the strategy module before registration.
	Params interface {
		Snapshot() strategyDomain.DynamicParameters
	}

	safety   *app.SafetyGate
	history  *app.HistoryRing
	pipeline *app.Pipeline
	sink     *switchableSink
	executor *ethereum.Executor
	oracle   *ethereum.GasOracle
	pg       *store.PostgresStore
}

// switchableSink lets Startup swap the null sink for the durable one
// after the store connects. RegisterServices must not do I/O, so the
// pipeline is built against this indirection.
type switchableSink struct {
	mu   sync.RWMutex
	sink app.OutcomeSink
}

func (s *switchableSink) Emit(ctx context.Context, rec executionDomain.OutcomeRecord) {
	s.mu.RLock()
	sink := s.sink
	s.mu.RUnlock()
	sink.Emit(ctx, rec)
}

func (s *switchableSink) set(sink app.OutcomeSink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	cfg, err := di.Resolve[*config.Config](c, "config")
	if err != nil {
		return err
	}
	log, err := di.Resolve[logger.LoggerInterface](c, "logger")
	if err != nil {
		return err
	}

	m.safety = app.NewSafetyGate(cfg.Safety, log)
	m.history = app.NewHistoryRing(cfg.Store.HistorySize)

	trader, err := m.buildTrader(cfg, log)
	if err != nil {
		return err
	}

	m.sink = &switchableSink{sink: store.NullSink{}}

	m.pipeline, err = app.NewPipeline(cfg.Execution, app.PipelineDeps{
		Safety:  m.safety,
		Builder: app.NewActionBuilder(),
		Trader:  trader,
		Params:  m.Params,
		History: m.history,
		Sink:    m.sink,
	}, log)
	if err != nil {
		return err
	}

	c.Register(executionDI.SafetyGate, m.safety)
	c.Register(executionDI.HistoryRing, m.history)
	c.Register(executionDI.Pipeline, m.pipeline)
	c.Register(executionDI.OutcomeSink, m.sink)
	return nil
}

func (m *Module) buildTrader(cfg *config.Config, log logger.LoggerInterface) (app.TradeExecutor, error) {
	if cfg.Execution.DryRun && cfg.Execution.EthereumHTTPURL == "" {
		return sim.NewSimulator(cfg.Strategy, log), nil
	}

	oracle, err := ethereum.NewGasOracle(
		ethereum.DefaultGasOracleConfig(cfg.Execution.EthereumHTTPURL, cfg.Execution.MaxGasPriceGwei), log)
	if err != nil {
		return nil, err
	}
	m.oracle = oracle

	executor, err := ethereum.NewExecutor(cfg.Execution, oracle, log)
	if err != nil {
		return nil, err
	}
	m.executor = executor
	return executor, nil
}

// Startup connects the on-chain clients and the outcome store.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	if m.oracle != nil {
		if err := m.oracle.Connect(ctx); err != nil {
			log.Error(ctx, "gas oracle connect failed", "error", err)
			if !cfg.Execution.DryRun {
				return err
			}
		}
	}
	if m.executor != nil {
		if err := m.executor.Connect(ctx); err != nil {
			log.Error(ctx, "executor connect failed", "error", err)
			if !cfg.Execution.DryRun {
				return err
			}
		}
	}

	if cfg.Store.Enabled {
		pg, err := store.NewPostgresStore(ctx, cfg.Store.PostgresDSN, log)
		if err != nil {
			return err
		}
		m.pg = pg
		m.sink.set(pg)
	}

	log.Info(ctx, "execution module started", "dry_run", cfg.Execution.DryRun)
	return nil
}

// Shutdown releases external resources.
func (m *Module) Shutdown(ctx context.Context) {
	if m.executor != nil {
		_ = m.executor.Close()
	}
	if m.oracle != nil {
		_ = m.oracle.Close()
	}
	if m.pg != nil {
		m.pg.Close()
	}
}

// Pipeline exposes the execution pipeline to sibling modules.
func (m *Module) Pipeline() *app.Pipeline { return m.pipeline }

// History exposes the outcome ring to sibling modules.
func (m *Module) History() *app.HistoryRing { return m.history }

// Safety exposes the safety gate for operator actions.
func (m *Module) Safety() *app.SafetyGate { return m.safety }
