// Package app contains the execution pipeline, safety gate and outcome
// bookkeeping for the execution context.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosspool/poolarb/business/execution/domain"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
)

// SafetyGate is the capital protection circuit breaker in front of the
// execution pipeline. It opens on consecutive faults or when cumulative
// losses inside the rolling window exceed the cap, and stays open until
// a success closes it or an operator restarts it.
type SafetyGate struct {
	cfg    config.SafetyConfig
	logger logger.LoggerInterface
	now    func() time.Time

	mu                  sync.Mutex
	state               domain.GateState
	shutdown            bool
	consecutiveFailures int
	lossSinceReset      decimal.Decimal
	lastLossReset       time.Time
}

// NewSafetyGate creates a closed gate with a fresh loss window.
func NewSafetyGate(cfg config.SafetyConfig, log logger.LoggerInterface) *SafetyGate {
	now := time.Now
	return &SafetyGate{
		cfg:           cfg,
		logger:        log,
		now:           now,
		state:         domain.GateClosed,
		lastLossReset: now(),
	}
}

// Allow reports whether an attempt of the given size may proceed. The
// boolean is false with a reason when blocked. An oversized trade is
// rejected per request without opening the gate; the limits that open
// it are the failure count and the loss cap.
func (g *SafetyGate) Allow(ctx context.Context, tradeSize decimal.Decimal) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollLossWindow(ctx)

	if g.shutdown {
		return false, domain.ReasonShutdown
	}
	if g.state == domain.GateOpen {
		if g.consecutiveFailures >= g.cfg.MaxConsecutiveFailures {
			return false, domain.ReasonFailureLimit
		}
		return false, domain.ReasonLossCap
	}
	if tradeSize.GreaterThan(g.cfg.MaxPositionSizeDecimal()) {
		return false, domain.ReasonPositionSize
	}
	return true, ""
}

// RecordFailure counts a fault and adds any realized loss. Crossing
// either limit opens the gate.
func (g *SafetyGate) RecordFailure(ctx context.Context, loss decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollLossWindow(ctx)

	g.consecutiveFailures++
	if loss.IsPositive() {
		g.lossSinceReset = g.lossSinceReset.Add(loss)
	}

	if g.state == domain.GateOpen {
		return
	}
	if g.consecutiveFailures >= g.cfg.MaxConsecutiveFailures {
		g.state = domain.GateOpen
		g.logger.Error(ctx, "safety gate opened on consecutive failures",
			"failures", g.consecutiveFailures)
		return
	}
	if g.lossSinceReset.GreaterThanOrEqual(g.cfg.DailyLossCapDecimal()) {
		g.state = domain.GateOpen
		g.logger.Error(ctx, "safety gate opened on loss cap",
			"loss", g.lossSinceReset.String(),
			"cap", g.cfg.DailyLossCapDecimal().String())
	}
}

// RecordSuccess resets the failure streak and, when the gate was opened
// by failures, closes it. A gate opened by the loss cap stays open
// until the window rolls or an operator restarts.
func (g *SafetyGate) RecordSuccess(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.consecutiveFailures = 0
	if g.state == domain.GateOpen && g.lossSinceReset.LessThan(g.cfg.DailyLossCapDecimal()) {
		g.state = domain.GateClosed
		g.logger.Info(ctx, "safety gate closed after success")
	}
}

// Shutdown blocks all future attempts until Restart.
func (g *SafetyGate) Shutdown(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdown = true
	g.logger.Warn(ctx, "safety gate shutdown requested")
}

// Restart clears the shutdown flag, closes the gate and zeroes the
// failure streak. The loss window keeps accumulating across restarts;
// only its timer resets it. Operator action only.
func (g *SafetyGate) Restart(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.shutdown = false
	g.state = domain.GateClosed
	g.consecutiveFailures = 0
	g.logger.Info(ctx, "safety gate restarted",
		"loss_since_reset", g.lossSinceReset.String())
}

// Status returns a point-in-time snapshot.
func (g *SafetyGate) Status() domain.SafetyStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollLossWindow(context.Background())

	return domain.SafetyStatus{
		State:               g.state,
		Shutdown:            g.shutdown,
		ConsecutiveFailures: g.consecutiveFailures,
		LossSinceReset:      g.lossSinceReset,
		LastLossReset:       g.lastLossReset,
	}
}

// rollLossWindow lazily resets the loss accumulator once the window has
// elapsed. A gate held open only by the loss cap closes with it.
// Callers hold g.mu.
func (g *SafetyGate) rollLossWindow(ctx context.Context) {
	if g.now().Sub(g.lastLossReset) < g.cfg.LossWindow {
		return
	}
	g.lossSinceReset = decimal.Zero
	g.lastLossReset = g.now()

	if g.state == domain.GateOpen && g.consecutiveFailures < g.cfg.MaxConsecutiveFailures {
		g.state = domain.GateClosed
		g.logger.Info(ctx, "safety gate closed on loss window roll")
	}
}
