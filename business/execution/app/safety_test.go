package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspool/poolarb/business/execution/domain"
)

func newTestGate() (*SafetyGate, *time.Time) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	gate := NewSafetyGate(testSafetyConfig(), testLogger())
	gate.now = func() time.Time { return now }
	gate.lastLossReset = now
	return gate, &now
}

func TestSafetyGate_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate()

	for i := 0; i < 4; i++ {
		gate.RecordFailure(ctx, decimal.Zero)
		ok, _ := gate.Allow(ctx, decimal.NewFromInt(100))
		require.True(t, ok, "gate must stay closed at %d failures", i+1)
	}

	gate.RecordFailure(ctx, decimal.Zero)
	ok, reason := gate.Allow(ctx, decimal.NewFromInt(100))
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonFailureLimit, reason)
	assert.Equal(t, domain.GateOpen, gate.Status().State)
}

func TestSafetyGate_SuccessClosesFailureOpenedGate(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate()

	for i := 0; i < 5; i++ {
		gate.RecordFailure(ctx, decimal.Zero)
	}
	require.Equal(t, domain.GateOpen, gate.Status().State)

	gate.RecordSuccess(ctx)

	ok, _ := gate.Allow(ctx, decimal.NewFromInt(100))
	assert.True(t, ok)
	status := gate.Status()
	assert.Equal(t, domain.GateClosed, status.State)
	assert.Zero(t, status.ConsecutiveFailures)
}

func TestSafetyGate_LossCapOpensGate(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate()

	// Two losses totalling the cap of 500, streak never near the limit.
	gate.RecordFailure(ctx, decimal.NewFromInt(300))
	gate.RecordSuccess(ctx)
	gate.RecordFailure(ctx, decimal.NewFromInt(200))

	ok, reason := gate.Allow(ctx, decimal.NewFromInt(100))
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonLossCap, reason)

	// A success clears the streak but cannot close a loss-capped gate.
	gate.RecordSuccess(ctx)
	ok, reason = gate.Allow(ctx, decimal.NewFromInt(100))
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonLossCap, reason)
}

func TestSafetyGate_LossWindowRoll(t *testing.T) {
	ctx := context.Background()
	gate, now := newTestGate()

	gate.RecordFailure(ctx, decimal.NewFromInt(600))
	ok, _ := gate.Allow(ctx, decimal.NewFromInt(100))
	require.False(t, ok)

	// The next day the accumulator resets and the gate closes with it.
	*now = now.Add(25 * time.Hour)
	ok, _ = gate.Allow(ctx, decimal.NewFromInt(100))
	assert.True(t, ok)
	assert.True(t, gate.Status().LossSinceReset.IsZero())
}

func TestSafetyGate_WindowRollKeepsFailureOpenedGateOpen(t *testing.T) {
	ctx := context.Background()
	gate, now := newTestGate()

	for i := 0; i < 5; i++ {
		gate.RecordFailure(ctx, decimal.NewFromInt(200))
	}

	// Losses expire with the window but the failure streak does not.
	*now = now.Add(25 * time.Hour)
	ok, reason := gate.Allow(ctx, decimal.NewFromInt(100))
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonFailureLimit, reason)
}

func TestSafetyGate_OversizedTradeRejectedPerRequest(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate()

	ok, reason := gate.Allow(ctx, decimal.NewFromInt(10001))
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonPositionSize, reason)

	// The rejection does not latch: a conforming trade still passes.
	ok, _ = gate.Allow(ctx, decimal.NewFromInt(10000))
	assert.True(t, ok)
	assert.Equal(t, domain.GateClosed, gate.Status().State)
}

func TestSafetyGate_ShutdownAndRestart(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate()

	gate.RecordFailure(ctx, decimal.NewFromInt(600))
	gate.Shutdown(ctx)

	ok, reason := gate.Allow(ctx, decimal.NewFromInt(100))
	require.False(t, ok)
	assert.Equal(t, domain.ReasonShutdown, reason)

	gate.Restart(ctx)

	ok, _ = gate.Allow(ctx, decimal.NewFromInt(100))
	assert.True(t, ok)
	status := gate.Status()
	assert.Equal(t, domain.GateClosed, status.State)
	assert.Zero(t, status.ConsecutiveFailures)
	// A restart does not forgive losses; only the window timer does.
	assert.True(t, status.LossSinceReset.Equal(decimal.NewFromInt(600)))
}

func TestSafetyGate_RestartKeepsLossWindowTimer(t *testing.T) {
	ctx := context.Background()
	gate, now := newTestGate()

	// 23h into the window, a restart must not push the reset forward.
	*now = now.Add(23 * time.Hour)
	gate.RecordFailure(ctx, decimal.NewFromInt(600))
	gate.Restart(ctx)
	require.True(t, gate.Status().LossSinceReset.Equal(decimal.NewFromInt(600)))

	// Two hours later the original 24h window has elapsed.
	*now = now.Add(2 * time.Hour)
	assert.True(t, gate.Status().LossSinceReset.IsZero())
}
