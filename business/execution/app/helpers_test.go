package app

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosspool/poolarb/business/execution/domain"
	marketDomain "github.com/crosspool/poolarb/business/market/domain"
	strategyDomain "github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testSafetyConfig() config.SafetyConfig {
	return config.SafetyConfig{
		MaxConsecutiveFailures: 5,
		DailyLossCap:           500,
		MaxPositionSize:        10000,
		LossWindow:             24 * time.Hour,
	}
}

func testExecutionConfig() config.ExecutionConfig {
	return config.ExecutionConfig{
		DryRun:            false,
		SubmitsPerMinute:  60,
		SimulationTimeout: 5 * time.Second,
		SubmitTimeout:     5 * time.Second,
	}
}

// sizedOpportunity builds an approved, sized two-pool opportunity ready
// for the pipeline.
func sizedOpportunity(at time.Time) *strategyDomain.Opportunity {
	buy := marketDomain.PoolSnapshot{
		PoolID:         "uniswap-eth-usdc",
		BaseSymbol:     "ETH",
		QuoteSymbol:    "USDC",
		PriceBase:      decimal.RequireFromString("1.00"),
		PriceQuote:     decimal.RequireFromString("1.00"),
		LiquidityBase:  decimal.NewFromInt(100000),
		LiquidityQuote: decimal.NewFromInt(100000),
		ObservedAt:     at,
	}
	sell := buy
	sell.PoolID = "sushi-eth-usdc"
	sell.PriceBase = decimal.RequireFromString("1.03")
	sell.PriceQuote = decimal.NewFromInt(1).Div(sell.PriceBase)

	return &strategyDomain.Opportunity{
		ID:              strategyDomain.OpportunityID(buy.PoolID, sell.PoolID, at),
		BuyPool:         buy,
		SellPool:        sell,
		PairKey:         buy.PairKey(),
		Spread:          decimal.RequireFromString("0.03"),
		SpreadPct:       decimal.RequireFromString("0.03"),
		EstimatedProfit: decimal.RequireFromString("28.1"),
		GasEstimate:     decimal.NewFromInt(1),
		TradeAmount:     decimal.NewFromInt(1000),
		CreatedAt:       at,
		Approved:        true,
	}
}

func outcome(poolPair string, success bool, profit, size string, at time.Time) domain.OutcomeRecord {
	status := domain.StatusExecutionFailed
	if success {
		status = domain.StatusExecuted
	}
	return domain.OutcomeRecord{
		Timestamp:      at,
		PoolPair:       poolPair,
		Status:         status,
		Success:        success,
		RealizedProfit: decimal.RequireFromString(profit),
		TradeAmount:    decimal.RequireFromString(size),
	}
}

// fakeTrader scripts the simulate and submit capabilities. An optional
// hold channel lets a test keep Simulate in flight.
type fakeTrader struct {
	mu       sync.Mutex
	sim      domain.SimulationOutcome
	simErr   error
	sub      domain.SubmissionOutcome
	subErr   error
	simCalls int
	subCalls int
	hold     chan struct{}
}

func (f *fakeTrader) Simulate(ctx context.Context, _ domain.TradeAction) (domain.SimulationOutcome, error) {
	f.mu.Lock()
	f.simCalls++
	hold := f.hold
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return domain.SimulationOutcome{}, ctx.Err()
		}
	}
	return f.sim, f.simErr
}

func (f *fakeTrader) Submit(_ context.Context, _ domain.TradeAction) (domain.SubmissionOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subCalls++
	return f.sub, f.subErr
}

func (f *fakeTrader) calls() (sim, sub int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.simCalls, f.subCalls
}

// captureSink records every emitted outcome.
type captureSink struct {
	mu   sync.Mutex
	recs []domain.OutcomeRecord
}

func (s *captureSink) Emit(_ context.Context, rec domain.OutcomeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
}

func (s *captureSink) records() []domain.OutcomeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OutcomeRecord, len(s.recs))
	copy(out, s.recs)
	return out
}

// stubParams serves a fixed parameter set.
type stubParams struct {
	params strategyDomain.DynamicParameters
}

func (s stubParams) Snapshot() strategyDomain.DynamicParameters { return s.params }

// panicBuilder simulates an internal bug inside a pipeline stage.
type panicBuilder struct{}

func (panicBuilder) Build(context.Context, *strategyDomain.Opportunity, strategyDomain.DynamicParameters) (domain.TradeAction, error) {
	panic("builder bug")
}
