package app

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/crosspool/poolarb/business/market/domain"
	"github.com/crosspool/poolarb/business/strategy/domain"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
)

// testStrategyConfig mirrors the shipped defaults.
func testStrategyConfig() config.StrategyConfig {
	return config.StrategyConfig{
		TickInterval:       time.Second,
		OpportunityTTL:     30 * time.Second,
		DefaultTradeAmount: 1000,
		GasEstimate:        1.0,
		FlashFeeRate:       0.0009,
		MinSpreadPct:       0.005,
		MinProfit:          1.0,
		MaxSlippagePct:     0.02,
		TargetTradeSize:    1000,
		RiskTolerance:      0.5,
		Scoring: config.ScoringConfig{
			SpreadWeight:        0.20,
			LiquidityWeight:     0.20,
			ProfitWeight:        0.25,
			VolatilityWeight:    0.10,
			GasWeight:           0.15,
			HistoricalWeight:    0.10,
			SpreadFullScaleMult: 3.0,
			LiquidityDepthMult:  20.0,
			ProfitScale:         25.0,
			VolatilitySlope:     1000.0,
			GasEfficiencyScale:  10.0,
			NeutralHistorical:   50.0,
			StaleAge:            10 * time.Second,
			ThinLiquidityFactor: 0.8,
			StaleAgeFactor:      0.9,
		},
		Risk: config.RiskConfig{
			LiquidityScale:  200.0,
			SlippageScale:   100.0,
			GasScale:        100.0,
			ExecutionBase:   20.0,
			MaxAgePenalty:   30.0,
			WarnSubRisk:     50.0,
			WarnOverallRisk: 70.0,
		},
		Gate: config.GateConfig{
			MinScore:      60.0,
			MinConfidence: 0.7,
		},
		Sizing: config.SizingConfig{
			LiquidityCapPct: 0.05,
		},
		Tuner: config.TunerConfig{
			Cadence:          10,
			Window:           50,
			RiskStep:         0.05,
			RiskToleranceMin: 0.3,
			RiskToleranceMax: 0.7,
			SuccessRateHigh:  0.8,
			SuccessRateLow:   0.5,

			ProfitHighMult:    2.0,
			ProfitLowMult:     0.5,
			ProfitRaiseFactor: 1.1,
			ProfitLowerFactor: 0.9,
		},
	}
}

func testParams() domain.DynamicParameters {
	return domain.DefaultParameters()
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

// makePool builds an ETH/USDC pool snapshot: price is ETH in USDC,
// liquidity is the USDC side depth.
func makePool(id, price, liquidity string, at time.Time) marketDomain.PoolSnapshot {
	p := decimal.RequireFromString(price)
	return marketDomain.PoolSnapshot{
		PoolID:         id,
		BaseSymbol:     "ETH",
		QuoteSymbol:    "USDC",
		PriceBase:      p,
		PriceQuote:     decimal.NewFromInt(1).Div(p),
		LiquidityBase:  decimal.RequireFromString(liquidity),
		LiquidityQuote: decimal.RequireFromString(liquidity),
		ObservedAt:     at,
	}
}

// makeOpportunity builds the reference two-pool discrepancy: buy at
// priceBuy, sell at priceSell, both pools liquidity deep.
func makeOpportunity(priceBuy, priceSell, profit, liquidity string, at time.Time) *domain.Opportunity {
	buy := makePool("uniswap-eth-usdc", priceBuy, liquidity, at)
	sell := makePool("sushi-eth-usdc", priceSell, liquidity, at)

	pb := decimal.RequireFromString(priceBuy)
	ps := decimal.RequireFromString(priceSell)
	spread := ps.Sub(pb).Abs()
	minPrice := pb
	if ps.LessThan(pb) {
		minPrice = ps
	}

	return &domain.Opportunity{
		ID:              domain.OpportunityID(buy.PoolID, sell.PoolID, at),
		BuyPool:         buy,
		SellPool:        sell,
		PairKey:         buy.PairKey(),
		Spread:          spread,
		SpreadPct:       spread.Div(minPrice),
		EstimatedProfit: decimal.RequireFromString(profit),
		GasEstimate:     decimal.NewFromInt(1),
		TradeAmount:     decimal.NewFromInt(1000),
		CreatedAt:       at,
	}
}

// stubHistory is a canned HistoryView for scorer and sizer tests.
type stubHistory struct {
	rates map[string]float64
	sizes map[string]decimal.Decimal
}

func (s stubHistory) SuccessRate(poolPair string) (float64, bool) {
	rate, ok := s.rates[poolPair]
	return rate, ok
}

func (s stubHistory) OptimalSize(poolPair string) decimal.Decimal {
	return s.sizes[poolPair]
}
