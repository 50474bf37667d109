package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeAction is the fully specified instruction handed to the trade
// executor: which pools, which direction, how much, and the bounds the
// execution must respect.
type TradeAction struct {
	OpportunityID string
	PoolPair      string

	BuyPoolID  string
	SellPoolID string
	BaseSymbol string

	Amount         decimal.Decimal
	PoolDepth      decimal.Decimal // liquidity of the shallower pool
	ExpectedProfit decimal.Decimal
	MinProfit      decimal.Decimal
	MaxSlippagePct decimal.Decimal

	Deadline time.Time
}
