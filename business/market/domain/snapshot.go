// Package domain contains the core domain types for the market context.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PoolSnapshot is an immutable per-tick observation of a trading pool:
// the two asset symbols, the price of each asset in terms of the other,
// and the liquidity depth on each side. Produced by the market data
// collaborator; never mutated by the engine.
type PoolSnapshot struct {
	PoolID         string
	BaseSymbol     string
	QuoteSymbol    string
	PriceBase      decimal.Decimal // price of base in quote units
	PriceQuote     decimal.Decimal // price of quote in base units
	LiquidityBase  decimal.Decimal
	LiquidityQuote decimal.Decimal
	ObservedAt     time.Time
}

// PairKey returns the unordered asset-pair key (e.g. "ETH/USDC" and
// "USDC/ETH" both map to "ETH/USDC").
func (s PoolSnapshot) PairKey() string {
	return CanonicalPair(s.BaseSymbol, s.QuoteSymbol)
}

// CanonicalPair returns a direction-independent key for an asset pair.
func CanonicalPair(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "/" + b
}

// CanonicalPrice returns the price of the lexicographically smaller asset
// in terms of the larger, so prices from pools quoted in opposite
// directions are directly comparable.
func (s PoolSnapshot) CanonicalPrice() decimal.Decimal {
	if strings.Compare(s.BaseSymbol, s.QuoteSymbol) <= 0 {
		return s.PriceBase
	}
	return s.PriceQuote
}

// QuoteDepth returns the pool's liquidity depth in canonical quote units.
func (s PoolSnapshot) QuoteDepth() decimal.Decimal {
	if strings.Compare(s.BaseSymbol, s.QuoteSymbol) <= 0 {
		return s.LiquidityQuote
	}
	return s.LiquidityBase
}

// SamePair reports whether two snapshots observe the same unordered asset pair.
func (s PoolSnapshot) SamePair(other PoolSnapshot) bool {
	return s.PairKey() == other.PairKey()
}

// Stale reports whether the observation is older than maxAge at the given time.
func (s PoolSnapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.ObservedAt) > maxAge
}
