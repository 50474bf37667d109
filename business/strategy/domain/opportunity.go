// Package domain contains the core domain types for the strategy context.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/crosspool/poolarb/business/market/domain"
)

// Opportunity is a detected cross-pool price discrepancy. Most fields are
// frozen at creation; only TradeAmount (set by the size optimizer) and
// Approved (set by the decision gate) change afterwards. An opportunity
// expires TTL after creation and must be re-derived from fresh snapshots,
// never resurrected.
type Opportunity struct {
	ID        string
	BuyPool   marketDomain.PoolSnapshot // pool with the lower price
	SellPool  marketDomain.PoolSnapshot // pool with the higher price
	PairKey   string
	Spread    decimal.Decimal // absolute price difference
	SpreadPct decimal.Decimal // spread / min(priceX, priceY)

	EstimatedProfit decimal.Decimal // gross profit at TradeAmount, net of fees
	GasEstimate     decimal.Decimal

	TradeAmount decimal.Decimal // mutable: overwritten by the size optimizer
	Approved    bool            // mutable: set by the decision gate

	CreatedAt time.Time
}

// OpportunityID derives a collision-resistant identifier from the two pool
// ids and the creation timestamp.
func OpportunityID(poolX, poolY string, at time.Time) string {
	if poolX > poolY {
		poolX, poolY = poolY, poolX
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", poolX, poolY, at.UnixNano())))
	return hex.EncodeToString(sum[:12])
}

// PoolPairKey returns a direction-independent key for the two source pools,
// used for per-pair historical statistics.
func PoolPairKey(poolX, poolY string) string {
	if poolX > poolY {
		poolX, poolY = poolY, poolX
	}
	return poolX + ":" + poolY
}

// PoolPair returns the opportunity's pool-pair key.
func (o *Opportunity) PoolPair() string {
	return PoolPairKey(o.BuyPool.PoolID, o.SellPool.PoolID)
}

// Age returns the time elapsed since creation.
func (o *Opportunity) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// Expired reports whether the opportunity is past its TTL.
func (o *Opportunity) Expired(now time.Time, ttl time.Duration) bool {
	return o.Age(now) > ttl
}

// MinLiquidity returns the smaller of the two pools' quote-side depth.
func (o *Opportunity) MinLiquidity() decimal.Decimal {
	buy := o.BuyPool.QuoteDepth()
	sell := o.SellPool.QuoteDepth()
	if buy.LessThan(sell) {
		return buy
	}
	return sell
}
