// Package feed implements the pool snapshot feed adapter.
package feed

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosspool/poolarb/business/market/domain"
)

// poolUpdate is a single pool state message from the feed.
type poolUpdate struct {
	PoolID         string          `json:"poolId"`
	Base           string          `json:"base"`
	Quote          string          `json:"quote"`
	PriceBase      decimal.Decimal `json:"priceBase"`
	PriceQuote     decimal.Decimal `json:"priceQuote"`
	LiquidityBase  decimal.Decimal `json:"liquidityBase"`
	LiquidityQuote decimal.Decimal `json:"liquidityQuote"`
	Timestamp      int64           `json:"timestamp"` // unix milliseconds
}

// envelope wraps every feed message with its type.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	msgTypePoolUpdate = "poolUpdate"
	msgTypeHeartbeat  = "heartbeat"
)

func (u poolUpdate) toSnapshot() domain.PoolSnapshot {
	return domain.PoolSnapshot{
		PoolID:         u.PoolID,
		BaseSymbol:     u.Base,
		QuoteSymbol:    u.Quote,
		PriceBase:      u.PriceBase,
		PriceQuote:     u.PriceQuote,
		LiquidityBase:  u.LiquidityBase,
		LiquidityQuote: u.LiquidityQuote,
		ObservedAt:     time.UnixMilli(u.Timestamp),
	}
}

// snapshotResponse is the REST fallback payload: the full current pool set.
type snapshotResponse struct {
	Pools []poolUpdate `json:"pools"`
}
