package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCanonicalPair(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"already_ordered", "ETH", "USDC", "ETH/USDC"},
		{"reversed", "USDC", "ETH", "ETH/USDC"},
		{"same_symbol", "ETH", "ETH", "ETH/ETH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalPair(tt.a, tt.b); got != tt.want {
				t.Errorf("CanonicalPair(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPoolSnapshot_CanonicalPrice(t *testing.T) {
	// Two pools observing the same market, quoted in opposite directions:
	// ETH at 2000 USDC is the same price as USDC at 0.0005 ETH.
	forward := PoolSnapshot{
		BaseSymbol: "ETH", QuoteSymbol: "USDC",
		PriceBase:  decimal.RequireFromString("2000"),
		PriceQuote: decimal.RequireFromString("0.0005"),
	}
	reversed := PoolSnapshot{
		BaseSymbol: "USDC", QuoteSymbol: "ETH",
		PriceBase:  decimal.RequireFromString("0.0005"),
		PriceQuote: decimal.RequireFromString("2000"),
	}

	if !forward.SamePair(reversed) {
		t.Fatal("oppositely quoted pools should observe the same pair")
	}
	if !forward.CanonicalPrice().Equal(reversed.CanonicalPrice()) {
		t.Errorf("CanonicalPrice: forward %s != reversed %s",
			forward.CanonicalPrice(), reversed.CanonicalPrice())
	}
	if want := decimal.RequireFromString("2000"); !forward.CanonicalPrice().Equal(want) {
		t.Errorf("CanonicalPrice = %s, want %s", forward.CanonicalPrice(), want)
	}
}

func TestPoolSnapshot_QuoteDepth(t *testing.T) {
	forward := PoolSnapshot{
		BaseSymbol: "ETH", QuoteSymbol: "USDC",
		LiquidityBase:  decimal.NewFromInt(50),
		LiquidityQuote: decimal.NewFromInt(100000),
	}
	reversed := PoolSnapshot{
		BaseSymbol: "USDC", QuoteSymbol: "ETH",
		LiquidityBase:  decimal.NewFromInt(100000),
		LiquidityQuote: decimal.NewFromInt(50),
	}

	want := decimal.NewFromInt(100000)
	if !forward.QuoteDepth().Equal(want) {
		t.Errorf("forward QuoteDepth = %s, want %s", forward.QuoteDepth(), want)
	}
	if !reversed.QuoteDepth().Equal(want) {
		t.Errorf("reversed QuoteDepth = %s, want %s", reversed.QuoteDepth(), want)
	}
}

func TestPoolSnapshot_Stale(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := PoolSnapshot{ObservedAt: now.Add(-10 * time.Second)}

	if snap.Stale(now, 10*time.Second) {
		t.Error("observation exactly at max age should not be stale")
	}
	if !snap.Stale(now, 9*time.Second) {
		t.Error("observation past max age should be stale")
	}
}
