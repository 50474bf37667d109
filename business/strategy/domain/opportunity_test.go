package domain

import (
	"testing"
	"time"
)

func TestOpportunityID(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	id := OpportunityID("uniswap-eth-usdc", "sushi-eth-usdc", at)
	if len(id) != 24 {
		t.Fatalf("id length = %d, want 24 hex chars", len(id))
	}

	// Direction-independent and deterministic.
	if got := OpportunityID("sushi-eth-usdc", "uniswap-eth-usdc", at); got != id {
		t.Errorf("swapped pool order changed the id: %s != %s", got, id)
	}
	if got := OpportunityID("uniswap-eth-usdc", "sushi-eth-usdc", at); got != id {
		t.Errorf("same inputs produced a different id: %s != %s", got, id)
	}

	// A different tick derives a different id.
	if got := OpportunityID("uniswap-eth-usdc", "sushi-eth-usdc", at.Add(time.Second)); got == id {
		t.Error("ids should differ across creation times")
	}
}

func TestPoolPairKey(t *testing.T) {
	want := "sushi-eth-usdc:uniswap-eth-usdc"
	if got := PoolPairKey("uniswap-eth-usdc", "sushi-eth-usdc"); got != want {
		t.Errorf("PoolPairKey = %q, want %q", got, want)
	}
	if got := PoolPairKey("sushi-eth-usdc", "uniswap-eth-usdc"); got != want {
		t.Errorf("swapped PoolPairKey = %q, want %q", got, want)
	}
}

func TestOpportunity_Expired(t *testing.T) {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	opp := &Opportunity{CreatedAt: created}
	ttl := 30 * time.Second

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"fresh", created.Add(time.Second), false},
		{"at_ttl", created.Add(30 * time.Second), false},
		{"past_ttl", created.Add(31 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := opp.Expired(tt.at, ttl); got != tt.want {
				t.Errorf("Expired(%s) = %v, want %v", tt.at.Sub(created), got, tt.want)
			}
		})
	}
}
