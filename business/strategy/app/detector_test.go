package app

import (
	"context"
	"testing"
	"time"

	marketDomain "github.com/crosspool/poolarb/business/market/domain"
)

func newTestDetector(t *testing.T, at time.Time) *Detector {
	t.Helper()
	d, err := NewDetector(testStrategyConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	d.now = func() time.Time { return at }
	return d
}

func TestDetector_Detect(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		snaps []marketDomain.PoolSnapshot
		want  int
	}{
		{
			name: "three_percent_spread_detected",
			snaps: []marketDomain.PoolSnapshot{
				makePool("uniswap-eth-usdc", "1.00", "100000", now),
				makePool("sushi-eth-usdc", "1.03", "100000", now),
			},
			want: 1,
		},
		{
			name: "identical_prices_ignored",
			snaps: []marketDomain.PoolSnapshot{
				makePool("uniswap-eth-usdc", "1.00", "100000", now),
				makePool("sushi-eth-usdc", "1.00", "100000", now),
			},
			want: 0,
		},
		{
			name: "spread_below_coarse_floor_ignored",
			snaps: []marketDomain.PoolSnapshot{
				// 0.2% spread, coarse floor is min_spread/2 = 0.25%
				makePool("uniswap-eth-usdc", "1.000", "100000", now),
				makePool("sushi-eth-usdc", "1.002", "100000", now),
			},
			want: 0,
		},
		{
			name: "spread_above_floor_but_below_min_still_emitted",
			snaps: []marketDomain.PoolSnapshot{
				// 0.4% spread: above the coarse floor, below min_spread.
				// The detector emits it; the gate decides.
				makePool("uniswap-eth-usdc", "1.000", "100000", now),
				makePool("sushi-eth-usdc", "1.004", "100000", now),
			},
			want: 1,
		},
		{
			name: "single_pool_nothing_to_pair",
			snaps: []marketDomain.PoolSnapshot{
				makePool("uniswap-eth-usdc", "1.00", "100000", now),
			},
			want: 0,
		},
		{
			name: "three_pools_three_pairs",
			snaps: []marketDomain.PoolSnapshot{
				makePool("uniswap-eth-usdc", "1.00", "100000", now),
				makePool("sushi-eth-usdc", "1.03", "100000", now),
				makePool("curve-eth-usdc", "1.06", "100000", now),
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(t, now)
			got := d.Detect(context.Background(), tt.snaps, testParams())
			if len(got) != tt.want {
				t.Fatalf("Detect() returned %d opportunities, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDetector_Detect_ReferenceProfit(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, now)

	snaps := []marketDomain.PoolSnapshot{
		makePool("uniswap-eth-usdc", "1.00", "100000", now),
		makePool("sushi-eth-usdc", "1.03", "100000", now),
	}

	opps := d.Detect(context.Background(), snaps, testParams())
	if len(opps) != 1 {
		t.Fatalf("Detect() returned %d opportunities, want 1", len(opps))
	}
	opp := opps[0]

	// gross 1000*0.03 = 30, minus gas 1.0 and flash fee 1000*0.0009 = 0.9
	if got := opp.EstimatedProfit.String(); got != "28.1" {
		t.Errorf("EstimatedProfit = %s, want 28.1", got)
	}
	if opp.BuyPool.PoolID != "uniswap-eth-usdc" {
		t.Errorf("BuyPool = %s, want the cheaper pool", opp.BuyPool.PoolID)
	}
	if opp.SellPool.PoolID != "sushi-eth-usdc" {
		t.Errorf("SellPool = %s, want the dearer pool", opp.SellPool.PoolID)
	}
	if got := opp.SpreadPct.String(); got != "0.03" {
		t.Errorf("SpreadPct = %s, want 0.03", got)
	}
}

func TestDetector_TTLPurge(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := start
	d, err := NewDetector(testStrategyConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	d.now = func() time.Time { return clock }

	snaps := []marketDomain.PoolSnapshot{
		makePool("uniswap-eth-usdc", "1.00", "100000", start),
		makePool("sushi-eth-usdc", "1.03", "100000", start),
	}
	if got := d.Detect(context.Background(), snaps, testParams()); len(got) != 1 {
		t.Fatalf("Detect() returned %d opportunities, want 1", len(got))
	}

	clock = start.Add(29 * time.Second)
	if got := d.Open(); len(got) != 1 {
		t.Fatalf("Open() at 29s = %d opportunities, want 1 (TTL is 30s)", len(got))
	}

	clock = start.Add(31 * time.Second)
	if got := d.Open(); len(got) != 0 {
		t.Fatalf("Open() at 31s = %d opportunities, want 0", len(got))
	}
}
