package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestProvider_HandleMessage(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(config.MarketConfig{}, testLogger())

	update := func(poolID, price string, ts int64) []byte {
		raw, _ := json.Marshal(map[string]any{
			"type": "poolUpdate",
			"data": map[string]any{
				"poolId":         poolID,
				"base":           "ETH",
				"quote":          "USDC",
				"priceBase":      price,
				"priceQuote":     "1",
				"liquidityBase":  "100000",
				"liquidityQuote": "100000",
				"timestamp":      ts,
			},
		})
		return raw
	}

	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC).UnixMilli()
	p.handleMessage(ctx, update("uniswap-eth-usdc", "1.00", at))
	p.handleMessage(ctx, update("sushi-eth-usdc", "1.03", at))

	// A later update for the same pool replaces the earlier observation.
	p.handleMessage(ctx, update("uniswap-eth-usdc", "1.01", at+1000))

	// Heartbeats, unknown types and garbage are all dropped.
	p.handleMessage(ctx, []byte(`{"type":"heartbeat"}`))
	p.handleMessage(ctx, []byte(`{"type":"orderFill","data":{}}`))
	p.handleMessage(ctx, []byte(`not json`))

	snaps, err := p.GetSnapshots(ctx)
	if err != nil {
		t.Fatalf("GetSnapshots: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("pool count = %d, want 2", len(snaps))
	}

	byID := map[string]string{}
	for _, s := range snaps {
		byID[s.PoolID] = s.PriceBase.String()
	}
	if byID["uniswap-eth-usdc"] != "1.01" {
		t.Errorf("uniswap price = %s, want the newer 1.01", byID["uniswap-eth-usdc"])
	}
	if byID["sushi-eth-usdc"] != "1.03" {
		t.Errorf("sushi price = %s, want 1.03", byID["sushi-eth-usdc"])
	}
}

func TestProvider_RESTFallback(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/pools" {
			t.Errorf("path = %s, want /pools", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"pools": []map[string]any{
				{
					"poolId":         "uniswap-eth-usdc",
					"base":           "ETH",
					"quote":          "USDC",
					"priceBase":      "1.00",
					"priceQuote":     "1.00",
					"liquidityBase":  "100000",
					"liquidityQuote": "100000",
					"timestamp":      time.Now().UnixMilli(),
				},
			},
		})
	}))
	defer server.Close()

	cfg := config.MarketConfig{
		FeedHTTPURL:  server.URL,
		StaleTimeout: 5 * time.Second,
	}
	p := NewProvider(cfg, testLogger())

	// No websocket was ever started, so every read pulls over HTTP.
	snaps, err := p.GetSnapshots(context.Background())
	if err != nil {
		t.Fatalf("GetSnapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("pool count = %d, want 1", len(snaps))
	}
	if want := decimal.RequireFromString("1.00"); !snaps[0].PriceBase.Equal(want) {
		t.Errorf("price = %s, want %s", snaps[0].PriceBase, want)
	}
	if requests != 1 {
		t.Errorf("HTTP requests = %d, want 1", requests)
	}
	if !p.Connected() {
		t.Error("provider with a REST fallback should report connected")
	}
}
