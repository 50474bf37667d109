package app

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosspool/poolarb/business/execution/domain"
)

// HistoryRing is a bounded in-memory record of recent execution
// outcomes, appended in completion order. It feeds the scorer's
// historical component and the size optimizer; durable persistence is
// the outcome sink's job, not this ring's.
type HistoryRing struct {
	mu   sync.RWMutex
	recs []domain.OutcomeRecord
	cap  int
}

// NewHistoryRing creates a ring holding at most capacity records.
func NewHistoryRing(capacity int) *HistoryRing {
	if capacity <= 0 {
		capacity = 100
	}
	return &HistoryRing{recs: make([]domain.OutcomeRecord, 0, capacity), cap: capacity}
}

// Append adds one outcome, evicting the oldest when full.
func (h *HistoryRing) Append(rec domain.OutcomeRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.recs) == h.cap {
		copy(h.recs, h.recs[1:])
		h.recs = h.recs[:h.cap-1]
	}
	h.recs = append(h.recs, rec)
}

// Recent returns up to n of the newest records, newest last.
func (h *HistoryRing) Recent(n int) []domain.OutcomeRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.recs) {
		n = len(h.recs)
	}
	out := make([]domain.OutcomeRecord, n)
	copy(out, h.recs[len(h.recs)-n:])
	return out
}

// Stats aggregates outcomes newer than the given window.
func (h *HistoryRing) Stats(window time.Duration) domain.HistoricalStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cutoff := time.Now().Add(-window)
	var stats domain.HistoricalStats
	sum := decimal.Zero
	for _, r := range h.recs {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		stats.TotalCount++
		if r.Success {
			stats.SuccessCount++
			sum = sum.Add(r.RealizedProfit)
		}
	}
	if stats.SuccessCount > 0 {
		stats.AvgProfit = sum.Div(decimal.NewFromInt(int64(stats.SuccessCount)))
	}
	return stats
}

// Snapshot returns an immutable per-pair view of the ring's contents.
func (h *HistoryRing) Snapshot() *HistorySnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	pairs := make(map[string]*pairHistory)
	for _, r := range h.recs {
		p := pairs[r.PoolPair]
		if p == nil {
			p = &pairHistory{}
			pairs[r.PoolPair] = p
		}
		p.total++
		if r.Success {
			p.successes++
			if r.RealizedProfit.GreaterThan(p.bestProfit) {
				p.bestProfit = r.RealizedProfit
				p.bestSize = r.TradeAmount
			}
		}
	}
	return &HistorySnapshot{pairs: pairs}
}

type pairHistory struct {
	total      int
	successes  int
	bestProfit decimal.Decimal
	bestSize   decimal.Decimal
}

// HistorySnapshot is a frozen view of outcome history keyed by pool
// pair. Safe for concurrent reads; never mutated after construction.
type HistorySnapshot struct {
	pairs map[string]*pairHistory
}

// SuccessRate returns the success rate for a pool pair. ok is false
// when the pair has no recorded attempts.
func (s *HistorySnapshot) SuccessRate(poolPair string) (float64, bool) {
	p, ok := s.pairs[poolPair]
	if !ok || p.total == 0 {
		return 0, false
	}
	return float64(p.successes) / float64(p.total), true
}

// OptimalSize returns the trade size of the pair's most profitable
// recorded attempt, or zero when none succeeded.
func (s *HistorySnapshot) OptimalSize(poolPair string) decimal.Decimal {
	p, ok := s.pairs[poolPair]
	if !ok {
		return decimal.Zero
	}
	return p.bestSize
}
