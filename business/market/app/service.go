// Package app contains application services and port definitions for the market context.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/crosspool/poolarb/business/market/domain"
	"github.com/crosspool/poolarb/internal/apperror"
	"github.com/crosspool/poolarb/internal/logger"
)

// MarketService fronts a SnapshotSource and rejects stale data.
type MarketService struct {
	source       SnapshotSource
	staleTimeout time.Duration
	logger       logger.LoggerInterface

	mu       sync.RWMutex
	lastSeen time.Time
	lastSet  []domain.PoolSnapshot
}

// NewMarketService creates a MarketService.
func NewMarketService(source SnapshotSource, staleTimeout time.Duration, log logger.LoggerInterface) *MarketService {
	return &MarketService{
		source:       source,
		staleTimeout: staleTimeout,
		logger:       log,
	}
}

// Snapshots returns the current pool set, filtering out observations older
// than the stale timeout. An empty result is valid (nothing to detect on).
func (s *MarketService) Snapshots(ctx context.Context) ([]domain.PoolSnapshot, error) {
	snaps, err := s.source.GetSnapshots(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeFeedConnectionFailed, "fetch snapshots")
	}

	now := time.Now()
	fresh := snaps[:0]
	for _, snap := range snaps {
		if snap.Stale(now, s.staleTimeout) {
			s.logger.Debug(ctx, "dropping stale snapshot", "pool", snap.PoolID, "age", now.Sub(snap.ObservedAt).String())
			continue
		}
		fresh = append(fresh, snap)
	}

	s.mu.Lock()
	s.lastSeen = now
	s.lastSet = fresh
	s.mu.Unlock()

	return fresh, nil
}

// LastSet returns the most recently fetched snapshot set without hitting the source.
func (s *MarketService) LastSet() []domain.PoolSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PoolSnapshot, len(s.lastSet))
	copy(out, s.lastSet)
	return out
}

// Healthy reports feed liveness for the health endpoint.
func (s *MarketService) Healthy(ctx context.Context) (bool, string) {
	if !s.source.Connected() {
		return false, "feed disconnected"
	}
	return true, ""
}
