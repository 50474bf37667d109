// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/crosspool/poolarb/business/market/domain"
)

// SnapshotSource supplies the current set of pool snapshots, one pull per tick.
type SnapshotSource interface {
	// GetSnapshots returns the most recent snapshot of every known pool.
	GetSnapshots(ctx context.Context) ([]domain.PoolSnapshot, error)

	// Connected reports whether the underlying feed is live.
	Connected() bool
}
