// Package market implements the market bounded context: pool snapshots and their acquisition.
package market

import (
	"context"

	"github.com/crosspool/poolarb/business/market/app"
	marketDI "github.com/crosspool/poolarb/business/market/di"
	"github.com/crosspool/poolarb/business/market/infra/feed"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/di"
	"github.com/crosspool/poolarb/internal/logger"
	"github.com/crosspool/poolarb/internal/monolith"
)

// Module wires the market context.
type Module struct {
	provider *feed.Provider
	service  *app.MarketService
}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	cfg, err := di.Resolve[*config.Config](c, "config")
	if err != nil {
		return err
	}
	log, err := di.Resolve[logger.LoggerInterface](c, "logger")
	if err != nil {
		return err
	}

	m.provider = feed.NewProvider(cfg.Market, log)
	m.service = app.NewMarketService(m.provider, cfg.Market.StaleTimeout, log)

	c.Register(marketDI.SnapshotSource, m.provider)
	c.Register(marketDI.MarketService, m.service)
	return nil
}

// Startup connects the snapshot feed.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	return m.provider.Start(ctx)
}

// Service exposes the market service to sibling modules during wiring.
func (m *Module) Service() *app.MarketService {
	return m.service
}
