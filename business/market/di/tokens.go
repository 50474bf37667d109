// Package di contains dependency injection tokens for the market context.
package di

// DI tokens for the market module.
const (
	SnapshotSource = "market.SnapshotSource"
	MarketService  = "market.MarketService"
)
