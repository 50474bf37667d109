// Package di contains dependency injection tokens for the strategy context.
package di

// DI tokens for the strategy module.
const (
	ParamStore = "strategy.ParamStore"
	Detector   = "strategy.Detector"
	Engine     = "strategy.Engine"
)
