// Package di contains dependency injection tokens for the execution context.
package di

// DI tokens for the execution module.
const (
	SafetyGate  = "execution.SafetyGate"
	HistoryRing = "execution.HistoryRing"
	Pipeline    = "execution.Pipeline"
	OutcomeSink = "execution.OutcomeSink"
)
