// Package domain contains the core domain types for the execution context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	strategyDomain "github.com/crosspool/poolarb/business/strategy/domain"
)

// Status classifies the terminal state of one execution attempt.
type Status string

const (
	// StatusExecuted is a confirmed, profitable-or-not submitted trade.
	StatusExecuted Status = "EXECUTED"
	// StatusDryRun passed simulation but was not submitted (dry-run mode).
	StatusDryRun Status = "DRY_RUN"
	// StatusSafetyRejected was blocked by the safety gate before building.
	StatusSafetyRejected Status = "SAFETY_REJECTED"
	// StatusSimulationFailed means the external simulation errored.
	StatusSimulationFailed Status = "SIMULATION_FAILED"
	// StatusUnprofitable means simulation succeeded but showed no profit.
	// A normal filter outcome, not a fault.
	StatusUnprofitable Status = "UNPROFITABLE_SIMULATION"
	// StatusExecutionFailed means the submission itself failed.
	StatusExecutionFailed Status = "EXECUTION_FAILED"
	// StatusConcurrencyRejected means another attempt was already in flight.
	StatusConcurrencyRejected Status = "CONCURRENCY_REJECTED"
)

// Fault reports whether the status counts toward the circuit breaker.
func (s Status) Fault() bool {
	return s == StatusSimulationFailed || s == StatusExecutionFailed
}

// OutcomeRecord is the immutable, append-only record of one execution
// attempt. Ownership transfers to the persistence collaborator on emit;
// the engine keeps only a bounded in-memory ring for feedback.
type OutcomeRecord struct {
	ID            string
	Timestamp     time.Time
	OpportunityID string
	PoolPair      string
	Status        Status
	Success       bool
	Reason        string

	Score           strategyDomain.Score
	TradeAmount     decimal.Decimal
	PredictedProfit decimal.Decimal
	RealizedProfit  decimal.Decimal
	GasCost         decimal.Decimal
	Elapsed         time.Duration
	ReferenceID     string // submit reference, when one exists
	Err             string
}

// SimulationOutcome is the result of the external simulate capability.
type SimulationOutcome struct {
	Success           bool
	EstimatedProfit   decimal.Decimal
	EstimatedGas      decimal.Decimal
	EstimatedSlippage decimal.Decimal
}

// SubmissionOutcome is the result of the external submit capability.
type SubmissionOutcome struct {
	Success        bool
	ReferenceID    string
	RealizedProfit decimal.Decimal
	GasCost        decimal.Decimal
}

// ExecutionResult is the structured result returned from the pipeline.
// Failures are values, never panics: the pipeline must not crash the
// control loop.
type ExecutionResult struct {
	Status     Status
	Reason     string
	Record     OutcomeRecord
	Simulation *SimulationOutcome
	Submission *SubmissionOutcome
}

// Success reports whether the attempt submitted and confirmed.
func (r ExecutionResult) Success() bool {
	return r.Status == StatusExecuted
}

// HistoricalStats is the aggregate view consumed by the tuner and scorer.
type HistoricalStats struct {
	TotalCount   int
	SuccessCount int
	AvgProfit    decimal.Decimal
}

// SuccessRate returns successes over total, or 0 when empty.
func (s HistoricalStats) SuccessRate() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalCount)
}
