package ui

import (
	"time"

	executionDomain "github.com/crosspool/poolarb/business/execution/domain"
	marketDomain "github.com/crosspool/poolarb/business/market/domain"
	strategyDomain "github.com/crosspool/poolarb/business/strategy/domain"
)

// Message types for TUI updates

// EvaluationMsg is sent when an opportunity has been scored and gated.
type EvaluationMsg struct {
	Opportunity *strategyDomain.Opportunity
	Score       strategyDomain.Score
	Risk        strategyDomain.RiskProfile
	Approved    bool
	Reason      string
}

// OutcomeMsg is sent when an execution attempt completes.
type OutcomeMsg struct {
	Record executionDomain.OutcomeRecord
}

// SafetyMsg is sent when the safety gate status changes.
type SafetyMsg struct {
	Status executionDomain.SafetyStatus
}

// ParametersMsg is sent when the dynamic parameters are replaced.
type ParametersMsg struct {
	Params strategyDomain.DynamicParameters
}

// SnapshotsMsg is sent with the latest pool set.
type SnapshotsMsg struct {
	Snapshots []marketDomain.PoolSnapshot
}

// ConnectionStatusMsg is sent when the feed connection changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
	At      time.Time
}
