package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GateState is the circuit breaker state of the safety gate.
type GateState string

const (
	GateClosed GateState = "CLOSED" // normal operation
	GateOpen   GateState = "OPEN"   // blocking all new attempts
)

// SafetyStatus is a read-only snapshot of the safety gate for dashboards
// and health checks.
type SafetyStatus struct {
	State               GateState
	Shutdown            bool
	ConsecutiveFailures int
	LossSinceReset      decimal.Decimal
	LastLossReset       time.Time
}

// Safety rejection reasons.
const (
	ReasonShutdown     = "shutdown requested"
	ReasonFailureLimit = "consecutive failure limit reached"
	ReasonLossCap      = "daily loss cap reached"
	ReasonPositionSize = "trade size exceeds max position size"
)
