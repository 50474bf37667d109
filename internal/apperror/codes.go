package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Pipeline error codes. These mirror the execution result taxonomy so
// callers can match on either the result status or the wrapped error.
const (
	CodeDecisionRejected       Code = "DECISION_REJECTED"
	CodeSafetyRejected         Code = "SAFETY_REJECTED"
	CodeSimulationFailed       Code = "SIMULATION_FAILED"
	CodeUnprofitableSimulation Code = "UNPROFITABLE_SIMULATION"
	CodeExecutionFailed        Code = "EXECUTION_FAILED"
	CodeConcurrencyRejected    Code = "CONCURRENCY_REJECTED"
)

// Infrastructure error codes
const (
	// Market data feed
	CodeFeedConnectionFailed Code = "FEED_CONNECTION_FAILED"
	CodeFeedDecodeError      Code = "FEED_DECODE_ERROR"
	CodeStaleSnapshots       Code = "STALE_SNAPSHOTS"

	// WebSocket
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Ethereum
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"

	// Outcome store
	CodeStoreWriteFailed Code = "STORE_WRITE_FAILED"
	CodeStoreQueryFailed Code = "STORE_QUERY_FAILED"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
