package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeDecisionRejected:       "Opportunity rejected by decision gate",
	CodeSafetyRejected:         "Execution blocked by safety gate",
	CodeSimulationFailed:       "Trade simulation failed",
	CodeUnprofitableSimulation: "Simulation showed no profit",
	CodeExecutionFailed:        "Trade submission failed",
	CodeConcurrencyRejected:    "Another execution is already in flight",

	CodeFeedConnectionFailed: "Failed to connect to market data feed",
	CodeFeedDecodeError:      "Failed to decode market data message",
	CodeStaleSnapshots:       "Pool snapshots are stale",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",

	CodeStoreWriteFailed: "Failed to persist outcome record",
	CodeStoreQueryFailed: "Failed to query outcome history",

	CodeCircuitOpen: "Circuit breaker is open",
}
