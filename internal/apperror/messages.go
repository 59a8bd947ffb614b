package apperror

var messages = map[Code]string{
	CodeInvalidInput:        "Invalid input provided",
	CodeInvalidState:        "Invalid state for this operation",
	CodeNotFound:            "Resource not found",
	CodeConfigurationError:  "Configuration error",
	CodeInvalidTripleConfig: "Invalid token triple configuration",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeRPCConnectionFailed: "Failed to connect to RPC endpoint",
	CodeRPCError:            "RPC call failed",
	CodeNoHealthyEndpoint:   "No healthy RPC endpoint available",
	CodeGasPriceUnavailable: "Gas price unavailable",
	CodeContractCallFailed:  "Contract call failed",
	CodeExecutionReverted:   "Contract execution reverted",
	CodeTokenMetadataFailed: "Failed to read token metadata",

	CodeInsufficientLiquidity: "No liquidity on route",
	CodeInvalidQuote:          "Invalid quote data",
	CodeUnpricedToken:         "Token has no value-unit price",
	CodeReferenceRateFailed:   "Failed to refresh native reference rate",

	CodeOracleCallFailed: "Profitability oracle call failed",
	CodeContractPaused:   "Flash arbitrage contract is paused",
	CodeNetworkUnhealthy: "Network conditions not suitable for arbitrage",
	CodeScanInProgress:   "A scan cycle is already in progress",
	CodeInvalidCandidate: "Candidate violates an invariant",
	CodeMissingFlashPair: "No flash-loan pair configured for route",

	CodeCircuitOpen: "Circuit breaker is open",
}
