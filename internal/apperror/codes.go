package apperror

// Code is a stable machine-readable error identifier.
type Code string

// General error codes
const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInvalidState        Code = "INVALID_STATE"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConfigurationError  Code = "CONFIGURATION_ERROR"
	CodeInvalidTripleConfig Code = "INVALID_TRIPLE_CONFIG"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Chain access
const (
	CodeRPCConnectionFailed Code = "RPC_CONNECTION_FAILED"
	CodeRPCError            Code = "RPC_ERROR"
	CodeNoHealthyEndpoint   Code = "NO_HEALTHY_ENDPOINT"
	CodeGasPriceUnavailable Code = "GAS_PRICE_UNAVAILABLE"
	CodeContractCallFailed  Code = "CONTRACT_CALL_FAILED"
	CodeExecutionReverted   Code = "EXECUTION_REVERTED"
	CodeTokenMetadataFailed Code = "TOKEN_METADATA_FAILED"
)

// Market data
const (
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeInvalidQuote          Code = "INVALID_QUOTE"
	CodeUnpricedToken         Code = "UNPRICED_TOKEN"
	CodeReferenceRateFailed   Code = "REFERENCE_RATE_FAILED"
)

// Arbitrage
const (
	CodeOracleCallFailed Code = "ORACLE_CALL_FAILED"
	CodeContractPaused   Code = "CONTRACT_PAUSED"
	CodeNetworkUnhealthy Code = "NETWORK_UNHEALTHY"
	CodeScanInProgress   Code = "SCAN_IN_PROGRESS"
	CodeInvalidCandidate Code = "INVALID_CANDIDATE"
	CodeMissingFlashPair Code = "MISSING_FLASH_PAIR"
)

// Resilience
const (
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
