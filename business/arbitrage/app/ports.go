// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/business/arbitrage/domain"
	mdDomain "github.com/fd1az/bsc-triarb/business/marketdata/domain"
	netDomain "github.com/fd1az/bsc-triarb/business/network/domain"
	poolDomain "github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/internal/asset"
)

// MarketData simulates swaps and prices tokens in the value unit.
type MarketData interface {
	QuoteCycle(ctx context.Context, venues [3]mdDomain.Exchange, amountIn *big.Int, tokens [3]common.Address) ([3]*big.Int, error)
	QuoteTriangularCycle(ctx context.Context, ex mdDomain.Exchange, amountIn *big.Int, tokens [3]common.Address) (*big.Int, error)
	Token(addr common.Address) (*asset.Asset, bool)
	Symbol(addr common.Address) string
	ToValue(ctx context.Context, token common.Address, raw *big.Int) decimal.Decimal
	NativeRate(ctx context.Context) decimal.Decimal
}

// NetworkMonitor gates cycles on chain conditions and prices gas.
type NetworkMonitor interface {
	IsReadyForArbitrage(ctx context.Context) bool
	GasPrice(ctx context.Context, buffer decimal.Decimal) *big.Int
	Health() netDomain.Health
}

// ProfitabilityOracle is the deployed flash-arbitrage contract's read API.
type ProfitabilityOracle interface {
	CheckProfitability(ctx context.Context, params domain.OracleParams, loanAmount *big.Int, startOnA bool) (domain.OracleQuote, error)
	FeeParameters(ctx context.Context) (domain.FeeParameters, error)
	Paused(ctx context.Context) (bool, error)
}

// PauseChecker reports whether the contract is paused.
type PauseChecker interface {
	Paused(ctx context.Context) (bool, error)
}

// CandidateEvaluator decides whether a candidate is profitable.
type CandidateEvaluator interface {
	Evaluate(ctx context.Context, c *domain.Candidate) domain.ProfitabilityResult
}

// TripleScanner turns triples into accepted opportunities.
type TripleScanner interface {
	Scan(ctx context.Context, triples []domain.TokenTriple) ScanResult
}

// EndpointStatus exposes the RPC pool snapshot.
type EndpointStatus interface {
	Snapshot() []poolDomain.Status
}

// Reporter defines the interface for reporting scan cycles.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report publishes a finished or skipped cycle.
	Report(ctx context.Context, report *domain.CycleReport)

	// UpdateConnectionStatus refreshes endpoint and network state displays.
	UpdateConnectionStatus(endpoints []poolDomain.Status, network netDomain.Health)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
