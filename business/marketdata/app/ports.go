// Package app contains the market data service and its ports.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/business/marketdata/domain"
)

// RouterQuoter simulates swaps along a path on a V2-style router.
type RouterQuoter interface {
	GetAmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
}

// TokenMetadataReader reads ERC-20 metadata.
type TokenMetadataReader interface {
	Metadata(ctx context.Context, token common.Address) (domain.TokenMetadata, error)
}

// ReferenceRateSource supplies the native asset's value-unit rate from
// outside the chain.
type ReferenceRateSource interface {
	NativeRate(ctx context.Context) (decimal.Decimal, error)
}
