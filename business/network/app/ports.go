// Package app contains the network condition monitor.
package app

import (
	"context"
	"math/big"
)

// GasPriceReader samples the current gas price in wei. GasPriceOrDefault
// falls back to the configured default once retries are exhausted.
// *rpcpool/app.Pool satisfies it.
type GasPriceReader interface {
	GasPrice(ctx context.Context) (*big.Int, error)
	GasPriceOrDefault(ctx context.Context) *big.Int
}
