// Package app contains the endpoint pool service and its ports.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
)

// ChainClient is the read surface the pool needs from a node connection.
// *ethclient.Client satisfies it.
type ChainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Dialer opens a ChainClient for url.
type Dialer func(ctx context.Context, url string) (ChainClient, error)

// ContractCaller is what contract adapters depend on. *Pool satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}
