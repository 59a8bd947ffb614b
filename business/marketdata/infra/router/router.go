// Package router quotes swaps through Uniswap V2-style routers
// (PancakeSwap, Biswap) with getAmountsOut.
package router

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/bsc-triarb/business/marketdata/app"
	poolapp "github.com/fd1az/bsc-triarb/business/rpcpool/app"
	"github.com/fd1az/bsc-triarb/internal/apperror"
)

// RouterABI covers the single read the scanner needs.
const RouterABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"}
		],
		"name": "getAmountsOut",
		"outputs": [
			{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

var _ app.RouterQuoter = (*Quoter)(nil)

// Quoter calls getAmountsOut through the endpoint pool.
type Quoter struct {
	caller poolapp.ContractCaller
	abi    abi.ABI
}

// NewQuoter parses the router ABI.
func NewQuoter(caller poolapp.ContractCaller) (*Quoter, error) {
	parsed, err := abi.JSON(strings.NewReader(RouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}
	return &Quoter{caller: caller, abi: parsed}, nil
}

// GetAmountsOut returns the amounts along path. A revert (no pair, no
// liquidity) is reported as CodeInsufficientLiquidity.
func (q *Quoter) GetAmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	data, err := q.abi.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode getAmountsOut: %w", err)
	}

	out, err := q.caller.CallContract(ctx, ethereum.CallMsg{To: &router, Data: data})
	if err != nil {
		if apperror.HasCode(err, apperror.CodeExecutionReverted) {
			return nil, apperror.New(apperror.CodeInsufficientLiquidity, apperror.WithCause(err))
		}
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity, apperror.WithContext("empty router response"))
	}

	values, err := q.abi.Unpack("getAmountsOut", out)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidQuote, apperror.WithCause(err))
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidQuote, apperror.WithContextf("unexpected output type %T", values[0]))
	}
	return amounts, nil
}
