// Package ethereum adapts go-ethereum's ethclient to the pool's ChainClient port.
package ethereum

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/bsc-triarb/business/rpcpool/app"
	"github.com/fd1az/bsc-triarb/business/rpcpool/domain"
	"github.com/fd1az/bsc-triarb/internal/apperror"
)

var _ app.ChainClient = (*Client)(nil)

// Client is an ethclient whose eth_call errors distinguish reverts from
// transport failures.
type Client struct {
	*ethclient.Client
}

// Dial connects to url. It satisfies app.Dialer.
func Dial(ctx context.Context, url string) (app.ChainClient, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, apperror.New(apperror.CodeRPCConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(domain.MaskURL(url)))
	}
	return &Client{Client: c}, nil
}

// CallContract wraps reverts as CodeExecutionReverted.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	out, err := c.Client.CallContract(ctx, msg, blockNumber)
	if err != nil && IsRevert(err) {
		return nil, apperror.New(apperror.CodeExecutionReverted, apperror.WithCause(err))
	}
	return out, err
}

// IsRevert reports whether err is a contract revert rather than a node or
// transport failure.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
