// Package erc20 reads token metadata from BEP-20/ERC-20 contracts.
package erc20

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/bsc-triarb/business/marketdata/app"
	"github.com/fd1az/bsc-triarb/business/marketdata/domain"
	poolapp "github.com/fd1az/bsc-triarb/business/rpcpool/app"
	"github.com/fd1az/bsc-triarb/internal/asset"
	"github.com/fd1az/bsc-triarb/internal/logger"
)

const metadataABI = `[
	{"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

var _ app.TokenMetadataReader = (*Reader)(nil)

// Reader reads decimals, symbol and name.
type Reader struct {
	caller poolapp.ContractCaller
	abi    abi.ABI
	logger logger.LoggerInterface
}

// NewReader parses the metadata ABI.
func NewReader(caller poolapp.ContractCaller, log logger.LoggerInterface) (*Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(metadataABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}
	return &Reader{caller: caller, abi: parsed, logger: log}, nil
}

// Metadata reads the token. decimals (at most asset.MaxDecimals) and symbol
// are required; a failing name() falls back to the symbol.
func (r *Reader) Metadata(ctx context.Context, token common.Address) (domain.TokenMetadata, error) {
	md := domain.TokenMetadata{Address: token}

	raw, err := r.call(ctx, token, "decimals")
	if err != nil {
		return md, fmt.Errorf("decimals: %w", err)
	}
	values, err := r.abi.Unpack("decimals", raw)
	if err != nil {
		return md, fmt.Errorf("decode decimals: %w", err)
	}
	md.Decimals = values[0].(uint8)
	if md.Decimals > asset.MaxDecimals {
		return md, fmt.Errorf("decimals %d above %d", md.Decimals, asset.MaxDecimals)
	}

	md.Symbol, err = r.text(ctx, token, "symbol")
	if err != nil {
		return md, fmt.Errorf("symbol: %w", err)
	}

	md.Name, err = r.text(ctx, token, "name")
	if err != nil {
		r.logger.Debug(ctx, "token name unavailable, using symbol", "token", token.Hex(), "error", err)
		md.Name = md.Symbol
	}

	return md, nil
}

func (r *Reader) call(ctx context.Context, token common.Address, method string) ([]byte, error) {
	data, err := r.abi.Pack(method)
	if err != nil {
		return nil, err
	}
	return r.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
}

// text decodes a string return value, accepting the bytes32 encoding some
// older tokens use.
func (r *Reader) text(ctx context.Context, token common.Address, method string) (string, error) {
	raw, err := r.call(ctx, token, method)
	if err != nil {
		return "", err
	}
	if values, err := r.abi.Unpack(method, raw); err == nil {
		if s := values[0].(string); s != "" {
			return s, nil
		}
	}
	if len(raw) == 32 {
		if s := string(bytes.TrimRight(raw, "\x00")); s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("undecodable %s() result", method)
}
