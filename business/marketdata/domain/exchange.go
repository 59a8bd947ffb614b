// Package domain contains the market data model: venues, quotes and token
// metadata.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Exchange identifies one of the two AMM venues a cycle alternates between.
type Exchange uint8

const (
	ExchangeA Exchange = iota
	ExchangeB
)

// Other returns the opposite venue.
func (e Exchange) Other() Exchange {
	if e == ExchangeA {
		return ExchangeB
	}
	return ExchangeA
}

func (e Exchange) String() string {
	if e == ExchangeA {
		return "A"
	}
	return "B"
}

// MarshalText renders the exchange as "A" or "B".
func (e Exchange) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Venue binds an Exchange to its display name and router.
type Venue struct {
	Exchange Exchange
	Name     string
	Router   common.Address
}

// Quote is the simulated output of one swap on one venue.
type Quote struct {
	Exchange  Exchange
	TokenIn   common.Address
	TokenOut  common.Address
	AmountIn  *big.Int
	AmountOut *big.Int
}

// TokenMetadata is what the ERC-20 contract reports about itself.
type TokenMetadata struct {
	Address  common.Address
	Symbol   string
	Name     string
	Decimals uint8
}
