package asset

import "github.com/ethereum/go-ethereum/common"

// Asset is the metadata of a token. Identity is the AssetID, the symbol is
// display only (two tokens may share a symbol).
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// MaxDecimals is the largest decimals value an asset may declare.
const MaxDecimals = 36

// NewAsset creates a new Asset.
func NewAsset(id AssetID, symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > MaxDecimals {
		panic("asset: suspicious decimals (>36)")
	}
	return &Asset{id: id, symbol: symbol, name: name, decimals: decimals}
}

// NewToken creates a token asset on the given chain.
func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	return NewAsset(NewTokenAssetID(chainID, address), symbol, name, decimals)
}

func (a *Asset) ID() AssetID             { return a.id }
func (a *Asset) Symbol() string          { return a.symbol }
func (a *Asset) Decimals() uint8         { return a.decimals }
func (a *Asset) ChainID() uint64         { return a.id.ChainID() }
func (a *Asset) Address() common.Address { return a.id.Address() }
func (a *Asset) IsNative() bool          { return a.id.IsNative() }
func (a *Asset) String() string          { return a.symbol }

// Name returns the token name, falling back to the symbol when the contract
// did not expose one.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Equals compares two assets by id.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}
