package asset

import "github.com/ethereum/go-ethereum/common"

const (
	ChainIDEthereum = 1
	ChainIDBSC      = 56
)

// Well-known BEP-20 addresses on BNB Smart Chain.
var (
	AddrWBNB = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	AddrBUSD = common.HexToAddress("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56")
	AddrUSDT = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
	AddrUSDC = common.HexToAddress("0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d")
	AddrCAKE = common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82")
	AddrBSW  = common.HexToAddress("0x965F527D9159dCe6288a2219DB51fc6Eef120dD1")
	AddrETH  = common.HexToAddress("0x2170Ed0880ac9A755fd29B2688956BD959F933F8")
	AddrBTCB = common.HexToAddress("0x7130d2A12B9BCbFAe4f2634d864A1Ee1Ce3Ead9c")
)

var (
	BNB  = NewAsset(NewNativeAssetID(ChainIDBSC), "BNB", "BNB", 18)
	WBNB = NewToken(ChainIDBSC, AddrWBNB, "WBNB", "Wrapped BNB", 18)
	BUSD = NewToken(ChainIDBSC, AddrBUSD, "BUSD", "BUSD Token", 18)
	USDT = NewToken(ChainIDBSC, AddrUSDT, "USDT", "Tether USD", 18)
	USDC = NewToken(ChainIDBSC, AddrUSDC, "USDC", "USD Coin", 18)
	CAKE = NewToken(ChainIDBSC, AddrCAKE, "Cake", "PancakeSwap Token", 18)
	BSW  = NewToken(ChainIDBSC, AddrBSW, "BSW", "Biswap", 18)
	ETH  = NewToken(ChainIDBSC, AddrETH, "ETH", "Ethereum Token", 18)
	BTCB = NewToken(ChainIDBSC, AddrBTCB, "BTCB", "BTCB Token", 18)
)

// DefaultRegistry returns a BSC registry pre-populated with well-known tokens.
// Tokens named in configuration but missing here are resolved on-chain at startup.
func DefaultRegistry() *Registry {
	r := NewRegistry(ChainIDBSC)
	for _, a := range []*Asset{BNB, WBNB, BUSD, USDT, USDC, CAKE, BSW, ETH, BTCB} {
		r.Register(a)
	}
	return r
}
