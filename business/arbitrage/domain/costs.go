package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const nativeDecimals = 18

// GasCost is the cost of executing the cycle transaction.
type GasCost struct {
	GasLimit uint64          `json:"gas_limit"`
	GasPrice *big.Int        `json:"gas_price_wei"`
	TotalWei *big.Int        `json:"total_wei"`
	Native   decimal.Decimal `json:"native"`
	Value    decimal.Decimal `json:"value"`
}

// NewGasCost prices gasLimit at gasPriceWei and converts it to the value unit
// using the native asset's rate.
func NewGasCost(gasLimit uint64, gasPriceWei *big.Int, nativeRate decimal.Decimal) GasCost {
	if gasPriceWei == nil {
		gasPriceWei = new(big.Int)
	}
	totalWei := new(big.Int).Mul(gasPriceWei, new(big.Int).SetUint64(gasLimit))
	native := decimal.NewFromBigInt(totalWei, -nativeDecimals)

	return GasCost{
		GasLimit: gasLimit,
		GasPrice: gasPriceWei,
		TotalWei: totalWei,
		Native:   native,
		Value:    native.Mul(nativeRate),
	}
}
