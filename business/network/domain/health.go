// Package domain contains the network condition model.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Health is the process-wide verdict on whether the chain is usable.
type Health struct {
	LastCheck           time.Time `json:"last_check"`
	GasPrice            *big.Int  `json:"gas_price_wei"`
	Healthy             bool      `json:"healthy"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
}

// GasPriceGwei returns the last sampled gas price in gwei.
func (h Health) GasPriceGwei() decimal.Decimal {
	if h.GasPrice == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(h.GasPrice, -9)
}

// ApplyBuffer multiplies wei by buffer rounded to two decimal places.
func ApplyBuffer(wei *big.Int, buffer decimal.Decimal) *big.Int {
	pct := buffer.Round(2).Shift(2).BigInt()
	out := new(big.Int).Mul(wei, pct)
	return out.Quo(out, big.NewInt(100))
}
