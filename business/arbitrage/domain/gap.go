package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceGap returns |pA-pB| / pA * 100, where pA and pB are the unit-input
// cycle outputs on exchanges A and B. A missing output or pA of zero yields 0.
func PriceGap(pA, pB *big.Int) decimal.Decimal {
	if pA == nil || pB == nil || pA.Sign() == 0 {
		return decimal.Zero
	}
	a := decimal.NewFromBigInt(pA, 0)
	b := decimal.NewFromBigInt(pB, 0)
	return a.Sub(b).Abs().Div(a).Mul(hundred)
}

// ShouldReverse reports whether gap reaches threshold (inclusive).
func ShouldReverse(gap, threshold decimal.Decimal) bool {
	return gap.GreaterThanOrEqual(threshold)
}
