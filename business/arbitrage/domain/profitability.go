package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	mdDomain "github.com/fd1az/bsc-triarb/business/marketdata/domain"
)

// OracleQuote is the flash-arbitrage contract's view of a cycle, in units of
// the borrowed token.
type OracleQuote struct {
	ExpectedProfit *big.Int `json:"expected_profit"`
	PlatformFee    *big.Int `json:"platform_fee"`
	UserProfit     *big.Int `json:"user_profit"`
}

// Fee is an exchange swap fee as published by the contract.
type Fee struct {
	Numerator   *big.Int `json:"numerator"`
	Denominator *big.Int `json:"denominator"`
}

var half = decimal.NewFromFloat(0.5)

// Rate returns the fraction of the input taken as fee. Contracts publish
// either the fee itself (25/10000) or the kept share (9975/10000); a ratio
// above one half is read as the kept share.
func (f Fee) Rate() decimal.Decimal {
	if f.Numerator == nil || f.Denominator == nil || f.Denominator.Sign() == 0 {
		return decimal.Zero
	}
	r := decimal.NewFromBigInt(f.Numerator, 0).Div(decimal.NewFromBigInt(f.Denominator, 0))
	if r.GreaterThan(half) {
		return decimal.NewFromInt(1).Sub(r)
	}
	return r
}

// FeeParameters holds both exchanges' fees and when they were read.
type FeeParameters struct {
	A         Fee       `json:"a"`
	B         Fee       `json:"b"`
	FetchedAt time.Time `json:"fetched_at"`
}

// For returns the fee for ex.
func (p FeeParameters) For(ex mdDomain.Exchange) Fee {
	if ex == mdDomain.ExchangeB {
		return p.B
	}
	return p.A
}

// EstimateSwapFee approximates the value paid in swap fees along the three
// hops when loanValue enters the cycle.
func (p FeeParameters) EstimateSwapFee(loanValue decimal.Decimal, d Direction) decimal.Decimal {
	total := decimal.Zero
	for _, ex := range d.Venues() {
		total = total.Add(p.For(ex).Rate())
	}
	return loanValue.Mul(total)
}

// ProfitabilityResult is the evaluator's verdict on one candidate.
type ProfitabilityResult struct {
	Quote            OracleQuote     `json:"quote"`
	GasCost          GasCost         `json:"gas_cost"`
	ProfitValue      decimal.Decimal `json:"profit_value"`
	LoanValue        decimal.Decimal `json:"loan_value"`
	NetValue         decimal.Decimal `json:"net_value"`
	ProfitPct        decimal.Decimal `json:"profit_pct"`
	EstimatedSwapFee decimal.Decimal `json:"estimated_swap_fee"`
	MeetsThreshold   bool            `json:"meets_threshold"`
	Reason           string          `json:"reason,omitempty"`
}

// ComputeProfitability nets gas out of profit and compares the percentage of
// the loan value against minPct (inclusive). A zero loan value gives 0%.
func ComputeProfitability(profitValue, gasValue, loanValue, minPct decimal.Decimal) ProfitabilityResult {
	net := profitValue.Sub(gasValue)
	pct := decimal.Zero
	if !loanValue.IsZero() {
		pct = net.Div(loanValue).Mul(hundred)
	}

	res := ProfitabilityResult{
		ProfitValue:    profitValue,
		LoanValue:      loanValue,
		NetValue:       net,
		ProfitPct:      pct,
		MeetsThreshold: pct.GreaterThanOrEqual(minPct),
	}
	if !res.MeetsThreshold {
		res.Reason = "below threshold"
	}
	return res
}

// Rejected builds a failed evaluation.
func Rejected(reason string) ProfitabilityResult {
	return ProfitabilityResult{Reason: reason}
}
