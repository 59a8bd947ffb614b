package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/bsc-triarb/internal/apperror"
)

const bpsDenominator = 10_000

// Candidate is one fully simulated 3-hop cycle for one input amount.
type Candidate struct {
	Triple    string            `json:"triple"`
	Rotation  int               `json:"rotation"`
	Tokens    [3]common.Address `json:"tokens"`
	Direction Direction         `json:"direction"`

	// Requested is the base direction the sweep asked for; Direction differs
	// from it when the price gap forced a reversal.
	Requested  Direction       `json:"requested_direction"`
	Gap        decimal.Decimal `json:"price_gap_pct"`
	FlashPair  common.Address  `json:"flash_pair"`
	Hops       [3]Hop          `json:"hops"`
	AmountIn   *big.Int        `json:"amount_in"`
	Outputs    [3]*big.Int     `json:"outputs"`
	MinOutputs [3]*big.Int     `json:"min_outputs"`
}

// Reversed reports whether the evaluated direction differs from the requested one.
func (c *Candidate) Reversed() bool { return c.Direction != c.Requested }

// Validate enforces that every minimum output is strictly positive and a
// flash pair is set.
func (c *Candidate) Validate() error {
	if c.FlashPair == (common.Address{}) {
		return apperror.New(apperror.CodeMissingFlashPair,
			apperror.WithContextf("%s rotation %d", c.Triple, c.Rotation))
	}
	if c.AmountIn == nil || c.AmountIn.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidCandidate, apperror.WithContext("amount in must be positive"))
	}
	for i, m := range c.MinOutputs {
		if m == nil || m.Sign() <= 0 {
			return apperror.New(apperror.CodeInvalidCandidate,
				apperror.WithContextf("minimum output of hop %d is zero", i+1))
		}
	}
	return nil
}

// OracleParams is the cycle description the flash-arbitrage contract expects.
type OracleParams struct {
	FlashPair     common.Address
	Tokens        [3]common.Address
	MinAmountsOut [3]*big.Int
}

// OracleParams builds the contract call arguments for the candidate.
func (c *Candidate) OracleParams() OracleParams {
	return OracleParams{
		FlashPair:     c.FlashPair,
		Tokens:        c.Tokens,
		MinAmountsOut: c.MinOutputs,
	}
}

func (c *Candidate) String() string {
	return fmt.Sprintf("%s/r%d %s amount=%s", c.Triple, c.Rotation, c.Direction, c.AmountIn)
}

// MinimumOutputs applies slippage tolerance in basis points to each hop's
// expected output: out * (10000 - bps) / 10000, rounded down.
func MinimumOutputs(outs [3]*big.Int, slippageBps int64) [3]*big.Int {
	keep := big.NewInt(bpsDenominator - slippageBps)
	den := big.NewInt(bpsDenominator)

	var mins [3]*big.Int
	for i, out := range outs {
		if out == nil {
			mins[i] = new(big.Int)
			continue
		}
		m := new(big.Int).Mul(out, keep)
		mins[i] = m.Quo(m, den)
	}
	return mins
}
