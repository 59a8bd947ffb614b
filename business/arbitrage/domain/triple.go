package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	mdDomain "github.com/fd1az/bsc-triarb/business/marketdata/domain"
)

// TokenTriple is one configured token triangle. Pairs are indexed by edge:
// tokens[0]-tokens[1], tokens[1]-tokens[2], tokens[2]-tokens[0].
type TokenTriple struct {
	Name     string
	Tokens   [3]common.Address
	PairsA   [3]common.Address
	PairsB   [3]common.Address
	Priority int
	// Amounts are whole-token sizes of the rotation's first token.
	Amounts []decimal.Decimal
}

// Rotation is a triple viewed from one of its three starting tokens.
type Rotation struct {
	Triple string
	Index  int
	Tokens [3]common.Address
	PairsA [3]common.Address
	PairsB [3]common.Address
}

// Rotate returns rotation r, which starts and ends in Tokens[r].
func (t TokenTriple) Rotate(r int) Rotation {
	rot := Rotation{Triple: t.Name, Index: r}
	for i := 0; i < 3; i++ {
		j := (i + r) % 3
		rot.Tokens[i] = t.Tokens[j]
		rot.PairsA[i] = t.PairsA[j]
		rot.PairsB[i] = t.PairsB[j]
	}
	return rot
}

// Rotations returns all three rotations in order.
func (t TokenTriple) Rotations() [3]Rotation {
	return [3]Rotation{t.Rotate(0), t.Rotate(1), t.Rotate(2)}
}

// Start is the token the cycle borrows and repays.
func (r Rotation) Start() common.Address { return r.Tokens[0] }

// FlashPair returns the pair for the first edge on the starting exchange.
// The zero address means none is configured.
func (r Rotation) FlashPair(d Direction) common.Address {
	if d.Start() == mdDomain.ExchangeB {
		return r.PairsB[0]
	}
	return r.PairsA[0]
}

// Hops returns the three legs of the cycle for direction d.
func (r Rotation) Hops(d Direction) [3]Hop {
	venues := d.Venues()
	var hops [3]Hop
	for i := 0; i < 3; i++ {
		hops[i] = Hop{Exchange: venues[i], TokenIn: r.Tokens[i], TokenOut: r.Tokens[(i+1)%3]}
	}
	return hops
}

// Hop is a single swap in a cycle.
type Hop struct {
	Exchange mdDomain.Exchange `json:"exchange"`
	TokenIn  common.Address    `json:"token_in"`
	TokenOut common.Address    `json:"token_out"`
}

// Path returns the router path for the hop.
func (h Hop) Path() []common.Address {
	return []common.Address{h.TokenIn, h.TokenOut}
}
