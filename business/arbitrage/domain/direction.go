// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	mdDomain "github.com/fd1az/bsc-triarb/business/marketdata/domain"
)

// Direction is the exchange a cycle starts on. Hops 1 and 3 run on the
// starting exchange, hop 2 on the other one.
type Direction uint8

const (
	// DirectionStartOnA borrows and swaps on exchange A, crosses to B for hop 2.
	DirectionStartOnA Direction = iota
	// DirectionStartOnB is the mirror image.
	DirectionStartOnB
)

// Directions lists both base directions in evaluation order.
var Directions = [2]Direction{DirectionStartOnA, DirectionStartOnB}

// Start returns the starting exchange.
func (d Direction) Start() mdDomain.Exchange {
	if d == DirectionStartOnB {
		return mdDomain.ExchangeB
	}
	return mdDomain.ExchangeA
}

// StartsOnA reports whether the flash loan is taken on exchange A.
func (d Direction) StartsOnA() bool { return d == DirectionStartOnA }

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == DirectionStartOnA {
		return DirectionStartOnB
	}
	return DirectionStartOnA
}

// Venues returns the exchange for each of the three hops.
func (d Direction) Venues() [3]mdDomain.Exchange {
	s := d.Start()
	return [3]mdDomain.Exchange{s, s.Other(), s}
}

// String returns a compact hop layout such as "A→B→A".
func (d Direction) String() string {
	v := d.Venues()
	return v[0].String() + "→" + v[1].String() + "→" + v[2].String()
}

// MarshalText renders the hop layout.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
