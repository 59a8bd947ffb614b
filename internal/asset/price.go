package asset

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Price is the value of one whole token expressed in the value unit
// (a stable token), stamped with the time it was observed.
type Price struct {
	base       *Asset
	rate       decimal.Decimal
	observedAt time.Time
}

// NewPrice creates a price observation.
func NewPrice(base *Asset, rate decimal.Decimal, observedAt time.Time) Price {
	if rate.IsNegative() {
		panic("asset: negative price rate")
	}
	return Price{base: base, rate: rate, observedAt: observedAt}
}

func (p Price) Base() *Asset          { return p.base }
func (p Price) Rate() decimal.Decimal { return p.rate }
func (p Price) ObservedAt() time.Time { return p.observedAt }

// IsZero reports an unpriced observation.
func (p Price) IsZero() bool { return p.rate.IsZero() }

// Age returns how old the observation is relative to now.
func (p Price) Age(now time.Time) time.Duration { return now.Sub(p.observedAt) }

// IsStale reports whether the observation is older than maxAge.
func (p Price) IsStale(now time.Time, maxAge time.Duration) bool {
	return p.observedAt.IsZero() || p.Age(now) > maxAge
}

func (p Price) String() string {
	sym := "???"
	if p.base != nil {
		sym = p.base.Symbol()
	}
	return fmt.Sprintf("%s %s/USD", p.rate.String(), sym)
}
