// Package order defines the value types admitted by the matching engine:
// sides, kinds, and the Order record itself.
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is which book an order rests on, and which book it walks to match.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// Opposite returns the side an incoming order of this side walks to match.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Kind distinguishes limit orders, which rest at a price, from market
// orders, which take whatever liquidity is available and never rest.
type Kind int

const (
	Limit Kind = iota
	Market
)

func (k Kind) String() string {
	switch k {
	case Limit:
		return "Limit"
	case Market:
		return "Market"
	default:
		return "Unknown"
	}
}

// Order is a single buy or sell instruction admitted into the engine.
//
// Amount is immutable after admission; Filled is monotonically
// non-decreasing. Price is meaningful only for Limit orders.
type Order struct {
	ID        string
	UserID    string
	Symbol    string
	Side      Side
	Kind      Kind
	Price     decimal.Decimal
	Amount    decimal.Decimal
	Filled    decimal.Decimal
	Timestamp time.Time
}

// Remaining is the quantity still eligible to match or rest.
func (o *Order) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.Filled)
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.Filled.GreaterThanOrEqual(o.Amount)
}

// Fill records a match against this order, advancing Filled by qty.
// qty must never exceed Remaining(); callers (the matching engine) are
// responsible for clamping fills to min(taker.Remaining(), maker.Remaining()).
func (o *Order) Fill(qty decimal.Decimal) {
	o.Filled = o.Filled.Add(qty)
}

func (o Order) String() string {
	return fmt.Sprintf(
		"Order{id=%s user=%s symbol=%s side=%s kind=%s price=%s amount=%s filled=%s}",
		o.ID, o.UserID, o.Symbol, o.Side, o.Kind, o.Price, o.Amount, o.Filled,
	)
}
