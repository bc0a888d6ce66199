// Package book implements the per-symbol order book: price-indexed levels
// of resting orders, kept in arrival order within a level and in best-first
// price order across levels.
package book

import (
	"github.com/shopspring/decimal"

	"github.com/vantara-markets/matchcore/internal/order"
)

// PriceLevel holds every resting order that shares one price on one side,
// in arrival order. The head of Orders is always the next maker to fill.
type PriceLevel struct {
	Price  decimal.Decimal
	Orders []*order.Order
}

func newLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Add appends o to the tail of the level.
func (l *PriceLevel) Add(o *order.Order) {
	l.Orders = append(l.Orders, o)
}

// RemoveByID removes the first order with the given id, preserving the
// relative order of the rest. Returns the removed order, or nil if absent.
func (l *PriceLevel) RemoveByID(id string) *order.Order {
	for i, o := range l.Orders {
		if o.ID == id {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			return o
		}
	}
	return nil
}

// TotalAmount sums the remaining quantity of every live order in the level.
func (l *PriceLevel) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, o := range l.Orders {
		total = total.Add(o.Remaining())
	}
	return total
}

// Empty reports whether the level has no resting orders left.
func (l *PriceLevel) Empty() bool {
	return len(l.Orders) == 0
}

// clone returns a value copy of the level, decoupled from future mutation
// of the live orders slice (used for snapshots).
func (l *PriceLevel) clone() *PriceLevel {
	orders := make([]*order.Order, len(l.Orders))
	for i, o := range l.Orders {
		cp := *o
		orders[i] = &cp
	}
	return &PriceLevel{Price: l.Price, Orders: orders}
}
