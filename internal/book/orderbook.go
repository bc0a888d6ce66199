package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/vantara-markets/matchcore/internal/order"
)

// levels is the ordered price -> PriceLevel map backing one side of a book.
// A comparator-driven balanced tree keyed by decimal price gives O(log n)
// insert/remove/best-first iteration plus keyed removal, which a heap
// cannot offer.
type levels = btree.BTreeG[*PriceLevel]

// OrderBook holds the two price-indexed sides of a single symbol's book.
// It is a plain data structure: callers (internal/matching) are responsible
// for serializing access to a single book under a reader/writer lock.
type OrderBook struct {
	Symbol string
	bids   *levels // descending: greatest price first
	asks   *levels // ascending: least price first
}

// New creates an empty book for symbol.
func New(symbol string) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.GreaterThan(b.Price)
	})
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.LessThan(b.Price)
	})
	return &OrderBook{Symbol: symbol, bids: bids, asks: asks}
}

func (b *OrderBook) sideTree(side order.Side) *levels {
	if side == order.Buy {
		return b.bids
	}
	return b.asks
}

// AddOrder inserts o into its side at o.Price, creating the level on demand.
func (b *OrderBook) AddOrder(o *order.Order) {
	tree := b.sideTree(o.Side)
	if lvl, ok := tree.Get(&PriceLevel{Price: o.Price}); ok {
		lvl.Add(o)
		return
	}
	lvl := newLevel(o.Price)
	lvl.Add(o)
	tree.Set(lvl)
}

// RemoveOrder locates the level for (side, price), removes the order with
// the given id, drops the level if it becomes empty, and returns the
// removed order (nil if not found).
func (b *OrderBook) RemoveOrder(id string, side order.Side, price decimal.Decimal) *order.Order {
	tree := b.sideTree(side)
	lvl, ok := tree.Get(&PriceLevel{Price: price})
	if !ok {
		return nil
	}
	removed := lvl.RemoveByID(id)
	if lvl.Empty() {
		tree.Delete(lvl)
	}
	return removed
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	lvl, ok := b.bids.Min()
	if !ok {
		return decimal.Zero, false
	}
	return lvl.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	lvl, ok := b.asks.Min()
	if !ok {
		return decimal.Zero, false
	}
	return lvl.Price, true
}

// Spread is bestAsk - bestBid, when both sides are non-empty.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}

// MidPrice is (bestAsk + bestBid) / 2, rounded to the price's native scale
// plus one extra digit of precision, when both sides are non-empty.
func (b *OrderBook) MidPrice() (decimal.Decimal, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	sum := ask.Add(bid)
	scale := int32(-sum.Exponent())
	if scale < 0 {
		scale = 0
	}
	return sum.DivRound(decimal.NewFromInt(2), scale+1), true
}

// BidLevels walks the bid side best-first, calling fn until it returns false
// or the side is exhausted.
func (b *OrderBook) BidLevels(fn func(*PriceLevel) bool) {
	b.bids.Scan(fn)
}

// AskLevels walks the ask side best-first, calling fn until it returns false
// or the side is exhausted.
func (b *OrderBook) AskLevels(fn func(*PriceLevel) bool) {
	b.asks.Scan(fn)
}

// DeleteLevel removes a now-empty level from its side. Called by the
// matching engine once it has drained a level's orders.
func (b *OrderBook) DeleteLevel(side order.Side, lvl *PriceLevel) {
	b.sideTree(side).Delete(lvl)
}

// BestLevel returns the best (price-time-priority-first) level on the
// given side, without removing it. Used by the matching walk, which
// re-fetches the best level after each level is fully drained rather than
// holding a live iterator across deletes.
func (b *OrderBook) BestLevel(side order.Side) (*PriceLevel, bool) {
	return b.sideTree(side).Min()
}

// LevelSnapshot is a read-only, value-decoupled view of one price level.
type LevelSnapshot struct {
	Price       decimal.Decimal
	TotalAmount decimal.Decimal
	OrderCount  int
}

// Snapshot is a value-decoupled depth-limited view of both sides. Later
// mutation of the live book never disturbs a previously returned Snapshot.
type Snapshot struct {
	Symbol string
	Bids   []LevelSnapshot
	Asks   []LevelSnapshot
}

// Snapshot copies the top `depth` levels of each side into a fresh value.
// depth == 0 means unlimited depth.
func (b *OrderBook) Snapshot(depth int) Snapshot {
	snap := Snapshot{Symbol: b.Symbol}
	snap.Bids = collectLevels(b.bids, depth)
	snap.Asks = collectLevels(b.asks, depth)
	return snap
}

func collectLevels(tree *levels, depth int) []LevelSnapshot {
	var out []LevelSnapshot
	tree.Scan(func(lvl *PriceLevel) bool {
		if depth > 0 && len(out) >= depth {
			return false
		}
		out = append(out, LevelSnapshot{
			Price:       lvl.Price,
			TotalAmount: lvl.TotalAmount(),
			OrderCount:  len(lvl.Orders),
		})
		return true
	})
	return out
}

// Dump returns every resting order on both sides, for replay/journal
// snapshotting: the full book state is just the set of resting orders,
// derivable from a depth-unlimited dump.
func (b *OrderBook) Dump() []*order.Order {
	var out []*order.Order
	b.bids.Scan(func(lvl *PriceLevel) bool {
		out = append(out, lvl.clone().Orders...)
		return true
	})
	b.asks.Scan(func(lvl *PriceLevel) bool {
		out = append(out, lvl.clone().Orders...)
		return true
	})
	return out
}
