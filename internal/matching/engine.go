// Package matching implements the MatchingEngine: the set of per-symbol
// order books, the engine-wide order-id index, and the place/cancel/
// snapshot/stats operations.
package matching

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vantara-markets/matchcore/internal/book"
	"github.com/vantara-markets/matchcore/internal/contracts"
	"github.com/vantara-markets/matchcore/internal/order"
)

// Clock is injected, not read globally, so tests can supply a fixed or
// stepped clock instead of depending on wall time.
type Clock func() time.Time

// IDGen produces trade ids. Injected for the same reason as Clock.
type IDGen func() string

// trackedBook pairs a book with the reader/writer lock that serializes
// writes to it. PlaceOrder and CancelOrder take the writer lock;
// GetOrderBook takes the reader lock only long enough to copy a snapshot.
type trackedBook struct {
	mu      sync.RWMutex
	book    *book.OrderBook
	faulted bool
}

// MatchingResult is returned by PlaceOrder: every trade produced, plus the
// post-match state of every maker order touched. PlaceOrder takes the taker
// by value and matches its own copy, so the caller's Order is not updated
// and the taker's post-match state is not part of the result.
type MatchingResult struct {
	Trades        []order.Trade
	UpdatedOrders []order.Order
}

// EngineStats is a point-in-time, possibly-approximate view of engine load.
type EngineStats struct {
	TotalIndexedOrders int
	ActiveSymbols      int
}

// Engine owns every symbol's book, created lazily on first reference, and
// the cross-symbol order-id index. Books are served in parallel; a single
// book serializes its own writes.
type Engine struct {
	booksMu sync.RWMutex
	books   map[string]*trackedBook

	index *orderIndex

	clock Clock
	idGen IDGen
}

// New creates an empty engine. A nil clock defaults to time.Now; a nil
// idGen defaults to uuid.New().String.
func New(clock Clock, idGen IDGen) *Engine {
	if clock == nil {
		clock = time.Now
	}
	if idGen == nil {
		idGen = func() string { return uuid.New().String() }
	}
	return &Engine{
		books: make(map[string]*trackedBook),
		index: newOrderIndex(),
		clock: clock,
		idGen: idGen,
	}
}

// bookFor returns the tracked book for symbol, creating it under a short
// write lock on booksMu if absent. The engine-wide map supports concurrent
// lookup and insertion; it is not the per-book lock used for matching.
func (e *Engine) bookFor(symbol string) *trackedBook {
	e.booksMu.RLock()
	tb, ok := e.books[symbol]
	e.booksMu.RUnlock()
	if ok {
		return tb
	}

	e.booksMu.Lock()
	defer e.booksMu.Unlock()
	if tb, ok := e.books[symbol]; ok {
		return tb
	}
	tb = &trackedBook{book: book.New(symbol)}
	e.books[symbol] = tb
	return tb
}

// peekBook returns the tracked book for symbol without creating it.
func (e *Engine) peekBook(symbol string) (*trackedBook, bool) {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	tb, ok := e.books[symbol]
	return tb, ok
}

// PlaceOrder validates, matches, and (if residual remains on a Limit
// order) rests o.
func (e *Engine) PlaceOrder(o order.Order) (MatchingResult, error) {
	if err := validateShape(o); err != nil {
		return MatchingResult{}, err
	}

	o.Timestamp = e.clock()
	tb := e.bookFor(o.Symbol)

	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.faulted {
		return MatchingResult{}, contracts.Internalf("book for symbol %q is faulted and no longer servicing operations", o.Symbol)
	}

	// Reserve the id under the same lock that serializes every mutation of
	// this book, before any mutation happens. Two concurrent PlaceOrder
	// calls for the same id race here, on a single atomic Insert: exactly
	// one wins and proceeds to match, the other is rejected immediately,
	// whether or not the winning order goes on to fill completely.
	loc := location{symbol: o.Symbol, side: o.Side, price: o.Price}
	if !e.index.Insert(o.ID, loc) {
		return MatchingResult{}, contracts.InvalidInputf("duplicate order id %q", o.ID)
	}

	result, err := e.match(tb.book, &o)
	if err != nil {
		e.index.Remove(o.ID)
		if contracts.KindOf(err) == contracts.Internal {
			tb.faulted = true
		}
		return result, err
	}

	if !o.IsFilled() && o.Kind == order.Limit {
		resting := o
		tb.book.AddOrder(&resting)
		return result, nil
	}

	// Either fully filled, or an unfilled Market residual that is
	// discarded rather than rested (a market order that exhausts
	// liquidity still reports success with a partial, or zero, fill
	// set). Neither case leaves anything resting in the book, so the
	// reservation above — made only to claim the id atomically — is
	// released rather than kept.
	e.index.Remove(o.ID)
	if o.Kind == order.Market && !o.IsFilled() {
		log.Debug().Str("orderId", o.ID).Str("remaining", o.Remaining().String()).
			Msg("market order residual discarded, no liquidity remaining")
	}
	return result, nil
}

// CancelOrder removes a resting order from its book and the index. A
// missing id is not an error: it returns (nil, nil).
func (e *Engine) CancelOrder(id string) (*order.Order, error) {
	loc, ok := e.index.Lookup(id)
	if !ok {
		return nil, nil
	}

	tb, ok := e.peekBook(loc.symbol)
	if !ok {
		// The index pointed at a symbol with no book: an invariant
		// violation, not a benign miss.
		return nil, contracts.Internalf("indexed order %q references unknown symbol %q", id, loc.symbol)
	}

	tb.mu.Lock()
	if tb.faulted {
		tb.mu.Unlock()
		return nil, contracts.Internalf("book for symbol %q is faulted and no longer servicing operations", loc.symbol)
	}
	removed := tb.book.RemoveOrder(id, loc.side, loc.price)
	if removed == nil {
		// Indexed but not actually resident: a bug, not a user-facing miss.
		// The book's own bookkeeping can no longer be trusted, so fence it
		// off rather than let later operations build on a known-bad state;
		// other symbols' books are untouched.
		tb.faulted = true
	}
	tb.mu.Unlock()

	if removed == nil {
		return nil, contracts.Internalf("order %q indexed at %v but not found in book", id, loc)
	}
	e.index.Remove(id)
	return removed, nil
}

// GetOrderBook copies the top-depth levels of each side of symbol's book.
// depth == 0 means unlimited. Returns false if the symbol has no book yet.
func (e *Engine) GetOrderBook(symbol string, depth int) (book.Snapshot, bool) {
	tb, ok := e.peekBook(symbol)
	if !ok {
		return book.Snapshot{}, false
	}
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return tb.book.Snapshot(depth), true
}

// Symbols returns the set of symbols with a live book. May be approximate
// under concurrent mutation, like Stats.
func (e *Engine) Symbols() []string {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	out := make([]string, 0, len(e.books))
	for symbol := range e.books {
		out = append(out, symbol)
	}
	return out
}

// Stats returns a point-in-time view of engine load. May be approximate
// under concurrent mutation.
func (e *Engine) Stats() EngineStats {
	e.booksMu.RLock()
	active := len(e.books)
	e.booksMu.RUnlock()
	return EngineStats{
		TotalIndexedOrders: e.index.Len(),
		ActiveSymbols:      active,
	}
}

// validateShape rejects malformed input that no amount of locking could
// make valid. Duplicate-id detection is not shape validation: it depends
// on concurrent engine state, so it happens under the book lock in
// PlaceOrder via a single atomic orderIndex.Insert, not here.
func validateShape(o order.Order) error {
	if o.Symbol == "" {
		return contracts.InvalidInputf("symbol must not be empty")
	}
	if o.ID == "" {
		return contracts.InvalidInputf("id must not be empty")
	}
	if !o.Amount.IsPositive() {
		return contracts.InvalidInputf("amount must be positive, got %s", o.Amount)
	}
	if o.Kind == order.Limit && !o.Price.IsPositive() {
		return contracts.InvalidInputf("limit order price must be positive, got %s", o.Price)
	}
	return nil
}
