package matching

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantara-markets/matchcore/internal/contracts"
	"github.com/vantara-markets/matchcore/internal/order"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func sequentialIDGen() IDGen {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("trade-%d", n)
	}
}

func newTestEngine() *Engine {
	return New(fixedClock(time.Unix(0, 0)), sequentialIDGen())
}

func limitOrder(id string, side order.Side, price, amount string) order.Order {
	return order.Order{
		ID:     id,
		Symbol: "AAPL",
		Side:   side,
		Kind:   order.Limit,
		Price:  decimal.RequireFromString(price),
		Amount: decimal.RequireFromString(amount),
	}
}

func marketOrder(id string, side order.Side, amount string) order.Order {
	return order.Order{
		ID:     id,
		Symbol: "AAPL",
		Side:   side,
		Kind:   order.Market,
		Amount: decimal.RequireFromString(amount),
	}
}

// A resting limit order with no crossing counterparty simply rests.
func TestPlaceOrderRestsWhenNoCross(t *testing.T) {
	e := newTestEngine()
	result, err := e.PlaceOrder(limitOrder("b1", order.Buy, "10.00", "5"))
	require.NoError(t, err)
	assert.Empty(t, result.Trades)

	snap, ok := e.GetOrderBook("AAPL", 0)
	require.True(t, ok)
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].TotalAmount.Equal(decimal.RequireFromString("5")))
}

// Price priority: a taker crossing two resting price levels fills the
// better-priced (for the taker) level first, never skipping to a worse one.
func TestPriceTimePriorityBestPriceFirst(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("s-worse", order.Sell, "10.50", "5"))
	require.NoError(t, err)
	_, err = e.PlaceOrder(limitOrder("s-better", order.Sell, "10.00", "5"))
	require.NoError(t, err)

	result, err := e.PlaceOrder(limitOrder("taker", order.Buy, "10.50", "5"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "s-better", result.Trades[0].MakerOrderID)
	assert.True(t, result.Trades[0].Price.Equal(decimal.RequireFromString("10.00")))
}

// Time priority: two resting orders at the same price fill in arrival order.
func TestPriceTimePriorityFIFOWithinLevel(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("s-first", order.Sell, "10.00", "3"))
	require.NoError(t, err)
	_, err = e.PlaceOrder(limitOrder("s-second", order.Sell, "10.00", "3"))
	require.NoError(t, err)

	result, err := e.PlaceOrder(limitOrder("taker", order.Buy, "10.00", "3"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "s-first", result.Trades[0].MakerOrderID)
}

// Maker price wins: the trade always executes at the resting order's price,
// never the taker's limit price, even when the taker would accept worse.
func TestMakerPriceWins(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("maker", order.Sell, "9.50", "5"))
	require.NoError(t, err)

	result, err := e.PlaceOrder(limitOrder("taker", order.Buy, "10.00", "5"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].Price.Equal(decimal.RequireFromString("9.50")))
}

// A partially filled limit order rests with its remaining quantity.
func TestPartialFillRestsResidual(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("maker", order.Sell, "10.00", "3"))
	require.NoError(t, err)

	result, err := e.PlaceOrder(limitOrder("taker", order.Buy, "10.00", "10"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].Amount.Equal(decimal.RequireFromString("3")))

	snap, ok := e.GetOrderBook("AAPL", 0)
	require.True(t, ok)
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].TotalAmount.Equal(decimal.RequireFromString("7")))
	assert.Empty(t, snap.Asks)
}

// A market order sweeps multiple resting levels until filled.
func TestMarketOrderSweepsMultipleLevels(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("s1", order.Sell, "10.00", "2"))
	require.NoError(t, err)
	_, err = e.PlaceOrder(limitOrder("s2", order.Sell, "10.50", "2"))
	require.NoError(t, err)
	_, err = e.PlaceOrder(limitOrder("s3", order.Sell, "11.00", "2"))
	require.NoError(t, err)

	result, err := e.PlaceOrder(marketOrder("taker", order.Buy, "5"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 3)
	assert.True(t, result.Trades[0].Price.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, result.Trades[1].Price.Equal(decimal.RequireFromString("10.50")))
	assert.True(t, result.Trades[2].Price.Equal(decimal.RequireFromString("11.00")))

	total := decimal.Zero
	for _, tr := range result.Trades {
		total = total.Add(tr.Amount)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("5")))
}

// A market order that exhausts all liquidity reports a partial fill and
// discards its unfilled residual rather than resting or erroring.
func TestMarketOrderExhaustsLiquidityDiscardsResidual(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("s1", order.Sell, "10.00", "2"))
	require.NoError(t, err)

	result, err := e.PlaceOrder(marketOrder("taker", order.Buy, "10"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].Amount.Equal(decimal.RequireFromString("2")))

	snap, ok := e.GetOrderBook("AAPL", 0)
	require.True(t, ok)
	assert.Empty(t, snap.Bids, "unfilled market residual must not rest")
	assert.Empty(t, snap.Asks)
}

// Cancelling a resting order mid-book removes it from both the book and the
// index, and it no longer participates in matching.
func TestCancelOrderRemovesFromBookAndIndex(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("b1", order.Buy, "10.00", "5"))
	require.NoError(t, err)

	cancelled, err := e.CancelOrder("b1")
	require.NoError(t, err)
	require.NotNil(t, cancelled)
	assert.Equal(t, "b1", cancelled.ID)

	snap, ok := e.GetOrderBook("AAPL", 0)
	require.True(t, ok)
	assert.Empty(t, snap.Bids)

	// Cancelling again is a benign no-op, not an error.
	again, err := e.CancelOrder("b1")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestCancelUnknownOrderIsNilNil(t *testing.T) {
	e := newTestEngine()
	removed, err := e.CancelOrder("never-existed")
	require.NoError(t, err)
	assert.Nil(t, removed)
}

// Validation rejects malformed input before it ever reaches a book.
func TestPlaceOrderValidation(t *testing.T) {
	e := newTestEngine()

	_, err := e.PlaceOrder(limitOrder("", order.Buy, "10.00", "1"))
	assert.Error(t, err)

	_, err = e.PlaceOrder(limitOrder("x", order.Buy, "10.00", "0"))
	assert.Error(t, err)

	_, err = e.PlaceOrder(limitOrder("x", order.Buy, "0", "1"))
	assert.Error(t, err)

	_, err = e.PlaceOrder(limitOrder("dup", order.Buy, "10.00", "1"))
	require.NoError(t, err)
	_, err = e.PlaceOrder(limitOrder("dup", order.Buy, "10.00", "1"))
	assert.Error(t, err, "duplicate order id must be rejected")
}

// A duplicate id must be rejected even when the duplicate order fully
// fills and never reaches the resting branch that used to be the only
// place duplicates were caught.
func TestPlaceOrderDuplicateIDRejectedEvenWhenFullyFilled(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("maker", order.Sell, "10.00", "10"))
	require.NoError(t, err)

	_, err = e.PlaceOrder(limitOrder("dup", order.Buy, "10.00", "5"))
	require.NoError(t, err)

	// Same id, fully fills against the same maker's remaining quantity.
	_, err = e.PlaceOrder(limitOrder("dup", order.Buy, "10.00", "5"))
	assert.Error(t, err, "a fully-filling duplicate id must still be rejected")
}

// Two concurrent PlaceOrder calls for the same id on the same symbol must
// never both pass validation and mutate the book: exactly one succeeds.
func TestPlaceOrderConcurrentDuplicateIDRejected(t *testing.T) {
	e := New(nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.PlaceOrder(limitOrder("race", order.Buy, "10.00", "1"))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one of two concurrent placements with the same id must succeed")
	assert.Equal(t, 1, e.Stats().TotalIndexedOrders)
}

// The book is never left crossed after a match.
func TestNoCrossedBookAfterMatch(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("s1", order.Sell, "10.00", "5"))
	require.NoError(t, err)
	_, err = e.PlaceOrder(limitOrder("b1", order.Buy, "10.00", "3"))
	require.NoError(t, err)

	snap, ok := e.GetOrderBook("AAPL", 0)
	require.True(t, ok)
	if len(snap.Bids) > 0 && len(snap.Asks) > 0 {
		assert.True(t, snap.Asks[0].Price.GreaterThan(snap.Bids[0].Price), "book must never end up crossed")
	}
}

// Books for distinct symbols are independent and safe to mutate concurrently.
func TestConcurrentSymbolsAreIndependent(t *testing.T) {
	e := New(nil, nil)
	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN"}

	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("%s-%d", sym, j)
				o := order.Order{
					ID:     id,
					Symbol: sym,
					Side:   order.Buy,
					Kind:   order.Limit,
					Price:  decimal.NewFromInt(int64(10 + i)),
					Amount: decimal.NewFromInt(1),
				}
				_, err := e.PlaceOrder(o)
				assert.NoError(t, err)
			}
		}(i, sym)
	}
	wg.Wait()

	assert.ElementsMatch(t, symbols, e.Symbols())
	stats := e.Stats()
	assert.Equal(t, len(symbols)*50, stats.TotalIndexedOrders)
	assert.Equal(t, len(symbols), stats.ActiveSymbols)
}

func TestGetOrderBookUnknownSymbol(t *testing.T) {
	e := newTestEngine()
	_, ok := e.GetOrderBook("NOPE", 0)
	assert.False(t, ok)
}

// A book fenced by an internal fault stops accepting PlaceOrder/CancelOrder,
// while an unrelated symbol's book keeps serving requests.
func TestFaultedBookRejectsFurtherOperationsOtherSymbolsUnaffected(t *testing.T) {
	e := newTestEngine()
	_, err := e.PlaceOrder(limitOrder("aapl-1", order.Buy, "10.00", "5"))
	require.NoError(t, err)

	tb := e.bookFor("AAPL")
	tb.mu.Lock()
	tb.faulted = true
	tb.mu.Unlock()

	_, err = e.PlaceOrder(limitOrder("aapl-2", order.Buy, "10.00", "1"))
	require.Error(t, err)
	assert.Equal(t, contracts.Internal, contracts.KindOf(err))

	_, err = e.CancelOrder("aapl-1")
	require.Error(t, err)
	assert.Equal(t, contracts.Internal, contracts.KindOf(err))

	// MSFT's book never faulted and keeps serving.
	msft := limitOrder("msft-1", order.Buy, "10.00", "1")
	msft.Symbol = "MSFT"
	_, err = e.PlaceOrder(msft)
	require.NoError(t, err)
}
