package matching

import (
	"github.com/shopspring/decimal"

	"github.com/vantara-markets/matchcore/internal/book"
	"github.com/vantara-markets/matchcore/internal/order"
)

// match walks the opposite side of b best-first, filling taker against
// resting makers in strict price-time priority.
//
// Price priority: we always consume the best-priced level first and never
// skip a better-priced level to reach a worse one. Time priority: within a
// level we always consume the head of the queue first. Maker price wins:
// every trade executes at the maker's resting price.
func (e *Engine) match(b *book.OrderBook, taker *order.Order) (MatchingResult, error) {
	var result MatchingResult
	opposite := taker.Side.Opposite()

	for !taker.IsFilled() {
		lvl, ok := b.BestLevel(opposite)
		if !ok {
			break
		}

		if taker.Kind == order.Limit && !crosses(taker.Side, taker.Price, lvl.Price) {
			break
		}

		for len(lvl.Orders) > 0 && !taker.IsFilled() {
			maker := lvl.Orders[0]

			fill := decimal.Min(taker.Remaining(), maker.Remaining())
			price := maker.Price

			taker.Fill(fill)
			maker.Fill(fill)

			result.Trades = append(result.Trades, order.Trade{
				ID:           e.idGen(),
				Symbol:       taker.Symbol,
				MakerOrderID: maker.ID,
				TakerOrderID: taker.ID,
				Price:        price,
				Amount:       fill,
				TakerSide:    taker.Side,
				Timestamp:    e.clock(),
			})
			result.UpdatedOrders = append(result.UpdatedOrders, *maker)

			if maker.IsFilled() {
				lvl.Orders = lvl.Orders[1:]
				e.index.Remove(maker.ID)
			}
		}

		if lvl.Empty() {
			b.DeleteLevel(opposite, lvl)
		}
	}

	return result, nil
}

// crosses reports whether a resting level at levelPrice would fill against
// a Limit taker of the given side and limit price.
func crosses(side order.Side, takerPrice, levelPrice decimal.Decimal) bool {
	if side == order.Buy {
		return levelPrice.LessThanOrEqual(takerPrice)
	}
	return levelPrice.GreaterThanOrEqual(takerPrice)
}
