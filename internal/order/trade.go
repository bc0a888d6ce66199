package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable, append-only record of a single execution between
// a resting maker order and an incoming taker order. The execution price
// always equals the maker's resting price (maker price priority).
type Trade struct {
	ID           string
	Symbol       string
	MakerOrderID string
	TakerOrderID string
	Price        decimal.Decimal
	Amount       decimal.Decimal
	TakerSide    Side
	Timestamp    time.Time
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"Trade{id=%s symbol=%s maker=%s taker=%s price=%s amount=%s takerSide=%s}",
		t.ID, t.Symbol, t.MakerOrderID, t.TakerOrderID, t.Price, t.Amount, t.TakerSide,
	)
}
