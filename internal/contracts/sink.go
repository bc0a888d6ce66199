package contracts

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/vantara-markets/matchcore/internal/order"
)

// TradeSink is a non-blocking submission point for trades produced by
// PlaceOrder. The caller drains MatchingResult.Trades into it after
// PlaceOrder returns; the matching engine never calls a sink itself, since
// the matching hot path must not do I/O.
type TradeSink interface {
	Submit(t order.Trade)
}

// LoggingTradeSink logs each trade at info level. Useful as a default sink
// and in integration tests.
type LoggingTradeSink struct{}

func (LoggingTradeSink) Submit(t order.Trade) {
	log.Info().
		Str("symbol", t.Symbol).
		Str("maker", t.MakerOrderID).
		Str("taker", t.TakerOrderID).
		Str("price", t.Price.String()).
		Str("amount", t.Amount.String()).
		Str("takerSide", t.TakerSide.String()).
		Msg("trade executed")
}

// ChannelTradeSink forwards trades onto a buffered channel. Submit never
// blocks: if the channel is full the trade is dropped and counted, rather
// than stalling whatever goroutine called PlaceOrder.
type ChannelTradeSink struct {
	ch      chan order.Trade
	dropped atomic.Uint64
}

// NewChannelTradeSink creates a sink backed by a channel of the given
// capacity. Drain Trades() to consume.
func NewChannelTradeSink(capacity int) *ChannelTradeSink {
	return &ChannelTradeSink{ch: make(chan order.Trade, capacity)}
}

func (s *ChannelTradeSink) Submit(t order.Trade) {
	select {
	case s.ch <- t:
	default:
		s.dropped.Add(1)
		log.Warn().Str("tradeId", t.ID).Msg("trade sink full, dropping")
	}
}

// Trades exposes the underlying channel for a consumer to range over.
func (s *ChannelTradeSink) Trades() <-chan order.Trade {
	return s.ch
}

// Dropped returns the number of trades dropped due to backpressure.
func (s *ChannelTradeSink) Dropped() uint64 {
	return s.dropped.Load()
}
