// Package metrics exposes the matching engine's load as Prometheus
// metrics, scraped on demand rather than pushed from the hot path: the
// matching hot path must not do I/O.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vantara-markets/matchcore/internal/matching"
)

// Collector implements prometheus.Collector over a live *matching.Engine.
// Each Collect call takes EngineStats() and, for every symbol the caller
// asks it to watch, a depth-1 snapshot (top level of each side) to derive
// best bid/ask and spread — never more than a brief reader lock per book.
type Collector struct {
	engine  *matching.Engine
	symbols func() []string

	totalOrders   *prometheus.Desc
	activeSymbols *prometheus.Desc
	bestBid       *prometheus.Desc
	bestAsk       *prometheus.Desc
	spread        *prometheus.Desc
}

// NewCollector builds a collector over engine. symbols is called on every
// Collect to decide which books to report per-symbol gauges for; this lets
// the caller track a fixed watchlist without the collector depending on
// any particular RPC layer to discover symbols.
func NewCollector(engine *matching.Engine, symbols func() []string) *Collector {
	return &Collector{
		engine:  engine,
		symbols: symbols,
		totalOrders: prometheus.NewDesc(
			"matchcore_indexed_orders_total",
			"Number of orders currently indexed across all books.",
			nil, nil,
		),
		activeSymbols: prometheus.NewDesc(
			"matchcore_active_symbols",
			"Number of symbols with a live order book.",
			nil, nil,
		),
		bestBid: prometheus.NewDesc(
			"matchcore_best_bid",
			"Best (highest) resting bid price for a symbol.",
			[]string{"symbol"}, nil,
		),
		bestAsk: prometheus.NewDesc(
			"matchcore_best_ask",
			"Best (lowest) resting ask price for a symbol.",
			[]string{"symbol"}, nil,
		),
		spread: prometheus.NewDesc(
			"matchcore_spread",
			"Best ask minus best bid for a symbol.",
			[]string{"symbol"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalOrders
	ch <- c.activeSymbols
	ch <- c.bestBid
	ch <- c.bestAsk
	ch <- c.spread
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.engine.Stats()
	ch <- prometheus.MustNewConstMetric(c.totalOrders, prometheus.GaugeValue, float64(stats.TotalIndexedOrders))
	ch <- prometheus.MustNewConstMetric(c.activeSymbols, prometheus.GaugeValue, float64(stats.ActiveSymbols))

	if c.symbols == nil {
		return
	}
	for _, symbol := range c.symbols() {
		snap, ok := c.engine.GetOrderBook(symbol, 1)
		if !ok {
			continue
		}
		if len(snap.Bids) > 0 {
			bid, _ := snap.Bids[0].Price.Float64()
			ch <- prometheus.MustNewConstMetric(c.bestBid, prometheus.GaugeValue, bid, symbol)
		}
		if len(snap.Asks) > 0 {
			ask, _ := snap.Asks[0].Price.Float64()
			ch <- prometheus.MustNewConstMetric(c.bestAsk, prometheus.GaugeValue, ask, symbol)
		}
		if len(snap.Bids) > 0 && len(snap.Asks) > 0 {
			spread, _ := snap.Asks[0].Price.Sub(snap.Bids[0].Price).Float64()
			ch <- prometheus.MustNewConstMetric(c.spread, prometheus.GaugeValue, spread, symbol)
		}
	}
}
