// Command matchengine runs the wire server in front of the matching
// engine core.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/vantara-markets/matchcore/internal/config"
	"github.com/vantara-markets/matchcore/internal/contracts"
	"github.com/vantara-markets/matchcore/internal/matching"
	"github.com/vantara-markets/matchcore/internal/metrics"
	"github.com/vantara-markets/matchcore/internal/wire"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg := config.Load()

	engine := matching.New(nil, nil)
	sink := contracts.LoggingTradeSink{}

	collector := metrics.NewCollector(engine, engine.Symbols)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	srv := wire.New(cfg.ListenAddress, cfg.ListenPort, engine, sink, cfg.WorkerPoolSize)

	go serveMetrics(cfg.MetricsAddress, registry)

	log.Info().
		Str("address", cfg.ListenAddress).
		Int("port", cfg.ListenPort).
		Msg("matchengine starting")

	go func() {
		if err := srv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("wire server exited with error")
		}
	}()

	<-ctx.Done()
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	log.Info().Str("address", addr).Msg("metrics server starting")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server exited")
	}
}
