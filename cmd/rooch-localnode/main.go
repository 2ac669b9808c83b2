// rooch-localnode serves a deterministic Rooch JSON-RPC endpoint for
// local development and end-to-end tests.
//
// Usage:
//
//	rooch-localnode [--node-port=6767 --in-memory ...]   Run node
//	rooch-localnode --help                               Show help
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rooch-network/rooch-go/config"
	"github.com/rooch-network/rooch-go/internal/localnode"
	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rooch-network/rooch-go/internal/rpc"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "rooch-localnode",
		Usage:  "local Rooch JSON-RPC node",
		Flags:  config.NodeFlags(),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c)
	if err != nil {
		return err
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return err
	}
	logger := klog.WithComponent("localnode")

	n, err := localnode.Open(cfg.Node, cfg.NodeDir())
	if err != nil {
		return err
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		n.SetMetrics(rpc.NewServerMetrics(prometheus.DefaultRegisterer))
		metricsServer = serveMetrics(cfg.Metrics.Addr)
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("Prometheus metrics available")
	}

	if err := n.Start(); err != nil {
		n.Stop()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("Shutting down")

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to shut down metrics server")
		}
	}
	return n.Stop()
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Error().Err(err).Msg("Metrics server failure")
		}
	}()
	return srv
}
