package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poj1738/satellite-communication-simulator/catalog"
	"github.com/poj1738/satellite-communication-simulator/internal/api"
	"github.com/poj1738/satellite-communication-simulator/internal/logging"
	"github.com/poj1738/satellite-communication-simulator/internal/observability"
)

// Config carries the daemon's command line settings.
type Config struct {
	Addr          string
	MetricsAddr   string
	MaxRuns       int
	RunsPerMinute float64
	TrustProxy    bool
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.Addr, "addr", ":8080", "TCP address the HTTP API listens on")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Separate HTTP address for Prometheus /metrics (empty = same listener)")
	flag.IntVar(&cfg.MaxRuns, "max-runs", 4, "Maximum concurrent simulation runs")
	flag.Float64Var(&cfg.RunsPerMinute, "runs-per-minute", 30, "Per-client budget for starting runs")
	flag.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Trust X-Forwarded-For / X-Real-IP for client addresses")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	tracingCfg := observability.TracingConfigFromEnv()
	shutdownTracing, err := observability.InitTracing(ctx, tracingCfg, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(runCtx, cfg, log, nil); err != nil {
		log.Error(ctx, "daemon exited", logging.Err(err))
		os.Exit(1)
	}
}

// run wires the API server plus its dependencies and serves until ctx
// is cancelled. When lis is nil the server binds cfg.Addr itself.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	engineCol, err := observability.NewEngineCollector(nil)
	if err != nil {
		return err
	}
	catalogCol, err := observability.NewCatalogCollector(nil)
	if err != nil {
		return err
	}

	cat := catalog.New()
	cat.Subscribe(func(catalog.Event) {
		catalogCol.SetEntries(cat.Len())
	})

	srv := api.NewServer(ctx, api.Config{
		Addr:          cfg.Addr,
		MaxRuns:       cfg.MaxRuns,
		RunsPerMinute: cfg.RunsPerMinute,
		TrustProxy:    cfg.TrustProxy,
	}, cat, log,
		api.WithEngineCollector(engineCol),
		api.WithCatalogCollector(catalogCol),
	)

	metricsSrv := serveMetrics(cfg.MetricsAddr, engineCol, log)

	addr := cfg.Addr
	if lis != nil {
		addr = lis.Addr().String()
	}
	log.Info(ctx, "starting contact simulation API",
		logging.String("addr", addr),
		logging.Int("max_runs", cfg.MaxRuns),
	)

	errCh := make(chan error, 1)
	go func() {
		var serveErr error
		if lis != nil {
			serveErr = srv.HTTPServer().Serve(lis)
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "HTTP server shutdown", logging.Err(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return <-errCh
}

// serveMetrics exposes /metrics on its own listener when addr is set,
// for deployments that keep the scrape port off the public API.
func serveMetrics(addr string, collector *observability.EngineCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
