package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"reelgen/internal/bootstrap"
	"reelgen/internal/infra"
	"reelgen/internal/metrics"
	"reelgen/internal/queue"
	"reelgen/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadWorkerConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("service", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	if cfg.QueueBackend == queue.BackendMemory {
		logger.Fatal().Msg("worker: QUEUE_BACKEND=memory only works inside the API process")
	}
	q, err := queue.Open(ctx, cfg, runner, true, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: open queue failed")
	}
	defer q.Close()

	p, err := bootstrap.NewPipeline(ctx, cfg, runner, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: build pipeline failed")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	metricsServer := infra.NewMetricsServer(cfg, mux)
	go func() {
		if addr := metricsServer.Addr(); addr != "" {
			logger.Info().Str("addr", addr).Msg("worker: metrics listening")
		}
		if err := metricsServer.Start(); err != nil {
			logger.Error().Err(err).Msg("worker: metrics server failed")
		}
	}()

	worker.NewRuntime(q, p.Orchestrator, p.Jobs, cfg.Pipeline, logger).Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logger.Info().Msg("worker: stopped")
}
