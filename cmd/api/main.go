package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"reelgen/internal/adapter/repo"
	"reelgen/internal/admission"
	"reelgen/internal/bootstrap"
	"reelgen/internal/http/handlers"
	httpapi "reelgen/internal/http/httpapi"
	"reelgen/internal/infra"
	"reelgen/internal/infra/geoip"
	"reelgen/internal/queue"
	"reelgen/internal/storage"
	"reelgen/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	runner := infra.NewSQLRunner(dbpool, logger)

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	// The memory backend only reaches consumers in this process, so the API
	// runs the worker runtime itself.
	embedded := cfg.QueueBackend == queue.BackendMemory
	q, err := queue.Open(ctx, cfg, runner, embedded, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open queue")
	}
	defer q.Close()

	ledger := repo.NewLedgerRepository(runner)
	jobs := repo.NewJobRepository(runner)
	controller := admission.NewController(
		repo.NewAdmissionStore(runner),
		ledger,
		q,
		admission.Options{AutoProvision: cfg.AutoProvisionUsers, NewUserCredits: cfg.NewUserCredits},
		logger,
	)

	var wg sync.WaitGroup
	if embedded {
		p, err := bootstrap.NewPipeline(ctx, cfg, runner, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build pipeline")
		}
		rt := worker.NewRuntime(q, p.Orchestrator, p.Jobs, cfg.Pipeline, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt.Run(ctx)
		}()
		logger.Warn().Msg("memory queue: running embedded worker")
	}

	app := &handlers.App{
		Admission: controller,
		Jobs:      jobs,
		Ledger:    ledger,
		DB:        dbpool,
		Logger:    logger,
	}
	opts := httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		JWTIssuer:       cfg.JWTIssuer,
		DefaultLocale:   cfg.DefaultLocale,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   resolver.Lookup(),
		Logger:          logger,
	}
	if cfg.StorageBackend == storage.BackendFilesystem {
		opts.StaticDir = cfg.StoragePath
	}
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, opts))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	wg.Wait()
	logger.Info().Msg("server stopped")
}
