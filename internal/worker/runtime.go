package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/infra"
	"reelgen/internal/pipeline"
	"reelgen/internal/queue"
)

// Runtime is everything a worker process runs: the consumer pool, the
// stale-Pending sweeper and, for backends that need it, the delivery reaper.
type Runtime struct {
	Pool      *Pool
	Sweeper   *pipeline.Sweeper
	Reaper    queue.Reaper
	ReapEvery time.Duration
	logger    zerolog.Logger
}

// NewRuntime wires the pool and background loops around q.
func NewRuntime(q queue.Queue, processor Processor, jobs pipeline.PendingLister, cfg infra.PipelineConfig, logger zerolog.Logger) *Runtime {
	rt := &Runtime{
		Pool:      NewPool(q, processor, cfg.Workers, cfg.ClaimWait, logger),
		Sweeper:   pipeline.NewSweeper(jobs, q, cfg.SweepInterval, cfg.StaleAfter, cfg.SweepBatch, logger),
		ReapEvery: cfg.ReaperInterval,
		logger:    logger,
	}
	if reaper, ok := queue.AsReaper(q); ok && cfg.ReaperInterval > 0 {
		rt.Reaper = reaper
	}
	return rt
}

// Run blocks until ctx is cancelled and every loop has returned.
func (rt *Runtime) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rt.Pool.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		rt.Sweeper.Run(ctx)
	}()
	if rt.Reaper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RunReaper(ctx, rt.Reaper, rt.ReapEvery, rt.logger)
		}()
	}
	wg.Wait()
	rt.logger.Info().Msg("worker: runtime stopped")
}
