package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/metrics"
)

// Dispatcher re-enqueues a job for the worker pool.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// PendingLister finds jobs that stayed PENDING longer than expected.
type PendingLister interface {
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]string, error)
}

// Sweeper recovers jobs whose dispatch was lost. Re-dispatching is safe
// because workers claim before doing any work.
type Sweeper struct {
	jobs       PendingLister
	dispatcher Dispatcher
	interval   time.Duration
	staleAfter time.Duration
	batch      int
	logger     zerolog.Logger
	now        func() time.Time
}

func NewSweeper(jobs PendingLister, dispatcher Dispatcher, interval, staleAfter time.Duration, batch int, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 50
	}
	return &Sweeper{
		jobs:       jobs,
		dispatcher: dispatcher,
		interval:   interval,
		staleAfter: staleAfter,
		batch:      batch,
		logger:     logger,
		now:        time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("sweeper: sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce re-dispatches up to one batch of stale jobs and returns how many
// were handed over.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ids, err := s.jobs.ListStalePending(ctx, s.now().Add(-s.staleAfter), s.batch)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, id := range ids {
		if err := s.dispatcher.Dispatch(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("job_id", id).Msg("sweeper: re-dispatch failed")
			continue
		}
		recovered++
	}
	if recovered > 0 {
		metrics.SweepRecovered(recovered)
		s.logger.Info().Int("recovered", recovered).Msg("sweeper: stale jobs re-dispatched")
	}
	return recovered, nil
}
