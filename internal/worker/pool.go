// Package worker runs the queue consumer loop that feeds claimed job ids to a
// fixed number of pipeline workers.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/queue"
)

// Processor runs one job to completion. A non-nil error means the job could
// not even be claimed and the delivery should be retried.
type Processor interface {
	Process(ctx context.Context, jobID string) error
}

type Pool struct {
	consumer  queue.Consumer
	processor Processor
	workers   int
	claimWait time.Duration
	logger    zerolog.Logger
}

func NewPool(consumer queue.Consumer, processor Processor, workers int, claimWait time.Duration, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if claimWait <= 0 {
		claimWait = 5 * time.Second
	}
	return &Pool{
		consumer:  consumer,
		processor: processor,
		workers:   workers,
		claimWait: claimWait,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled, then waits for in-flight jobs to finish.
func (p *Pool) Run(ctx context.Context) {
	p.logger.Info().Int("workers", p.workers).Msg("worker: pool started")

	jobCh := make(chan queue.Delivery)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for d := range jobCh {
				p.handle(ctx, n, d)
			}
		}(i + 1)
	}

	p.listen(ctx, jobCh)
	close(jobCh)
	wg.Wait()
	p.logger.Info().Msg("worker: pool stopped")
}

// listen claims deliveries one at a time and hands them to an idle worker.
func (p *Pool) listen(ctx context.Context, jobCh chan<- queue.Delivery) {
	for {
		if ctx.Err() != nil {
			return
		}
		d, err := p.consumer.Claim(ctx, p.claimWait)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) || ctx.Err() != nil {
				continue
			}
			p.logger.Error().Err(err).Msg("worker: claim failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		select {
		case jobCh <- d:
		case <-ctx.Done():
			if err := d.Nak(context.WithoutCancel(ctx)); err != nil {
				p.logger.Warn().Err(err).Str("job_id", d.JobID()).Msg("worker: nak on shutdown failed")
			}
			return
		}
	}
}

func (p *Pool) handle(ctx context.Context, n int, d queue.Delivery) {
	log := p.logger.With().Int("worker", n).Str("job_id", d.JobID()).Logger()
	ackCtx := context.WithoutCancel(ctx)
	if err := p.processor.Process(ctx, d.JobID()); err != nil {
		log.Error().Err(err).Msg("worker: process failed, returning delivery")
		if nakErr := d.Nak(ackCtx); nakErr != nil {
			log.Error().Err(nakErr).Msg("worker: nak failed")
		}
		return
	}
	// The job is terminal or owned by someone else either way.
	if err := d.Ack(ackCtx); err != nil {
		log.Error().Err(err).Msg("worker: ack failed")
	}
}
