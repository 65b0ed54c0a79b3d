package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/queue"
)

const reapBatch = 100

// RunReaper periodically returns abandoned in-flight deliveries to the queue.
func RunReaper(ctx context.Context, reaper queue.Reaper, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			moved, err := reaper.RequeueStale(ctx, reapBatch)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error().Err(err).Msg("worker: requeue stale failed")
				}
				continue
			}
			if moved > 0 {
				logger.Info().Int64("moved", moved).Msg("worker: requeued stale deliveries")
			}
		}
	}
}
