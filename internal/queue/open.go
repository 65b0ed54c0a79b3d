package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"reelgen/internal/infra"
	"reelgen/internal/metrics"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendNATS     = "nats"
	BackendPostgres = "postgres"

	natsDurable = "reelgen-worker"
)

// Open builds the configured backend. consume selects whether the returned
// queue can Claim (workers) or only Dispatch (API).
func Open(ctx context.Context, cfg *infra.Config, sql infra.SQLExecutor, consume bool, logger zerolog.Logger) (Queue, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.QueueBackend))
	var (
		q   Queue
		err error
	)
	switch backend {
	case BackendMemory:
		q = NewMemoryQueue(0)
	case BackendRedis:
		rdb, derr := DialRedis(ctx, cfg.RedisURL)
		if derr != nil {
			return nil, fmt.Errorf("redis: %w", derr)
		}
		q = NewRedisQueue(rdb, cfg.RedisQueueKey)
	case BackendNATS:
		opts := NATSOptions{URL: cfg.NATSURL, Stream: cfg.NATSStream, Subject: cfg.NATSSubject}
		if consume {
			opts.Durable = natsDurable
		}
		q, err = DialNATS(opts)
	case BackendPostgres, "":
		backend = BackendPostgres
		if consume {
			q, err = ListenPostgres(sql, cfg.DatabaseURL, cfg.NotifyChannel, logger)
		} else {
			q = NewPostgresDispatcher(sql, cfg.NotifyChannel)
		}
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
	if err != nil {
		return nil, err
	}
	logger.Info().Str("backend", backend).Bool("consume", consume).Msg("queue: opened")
	return &instrumented{Queue: q, backend: backend}, nil
}

// instrumented counts failed dispatches per backend.
type instrumented struct {
	Queue
	backend string
}

func (i *instrumented) Dispatch(ctx context.Context, jobID string) error {
	if err := i.Queue.Dispatch(ctx, jobID); err != nil {
		metrics.DispatchFailed(i.backend)
		return err
	}
	return nil
}

// AsReaper exposes the backend's reaper when it has one.
func AsReaper(q Queue) (Reaper, bool) {
	if i, ok := q.(*instrumented); ok {
		q = i.Queue
	}
	r, ok := q.(Reaper)
	return r, ok
}
