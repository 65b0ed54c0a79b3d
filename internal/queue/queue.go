// Package queue carries job ids from admission to the worker pool. Every
// backend is at-least-once: the pipeline's claim step makes duplicate
// deliveries harmless.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrEmpty is returned by Claim when nothing arrived within the wait.
var ErrEmpty = errors.New("queue: no job available")

type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// Delivery is one claimed job id. Ack removes it for good; Nak makes it
// available again.
type Delivery interface {
	JobID() string
	Ack(ctx context.Context) error
	Nak(ctx context.Context) error
}

type Consumer interface {
	Claim(ctx context.Context, wait time.Duration) (Delivery, error)
}

type Queue interface {
	Dispatcher
	Consumer
	Close() error
}

// Reaper is implemented by backends that can lose track of in-flight
// deliveries when a worker dies.
type Reaper interface {
	RequeueStale(ctx context.Context, limit int64) (int64, error)
}
