package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errClosed = errors.New("queue: closed")

// MemoryQueue is an in-process queue for tests and single-binary development.
type MemoryQueue struct {
	ch     chan string
	once   sync.Once
	closed chan struct{}
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemoryQueue{ch: make(chan string, capacity), closed: make(chan struct{})}
}

func (q *MemoryQueue) Dispatch(ctx context.Context, jobID string) error {
	select {
	case <-q.closed:
		return errClosed
	default:
	}
	select {
	case q.ch <- jobID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closed:
		return errClosed
	}
}

func (q *MemoryQueue) Claim(ctx context.Context, wait time.Duration) (Delivery, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case id := <-q.ch:
		return &memoryDelivery{q: q, id: id}, nil
	case <-timer.C:
		return nil, ErrEmpty
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.closed:
		return nil, errClosed
	}
}

// Len reports how many ids are waiting.
func (q *MemoryQueue) Len() int { return len(q.ch) }

func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.closed) })
	return nil
}

type memoryDelivery struct {
	q  *MemoryQueue
	id string
}

func (d *memoryDelivery) JobID() string { return d.id }
func (d *memoryDelivery) Ack(ctx context.Context) error { return nil }
func (d *memoryDelivery) Nak(ctx context.Context) error { return d.q.Dispatch(ctx, d.id) }
