package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a reliable list queue.
// Dispatch: LPUSH queue
// Claim:    BRPOPLPUSH queue -> processing
// Ack:      LREM processing
type RedisQueue struct {
	rdb           *redis.Client
	queueKey      string
	processingKey string
}

func NewRedisQueue(rdb *redis.Client, queueKey string) *RedisQueue {
	return &RedisQueue{
		rdb:           rdb,
		queueKey:      queueKey,
		processingKey: queueKey + ":processing",
	}
}

// DialRedis parses a redis:// URL and checks the connection.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (q *RedisQueue) Dispatch(ctx context.Context, jobID string) error {
	return q.rdb.LPush(ctx, q.queueKey, jobID).Err()
}

func (q *RedisQueue) Claim(ctx context.Context, wait time.Duration) (Delivery, error) {
	id, err := q.rdb.BRPopLPush(ctx, q.queueKey, q.processingKey, wait).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	return &redisDelivery{q: q, id: id}, nil
}

// RequeueStale moves up to limit in-flight ids back to the queue, whatever
// their age. Run it on an interval longer than a job can take. A requeued id
// whose job is still running is skipped by the claim. It only recovers ids
// whose job was never claimed in the store: a job whose worker died
// mid-stage stays in SCRIPTING or RENDERING, since only PENDING jobs can be
// claimed.
func (q *RedisQueue) RequeueStale(ctx context.Context, limit int64) (int64, error) {
	var moved int64
	for i := int64(0); i < limit; i++ {
		id, err := q.rdb.RPopLPush(ctx, q.processingKey, q.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return moved, err
		}
		if id != "" {
			moved++
		}
	}
	return moved, nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}

type redisDelivery struct {
	q  *RedisQueue
	id string
}

func (d *redisDelivery) JobID() string { return d.id }

func (d *redisDelivery) Ack(ctx context.Context) error {
	return d.q.rdb.LRem(ctx, d.q.processingKey, 1, d.id).Err()
}

func (d *redisDelivery) Nak(ctx context.Context) error {
	_, err := d.q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, d.q.processingKey, 1, d.id)
		pipe.RPush(ctx, d.q.queueKey, d.id)
		return nil
	})
	return err
}
