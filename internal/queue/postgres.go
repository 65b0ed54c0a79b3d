package queue

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"reelgen/internal/infra"
	"reelgen/internal/sqlinline"
)

// PostgresQueue dispatches with pg_notify and consumes with LISTEN. Notifications
// are not durable: anything missed while no worker listens stays PENDING and
// is picked up by the stale-pending sweep.
type PostgresQueue struct {
	sql      infra.SQLExecutor
	channel  string
	listener *pq.Listener
}

// NewPostgresDispatcher returns a publish-only queue.
func NewPostgresDispatcher(sql infra.SQLExecutor, channel string) *PostgresQueue {
	return &PostgresQueue{sql: sql, channel: channel}
}

// ListenPostgres opens a dedicated lib/pq connection listening on channel.
func ListenPostgres(sql infra.SQLExecutor, dsn, channel string, logger zerolog.Logger) (*PostgresQueue, error) {
	listener := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			logger.Warn().Err(err).Msg("queue: postgres listener disconnected")
		case pq.ListenerEventReconnected:
			logger.Info().Msg("queue: postgres listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Error().Err(err).Msg("queue: postgres listener connect failed")
		}
	})
	if err := listener.Listen(channel); err != nil {
		_ = listener.Close()
		return nil, err
	}
	return &PostgresQueue{sql: sql, channel: channel, listener: listener}, nil
}

func (q *PostgresQueue) Dispatch(ctx context.Context, jobID string) error {
	_, err := q.sql.Exec(ctx, sqlinline.QNotifyVideoJob, q.channel, jobID)
	return err
}

func (q *PostgresQueue) Claim(ctx context.Context, wait time.Duration) (Delivery, error) {
	if q.listener == nil {
		return nil, errClosed
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case n, ok := <-q.listener.Notify:
		if !ok {
			return nil, errClosed
		}
		// nil after a reconnect; missed notifications are left to the sweep.
		if n == nil || n.Extra == "" {
			return nil, ErrEmpty
		}
		return &postgresDelivery{q: q, id: n.Extra}, nil
	case <-timer.C:
		go func() { _ = q.listener.Ping() }()
		return nil, ErrEmpty
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *PostgresQueue) Close() error {
	if q.listener == nil {
		return nil
	}
	return q.listener.Close()
}

type postgresDelivery struct {
	q  *PostgresQueue
	id string
}

func (d *postgresDelivery) JobID() string { return d.id }

func (d *postgresDelivery) Ack(ctx context.Context) error { return nil }

func (d *postgresDelivery) Nak(ctx context.Context) error { return d.q.Dispatch(ctx, d.id) }
