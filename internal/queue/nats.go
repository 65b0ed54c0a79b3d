package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const natsAckWait = 15 * time.Minute

// NATSQueue publishes job ids to a JetStream subject and consumes them with a
// durable pull subscription. The job id doubles as the message id, so
// JetStream drops duplicate dispatches inside its dedupe window.
type NATSQueue struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	sub     *nats.Subscription
}

type NATSOptions struct {
	URL     string
	Stream  string
	Subject string
	Durable string
}

// DialNATS connects and makes sure the stream exists. Durable may be empty
// for publish-only use.
func DialNATS(opts NATSOptions) (*NATSQueue, error) {
	nc, err := nats.Connect(opts.URL, nats.Name("reelgen"))
	if err != nil {
		return nil, fmt.Errorf("error connecting to NATS: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("error getting JetStream context: %w", err)
	}
	if _, err := js.StreamInfo(opts.Stream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			nc.Close()
			return nil, fmt.Errorf("stream info: %w", err)
		}
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:      opts.Stream,
			Subjects:  []string{opts.Subject},
			Retention: nats.WorkQueuePolicy,
		}); err != nil {
			nc.Close()
			return nil, fmt.Errorf("add stream: %w", err)
		}
	}
	q := &NATSQueue{nc: nc, js: js, subject: opts.Subject}
	if opts.Durable != "" {
		sub, err := js.PullSubscribe(opts.Subject, opts.Durable, nats.ManualAck(), nats.AckWait(natsAckWait))
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("error subscribing to NATS: %w", err)
		}
		q.sub = sub
	}
	return q, nil
}

func (q *NATSQueue) Dispatch(ctx context.Context, jobID string) error {
	_, err := q.js.Publish(q.subject, []byte(jobID), nats.MsgId(jobID), nats.Context(ctx))
	return err
}

func (q *NATSQueue) Claim(ctx context.Context, wait time.Duration) (Delivery, error) {
	if q.sub == nil {
		return nil, errors.New("queue: nats queue opened without a durable consumer")
	}
	fctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	msgs, err := q.sub.Fetch(1, nats.Context(fctx))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrEmpty
		}
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, ErrEmpty
	}
	return &natsDelivery{msg: msgs[0]}, nil
}

func (q *NATSQueue) Close() error {
	if q.sub != nil {
		_ = q.sub.Drain()
	}
	q.nc.Close()
	return nil
}

type natsDelivery struct {
	msg *nats.Msg
}

func (d *natsDelivery) JobID() string { return string(d.msg.Data) }

func (d *natsDelivery) Ack(ctx context.Context) error {
	return d.msg.Ack(nats.Context(ctx))
}

func (d *natsDelivery) Nak(ctx context.Context) error {
	return d.msg.Nak(nats.Context(ctx))
}
