package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Client wraps a NATS connection with JetStream enabled. It satisfies both
// Publisher and Consumer and owns stream provisioning for the enrichment
// subjects.
type Client struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// Connect dials the NATS server at url and opens a JetStream context.
func Connect(url string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("queue: connect %s: %w", url, err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("queue: jetstream: %w", err)
	}
	return &Client{nc: nc, js: js}, nil
}

// Close drains in-flight messages and closes the connection.
func (c *Client) Close() {
	if c.nc == nil {
		return
	}
	_ = c.nc.Drain()
}

// EnsureStreams creates one file-backed stream per enrichment kind. The
// stream for a kind carries its job subject and, for request/response
// kinds, the response subject too, so replies survive a server restart
// just like jobs do. Existing streams are left untouched.
func (c *Client) EnsureStreams() error {
	for _, k := range Kinds() {
		subjects := []string{k.Subject()}
		if k.HasResponse() {
			subjects = append(subjects, k.ResponseSubject())
		}
		_, err := c.js.AddStream(&nats.StreamConfig{
			Name:      k.Stream(),
			Subjects:  subjects,
			Storage:   nats.FileStorage,
			Retention: nats.WorkQueuePolicy,
		})
		if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return fmt.Errorf("queue: add stream %s: %w", k.Stream(), err)
		}
	}
	return nil
}

// Publish persists body on subject. The message is durably stored before
// Publish returns.
func (c *Client) Publish(ctx context.Context, subject string, body []byte) error {
	_, err := c.js.Publish(subject, body, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("queue: publish %s: %w", subject, err)
	}
	return nil
}

// Consume subscribes to subject with an explicit-ack durable consumer and
// feeds each message to h. At most one message is in flight at a time, so a
// crash mid-job loses nothing: the unacked message is redelivered. Consume
// blocks until ctx is cancelled, then drains the subscription.
func (c *Client) Consume(ctx context.Context, subject, durable string, h Handler) error {
	sub, err := c.js.Subscribe(subject, func(msg *nats.Msg) {
		switch h(ctx, msg.Data) {
		case Ack:
			if err := msg.Ack(); err != nil {
				log.Warn().Err(err).Str("subject", subject).Msg("queue: ack failed")
			}
		case Drop:
			if err := msg.Term(); err != nil {
				log.Warn().Err(err).Str("subject", subject).Msg("queue: term failed")
			}
		case Retry:
			if err := msg.Nak(); err != nil {
				log.Warn().Err(err).Str("subject", subject).Msg("queue: nak failed")
			}
		}
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxAckPending(1),
	)
	if err != nil {
		return fmt.Errorf("queue: subscribe %s: %w", subject, err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("queue: drain failed")
	}
	return nil
}
