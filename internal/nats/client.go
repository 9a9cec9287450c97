// Package nats wraps a NATS connection with JetStream for pipeline events.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/blockedby/hiring-pipeline/internal/logger"
)

// Stream and subjects carrying pipeline events.
const (
	StreamPipeline = "PIPELINE"

	SubjectStatusChanged      = "pipeline.application.status_changed"
	SubjectInterviewScheduled = "pipeline.interview.scheduled"
	SubjectInterviewCancelled = "pipeline.interview.cancelled"
	SubjectAll                = "pipeline.>"
)

// streamMaxAge bounds how long events are retained.
const streamMaxAge = 7 * 24 * time.Hour

// Client wraps a nats connection and jetstream context.
type Client struct {
	Conn *nats.Conn
	js   jetstream.JetStream
	log  *logger.Logger
}

// New connects to natsURL with reconnect logging.
func New(_ context.Context, natsURL string, log *logger.Logger) (*Client, error) {
	log = logger.OrGlobal(log).Component("nats")

	conn, err := nats.Connect(natsURL,
		nats.Name("hiring-pipeline"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Client{Conn: conn, js: js, log: log}, nil
}

// EnsurePipelineStream creates or updates the PIPELINE stream.
func (c *Client) EnsurePipelineStream(ctx context.Context) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamPipeline,
		Subjects: []string{SubjectAll},
		MaxAge:   streamMaxAge,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", StreamPipeline, err)
	}
	return nil
}

// Publish marshals data and publishes it to subject. A non-empty msgID
// lets the stream drop duplicates.
func (c *Client) Publish(ctx context.Context, subject, msgID string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var opts []jetstream.PublishOpt
	if msgID != "" {
		opts = append(opts, jetstream.WithMsgID(msgID))
	}
	if _, err := c.js.Publish(ctx, subject, payload, opts...); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe consumes subject through a durable consumer. A handler error
// naks the message for redelivery.
func (c *Client) Subscribe(ctx context.Context, consumer, subject string, handler func(subject string, data []byte) error) (jetstream.ConsumeContext, error) {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, StreamPipeline, jetstream.ConsumerConfig{
		Durable:       consumer,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		if err := handler(msg.Subject(), msg.Data()); err != nil {
			c.log.Warn().Err(err).Str("subject", msg.Subject()).Msg("handler failed, redelivering")
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", subject, err)
	}
	return cc, nil
}

// Close drains and closes the connection.
func (c *Client) Close() {
	if err := c.Conn.Drain(); err != nil {
		c.Conn.Close()
	}
}

// IsConnected returns true if connected to nats.
func (c *Client) IsConnected() bool {
	return c.Conn.IsConnected()
}
