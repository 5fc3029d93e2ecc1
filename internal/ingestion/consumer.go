// Package ingestion consumes block-event batches from RabbitMQ and hands
// them to the processor one at a time. Prefetch is pinned to one so a batch
// is only in flight once its predecessor is acknowledged.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"NFTProjector/internal/event"
	"NFTProjector/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// BatchProcessor applies one envelope atomically. A nil return means the
// delivery may be acknowledged.
type BatchProcessor interface {
	Process(ctx context.Context, env *event.Envelope) error
}

type Consumer struct {
	url       string
	queue     string
	processor BatchProcessor
	log       zerolog.Logger
	metrics   *observability.Metrics
}

func NewConsumer(url, queue string, processor BatchProcessor, log zerolog.Logger, metrics *observability.Metrics) *Consumer {
	return &Consumer{
		url:       url,
		queue:     queue,
		processor: processor,
		log:       log,
		metrics:   metrics,
	}
}

// Run drives one connection lifetime: dial, declare, consume until the
// context ends, the broker closes the connection, or a batch fails. A batch
// failure closes the connection without acknowledging, so the broker
// redelivers the same message to the next connection.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	// Durable queue, no auto-delete: batches survive broker restarts.
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}

	// One unacked delivery at a time. Batch ordering depends on this.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	c.log.Info().Str("queue", c.queue).Msg("consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closed:
			if err != nil {
				return fmt.Errorf("connection closed: %w", err)
			}
			return nil

		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if c.metrics != nil {
				c.metrics.ConsumerDeliveries.Inc()
			}

			if err := c.handle(ctx, d); err != nil {
				c.log.Error().Err(err).Msg("batch failed, dropping connection for redelivery")
				return err
			}
			if err := d.Ack(false); err != nil {
				return fmt.Errorf("ack: %w", err)
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) error {
	var env event.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	return c.processor.Process(ctx, &env)
}
