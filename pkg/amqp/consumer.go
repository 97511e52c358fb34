package amqp

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery body and returns an error to trigger a
// negative-ack without requeue (the poison-message policy every generator
// and ingestion worker in this system follows — spec.md §7).
type Handler func(ctx context.Context, body []byte) error

// Consume opens prefetch=1 consumption on queue and calls handle for every
// delivery, acking on success and nacking (without requeue) on error. QoS
// prefetch of 1 per consumer ensures one worker does not starve others on
// a long-running document or generation job (spec.md §5).
func Consume(ctx context.Context, ch *amqp.Channel, queue string, handle Handler) error {
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", queue)
			}

			err := handle(ctx, d.Body)

			if ch.IsClosed() {
				slog.Warn("amqp channel closed mid-callback, skipping ack", "queue", queue)
				continue
			}
			if err != nil {
				_ = d.Nack(false, false)
			} else {
				_ = d.Ack(false)
			}
		}
	}
}
