// Package generator implements the message lifecycle every generation
// worker (summary, podcast) shares: decode a JSON-encoded identifier
// string, validate it, delegate to a Create callback, ack on success or
// negative-ack on failure, and publish status events with a
// channel-liveness check before every publish. Grounded on
// original_source's generator/generators/base_generator.py
// BaseGenerator._process_message and _publish_status.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	fylramqp "github.com/fylr-platform/core/pkg/amqp"
)

// Create runs one generation job's entire pipeline for the decoded
// entity id. Returning an error negative-acks the delivery without
// requeue.
type Create func(ctx context.Context, ch *amqp.Channel, id string) error

// Handle builds an amqp.Handler that decodes body as a JSON-encoded
// identifier string, then calls create. A malformed body (not valid
// JSON, or not a string) is a poison message: logged and negative-acked
// without requeue, same as an invalid UUID in the original generator.
func Handle(ch *amqp.Channel, logLabel string, create Create) fylramqp.Handler {
	return func(ctx context.Context, body []byte) error {
		var id string
		if err := json.Unmarshal(body, &id); err != nil || id == "" {
			slog.Error("generator: invalid message body, expected JSON-encoded id string", "label", logLabel, "body", string(body), "error", err)
			return fmt.Errorf("generator: invalid message body for %s", logLabel)
		}

		slog.Info("generator: processing request", "label", logLabel, "id", id)
		if err := create(ctx, ch, id); err != nil {
			slog.Error("generator: processing failed", "label", logLabel, "id", id, "error", err)
			return err
		}
		slog.Info("generator: processing succeeded", "label", logLabel, "id", id)
		return nil
	}
}

// PublishStatus publishes one status payload to
// fylr-events/<entityType>.<id>.status, skipping (and logging) when the
// channel has already closed (spec.md §4.H: channel-open checks before
// every publish, since long LLM/TTS calls can outlast broker heartbeats).
func PublishStatus(ch *amqp.Channel, entityType, id string, payload map[string]any) {
	routingKey := fmt.Sprintf("%s.%s.status", entityType, id)
	if ch == nil || ch.IsClosed() {
		slog.Warn("generator: channel closed, skipping status publish", "routing_key", routingKey)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("generator: marshal status payload", "error", err)
		return
	}

	if err := ch.Publish(fylramqp.ExchangeEvents, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		slog.Error("generator: publish status", "routing_key", routingKey, "error", err)
	}
}
