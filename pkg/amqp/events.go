package amqp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusEvent is the body every jobStatusUpdate publication carries
// (spec.md §6). Extra stems from stage-specific fields (audioKey, chunk
// counts, etc.) and is merged flat into "payload" on marshal.
type StatusEvent struct {
	Stage   string
	Message string
	Error   bool
	Extra   map[string]any
}

func (e StatusEvent) marshal() ([]byte, error) {
	payload := map[string]any{
		"stage":   e.Stage,
		"message": e.Message,
	}
	if e.Error {
		payload["error"] = true
	}
	for k, v := range e.Extra {
		payload[k] = v
	}

	return json.Marshal(map[string]any{
		"eventName": "jobStatusUpdate",
		"payload":   payload,
	})
}

// PublishStatus publishes a StatusEvent to fylr-events with the given
// routing key, after checking the channel is still open. Per spec.md §9,
// publication is best-effort: a short timeout, failures logged but never
// re-raised, so a slow or dead broker never blocks ack of an otherwise
// successful message.
func PublishStatus(ch *amqp.Channel, routingKey string, event StatusEvent) {
	if ch == nil || ch.IsClosed() {
		slog.Warn("amqp channel closed, skipping status publish", "routing_key", routingKey)
		return
	}

	body, err := event.marshal()
	if err != nil {
		slog.Error("marshal status event", "error", err)
		return
	}

	publishCtx := make(chan error, 1)
	go func() {
		publishCtx <- ch.Publish(ExchangeEvents, routingKey, false, false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		})
	}()

	select {
	case err := <-publishCtx:
		if err != nil {
			slog.Error("publish status event", "routing_key", routingKey, "error", err)
		}
	case <-time.After(5 * time.Second):
		slog.Error("publish status event timed out", "routing_key", routingKey)
	}
}

// JobRoutingKey builds the routing key for an ingestion job status event.
func JobRoutingKey(jobKey string) string { return fmt.Sprintf("job.%s.status", jobKey) }

// SummaryRoutingKey builds the routing key for a summary generation status event.
func SummaryRoutingKey(id string) string { return fmt.Sprintf("summary.%s.status", id) }

// PodcastRoutingKey builds the routing key for a podcast generation status event.
func PodcastRoutingKey(id string) string { return fmt.Sprintf("podcast.%s.status", id) }
