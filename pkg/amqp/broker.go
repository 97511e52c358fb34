// Package amqp wraps github.com/rabbitmq/amqp091-go with the topology and
// publish/ack conventions spec.md §6 and §4.H describe: a topic exchange
// for ingestion routing, a direct dead-letter exchange with one DLQ per
// queue, a topic exchange for status events, and channel-liveness checks
// before every publish or ack (long LLM/TTS calls can outlast broker
// heartbeats).
package amqp

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeFileProcessing routes ingestion messages to per-ingestor-type
	// queues by routing key (e.g. "text.v1", "reingest.v1").
	ExchangeFileProcessing = "file-processing-exchange"

	// ExchangeDLX is the direct dead-letter exchange every durable queue in
	// this system is declared with; routing key equals the source queue
	// name, landing in "<queue>.dlq".
	ExchangeDLX = "fylr-dlx"

	// ExchangeEvents carries only status publications: job.<jobKey>.status,
	// summary.<id>.status, podcast.<id>.status.
	ExchangeEvents = "fylr-events"

	QueueSummaryGenerator = "summary-generator"
	QueuePodcastGenerator = "podcast-generator"
)

// Broker owns one AMQP connection and exposes channels for publishing and
// consuming. A dying worker's channel closing before ack causes the broker
// to requeue; otherwise the message is considered dispatched (spec.md §5).
type Broker struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection

	heartbeat          time.Duration
	blockedConnTimeout time.Duration

	log *slog.Logger
}

// Config carries the dial parameters a Broker needs.
type Config struct {
	URL                string
	Heartbeat          time.Duration
	BlockedConnTimeout time.Duration
}

// Dial opens the AMQP connection. Callers should treat a Dial failure as a
// Configuration error (fatal, exit 1 per spec.md §7).
func Dial(cfg Config) (*Broker, error) {
	heartbeat := cfg.Heartbeat
	if heartbeat == 0 {
		heartbeat = 600 * time.Second
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat: heartbeat,
	})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	return &Broker{
		url:                cfg.URL,
		conn:               conn,
		heartbeat:          heartbeat,
		blockedConnTimeout:  cfg.BlockedConnTimeout,
		log:                slog.Default(),
	}, nil
}

// Close shuts down the underlying connection.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}

// Channel opens a new AMQP channel on the shared connection.
func (b *Broker) Channel() (*amqp.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil || b.conn.IsClosed() {
		return nil, fmt.Errorf("amqp connection is closed")
	}
	return b.conn.Channel()
}

// DeclareTopology declares every exchange/queue the core depends on:
// file-processing-exchange (topic), fylr-dlx (direct) with one DLQ per
// named queue, and fylr-events (topic). It is idempotent and safe to call
// from every worker at startup.
func DeclareTopology(ch *amqp.Channel, dlqQueues []string) error {
	if err := ch.ExchangeDeclare(ExchangeFileProcessing, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", ExchangeFileProcessing, err)
	}
	if err := ch.ExchangeDeclare(ExchangeDLX, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", ExchangeDLX, err)
	}
	if err := ch.ExchangeDeclare(ExchangeEvents, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", ExchangeEvents, err)
	}

	for _, q := range dlqQueues {
		dlq := q + ".dlq"
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare dlq %s: %w", dlq, err)
		}
		if err := ch.QueueBind(dlq, q, ExchangeDLX, false, nil); err != nil {
			return fmt.Errorf("bind dlq %s: %w", dlq, err)
		}
	}

	return nil
}

// DeclareWorkQueue declares a durable queue bound to exchange with
// routingKeys, configured with a dead-letter exchange pointing at fylr-dlx
// and routing key equal to the queue's own name (spec.md §6).
func DeclareWorkQueue(ch *amqp.Channel, exchange, queue string, routingKeys []string) error {
	args := amqp.Table{
		"x-dead-letter-exchange":    ExchangeDLX,
		"x-dead-letter-routing-key": queue,
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	for _, rk := range routingKeys {
		if err := ch.QueueBind(queue, rk, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", queue, rk, err)
		}
	}

	return nil
}
