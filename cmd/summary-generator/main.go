// Command summary-generator runs the AMQP consumer that turns a Summary
// job's episodes into written content via keyword-guided retrieval and
// LLM synthesis (spec.md §4.I).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	fylramqp "github.com/fylr-platform/core/pkg/amqp"
	fylrconfig "github.com/fylr-platform/core/pkg/config"
	"github.com/fylr-platform/core/pkg/db"
	"github.com/fylr-platform/core/pkg/generator/summary"
	"github.com/fylr-platform/core/pkg/gatewayclient"
	"github.com/fylr-platform/core/pkg/logger"
	"github.com/fylr-platform/core/pkg/vectorsearch"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "summary-generator:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := fylrconfig.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger.Init(level, os.Stderr, cfg.LogFormat)
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{
		DSN:      cfg.Database.DSN(),
		MaxConns: cfg.Database.MaxConns,
		MaxIdle:  cfg.Database.MaxIdle,
	})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer conn.Close()

	broker, err := fylramqp.Dial(fylramqp.Config{
		URL:                cfg.Broker.URL(),
		Heartbeat:          cfg.Broker.Heartbeat,
		BlockedConnTimeout: cfg.Broker.BlockedConnTimeout,
	})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer broker.Close()

	ch, err := broker.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	if err := fylramqp.DeclareTopology(ch, []string{fylramqp.QueueSummaryGenerator}); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}
	// summary-generator is fed directly via the default exchange (routing
	// key == queue name), not bound to any topic exchange (spec.md §6).
	if err := fylramqp.DeclareWorkQueue(ch, "", fylramqp.QueueSummaryGenerator, nil); err != nil {
		return fmt.Errorf("declare work queue: %w", err)
	}

	gateway := gatewayclient.New(cfg.AIGatewayURL)
	vectors := db.NewVectorRepo(conn)

	worker := &summary.Worker{
		Summaries: db.NewSummaryRepo(conn),
		Search:    vectorsearch.New(vectors, gateway),
		Gateway:   gateway,
	}

	log.Info("summary-generator: consuming", "queue", fylramqp.QueueSummaryGenerator)
	if err := fylramqp.Consume(ctx, ch, fylramqp.QueueSummaryGenerator, worker.Handler(ch)); err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume: %w", err)
	}

	log.Info("summary-generator: shut down cleanly")
	return nil
}
