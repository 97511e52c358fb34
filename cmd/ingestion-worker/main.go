// Command ingestion-worker runs the AMQP consumer that fetches uploaded
// documents, extracts and chunks their text, embeds the chunks via the
// AI Gateway, and persists the result (spec.md §4.F). One process per
// ingestor type/queue, matching original_source's per-language ingestor
// services (text-python-1, etc.) and spec.md §6's INGESTOR_QUEUE_NAME /
// INGESTOR_ROUTING_KEYS environment contract.
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
	"github.com/fylr-platform/core/pkg/extract"
	"github.com/fylr-platform/core/pkg/gatewayclient"
	"github.com/fylr-platform/core/pkg/ingest"
	"github.com/fylr-platform/core/pkg/logger"
	"github.com/fylr-platform/core/pkg/s3store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ingestion-worker:", err)
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
	if err := cfg.Ingestor.Validate(); err != nil {
		return fmt.Errorf("ingestor config: %w", err)
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

	s3Client, err := s3store.NewClient(ctx, s3store.Config{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		PathStyle:       cfg.S3.PathStyle,
	})
	if err != nil {
		return fmt.Errorf("build s3 client: %w", err)
	}
	uploads := s3store.New(s3Client, cfg.S3.UploadsBucket)

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

	if err := fylramqp.DeclareTopology(ch, []string{cfg.Ingestor.QueueName}); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}
	if err := fylramqp.DeclareWorkQueue(ch, fylramqp.ExchangeFileProcessing, cfg.Ingestor.QueueName, cfg.Ingestor.RoutingKeys); err != nil {
		return fmt.Errorf("declare work queue: %w", err)
	}

	worker := &ingest.Worker{
		Uploads:         uploads,
		Extractor:       extract.NewManager(),
		Gateway:         gatewayclient.New(cfg.AIGatewayURL),
		Sources:         db.NewSourceRepo(conn),
		Vectors:         db.NewVectorRepo(conn),
		IngestorType:    cfg.Ingestor.Type,
		IngestorVersion: cfg.Ingestor.Version,
	}

	log.Info("ingestion-worker: consuming", "queue", cfg.Ingestor.QueueName, "routing_keys", cfg.Ingestor.RoutingKeys)
	if err := fylramqp.Consume(ctx, ch, cfg.Ingestor.QueueName, worker.HandlePrimary(ch)); err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume: %w", err)
	}

	log.Info("ingestion-worker: shut down cleanly")
	return nil
}
