// Command podcast-generator runs the AMQP consumer that turns a Podcast
// job into a stitched, multi-speaker audio episode: cluster the library,
// summarize each cluster, script a two-host dialogue, synthesize and
// stitch narration, and upload the result (spec.md §4.J).
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
	"github.com/fylr-platform/core/pkg/generator/podcast"
	"github.com/fylr-platform/core/pkg/gatewayclient"
	"github.com/fylr-platform/core/pkg/logger"
	"github.com/fylr-platform/core/pkg/s3store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "podcast-generator:", err)
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
	cfg.Podcast.SetDefaults()
	if err := cfg.Podcast.Validate(); err != nil {
		return fmt.Errorf("podcast config: %w", err)
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
	podcasts := s3store.New(s3Client, cfg.S3.PodcastsBucket)

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

	if err := fylramqp.DeclareTopology(ch, []string{fylramqp.QueuePodcastGenerator}); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}
	// podcast-generator is fed directly via the default exchange (routing
	// key == queue name), not bound to any topic exchange (spec.md §6).
	if err := fylramqp.DeclareWorkQueue(ch, "", fylramqp.QueuePodcastGenerator, nil); err != nil {
		return fmt.Errorf("declare work queue: %w", err)
	}

	worker := &podcast.Worker{
		Podcasts: db.NewPodcastRepo(conn),
		Corpus:   db.NewVectorRepo(conn),
		Gateway:  gatewayclient.New(cfg.AIGatewayURL),
		Uploads:  podcasts,
		Voices: podcast.VoiceConfig{
			HostAVoice:   cfg.Podcast.HostAVoice,
			HostBVoice:   cfg.Podcast.HostBVoice,
			TTSProvider:  cfg.Podcast.TTSProvider,
			TTSModel:     cfg.Podcast.TTSModel,
			PacingDelay:  cfg.Podcast.PacingDelay,
			SilenceDB:    cfg.Podcast.SilenceDB,
			GapMillis:    cfg.Podcast.GapMillis,
			ClusterLimit: cfg.Podcast.ClusterLimit,
		},
	}

	log.Info("podcast-generator: consuming", "queue", fylramqp.QueuePodcastGenerator)
	if err := fylramqp.Consume(ctx, ch, fylramqp.QueuePodcastGenerator, worker.Handler(ch)); err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume: %w", err)
	}

	log.Info("podcast-generator: shut down cleanly")
	return nil
}
