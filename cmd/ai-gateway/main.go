// Command ai-gateway runs the AI Gateway HTTP service: the provider-
// abstracting proxy in front of chat, embeddings, rerank, and TTS,
// spec.md §4.D. Grounded on the teacher's cmd/hector/main.go +
// cmd/hector/serve.go startup shape (flag parsing, signal-driven
// shutdown, structured logging setup) adapted to this system's config
// loader instead of kong subcommands.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fylr-platform/core/pkg/embeddingmodels"
	"github.com/fylr-platform/core/pkg/gateway"
	"github.com/fylr-platform/core/pkg/logger"
	"github.com/fylr-platform/core/pkg/observability"
	"github.com/fylr-platform/core/pkg/prompt"
	"github.com/fylr-platform/core/pkg/provider"
	"github.com/fylr-platform/core/pkg/provider/elevenlabs"
	"github.com/fylr-platform/core/pkg/provider/jina"
	"github.com/fylr-platform/core/pkg/provider/openaicompat"
	"github.com/fylr-platform/core/pkg/provider/router"

	fylrconfig "github.com/fylr-platform/core/pkg/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ai-gateway:", err)
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
	appLog := logger.GetLogger()

	if cfg.LogFormat == "simple" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled:     cfg.OTEL.Enabled,
		EndpointURL: cfg.OTEL.ExporterEndpoint,
		ServiceName: cfg.OTEL.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer observability.Shutdown(context.Background(), tp)

	prompts, err := prompt.Load(cfg.Gateway.PromptDir)
	if err != nil {
		return fmt.Errorf("load prompt registry: %w", err)
	}

	embeddingModels, err := embeddingmodels.Load(cfg.Gateway.EmbeddingModelsFile)
	if err != nil {
		return fmt.Errorf("load embedding model registry: %w", err)
	}

	openaiDriver := openaicompat.New(cfg.Gateway.OpenAICompatBaseURL, cfg.Gateway.OpenAICompatAPIKey)
	jinaDriver := jina.New(cfg.Gateway.JinaAPIURL, cfg.Gateway.JinaAPIKey)
	elevenlabsDriver := elevenlabs.New(cfg.Gateway.ElevenLabsAPIURL, cfg.Gateway.ElevenLabsAPIKey)

	chatBackends := map[string]provider.ChatCapable{
		"openai": openaiDriver,
	}

	autoRouter := router.New(prompts, chatBackends, nil)

	srv := gateway.New(gateway.Deps{
		Prompts:      prompts,
		Router:       autoRouter,
		ChatBackends: chatBackends,
		Embeddings:   jinaDriver,
		Rerank:       jinaDriver,
		TTS:          elevenlabsDriver,

		EmbeddingModels: embeddingModels,

		DefaultEmbeddingProvider: cfg.Gateway.DefaultEmbeddingProvider,
		DefaultEmbeddingModel:    cfg.Gateway.DefaultEmbeddingModel,
	})

	httpServer := &http.Server{
		Addr:              cfg.Gateway.ListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("ai-gateway: listening", "addr", cfg.Gateway.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLog.Info("ai-gateway: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
