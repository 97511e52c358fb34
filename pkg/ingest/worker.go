package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	fylramqp "github.com/fylr-platform/core/pkg/amqp"
	"github.com/fylr-platform/core/pkg/db"
	"github.com/fylr-platform/core/pkg/domain"
	"github.com/fylr-platform/core/pkg/extract"
	"github.com/fylr-platform/core/pkg/gatewayclient"
	"github.com/fylr-platform/core/pkg/logger"
	"github.com/fylr-platform/core/pkg/s3store"
)

// Worker wires one ingestion job's dependencies: object storage, format
// extraction, the AI Gateway embeddings call, and the two repositories a
// job reads and writes. A Worker is shared across deliveries; only the
// AMQP channel passed to each handler call is per-delivery.
type Worker struct {
	Uploads   *s3store.Store
	Extractor *extract.Manager
	Gateway   *gatewayclient.Client
	Sources   *db.SourceRepo
	Vectors   *db.VectorRepo

	IngestorType    string
	IngestorVersion string
}

// HandlePrimary returns an amqp.Handler for the primary ingestion queue.
// ch is the channel the worker consumes on; PublishStatus calls on it.
func (w *Worker) HandlePrimary(ch *amqp.Channel) fylramqp.Handler {
	return func(ctx context.Context, body []byte) error {
		return w.processPrimary(ctx, ch, body)
	}
}

// HandleReingest returns an amqp.Handler for the re-ingestion queue.
func (w *Worker) HandleReingest(ch *amqp.Channel) fylramqp.Handler {
	return func(ctx context.Context, body []byte) error {
		return w.processReingest(ctx, ch, body)
	}
}

func (w *Worker) processPrimary(ctx context.Context, ch *amqp.Channel, body []byte) error {
	msg, err := parseMessage(body)
	if err != nil || !msg.valid() {
		logger.GetLogger().Error("ingest: malformed job message, dropping", "error", err)
		cause := fmt.Errorf("ingest: malformed job message")
		jobKey := ""
		if msg != nil {
			jobKey = msg.JobKey
		}
		fylramqp.PublishStatus(ch, fylramqp.JobRoutingKey(jobKey), fylramqp.StatusEvent{
			Stage:   "FAILED",
			Message: cause.Error(),
			Error:   true,
		})
		return cause
	}

	routingKey := fylramqp.JobRoutingKey(msg.JobKey)
	log := logger.WithSource(msg.SourceID)

	publish := func(stage, message string, extra map[string]any) {
		fylramqp.PublishStatus(ch, routingKey, fylramqp.StatusEvent{Stage: stage, Message: message, Extra: extra})
	}
	fail := func(stage string, cause error) error {
		log.Error("ingestion failed", "stage", stage, "error", cause)
		publish("FAILED", cause.Error(), nil)
		if markErr := w.Sources.MarkFailed(ctx, msg.SourceID); markErr != nil {
			log.Error("mark source failed", "error", markErr)
		}
		return cause
	}

	publish("STARTING", "ingestion started", nil)

	publish("FETCHING", "fetching document from storage", nil)
	data, err := w.Uploads.Get(ctx, msg.S3Key)
	if err != nil {
		return fail("FETCHING", err)
	}

	publish("PARSING", "extracting and chunking content", nil)
	chunks, err := w.Extractor.Process(ctx, msg.MimeType, data, msg.S3Key)
	if err != nil {
		return fail("PARSING", err)
	}

	publish("VECTORIZING", "embedding chunks", map[string]any{"chunkCount": len(chunks)})
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	// The ingestor always embeds through the jina provider, matching
	// text-python-1/src/main.py's get_embeddings() hardcoding.
	embeddings, err := w.Gateway.Embed(ctx, "jina", msg.EmbeddingModel, texts)
	if err != nil {
		return fail("VECTORIZING", err)
	}
	if len(embeddings) != len(chunks) {
		return fail("VECTORIZING", fmt.Errorf("ingest: got %d embeddings for %d chunks", len(embeddings), len(chunks)))
	}

	publish("SAVING", "persisting chunks and embeddings", nil)
	vectors := make([]*domain.DocumentVector, len(chunks))
	for i, c := range chunks {
		vectors[i] = &domain.DocumentVector{
			ID:         uuid.NewString(),
			SourceID:   msg.SourceID,
			Embedding:  embeddings[i],
			Content:    c.Content,
			ChunkIndex: c.StartIndex,
		}
	}
	if err := w.Vectors.ReplaceForSource(ctx, msg.SourceID, vectors); err != nil {
		return fail("SAVING", err)
	}
	if err := w.Sources.MarkCompleted(ctx, msg.SourceID, w.IngestorType, w.IngestorVersion); err != nil {
		return fail("SAVING", err)
	}

	publish("COMPLETED", "ingestion complete", map[string]any{"chunkCount": len(chunks)})
	log.Info("ingestion completed", "chunks", len(chunks))
	return nil
}

func (w *Worker) processReingest(ctx context.Context, ch *amqp.Channel, body []byte) error {
	msg, err := parseReingestMessage(body)
	if err != nil || !msg.valid() {
		logger.GetLogger().Error("reingest: malformed job message, dropping", "error", err)
		cause := fmt.Errorf("reingest: malformed job message")
		jobKey := ""
		if msg != nil {
			jobKey = msg.JobKey
		}
		fylramqp.PublishStatus(ch, fylramqp.JobRoutingKey(jobKey), fylramqp.StatusEvent{
			Stage:   "FAILED",
			Message: cause.Error(),
			Error:   true,
		})
		return cause
	}

	routingKey := fylramqp.JobRoutingKey(msg.JobKey)
	log := logger.WithSource(msg.SourceID)

	publish := func(stage, message string, extra map[string]any) {
		fylramqp.PublishStatus(ch, routingKey, fylramqp.StatusEvent{Stage: stage, Message: message, Extra: extra})
	}
	fail := func(stage string, cause error) error {
		log.Error("reingestion failed", "stage", stage, "error", cause)
		publish("FAILED", cause.Error(), nil)
		if markErr := w.Sources.FailReingestion(ctx, msg.SourceID); markErr != nil {
			log.Error("mark reingestion failed", "error", markErr)
		}
		return cause
	}

	source, err := w.Sources.Get(ctx, msg.SourceID)
	if err != nil {
		return fail("STARTING", err)
	}

	if source.IsReingestionComplete() {
		publish("SKIPPED", "source already up to date", nil)
		log.Info("reingestion skipped, already complete")
		return nil
	}

	publish("STARTING", "reingestion started", nil)
	if err := w.Sources.StartReingestion(ctx, msg.SourceID); err != nil {
		return fail("STARTING", err)
	}

	existing, err := w.Vectors.OrderedForSource(ctx, msg.SourceID)
	if err != nil {
		return fail("VECTORIZING", err)
	}

	publish("VECTORIZING", "re-embedding chunks", map[string]any{"chunkCount": len(existing)})
	texts := make([]string, len(existing))
	for i, v := range existing {
		texts[i] = v.Content
	}
	embeddings, err := w.Gateway.EmbedFullModel(ctx, msg.TargetEmbeddingModel, texts)
	if err != nil {
		return fail("VECTORIZING", err)
	}
	if len(embeddings) != len(existing) {
		return fail("VECTORIZING", fmt.Errorf("reingest: got %d embeddings for %d chunks", len(embeddings), len(existing)))
	}
	for i, v := range existing {
		v.Embedding = embeddings[i]
	}

	publish("SAVING", "updating embeddings in place", nil)
	if err := w.Vectors.UpdateEmbeddings(ctx, existing); err != nil {
		return fail("SAVING", err)
	}
	if err := w.Sources.CompleteReingestion(ctx, msg.SourceID); err != nil {
		return fail("SAVING", err)
	}

	publish("COMPLETED", "reingestion complete", map[string]any{"chunkCount": len(existing)})
	log.Info("reingestion completed", "chunks", len(existing))
	return nil
}
