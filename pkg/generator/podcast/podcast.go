// Package podcast implements the podcast generation pipeline: cluster a
// library's chunk embeddings into thematic segments, summarize each with
// the LLM, combine the segments into a two-host dialogue script,
// synthesize and stitch per-line audio, and upload the result. Grounded
// on original_source's generator/generators/podcast/podcast_generator.py
// PodcastGenerator, reusing pkg/generator/summary's structural shape for
// the message lifecycle and pkg/vectorsearch for clustering.
package podcast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	fylramqp "github.com/fylr-platform/core/pkg/amqp"
	"github.com/fylr-platform/core/pkg/audio"
	"github.com/fylr-platform/core/pkg/db"
	"github.com/fylr-platform/core/pkg/domain"
	fylrgen "github.com/fylr-platform/core/pkg/generator"
	"github.com/fylr-platform/core/pkg/gatewayclient"
	"github.com/fylr-platform/core/pkg/logger"
	"github.com/fylr-platform/core/pkg/s3store"
	"github.com/fylr-platform/core/pkg/vectorsearch"
)

const entityType = "podcast"

// VoiceConfig binds each dialogue speaker to a TTS voice/model/provider.
type VoiceConfig struct {
	HostAVoice  string
	HostBVoice  string
	TTSProvider string
	TTSModel    string

	PacingDelay  time.Duration
	SilenceDB    float64
	GapMillis    int
	ClusterLimit int
}

// Worker generates Podcast jobs.
type Worker struct {
	Podcasts *db.PodcastRepo
	Corpus   *db.VectorRepo
	Gateway  *gatewayclient.Client
	Uploads  *s3store.Store

	Voices VoiceConfig

	// Sleep is the inter-TTS-call pacing delay; overridable in tests so
	// they don't actually wait on Voices.PacingDelay.
	Sleep func(time.Duration)
}

// Handler returns an amqp.Handler for the podcast-generator queue.
func (w *Worker) Handler(ch *amqp.Channel) fylramqp.Handler {
	return fylrgen.Handle(ch, entityType, w.create)
}

func (w *Worker) sleep(d time.Duration) {
	if w.Sleep != nil {
		w.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (w *Worker) create(ctx context.Context, ch *amqp.Channel, podcastID string) error {
	log := logger.WithJob(entityType, podcastID)

	pod, err := w.Podcasts.Get(ctx, podcastID)
	if err != nil {
		return fmt.Errorf("podcast: load %s: %w", podcastID, err)
	}

	episode := pod.FirstEmptyEpisode()
	if episode == nil {
		return fmt.Errorf("podcast: %s has no empty episode slot to fill", podcastID)
	}

	publish := func(stage, message string, extra map[string]any) {
		fylrgen.PublishStatus(ch, entityType, pod.ID, mergeStage(stage, message, extra))
	}
	fail := func(stage string, cause error) error {
		log.Error("podcast generation failed", "stage", stage, "error", cause)
		publish("error", "An error occurred during podcast generation.", map[string]any{"error": true})
		_ = w.Podcasts.SetGenerated(ctx, pod.ID, domain.GenerationFailed)
		return fmt.Errorf("podcast: %s: %w", stage, cause)
	}

	publish("starting", fmt.Sprintf("Starting podcast generation for %q...", pod.Title), nil)

	corpus, err := w.Corpus.LibraryCorpus(ctx, pod.LibraryID)
	if err != nil {
		return fail("load_corpus", err)
	}

	var vectors []*domain.DocumentVector
	for _, sw := range corpus {
		vectors = append(vectors, sw.Vectors...)
	}
	if len(vectors) < 2 {
		return fail("load_corpus", fmt.Errorf("library %s has %d chunks, need at least 2 to cluster", pod.LibraryID, len(vectors)))
	}

	publish("clustering", "Grouping library content into segments...", nil)
	embeddings := make([][]float32, len(vectors))
	for i, v := range vectors {
		embeddings[i] = v.Embedding
	}
	clusters, err := vectorsearch.ClusterAuto(embeddings, vectorsearch.DefaultClusterConfig())
	if err != nil {
		return fail("clustering", err)
	}

	groups := make([][]*domain.DocumentVector, clusters.K)
	for i, label := range clusters.Labels {
		groups[label] = append(groups[label], vectors[i])
	}

	limit := w.Voices.ClusterLimit
	if limit <= 0 {
		limit = 15
	}

	var segments []*Segment
	for i, group := range groups {
		if len(group) > limit {
			group = group[:limit]
		}

		raw, err := w.Gateway.GenerateText(ctx, gatewayclient.PromptRequest{
			PromptType:    "podcast_segment",
			PromptVersion: "v1",
			PromptVars: map[string]any{
				"context_content": concatContent(group),
			},
		})
		if err != nil {
			publish("segment_error", fmt.Sprintf("Segment %d generation failed.", i), map[string]any{"error": true})
			continue
		}

		seg, err := parseSegment(raw)
		if err != nil {
			log.Warn("podcast: skipping invalid segment", "segment", i, "error", err)
			publish("segment_error", fmt.Sprintf("Segment %d was skipped: invalid content.", i), map[string]any{"error": true})
			continue
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return fail("summarize", fmt.Errorf("no valid segments produced from %d clusters", clusters.K))
	}

	publish("scripting", "Writing podcast script...", nil)
	var combined string
	for i, s := range segments {
		if i > 0 {
			combined += "\n\n"
		}
		combined += s.Summary()
	}

	scriptText, err := w.Gateway.GenerateText(ctx, gatewayclient.PromptRequest{
		PromptType:    "podcast_script_combiner",
		PromptVersion: "v1",
		PromptVars: map[string]any{
			"segments": combined,
		},
	})
	if err != nil {
		return fail("scripting", err)
	}

	lines := ParseScript(scriptText)
	if len(lines) == 0 {
		return fail("scripting", fmt.Errorf("combiner script produced no parseable dialogue lines"))
	}

	publish("narrating", fmt.Sprintf("Synthesizing %d narration lines...", len(lines)), nil)
	clips := make([]audio.Clip, 0, len(lines))
	for i, line := range lines {
		voice := w.Voices.HostAVoice
		if line.Speaker == "Host B" {
			voice = w.Voices.HostBVoice
		}

		wav, err := w.Gateway.SynthesizeSpeech(ctx, line.Text, voice, w.Voices.TTSModel, w.Voices.TTSProvider)
		if err != nil {
			// spec.md §4.J failure policy: partial audio on TTS failure
			// aborts the job, no stitching from the partial corpus.
			return fail("narrating", fmt.Errorf("line %d (%s): %w", i, line.Speaker, err))
		}

		clip, err := audio.DecodeWAV(wav)
		if err != nil {
			return fail("narrating", fmt.Errorf("decode tts audio for line %d: %w", i, err))
		}
		clips = append(clips, clip)

		if i < len(lines)-1 {
			w.sleep(w.Voices.PacingDelay)
		}
	}

	publish("stitching", "Combining narration into final audio...", nil)
	samples, sampleRate, err := audio.Stitch(clips, w.Voices.SilenceDB, w.Voices.GapMillis)
	if err != nil {
		return fail("stitching", err)
	}
	wavBytes, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		return fail("stitching", err)
	}

	audioKey := fmt.Sprintf("%s/%s.wav", pod.ID, uuid.NewString())
	publish("uploading", "Uploading podcast audio...", nil)
	if err := w.Uploads.Put(ctx, audioKey, wavBytes, "audio/wav"); err != nil {
		return fail("uploading", err)
	}

	if err := w.Podcasts.SaveEpisodeAudio(ctx, episode.ID, audioKey); err != nil {
		return fail("uploading", err)
	}
	if err := w.Podcasts.SetGenerated(ctx, pod.ID, domain.GenerationCompleted); err != nil {
		return fail("uploading", err)
	}

	publish("completed", "Podcast generation finished.", map[string]any{"audioKey": audioKey})
	log.Info("podcast generation completed", "audio_key", audioKey, "lines", len(lines), "segments", len(segments))
	return nil
}

func concatContent(vectors []*domain.DocumentVector) string {
	var out string
	for i, v := range vectors {
		if i > 0 {
			out += "\n\n"
		}
		out += v.Content
	}
	return out
}

func mergeStage(stage, message string, extra map[string]any) map[string]any {
	payload := map[string]any{"stage": stage, "message": message}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}
