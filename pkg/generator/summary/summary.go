// Package summary implements the summary generation pipeline: per
// episode, ask the LLM for search keywords, gather related chunks from
// the library via k-NN search, summarize them, and persist the result.
// Grounded on original_source's
// generator/generators/summary/summary_generator.py SummaryGenerator.
package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fylr-platform/core/pkg/db"
	"github.com/fylr-platform/core/pkg/domain"
	fylrgen "github.com/fylr-platform/core/pkg/generator"
	"github.com/fylr-platform/core/pkg/gatewayclient"
	fylramqp "github.com/fylr-platform/core/pkg/amqp"
	"github.com/fylr-platform/core/pkg/vectorsearch"
)

const entityType = "summary"

// Worker generates Summary jobs. Search is scoped per library by the
// caller's vectorsearch.Helper (wired to the gateway's embeddings
// endpoint via gatewayclient.Client.EmbedQuery).
type Worker struct {
	Summaries *db.SummaryRepo
	Search    *vectorsearch.Helper
	Gateway   *gatewayclient.Client
}

// Handler returns an amqp.Handler for the summary-generator queue.
func (w *Worker) Handler(ch *amqp.Channel) fylramqp.Handler {
	return fylrgen.Handle(ch, entityType, w.create)
}

func (w *Worker) create(ctx context.Context, ch *amqp.Channel, summaryID string) error {
	sum, err := w.Summaries.Get(ctx, summaryID)
	if err != nil {
		return fmt.Errorf("summary: load %s: %w", summaryID, err)
	}

	fylrgen.PublishStatus(ch, entityType, sum.ID, map[string]any{
		"stage":   "starting",
		"message": fmt.Sprintf("Starting summary generation for %q...", sum.Title),
	})

	generated := 0
	for _, episode := range sum.Episodes {
		if err := w.processEpisode(ctx, ch, sum, episode); err != nil {
			fylrgen.PublishStatus(ch, entityType, sum.ID, map[string]any{
				"stage":   "error",
				"message": "An error occurred during summary generation.",
			})
			_ = w.Summaries.SetGenerated(ctx, sum.ID, domain.GenerationFailed)
			return fmt.Errorf("summary: episode %s: %w", episode.ID, err)
		}
		if episode.Content != "" {
			generated++
		}
	}

	finalStatus := domain.GenerationCompleted
	if generated == 0 {
		finalStatus = domain.GenerationFailed
	}
	if err := w.Summaries.SetGenerated(ctx, sum.ID, finalStatus); err != nil {
		return fmt.Errorf("summary: set generated status: %w", err)
	}

	fylrgen.PublishStatus(ch, entityType, sum.ID, map[string]any{
		"stage":       "complete",
		"message":     "Summary generation finished.",
		"finalStatus": string(finalStatus),
	})
	return nil
}

func (w *Worker) processEpisode(ctx context.Context, ch *amqp.Channel, sum *domain.Summary, episode *domain.Episode) error {
	fylrgen.PublishStatus(ch, entityType, sum.ID, map[string]any{
		"stage":     "episode_start",
		"message":   fmt.Sprintf("Generating content for episode: %q...", episode.Title),
		"episodeId": episode.ID,
	})

	keywordsText, err := w.Gateway.GenerateText(ctx, gatewayclient.PromptRequest{
		PromptType:    "summary_keywords",
		PromptVersion: "v1",
		PromptVars: map[string]any{
			"episode_title": episode.Title,
			"focus":         episode.Focus,
		},
	})
	if err != nil {
		return fmt.Errorf("generate search keywords: %w", err)
	}

	queries := splitNonEmptyLines(keywordsText)
	if len(queries) > 3 {
		queries = queries[:3]
	}

	topDocs := w.relatedDocuments(ctx, sum.LibraryID, queries)

	if len(topDocs) == 0 {
		episode.Content = fmt.Sprintf("No relevant content found for the topic %q in the available documents.", episode.Title)
		if err := w.Summaries.SaveEpisodeContent(ctx, episode.ID, episode.Content); err != nil {
			return fmt.Errorf("save episode content: %w", err)
		}
		fylrgen.PublishStatus(ch, entityType, sum.ID, map[string]any{
			"stage": "episode_complete",
			"episode": map[string]any{
				"id":    episode.ID,
				"title": episode.Title,
			},
		})
		return nil
	}

	var contextBuilder strings.Builder
	for i, doc := range topDocs {
		if i > 0 {
			contextBuilder.WriteString("\n\n")
		}
		fmt.Fprintf(&contextBuilder, "Source: %s\nContent: %s", doc.SourceName, doc.Content)
	}

	content, err := w.Gateway.GenerateText(ctx, gatewayclient.PromptRequest{
		PromptType:    "episode_summary",
		PromptVersion: "v1",
		PromptVars: map[string]any{
			"episode_title":   episode.Title,
			"focus":           episode.Focus,
			"context_content": contextBuilder.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("generate episode summary: %w", err)
	}

	episode.Content = content
	if err := w.Summaries.SaveEpisodeContent(ctx, episode.ID, content); err != nil {
		return fmt.Errorf("save episode content: %w", err)
	}

	fylrgen.PublishStatus(ch, entityType, sum.ID, map[string]any{
		"stage": "episode_complete",
		"episode": map[string]any{
			"id":      episode.ID,
			"title":   episode.Title,
			"content": episode.Content,
			"focus":   episode.Focus,
		},
	})
	return nil
}

// relatedDocuments searches the library for each query (limit 5 each),
// deduplicates by chunk id, and returns the 10 closest by ascending
// distance (spec.md §4.I steps 2-3).
func (w *Worker) relatedDocuments(ctx context.Context, libraryID string, queries []string) []vectorsearch.Result {
	seen := make(map[string]bool)
	var all []vectorsearch.Result

	for _, q := range queries {
		results, err := w.Search.Search(ctx, libraryID, q, 5)
		if err != nil {
			continue
		}
		for _, r := range results {
			if seen[r.VectorID] {
				continue
			}
			seen[r.VectorID] = true
			all = append(all, r)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })
	if len(all) > 10 {
		all = all[:10]
	}
	return all
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
