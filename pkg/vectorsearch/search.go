// Package vectorsearch implements the k-NN lookup and automatic k-means
// clustering the generators use to assemble context from a library's
// chunks, grounded on original_source's
// generator/generator/generators/summary/summary_generator.py's
// _fetch_related_documents and generator/generator/generators/vector_helper.py's
// _cluster_vectors_auto.
package vectorsearch

import (
	"context"
	"fmt"

	"github.com/fylr-platform/core/pkg/db"
	"github.com/fylr-platform/core/pkg/provider"
)

// Result is one nearest-neighbor hit returned by Search.
type Result struct {
	VectorID   string
	Content    string
	ChunkIndex int
	SourceID   string
	SourceName string
	Distance   float64
}

// Embedder is the narrow capability Search needs from the gateway client:
// turn a query string into a single embedding vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Helper performs k-NN search over a library's chunks.
type Helper struct {
	vectors  *db.VectorRepo
	embedder Embedder
}

func New(vectors *db.VectorRepo, embedder Embedder) *Helper {
	return &Helper{vectors: vectors, embedder: embedder}
}

// Search embeds queryText, then returns the topN nearest chunks by
// ascending cosine distance among Sources belonging to libraryID
// (spec.md §4.G).
func (h *Helper) Search(ctx context.Context, libraryID, queryText string, topN int) ([]Result, error) {
	embedding, err := h.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("vectorsearch: embed query: %w", err)
	}

	rows, err := h.vectors.SearchLibrary(ctx, libraryID, embedding, topN)
	if err != nil {
		return nil, fmt.Errorf("vectorsearch: search library %s: %w", libraryID, err)
	}

	out := make([]Result, len(rows))
	for i, r := range rows {
		out[i] = Result{
			VectorID:   r.VectorID,
			Content:    r.Content,
			ChunkIndex: r.ChunkIndex,
			SourceID:   r.SourceID,
			SourceName: r.SourceName,
			Distance:   r.Distance,
		}
	}
	return out, nil
}

// gatewayEmbedder adapts a provider.EmbeddingCapable driver to the
// Embedder interface Search needs, used by generators that already hold
// a gateway client driver rather than an HTTP round-trip.
type gatewayEmbedder struct {
	driver provider.EmbeddingCapable
	model  string
}

// NewGatewayEmbedder wraps an EmbeddingCapable driver (e.g. the gateway's
// HTTP client facade) as an Embedder.
func NewGatewayEmbedder(driver provider.EmbeddingCapable, model string) Embedder {
	return &gatewayEmbedder{driver: driver, model: model}
}

func (e *gatewayEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.driver.Embed(ctx, provider.EmbeddingRequest{Model: e.model, Input: []string{text}})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("vectorsearch: embedding response had no data")
	}
	return resp.Data[0].Embedding, nil
}
