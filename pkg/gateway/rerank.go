package gateway

import (
	"net/http"

	"github.com/fylr-platform/core/pkg/provider"
)

type rerankDocumentWire struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type rerankRequestWire struct {
	Query     string               `json:"query"`
	Documents []rerankDocumentWire `json:"documents"`
	Model     string               `json:"model,omitempty"`
	TopN      int                  `json:"top_n,omitempty"`
}

type rerankResultWire struct {
	Index          int                `json:"index"`
	RelevanceScore float64            `json:"relevance_score"`
	Document       rerankDocumentWire `json:"document"`
}

// handleRerank implements POST /v1/rerank, always against the configured
// Rerank driver (Jina in original_source's rerank.py, regardless of what
// the request's own `provider` names — rerank is Jina-only).
func (s *Server) handleRerank(w http.ResponseWriter, r *http.Request) {
	var req rerankRequestWire
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "malformed request body: %v", err)
		return
	}

	if req.Model == "" {
		req.Model = "jina-reranker-v2-base-multilingual"
	}

	if len(req.Documents) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"model": req.Model, "results": []rerankResultWire{}})
		return
	}

	if s.deps.Rerank == nil {
		writeError(w, http.StatusNotImplemented, "provider_error", "rerank provider not configured")
		return
	}

	docs := make([]provider.RerankDocument, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = provider.RerankDocument{Text: d.Text, Metadata: d.Metadata}
	}

	results, err := s.deps.Rerank.Rerank(r.Context(), provider.RerankRequest{
		Query:     req.Query,
		Documents: docs,
		Model:     req.Model,
		TopN:      req.TopN,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "provider_error", "failed to rerank documents: %v", err)
		return
	}

	out := make([]rerankResultWire, len(results))
	for i, res := range results {
		out[i] = rerankResultWire{
			Index:          res.Index,
			RelevanceScore: res.RelevanceScore,
			Document:       rerankDocumentWire{Text: res.Document.Text, Metadata: res.Document.Metadata},
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"model": req.Model, "results": out})
}
