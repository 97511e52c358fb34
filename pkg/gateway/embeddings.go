package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fylr-platform/core/pkg/embeddingmodels"
	"github.com/fylr-platform/core/pkg/provider"
)

// embeddingRequestWire accepts either a single string or a list of strings
// for input, matching EmbeddingRequest's Union[str, List[str]] in
// original_source's ai_gateway/schemas.py.
type embeddingRequestWire struct {
	Provider   string          `json:"provider,omitempty"`
	Model      string          `json:"model,omitempty"`
	FullModel  string          `json:"fullModel,omitempty"`
	Input      json.RawMessage `json:"input"`
	Options    map[string]any  `json:"options,omitempty"`
}

func decodeInput(raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	return many, nil
}

// handleEmbeddings implements POST /v1/embeddings. A fullModel field
// (`timestamp@version@provider/model`) takes precedence over separate
// provider/model fields; absent both, the gateway's configured default
// embedding provider/model is used (spec.md §4.D, embedding.py).
func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingRequestWire
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "malformed request body: %v", err)
		return
	}

	input, err := decodeInput(req.Input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "input must be a string or list of strings")
		return
	}

	providerName, modelName := req.Provider, req.Model
	if req.FullModel != "" {
		p, m, err := embeddingmodels.ParseFullModel(req.FullModel)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		providerName, modelName = p, m
	}
	if providerName == "" {
		providerName = s.deps.DefaultEmbeddingProvider
	}
	if modelName == "" {
		modelName = s.deps.DefaultEmbeddingModel
	}

	if s.deps.Embeddings == nil {
		writeError(w, http.StatusNotImplemented, "provider_error", "embeddings provider %q not configured", providerName)
		return
	}

	resp, err := s.deps.Embeddings.Embed(r.Context(), provider.EmbeddingRequest{Model: modelName, Input: input})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "provider_error", "an error occurred with the %q provider: %v", providerName, err)
		return
	}
	resp.Provider = providerName

	writeJSON(w, http.StatusOK, resp)
}

// handleListEmbeddingModels implements GET /v1/embeddings/models.
func (s *Server) handleListEmbeddingModels(w http.ResponseWriter, r *http.Request) {
	if s.deps.EmbeddingModels == nil {
		writeJSON(w, http.StatusOK, map[string]any{"models": []embeddingmodels.Model{}, "default": ""})
		return
	}
	models, def := s.deps.EmbeddingModels.All()
	writeJSON(w, http.StatusOK, map[string]any{"models": models, "default": def})
}

type setDefaultRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// handleSetDefaultEmbeddingModel implements PATCH /v1/embeddings/models/default.
func (s *Server) handleSetDefaultEmbeddingModel(w http.ResponseWriter, r *http.Request) {
	if s.deps.EmbeddingModels == nil {
		writeError(w, http.StatusNotImplemented, "internal_error", "embedding model registry not configured")
		return
	}

	var req setDefaultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "malformed request body: %v", err)
		return
	}

	if err := s.deps.EmbeddingModels.SetDefault(req.Provider, req.Model); err != nil {
		var notFound *embeddingmodels.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, "not_found_error", "%v", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type deprecateRequest struct {
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	DeprecationDate string `json:"deprecationDate"`
}

// handleDeprecateEmbeddingModel implements PATCH /v1/embeddings/models/deprecate.
func (s *Server) handleDeprecateEmbeddingModel(w http.ResponseWriter, r *http.Request) {
	if s.deps.EmbeddingModels == nil {
		writeError(w, http.StatusNotImplemented, "internal_error", "embedding model registry not configured")
		return
	}

	var req deprecateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "malformed request body: %v", err)
		return
	}

	if err := s.deps.EmbeddingModels.Deprecate(req.Provider, req.Model, req.DeprecationDate); err != nil {
		var notFound *embeddingmodels.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, "not_found_error", "%v", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
