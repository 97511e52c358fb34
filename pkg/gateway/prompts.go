package gateway

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fylr-platform/core/pkg/prompt"
)

// handleListPrompts implements GET /v1/prompts.
func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Prompts == nil {
		writeJSON(w, http.StatusOK, map[string]any{"prompts": []string{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompts": s.deps.Prompts.List()})
}

// handleGetPrompt implements GET /v1/prompts/{id}, optionally scoped to a
// specific version via ?version=.
func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	if s.deps.Prompts == nil {
		writeError(w, http.StatusNotFound, "not_found_error", "prompt registry not configured")
		return
	}

	id := chi.URLParam(r, "id")
	version := r.URL.Query().Get("version")

	inspection, err := s.deps.Prompts.Inspect(id, version)
	if err != nil {
		var notFound *prompt.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, "not_found_error", "%v", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, inspection)
}
