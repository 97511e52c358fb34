package gateway

import (
	"net/http"

	"github.com/fylr-platform/core/pkg/provider"
)

type ttsRequestWire struct {
	Text    string         `json:"text"`
	Model   string         `json:"model,omitempty"`
	Voice   string         `json:"voice,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// handleTTS implements POST /v1/tts, returning the raw synthesized audio
// bytes with the provider-reported content type (tts.py returns a raw
// Response, not a JSON envelope).
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequestWire
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "malformed request body: %v", err)
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
		return
	}

	if s.deps.TTS == nil {
		writeError(w, http.StatusNotImplemented, "provider_error", "tts provider not configured")
		return
	}

	audio, contentType, err := s.deps.TTS.SynthesizeSpeech(r.Context(), provider.TTSRequest{
		Text:    req.Text,
		Model:   req.Model,
		Voice:   req.Voice,
		Options: req.Options,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "provider_error", "an error occurred with the tts provider: %v", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
