// Package gateway implements the AI Gateway HTTP service: a chi-routed
// surface in front of the prompt registry, the provider drivers, the
// auto-router, and the embedding model registry (spec.md §4.D). Grounded on
// original_source's ai_gateway/main.py route wiring and the teacher's
// pkg/transport middleware conventions (metrics/tracing wrapper, chi
// RouteContext-based route pattern extraction).
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fylr-platform/core/pkg/embeddingmodels"
	"github.com/fylr-platform/core/pkg/prompt"
	"github.com/fylr-platform/core/pkg/provider"
	"github.com/fylr-platform/core/pkg/provider/router"
)

// Deps bundles everything the gateway's handlers need. Every field is
// optional. A nil Embeddings, Rerank or TTS driver, or a nil
// EmbeddingModels registry, makes the endpoints that need it respond 501
// (the model listing returns an empty list instead); a nil Prompts empties
// the prompt listing and makes prompt lookups 404; a nil Router makes
// provider "auto" chat requests fail with 502 (spec.md §4.D: providers not
// configured are reported per-request, not at startup).
type Deps struct {
	Prompts *prompt.Registry
	Router  *router.Router

	// ChatBackends serves direct (non-"auto") provider selections, keyed
	// by the same backend name the router's Route.Backend uses.
	ChatBackends map[string]provider.ChatCapable

	Embeddings provider.EmbeddingCapable
	Rerank     provider.RerankCapable
	TTS        provider.TTSCapable

	EmbeddingModels *embeddingmodels.Registry

	DefaultEmbeddingProvider string
	DefaultEmbeddingModel    string
}

// Server wires Deps onto a chi router.
type Server struct {
	deps   Deps
	router chi.Router
}

// New builds a Server. ListenAndServe callers should use the returned
// router directly as an http.Handler.
func New(deps Deps) *Server {
	s := &Server{deps: deps}

	r := chi.NewRouter()
	r.Use(correlationID)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/chat/completions", s.handleChatCompletions)
		v1.Post("/embeddings", s.handleEmbeddings)
		v1.Post("/rerank", s.handleRerank)
		v1.Post("/tts", s.handleTTS)

		v1.Get("/prompts", s.handleListPrompts)
		v1.Get("/prompts/{id}", s.handleGetPrompt)

		v1.Get("/embeddings/models", s.handleListEmbeddingModels)
		v1.Patch("/embeddings/models/default", s.handleSetDefaultEmbeddingModel)
		v1.Patch("/embeddings/models/deprecate", s.handleDeprecateEmbeddingModel)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type correlationIDKey struct{}

// correlationID stamps every request with an id surfaced in logs and
// echoed back as X-Request-Id, the gateway analogue of the worker side's
// WithJob correlation logging (pkg/logger).
func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), correlationIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// accessLog emits one structured zerolog line per request, tagged with the
// chi route pattern rather than the raw path so templated routes
// (/v1/prompts/{id}) aggregate cleanly. Gateway access logs use zerolog
// while the workers log via pkg/logger's slog wrapper: the gateway is the
// one HTTP-facing binary, and a dedicated access-log event type (level
// bumped on 4xx/5xx) fits zerolog's event builder better than slog's
// key/value attrs.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}

		event := log.Info()
		if rec.status >= 400 {
			event = log.Warn()
		}
		if rec.status >= 500 {
			event = log.Error()
		}

		event.
			Str("request_id", requestID(r.Context())).
			Str("method", r.Method).
			Str("path", pattern).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// apiError is the JSON error envelope every failing endpoint returns
// (original_source's ai_gateway error middleware shape: {"error": {...}}).
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

func writeError(w http.ResponseWriter, status int, errType, format string, args ...any) {
	writeJSON(w, status, map[string]apiError{
		"error": {Message: fmt.Sprintf(format, args...), Type: errType},
	})
}
