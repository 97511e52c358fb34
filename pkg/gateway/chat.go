package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fylr-platform/core/pkg/prompt"
	"github.com/fylr-platform/core/pkg/provider"
)

// chatCompletionRequest mirrors ChatCompletionRequest from
// original_source's ai_gateway/schemas.py: either a prompt_type (rendered
// as the leading messages) or a raw messages list, or both combined.
type chatCompletionRequest struct {
	Provider      string            `json:"provider"`
	Model         string            `json:"model"`
	Messages      []provider.Message `json:"messages,omitempty"`
	PromptType    string            `json:"prompt_type,omitempty"`
	PromptVersion string            `json:"prompt_version,omitempty"`
	PromptVars    map[string]any    `json:"prompt_vars,omitempty"`
	Stream        bool              `json:"stream,omitempty"`
	Tools         []provider.ToolDefinition `json:"tools,omitempty"`
}

func resolveMessages(prompts *prompt.Registry, req chatCompletionRequest) ([]provider.Message, error) {
	var messages []provider.Message

	if req.PromptType != "" {
		if prompts == nil {
			return nil, fmt.Errorf("prompt registry not configured")
		}
		rendered, err := prompts.Render(req.PromptType, req.PromptVersion, req.PromptVars)
		if err != nil {
			return nil, err
		}
		if rendered.Form == "messages" {
			for _, m := range rendered.Messages {
				messages = append(messages, provider.Message{Role: m.Role, Content: m.Content})
			}
		} else {
			messages = append(messages, provider.Message{Role: "user", Content: rendered.Prompt})
		}
	}

	messages = append(messages, req.Messages...)
	return messages, nil
}

func isPromptError(err error) bool {
	var notFound *prompt.NotFoundError
	var validation *prompt.ValidationError
	var render *prompt.RenderError
	return errors.As(err, &notFound) || errors.As(err, &validation) || errors.As(err, &render)
}

// handleChatCompletions implements POST /v1/chat/completions, combining a
// rendered prompt_type with a caller-supplied messages tail, then either
// delegating to the auto-router (provider="auto") or a direct backend
// driver, blocking or streamed as SSE (spec.md §4.D).
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "malformed request body: %v", err)
		return
	}

	messages, err := resolveMessages(s.deps.Prompts, req)
	if err != nil {
		if isPromptError(err) {
			writeError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "%v", err)
		return
	}
	if len(messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "either 'messages' or 'prompt_type' must be provided")
		return
	}

	chatReq := provider.ChatRequest{Model: req.Model, Messages: messages, Tools: req.Tools}

	driver, backendName, err := s.resolveChatDriver(r, req.Provider, chatReq, req.PromptType, req.PromptVersion)
	if err != nil {
		writeError(w, http.StatusBadGateway, "provider_error", "%v", err)
		return
	}

	if req.Stream {
		s.streamChatCompletion(w, r, driver, chatReq, backendName)
		return
	}

	resp, err := driver.Chat(r.Context(), chatReq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "provider_error", "an error occurred with the %q provider: %v", backendName, err)
		return
	}

	writeJSON(w, http.StatusOK, chatCompletionResponseWire(resp))
}

// resolveChatDriver picks the driver for provider="auto" via the router,
// or looks it up directly in ChatBackends otherwise.
func (s *Server) resolveChatDriver(r *http.Request, providerName string, req provider.ChatRequest, promptType, promptVersion string) (provider.ChatCapable, string, error) {
	if providerName == "" || providerName == "auto" {
		if s.deps.Router == nil {
			return nil, "", fmt.Errorf("auto-router not configured")
		}
		selected, err := s.deps.Router.Select(r.Context(), req, promptType, promptVersion)
		if err != nil {
			return nil, "", err
		}
		return selected.Driver, selected.Backend, nil
	}

	driver, ok := s.deps.ChatBackends[providerName]
	if !ok {
		return nil, "", &provider.UnsupportedOperationError{Driver: providerName, Operation: "chat"}
	}
	return driver, providerName, nil
}

type chatCompletionChunk struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []chatCompletionChoiceDelta `json:"choices"`
}

type chatCompletionChoiceDelta struct {
	Index        int                    `json:"index"`
	Delta        map[string]any         `json:"delta"`
	FinishReason *string                `json:"finish_reason"`
}

// streamChatCompletion relays driver stream deltas as SSE frames shaped
// like OpenAI's chat.completion.chunk, terminated by `data: [DONE]`
// (spec.md §4.B). A mid-stream driver error is sent as a best-effort
// `data: {"error": ...}` frame before the stream closes, matching
// chat.py's stream_provider_response exception handling.
func (s *Server) streamChatCompletion(w http.ResponseWriter, r *http.Request, driver provider.ChatCapable, req provider.ChatRequest, backendName string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}

	deltas, err := driver.ChatStream(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadGateway, "provider_error", "%v", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	completionID := "chatcmpl-" + uuid.NewString()
	created := time.Now().Unix()

	for delta := range deltas {
		if delta.Err != nil {
			errFrame, err := json.Marshal(map[string]any{"error": delta.Err.Error()})
			if err == nil {
				fmt.Fprintf(w, "data: %s\n\n", errFrame)
				flusher.Flush()
			}
			break
		}

		chunk := chatCompletionChunk{
			ID:      completionID,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []chatCompletionChoiceDelta{{Index: 0, Delta: deltaToMap(delta), FinishReason: finishReasonPtr(delta.FinishReason)}},
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func deltaToMap(d provider.StreamDelta) map[string]any {
	out := map[string]any{}
	if d.Role != "" {
		out["role"] = d.Role
	}
	if d.Content != "" {
		out["content"] = d.Content
	}
	if d.ToolCall != nil {
		out["tool_calls"] = []map[string]any{{
			"id": d.ToolCall.ID,
			"function": map[string]string{
				"name":      d.ToolCall.Name,
				"arguments": d.ToolCall.Arguments,
			},
		}}
	}
	return out
}

func finishReasonPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type chatCompletionResponseWireShape struct {
	Model        string          `json:"model"`
	Content      string          `json:"content"`
	ToolCalls    []provider.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason"`
	Usage        provider.Usage  `json:"usage"`
}

func chatCompletionResponseWire(resp *provider.ChatResponse) chatCompletionResponseWireShape {
	return chatCompletionResponseWireShape{
		Model:        resp.Model,
		Content:      resp.Content,
		ToolCalls:    resp.ToolCalls,
		FinishReason: resp.FinishReason,
		Usage:        resp.Usage,
	}
}
