// Package provider defines the narrow capability interfaces every LLM/TTS
// backend driver implements (spec.md §9 redesign flag: the teacher's
// abstract-base provider hierarchy collapses into ChatCapable,
// EmbeddingCapable, RerankCapable, TTSCapable) plus the shared message and
// response shapes those interfaces speak.
package provider

import "context"

// Message is one chat turn. Shape follows the OpenAI chat-completion
// convention the gateway's HTTP surface exposes (spec.md §4.D).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is what a ChatCapable driver receives after the gateway has
// resolved prompt_type/prompt_vars into concrete messages.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolDefinition
	ToolChoice  any
	Reasoning   map[string]any
	Options     map[string]any
}

// ToolDefinition describes one callable tool/function a chat request may offer.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is one tool invocation the backend asked for.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatResponse is a non-streaming chat completion result.
type ChatResponse struct {
	Model        string
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// Usage carries token accounting, coerced to integers per spec.md §4.D
// normalization rules (some backends return usage sub-fields as dicts).
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamDelta is one server-sent chunk of a streaming chat response. Each
// delta may carry text, a tool-call fragment, a role tag, and/or a finish
// reason, matching spec.md §4.B. Err is set on the final delta a driver
// sends before closing its channel when the stream was cut short by a
// delivery failure (a closed connection or other read error; a malformed
// frame is skipped, not reported); the gateway
// relays it as a single `{"error": ...}` SSE frame before `[DONE]` instead
// of relaying a silently truncated stream as if it completed cleanly
// (spec.md §4.D, §7).
type StreamDelta struct {
	Role         string
	Content      string
	ToolCall     *ToolCall
	FinishReason string
	Err          error
}

// ChatCapable is implemented by drivers that can serve chat completions,
// blocking or streaming.
type ChatCapable interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamDelta, error)
}

// EmbeddingRequest batches one or more inputs into a single embeddings call.
type EmbeddingRequest struct {
	Model string
	Input []string
}

// EmbeddingData is one input's embedding, paired with its index in the
// request (spec.md §4.D response shape).
type EmbeddingData struct {
	Embedding []float32
	Index     int
}

// EmbeddingResponse is the result of an EmbeddingCapable call.
type EmbeddingResponse struct {
	Provider string
	Model    string
	Data     []EmbeddingData
	Usage    Usage
}

// EmbeddingCapable is implemented by drivers that can embed text.
type EmbeddingCapable interface {
	Embed(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error)
}

// RerankDocument is one candidate document to be scored against a query.
type RerankDocument struct {
	Text     string
	Metadata map[string]any
}

// RerankResult is one scored document, echoing the original input.
type RerankResult struct {
	Index          int
	RelevanceScore float64
	Document       RerankDocument
}

// RerankRequest asks a backend to score Documents against Query.
type RerankRequest struct {
	Query     string
	Documents []RerankDocument
	Model     string
	TopN      int
}

// RerankCapable is implemented by drivers that can rerank documents.
type RerankCapable interface {
	Rerank(ctx context.Context, req RerankRequest) ([]RerankResult, error)
}

// TTSRequest asks a backend to synthesize speech for Text using Voice.
type TTSRequest struct {
	Text    string
	Model   string
	Voice   string
	Options map[string]any
}

// TTSCapable is implemented by drivers that can synthesize speech.
type TTSCapable interface {
	SynthesizeSpeech(ctx context.Context, req TTSRequest) ([]byte, string, error)
}

// UnsupportedOperationError is returned by a driver for a capability call
// it does not implement (spec.md §4.B).
type UnsupportedOperationError struct {
	Driver    string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return e.Driver + " does not support " + e.Operation
}
