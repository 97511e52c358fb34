// Package openaicompat implements provider.ChatCapable against any backend
// speaking the OpenAI chat-completions wire format (the auto-router's
// default model map points OpenRouter-shaped backends here). Grounded on
// the teacher's pkg/llms/openai.go request/response/streaming shapes, minus
// its Responses-API/a2a-go coupling, and on pkg/httpclient for retries.
package openaicompat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fylr-platform/core/pkg/httpclient"
	"github.com/fylr-platform/core/pkg/provider"
)

// Driver talks to an OpenAI-compatible /chat/completions endpoint.
type Driver struct {
	baseURL string
	apiKey  string

	// httpClient is used for blocking chat calls: a 60s request-wide
	// timeout per spec.md §5.
	httpClient *httpclient.Client

	// streamClient has no request-wide timeout since a chat stream has no
	// overall cap (spec.md §5). No per-chunk read timeout is applied either:
	// a stream that stalls with its connection open ends only when the
	// caller's context is cancelled.
	streamClient *httpclient.Client
}

// New builds a Driver pointed at baseURL (no trailing slash expected;
// "/chat/completions" is appended per call).
func New(baseURL, apiKey string) *Driver {
	return &Driver{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: httpclient.New(
			httpclient.WithTimeout(60*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
		),
		streamClient: httpclient.New(
			httpclient.WithTimeout(0),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
		),
	}
}

type chatCompletionRequest struct {
	Model    string             `json:"model"`
	Messages []provider.Message `json:"messages"`
	Stream   bool               `json:"stream,omitempty"`
	Tools    []toolWire         `json:"tools,omitempty"`
}

type toolWire struct {
	Type     string         `json:"type"`
	Function toolWireFunc   `json:"function"`
}

type toolWireFunc struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage usageWire `json:"usage"`
}

// usageWire handles both the ordinary {prompt_tokens:N} shape and the
// dict-valued shapes some backends return, flattened using the keys
// total/value/count/tokens (spec.md §4.D normalization rule).
type usageWire struct {
	PromptTokens     json.RawMessage `json:"prompt_tokens"`
	CompletionTokens json.RawMessage `json:"completion_tokens"`
	TotalTokens      json.RawMessage `json:"total_tokens"`
}

func coerceUsageField(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return asInt
	}
	var asMap map[string]int
	if err := json.Unmarshal(raw, &asMap); err == nil {
		for _, key := range []string{"total", "value", "count", "tokens"} {
			if v, ok := asMap[key]; ok {
				return v
			}
		}
	}
	return 0
}

func buildRequest(req provider.ChatRequest, stream bool) chatCompletionRequest {
	out := chatCompletionRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   stream,
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, toolWire{
			Type: "function",
			Function: toolWireFunc{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func (d *Driver) doRequest(ctx context.Context, client *httpclient.Client, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(d.apiKey))
	return client.Do(httpReq)
}

// Chat performs a blocking chat completion.
func (d *Driver) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	body, err := json.Marshal(buildRequest(req, false))
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	resp, err := d.doRequest(ctx, d.httpClient, body)
	if err != nil {
		return nil, fmt.Errorf("chat completions request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode chat completions response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat completions response had no choices")
	}

	choice := parsed.Choices[0]
	out := &provider.ChatResponse{
		Model:        req.Model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: provider.Usage{
			PromptTokens:     coerceUsageField(parsed.Usage.PromptTokens),
			CompletionTokens: coerceUsageField(parsed.Usage.CompletionTokens),
			TotalTokens:      coerceUsageField(parsed.Usage.TotalTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return out, nil
}

type streamChunkWire struct {
	Choices []struct {
		Delta struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// ChatStream performs a streaming chat completion, relaying each SSE data
// frame as a StreamDelta. Invalid UTF-8 in the content is sanitized before
// relay (spec.md §4.B).
func (d *Driver) ChatStream(ctx context.Context, req provider.ChatRequest) (<-chan provider.StreamDelta, error) {
	body, err := json.Marshal(buildRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	resp, err := d.doRequest(ctx, d.streamClient, body)
	if err != nil {
		return nil, fmt.Errorf("chat completions stream request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	out := make(chan provider.StreamDelta, 100)

	go func() {
		defer close(out)
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				if err != io.EOF {
					slog.Error("chat stream read failed", "error", err)
					select {
					case out <- provider.StreamDelta{Err: fmt.Errorf("chat stream read failed: %w", err)}:
					case <-ctx.Done():
					}
				}
				return
			}

			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			if !bytes.HasPrefix(line, []byte("data:")) {
				continue
			}
			data := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
			if string(data) == "[DONE]" {
				return
			}

			var chunk streamChunkWire
			if err := json.Unmarshal(data, &chunk); err != nil {
				slog.Warn("skipping malformed stream chunk", "error", err)
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			choice := chunk.Choices[0]
			delta := provider.StreamDelta{
				Role:         choice.Delta.Role,
				Content:      sanitizeUTF8(choice.Delta.Content),
				FinishReason: choice.FinishReason,
			}
			if len(choice.Delta.ToolCalls) > 0 {
				tc := choice.Delta.ToolCalls[0]
				delta.ToolCall = &provider.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
			}

			select {
			case out <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// sanitizeUTF8 replaces invalid UTF-8 sequences (e.g. a split surrogate
// pair at a chunk boundary) with the Unicode replacement character so the
// relayed SSE frame is always valid UTF-8 (spec.md §4.B).
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}
