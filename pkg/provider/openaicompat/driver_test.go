package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fylr-platform/core/pkg/httpclient"
	"github.com/fylr-platform/core/pkg/provider"
)

func TestCoerceUsageField(t *testing.T) {
	assert.Equal(t, 42, coerceUsageField(json.RawMessage(`42`)))
	assert.Equal(t, 7, coerceUsageField(json.RawMessage(`{"total":7}`)))
	assert.Equal(t, 3, coerceUsageField(json.RawMessage(`{"value":3}`)))
	assert.Equal(t, 0, coerceUsageField(json.RawMessage(`{"unknown_key":9}`)))
	assert.Equal(t, 0, coerceUsageField(nil))
}

func TestChat_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": {"total": 5}, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	d := New(srv.URL, "secret-key")
	resp, err := d.Chat(context.Background(), provider.ChatRequest{
		Model:    "gpt-mid",
		Messages: []provider.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 5, resp.Usage.CompletionTokens)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestChat_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	d := New(srv.URL, "key")
	_, err := d.Chat(context.Background(), provider.ChatRequest{Model: "m", Messages: []provider.Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	d := New(srv.URL, "key")
	_, err := d.Chat(context.Background(), provider.ChatRequest{Model: "m", Messages: []provider.Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "hello", sanitizeUTF8("hello"))
	assert.Equal(t, "a�b", sanitizeUTF8("a\xffb"))
}

func TestChatStream_RelaysDeltasAndStopsAtDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt := func(s string) { w.Write([]byte(s)); flusher.Flush() }
		fmt("data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt("data: {\"choices\":[{\"delta\":{\"content\":\"hi\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt("data: [DONE]\n\n")
	}))
	defer srv.Close()

	d := New(srv.URL, "key")
	deltas, err := d.ChatStream(context.Background(), provider.ChatRequest{Model: "m", Messages: []provider.Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)

	var got []provider.StreamDelta
	for delta := range deltas {
		got = append(got, delta)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "assistant", got[0].Role)
	assert.Equal(t, "hi", got[1].Content)
	assert.Equal(t, "stop", got[1].FinishReason)
}

// A connection cut mid-stream (no [DONE], no clean EOF) must surface as a
// StreamDelta carrying Err rather than a channel that just silently closes,
// so the gateway can relay a {"error": ...} frame instead of pretending the
// stream finished cleanly.
func TestChatStream_ConnectionCutMidStreamYieldsErrDelta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n"))
		flusher.Flush()

		hijacker, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hijacker.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	d := New(srv.URL, "key")
	deltas, err := d.ChatStream(context.Background(), provider.ChatRequest{Model: "m", Messages: []provider.Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)

	var got []provider.StreamDelta
	for delta := range deltas {
		got = append(got, delta)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "assistant", got[0].Role)
	require.Error(t, got[1].Err)
}
