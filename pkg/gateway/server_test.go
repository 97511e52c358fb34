package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fylr-platform/core/pkg/prompt"
	"github.com/fylr-platform/core/pkg/provider"
	"github.com/fylr-platform/core/pkg/provider/router"
)

type fakeChatDriver struct {
	modelSeen string
}

func (f *fakeChatDriver) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	f.modelSeen = req.Model
	return &provider.ChatResponse{Model: req.Model, Content: "hello"}, nil
}

func (f *fakeChatDriver) ChatStream(ctx context.Context, req provider.ChatRequest) (<-chan provider.StreamDelta, error) {
	return nil, nil
}

// fakeCutStreamDriver simulates a backend whose connection drops mid-stream:
// one good delta, then a delta carrying Err, then the channel closes.
type fakeCutStreamDriver struct{}

func (fakeCutStreamDriver) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	return &provider.ChatResponse{Model: req.Model}, nil
}

func (fakeCutStreamDriver) ChatStream(ctx context.Context, req provider.ChatRequest) (<-chan provider.StreamDelta, error) {
	out := make(chan provider.StreamDelta, 2)
	out <- provider.StreamDelta{Content: "partial"}
	out <- provider.StreamDelta{Err: errors.New("backend connection reset")}
	close(out)
	return out, nil
}

type fakeEmbeddingDriver struct{}

func (fakeEmbeddingDriver) Embed(ctx context.Context, req provider.EmbeddingRequest) (*provider.EmbeddingResponse, error) {
	data := make([]provider.EmbeddingData, len(req.Input))
	for i := range req.Input {
		data[i] = provider.EmbeddingData{Embedding: []float32{0.1, 0.2}, Index: i}
	}
	return &provider.EmbeddingResponse{Model: req.Model, Data: data}, nil
}

type fakeRerankDriver struct{}

func (fakeRerankDriver) Rerank(ctx context.Context, req provider.RerankRequest) ([]provider.RerankResult, error) {
	out := make([]provider.RerankResult, len(req.Documents))
	for i, d := range req.Documents {
		out[i] = provider.RerankResult{Index: i, RelevanceScore: 1.0 - float64(i)*0.1, Document: d}
	}
	return out, nil
}

func buildTestRegistry(t *testing.T, complexity string) *prompt.Registry {
	t.Helper()
	dir := t.TempDir()
	content := "id: podcast_segment\nversion: v1\ntemplate: \"Summarize {{.topic}}\"\nmeta:\n  complexity: " + complexity + "\n"
	require.NoError(t, os.WriteFile(dir+"/podcast_segment.yaml", []byte(content), 0644))
	reg, err := prompt.Load(dir)
	require.NoError(t, err)
	return reg
}

func TestHandleChatCompletions_AutoRoutesByComplexity(t *testing.T) {
	reg := buildTestRegistry(t, "synthesis")
	driver := &fakeChatDriver{}
	r := router.New(reg, map[string]provider.ChatCapable{"openai": driver}, nil)

	srv := New(Deps{Prompts: reg, Router: r})

	body := `{"provider":"auto","prompt_type":"podcast_segment","prompt_vars":{"topic":"space"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, router.DefaultModelMap["synthesis"].Model, driver.modelSeen)

	var resp chatCompletionResponseWireShape
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, router.DefaultModelMap["synthesis"].Model, resp.Model)
}

func TestHandleChatCompletions_RequiresMessagesOrPromptType(t *testing.T) {
	srv := New(Deps{Prompts: buildTestRegistry(t, "default")})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewBufferString(`{"provider":"openai"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEmbeddings_UsesDefaultWhenUnspecified(t *testing.T) {
	srv := New(Deps{
		Embeddings:               fakeEmbeddingDriver{},
		DefaultEmbeddingProvider: "jina",
		DefaultEmbeddingModel:    "jina-clip-v2",
	})

	body := `{"input":"hello world"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp provider.EmbeddingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "jina-clip-v2", resp.Model)
	require.Len(t, resp.Data, 1)
}

func TestHandleEmbeddings_FullModelTakesPrecedence(t *testing.T) {
	srv := New(Deps{Embeddings: fakeEmbeddingDriver{}})

	body := `{"input":["a","b"],"fullModel":"20240101@v1@jina/jina-clip-v2"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp provider.EmbeddingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "jina-clip-v2", resp.Model)
	require.Len(t, resp.Data, 2)
}

func TestHandleEmbeddings_NotConfigured(t *testing.T) {
	srv := New(Deps{})
	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", bytes.NewBufferString(`{"input":"hi"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandleRerank_OrdersResults(t *testing.T) {
	srv := New(Deps{Rerank: fakeRerankDriver{}})

	body := `{"query":"q","documents":[{"text":"doc a"},{"text":"doc b"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rerank", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Model   string             `json:"model"`
		Results []rerankResultWire `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "jina-reranker-v2-base-multilingual", resp.Model)
	require.Len(t, resp.Results, 2)
	require.Equal(t, "doc a", resp.Results[0].Document.Text)
}

func TestHandleRerank_EmptyDocuments(t *testing.T) {
	srv := New(Deps{Rerank: fakeRerankDriver{}})
	req := httptest.NewRequest(http.MethodPost, "/v1/rerank", bytes.NewBufferString(`{"query":"q","documents":[]}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

// A stream that's cut mid-flight must surface as a {"error": ...} SSE frame
// followed by the usual [DONE] terminator, not a stream that just ends as if
// it finished cleanly.
func TestHandleChatCompletions_StreamCutMidFlightEmitsErrorFrame(t *testing.T) {
	srv := New(Deps{ChatBackends: map[string]provider.ChatCapable{"openai": fakeCutStreamDriver{}}})

	body := `{"provider":"openai","stream":true,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()

	errIdx := strings.Index(out, `data: {"error":"backend connection reset"}`)
	doneIdx := strings.Index(out, "data: [DONE]")
	require.NotEqual(t, -1, errIdx, "expected an error SSE frame, got: %s", out)
	require.NotEqual(t, -1, doneIdx, "expected a trailing [DONE] frame, got: %s", out)
	require.Less(t, errIdx, doneIdx, "error frame must precede [DONE]")
	require.Contains(t, out, `"content":"partial"`)
}

func TestHandleHealth(t *testing.T) {
	srv := New(Deps{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
