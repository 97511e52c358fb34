package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fylr-platform/core/pkg/provider"
)

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer jina-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"model": "jina-clip-v2",
			"data": [{"embedding": [0.1, 0.2], "index": 0}, {"embedding": [0.3, 0.4], "index": 1}],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	d := New(srv.URL, "jina-key")
	resp, err := d.Embed(context.Background(), provider.EmbeddingRequest{Model: "jina-clip-v2", Input: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "jina", resp.Provider)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, []float32{0.1, 0.2}, resp.Data[0].Embedding)
	assert.Equal(t, 4, resp.Usage.TotalTokens)
}

func TestRerank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)
		w.Write([]byte(`{"results": [{"index": 1, "relevance_score": 0.9}, {"index": 0, "relevance_score": 0.4}]}`))
	}))
	defer srv.Close()

	d := New(srv.URL, "jina-key")
	docs := []provider.RerankDocument{{Text: "doc a"}, {Text: "doc b"}}
	results, err := d.Rerank(context.Background(), provider.RerankRequest{Model: "rerank-v2", Query: "q", Documents: docs})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 0.9, results[0].RelevanceScore)
	assert.Equal(t, "doc b", results[0].Document.Text)
}

func TestEmbed_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	d := New(srv.URL, "jina-key")
	_, err := d.Embed(context.Background(), provider.EmbeddingRequest{Model: "m", Input: []string{"a"}})
	require.Error(t, err)
}
