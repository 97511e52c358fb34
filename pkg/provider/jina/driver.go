// Package jina implements provider.EmbeddingCapable and provider.RerankCapable
// against Jina AI's hosted embeddings+rerank API, grounded on
// original_source's ai_gateway/providers/providers/jina.py.
package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fylr-platform/core/pkg/httpclient"
	"github.com/fylr-platform/core/pkg/provider"
)

// Driver calls Jina's /embeddings and /rerank endpoints.
type Driver struct {
	baseURL string
	apiKey  string

	embedClient  *httpclient.Client
	rerankClient *httpclient.Client
}

// New builds a Driver pointed at baseURL (e.g. https://api.jina.ai/v1).
// Embeddings use a 30s timeout; rerank uses the same 30s timeout
// explicitly set in jina.py's rerank() call.
func New(baseURL, apiKey string) *Driver {
	return &Driver{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		embedClient: httpclient.New(
			httpclient.WithTimeout(30*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseGenericRetryAfter),
		),
		rerankClient: httpclient.New(
			httpclient.WithTimeout(30*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseGenericRetryAfter),
		),
	}
}

func (d *Driver) post(ctx context.Context, client *httpclient.Client, path string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(d.apiKey))

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("jina %s request: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Model string `json:"model"`
	Data  []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed always posts a list to Jina even when the caller passed a single
// string input, per jina.py's generate_embeddings (accepts str or list,
// always posts list).
func (d *Driver) Embed(ctx context.Context, req provider.EmbeddingRequest) (*provider.EmbeddingResponse, error) {
	body, err := json.Marshal(embeddingsRequest{Model: req.Model, Input: req.Input})
	if err != nil {
		return nil, fmt.Errorf("marshal embeddings request: %w", err)
	}

	respBody, err := d.post(ctx, d.embedClient, "/embeddings", body)
	if err != nil {
		return nil, err
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}

	out := &provider.EmbeddingResponse{
		Provider: "jina",
		Model:    parsed.Model,
		Usage: provider.Usage{
			PromptTokens: parsed.Usage.PromptTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
	}
	for _, d := range parsed.Data {
		out.Data = append(out.Data, provider.EmbeddingData{Embedding: d.Embedding, Index: d.Index})
	}
	return out, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      *int     `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores Documents against Query. TopN is optional: omitted, Jina
// returns every document ranked.
func (d *Driver) Rerank(ctx context.Context, req provider.RerankRequest) ([]provider.RerankResult, error) {
	texts := make([]string, len(req.Documents))
	for i, doc := range req.Documents {
		texts[i] = doc.Text
	}

	wire := rerankRequest{Model: req.Model, Query: req.Query, Documents: texts}
	if req.TopN > 0 {
		wire.TopN = &req.TopN
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	respBody, err := d.post(ctx, d.rerankClient, "/rerank", body)
	if err != nil {
		return nil, err
	}

	var parsed rerankResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	results := make([]provider.RerankResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		doc := provider.RerankDocument{}
		if r.Index >= 0 && r.Index < len(req.Documents) {
			doc = req.Documents[r.Index]
		}
		results = append(results, provider.RerankResult{
			Index:          r.Index,
			RelevanceScore: r.RelevanceScore,
			Document:       doc,
		})
	}
	return results, nil
}
