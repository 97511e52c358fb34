// Package gatewayclient is the worker-side HTTP client for the AI
// Gateway's embeddings, chat, and TTS endpoints, used by the ingestion
// worker and the generators to reach every AI capability through one
// HTTP boundary rather than linking against pkg/provider directly.
// Grounded on original_source's ingestor main.py get_embeddings() helper
// and the generator package's AIGatewayService (generate_embeddings,
// generate_text, generate_tts), reimplemented on pkg/httpclient for
// retries/timeouts instead of httpx.
package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fylr-platform/core/pkg/httpclient"
)

// Client calls one AI Gateway instance's HTTP surface.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

// New builds a Client pointed at baseURL (e.g. http://ai-gateway:8080).
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: httpclient.New(
			httpclient.WithTimeout(120 * time.Second),
			httpclient.WithHeaderParser(httpclient.ParseGenericRetryAfter),
		),
	}
}

// do executes a POST of wire marshaled as JSON against the gateway path
// and returns the raw response body, erroring on any non-200 status.
func (c *Client) do(ctx context.Context, path string, wire any) ([]byte, error) {
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("gatewayclient: marshal %s request: %w", path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gatewayclient: %s request: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

type embeddingsRequestWire struct {
	Provider  string         `json:"provider,omitempty"`
	Model     string         `json:"model,omitempty"`
	FullModel string         `json:"fullModel,omitempty"`
	Input     []string       `json:"input"`
	Options   map[string]any `json:"options,omitempty"`
}

type embeddingsResponseWire struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed calls POST /v1/embeddings with model (a plain provider model name,
// used by the primary ingestion path) and returns one embedding per input,
// in request order.
func (c *Client) Embed(ctx context.Context, provider, model string, input []string) ([][]float32, error) {
	return c.embed(ctx, embeddingsRequestWire{Provider: provider, Model: model, Input: input})
}

// EmbedFullModel calls POST /v1/embeddings with a fullModel identifier
// (`timestamp@version@provider/model`), the re-ingestion path's calling
// convention (original_source's reingest main.py passes the embedding
// model straight through as fullModel).
func (c *Client) EmbedFullModel(ctx context.Context, fullModel string, input []string) ([][]float32, error) {
	return c.embed(ctx, embeddingsRequestWire{FullModel: fullModel, Input: input, Options: map[string]any{}})
}

// EmbedQuery embeds a single query string under the default embedding
// model, the shape pkg/vectorsearch.Embedder needs for k-NN search calls
// the generators make.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := c.embed(ctx, embeddingsRequestWire{Input: []string{text}})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("gatewayclient: embed query returned no data")
	}
	return out[0], nil
}

func (c *Client) embed(ctx context.Context, wire embeddingsRequestWire) ([][]float32, error) {
	respBody, err := c.do(ctx, "/v1/embeddings", wire)
	if err != nil {
		return nil, err
	}

	var parsed embeddingsResponseWire
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("gatewayclient: decode embeddings response: %w", err)
	}

	out := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
