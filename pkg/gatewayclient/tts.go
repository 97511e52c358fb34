package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fylr-platform/core/pkg/httpclient"
)

type ttsRequestWire struct {
	Provider string         `json:"provider,omitempty"`
	Text     string         `json:"text"`
	Model    string         `json:"model,omitempty"`
	Voice    string         `json:"voice,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

// SynthesizeSpeech calls POST /v1/tts and returns the raw audio bytes the
// gateway streams back (not a JSON envelope), the podcast generator's
// per-line narration step (spec.md §4.J step 6).
func (c *Client) SynthesizeSpeech(ctx context.Context, text, voice, model, provider string) ([]byte, error) {
	body, err := json.Marshal(ttsRequestWire{
		Provider: provider,
		Text:     text,
		Model:    model,
		Voice:    voice,
	})
	if err != nil {
		return nil, fmt.Errorf("gatewayclient: marshal tts request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gatewayclient: tts request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gatewayclient: read tts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(audio)}
	}
	return audio, nil
}
