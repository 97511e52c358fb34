// Package elevenlabs implements provider.TTSCapable against ElevenLabs'
// voice-cloning text-to-speech API, grounded on original_source's
// ai_gateway/providers/providers/elevenlabs.py.
package elevenlabs

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

// Driver calls ElevenLabs' /v1/text-to-speech/{voice_id} endpoint.
type Driver struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

// New builds a Driver pointed at baseURL (e.g. https://api.elevenlabs.io).
func New(baseURL, apiKey string) *Driver {
	return &Driver{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: httpclient.New(
			httpclient.WithTimeout(60*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseGenericRetryAfter),
		),
	}
}

// voiceSettings mirrors elevenlabs.py's defaults exactly: stability 0.5,
// similarity_boost 0.5, style 0.0, use_speaker_boost true.
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

func defaultVoiceSettings() voiceSettings {
	return voiceSettings{Stability: 0.5, SimilarityBoost: 0.5, Style: 0.0, UseSpeakerBoost: true}
}

func voiceSettingsFromOptions(options map[string]any) voiceSettings {
	vs := defaultVoiceSettings()
	if options == nil {
		return vs
	}
	if v, ok := options["stability"].(float64); ok {
		vs.Stability = v
	}
	if v, ok := options["similarity_boost"].(float64); ok {
		vs.SimilarityBoost = v
	}
	if v, ok := options["style"].(float64); ok {
		vs.Style = v
	}
	if v, ok := options["use_speaker_boost"].(bool); ok {
		vs.UseSpeakerBoost = v
	}
	return vs
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// SynthesizeSpeech converts req.Text to speech using req.Voice as the
// ElevenLabs voice id, returning the full audio byte buffer (the streaming
// generator in elevenlabs.py's client.generate() is joined into one
// buffer there too) and its content type.
func (d *Driver) SynthesizeSpeech(ctx context.Context, req provider.TTSRequest) ([]byte, string, error) {
	wire := ttsRequest{
		Text:          req.Text,
		ModelID:       req.Model,
		VoiceSettings: voiceSettingsFromOptions(req.Options),
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, "", fmt.Errorf("marshal tts request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", d.baseURL, req.Voice)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", strings.TrimSpace(d.apiKey))

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs tts request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read tts response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(audio)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return audio, contentType, nil
}
