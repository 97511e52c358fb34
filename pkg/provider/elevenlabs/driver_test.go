package elevenlabs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fylr-platform/core/pkg/provider"
)

func TestSynthesizeSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-a", r.URL.Path)
		assert.Equal(t, "eleven-key", r.Header.Get("xi-api-key"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("fake-audio-bytes"))
	}))
	defer srv.Close()

	d := New(srv.URL, "eleven-key")
	audio, contentType, err := d.SynthesizeSpeech(context.Background(), provider.TTSRequest{
		Text:  "hello world",
		Model: "eleven_multilingual_v2",
		Voice: "voice-a",
	})
	require.NoError(t, err)
	assert.Equal(t, "fake-audio-bytes", string(audio))
	assert.Equal(t, "audio/mpeg", contentType)
}

func TestSynthesizeSpeech_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid api key"))
	}))
	defer srv.Close()

	d := New(srv.URL, "bad-key")
	_, _, err := d.SynthesizeSpeech(context.Background(), provider.TTSRequest{Text: "hi", Voice: "voice-a"})
	require.Error(t, err)
}

func TestVoiceSettingsFromOptions(t *testing.T) {
	def := voiceSettingsFromOptions(nil)
	assert.Equal(t, defaultVoiceSettings(), def)

	custom := voiceSettingsFromOptions(map[string]any{
		"stability":         0.9,
		"similarity_boost":  0.2,
		"style":             0.1,
		"use_speaker_boost": false,
	})
	assert.Equal(t, 0.9, custom.Stability)
	assert.Equal(t, 0.2, custom.SimilarityBoost)
	assert.Equal(t, 0.1, custom.Style)
	assert.False(t, custom.UseSpeakerBoost)
}
