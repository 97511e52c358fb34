package amqp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusEventMarshal(t *testing.T) {
	t.Run("basic stage", func(t *testing.T) {
		body, err := StatusEvent{Stage: "STARTING", Message: "parsing message"}.marshal()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(body, &decoded))
		require.Equal(t, "jobStatusUpdate", decoded["eventName"])

		payload := decoded["payload"].(map[string]any)
		require.Equal(t, "STARTING", payload["stage"])
		require.Equal(t, "parsing message", payload["message"])
		require.NotContains(t, payload, "error")
	})

	t.Run("error stage with extra fields", func(t *testing.T) {
		body, err := StatusEvent{
			Stage:   "FAILED",
			Message: "embedding count mismatch",
			Error:   true,
			Extra:   map[string]any{"chunkCount": 3},
		}.marshal()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(body, &decoded))
		payload := decoded["payload"].(map[string]any)
		require.Equal(t, true, payload["error"])
		require.EqualValues(t, 3, payload["chunkCount"])
	})
}

func TestRoutingKeys(t *testing.T) {
	require.Equal(t, "job.j1.status", JobRoutingKey("j1"))
	require.Equal(t, "summary.s1.status", SummaryRoutingKey("s1"))
	require.Equal(t, "podcast.p1.status", PodcastRoutingKey("p1"))
}
