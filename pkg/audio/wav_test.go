package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeWAVRoundTrip(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32000, -32000, 0}

	encoded, err := EncodeWAV(samples, 16000)
	require.NoError(t, err)

	clip, err := DecodeWAV(encoded)
	require.NoError(t, err)
	require.Equal(t, 16000, clip.SampleRate)
	require.Equal(t, samples, clip.Samples)
}

func TestDecodeWAVRejectsNonWAV(t *testing.T) {
	_, err := DecodeWAV([]byte("not a wav file at all, just text"))
	require.Error(t, err)
}

func TestTrimSilenceDropsQuietEdges(t *testing.T) {
	samples := []int16{0, 0, 1, 30000, 30000, 1, 0, 0}
	trimmed := TrimSilence(samples, 20)
	require.Equal(t, []int16{30000, 30000}, trimmed)
}

func TestTrimSilenceAllSilent(t *testing.T) {
	samples := []int16{0, 0, 0, 0}
	trimmed := TrimSilence(samples, 20)
	require.Equal(t, samples, trimmed)
}

func TestStitchInsertsGapBetweenClips(t *testing.T) {
	clipA := Clip{Samples: []int16{30000, 30000}, SampleRate: 1000}
	clipB := Clip{Samples: []int16{30000, 30000}, SampleRate: 1000}

	samples, rate, err := Stitch([]Clip{clipA, clipB}, 20, 250)
	require.NoError(t, err)
	require.Equal(t, 1000, rate)

	gapSamples := 1000 * 250 / 1000
	require.Len(t, samples, len(clipA.Samples)+gapSamples+len(clipB.Samples))
	for _, s := range samples[len(clipA.Samples) : len(clipA.Samples)+gapSamples] {
		require.Equal(t, int16(0), s)
	}
}

func TestStitchRejectsMismatchedSampleRates(t *testing.T) {
	clipA := Clip{Samples: []int16{1, 2}, SampleRate: 16000}
	clipB := Clip{Samples: []int16{1, 2}, SampleRate: 8000}

	_, _, err := Stitch([]Clip{clipA, clipB}, 20, 250)
	require.Error(t, err)
}

func TestStitchRejectsEmpty(t *testing.T) {
	_, _, err := Stitch(nil, 20, 250)
	require.Error(t, err)
}
