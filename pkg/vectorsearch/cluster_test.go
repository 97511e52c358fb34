package vectorsearch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func twoBlobs() [][]float32 {
	var vectors [][]float32
	for i := 0; i < 6; i++ {
		vectors = append(vectors, []float32{0, 0, float32(i) * 0.01})
	}
	for i := 0; i < 6; i++ {
		vectors = append(vectors, []float32{10, 10, float32(i) * 0.01})
	}
	return vectors
}

func TestClusterAutoFindsTwoWellSeparatedBlobs(t *testing.T) {
	cfg := DefaultClusterConfig()
	cfg.KMax = 5
	cfg.ReduceDim = false

	result, err := ClusterAuto(twoBlobs(), cfg)
	require.NoError(t, err)
	require.Equal(t, 2, result.K)
	require.Len(t, result.Labels, 12)

	for _, label := range result.Labels {
		require.GreaterOrEqual(t, label, 0)
		require.Less(t, label, result.K)
	}

	firstHalf := result.Labels[0]
	for _, l := range result.Labels[:6] {
		require.Equal(t, firstHalf, l)
	}
	secondHalf := result.Labels[6]
	for _, l := range result.Labels[6:] {
		require.Equal(t, secondHalf, l)
	}
	require.NotEqual(t, firstHalf, secondHalf)
}

func TestClusterAutoRejectsFewerThanTwoSamples(t *testing.T) {
	_, err := ClusterAuto([][]float32{{1, 2, 3}}, DefaultClusterConfig())
	require.Error(t, err)
}

func TestClusterAutoLabelsWithinBounds(t *testing.T) {
	cfg := DefaultClusterConfig()
	cfg.KMin = 2
	cfg.KMax = 4
	cfg.ReduceDim = false

	vectors := twoBlobs()
	result, err := ClusterAuto(vectors, cfg)
	require.NoError(t, err)
	require.LessOrEqual(t, result.K, cfg.KMax)
	require.GreaterOrEqual(t, len(result.Labels), 1)
}
