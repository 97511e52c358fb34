package vectorsearch

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ClusterConfig mirrors _cluster_vectors_auto's keyword arguments
// (original_source/generator/generator/generators/vector_helper.py).
type ClusterConfig struct {
	KMin           int
	KMax           int
	ReduceDim      bool
	Dim            int
	Normalize      bool
	NInit          int
	RandomSeed     int64
}

// DefaultClusterConfig mirrors the Python defaults: k_min=2, k_max=20,
// reduce_dim=True, dim=50, normalize_vectors=False, n_init=10.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{KMin: 2, KMax: 20, ReduceDim: true, Dim: 50, Normalize: false, NInit: 10, RandomSeed: 42}
}

// ClusterResult is what ClusterAuto returns: a label per input vector and
// the chosen k.
type ClusterResult struct {
	Labels []int
	K      int
}

// ClusterAuto groups vectors into between KMin and min(KMax, n) clusters,
// choosing k by maximizing silhouette score, per spec.md §4.G. Vectors
// with n<2 cannot be clustered.
func ClusterAuto(vectors [][]float32, cfg ClusterConfig) (*ClusterResult, error) {
	n := len(vectors)
	if n < 2 {
		return nil, fmt.Errorf("vectorsearch: need at least 2 samples to cluster, got %d", n)
	}

	data := toFloat64Matrix(vectors)

	if cfg.Normalize {
		l2NormalizeRows(data)
	}

	if cfg.ReduceDim && len(data[0]) > cfg.Dim {
		data = pcaReduce(data, cfg.Dim)
	}

	rng := rand.New(rand.NewSource(cfg.RandomSeed))

	upperK := cfg.KMax
	if n < upperK {
		upperK = n
	}

	bestScore := math.Inf(-1)
	var bestLabels []int
	bestK := -1

	for k := cfg.KMin; k <= upperK; k++ {
		labels, _ := kMeansBest(data, k, cfg.NInit, rng)
		if !everyClusterHasAtLeast2(labels, k) {
			continue
		}

		score := silhouetteScore(data, labels)
		if score > bestScore {
			bestScore = score
			bestLabels = labels
			bestK = k
		}
	}

	if bestK == -1 {
		fallbackK := cfg.KMin
		if n < fallbackK {
			fallbackK = n
		}
		labels, _ := kMeansBest(data, fallbackK, cfg.NInit, rng)
		return &ClusterResult{Labels: labels, K: fallbackK}, nil
	}

	return &ClusterResult{Labels: bestLabels, K: bestK}, nil
}

func toFloat64Matrix(vectors [][]float32) [][]float64 {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(v))
		for j, x := range v {
			row[j] = float64(x)
		}
		out[i] = row
	}
	return out
}

func l2NormalizeRows(data [][]float64) {
	for i, row := range data {
		var sumSq float64
		for _, x := range row {
			sumSq += x * x
		}
		norm := math.Sqrt(sumSq)
		if norm == 0 {
			continue
		}
		for j := range row {
			data[i][j] = row[j] / norm
		}
	}
}

// pcaReduce projects data onto its top `dim` principal components via
// SVD of the mean-centered matrix, matching sklearn.decomposition.PCA's
// fit_transform (original_source's vector_helper.py).
func pcaReduce(data [][]float64, dim int) [][]float64 {
	n := len(data)
	d := len(data[0])
	if dim >= d {
		return data
	}

	means := make([]float64, d)
	for _, row := range data {
		for j, x := range row {
			means[j] += x
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}

	centered := mat.NewDense(n, d, nil)
	for i, row := range data {
		for j, x := range row {
			centered.Set(i, j, x-means[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		// SVD failed to converge; fall back to the original (unreduced)
		// data rather than erroring the whole clustering pass.
		return data
	}

	var v mat.Dense
	svd.VTo(&v)

	components := dim
	if c := v.RawMatrix().Cols; components > c {
		components = c
	}

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, components)
		for j := 0; j < components; j++ {
			var sum float64
			for k := 0; k < d; k++ {
				sum += centered.At(i, k) * v.At(k, j)
			}
			row[j] = sum
		}
		out[i] = row
	}
	return out
}

// kMeansBest runs Lloyd's algorithm nInit times from random centroid seeds
// and keeps the lowest-inertia run, the Go analogue of sklearn's n_init
// parameter.
func kMeansBest(data [][]float64, k int, nInit int, rng *rand.Rand) ([]int, float64) {
	var bestLabels []int
	bestInertia := math.Inf(1)

	for attempt := 0; attempt < nInit; attempt++ {
		labels, inertia := kMeansOnce(data, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
		}
	}
	return bestLabels, bestInertia
}

func kMeansOnce(data [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	n := len(data)
	d := len(data[0])

	centroids := kMeansPlusPlusInit(data, k, rng)
	labels := make([]int, n)

	const maxIters = 100
	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for i, point := range data {
			best := 0
			bestDist := math.Inf(1)
			for c, centroid := range centroids {
				dist := squaredEuclidean(point, centroid)
				if dist < bestDist {
					bestDist = dist
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		newCentroids := make([][]float64, k)
		counts := make([]int, k)
		for c := range newCentroids {
			newCentroids[c] = make([]float64, d)
		}
		for i, point := range data {
			c := labels[i]
			counts[c]++
			for j, x := range point {
				newCentroids[c][j] += x
			}
		}
		for c := range newCentroids {
			if counts[c] == 0 {
				newCentroids[c] = centroids[c]
				continue
			}
			for j := range newCentroids[c] {
				newCentroids[c][j] /= float64(counts[c])
			}
		}
		centroids = newCentroids

		if !changed && iter > 0 {
			break
		}
	}

	var inertia float64
	for i, point := range data {
		inertia += squaredEuclidean(point, centroids[labels[i]])
	}
	return labels, inertia
}

// kMeansPlusPlusInit seeds k centroids using the k-means++ scheme:
// pick the first uniformly at random, then each subsequent centroid with
// probability proportional to its squared distance from the nearest
// already-chosen centroid.
func kMeansPlusPlusInit(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(data)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneRow(data[rng.Intn(n)]))

	distSq := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, point := range data {
			best := math.Inf(1)
			for _, c := range centroids {
				if dist := squaredEuclidean(point, c); dist < best {
					best = dist
				}
			}
			distSq[i] = best
			total += best
		}

		if total == 0 {
			centroids = append(centroids, cloneRow(data[rng.Intn(n)]))
			continue
		}

		target := rng.Float64() * total
		var cumulative float64
		chosen := n - 1
		for i, dsq := range distSq {
			cumulative += dsq
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, cloneRow(data[chosen]))
	}
	return centroids
}

func cloneRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)
	return out
}

func squaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func everyClusterHasAtLeast2(labels []int, k int) bool {
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}
	distinct := 0
	for _, c := range counts {
		if c > 0 {
			distinct++
		}
		if c > 0 && c < 2 {
			return false
		}
	}
	return distinct > 1
}

// silhouetteScore computes the mean silhouette coefficient over every
// sample (sklearn.metrics.silhouette_score), using squared-Euclidean
// distance converted to Euclidean for a/b per the standard definition.
func silhouetteScore(data [][]float64, labels []int) float64 {
	n := len(data)

	byCluster := make(map[int][]int)
	for i, l := range labels {
		byCluster[l] = append(byCluster[l], i)
	}

	var total float64
	for i := range data {
		own := labels[i]

		a := meanDistanceTo(data, i, byCluster[own], own == labels[i])

		b := math.Inf(1)
		for cluster, members := range byCluster {
			if cluster == own {
				continue
			}
			d := meanDistanceTo(data, i, members, false)
			if d < b {
				b = d
			}
		}

		s := 0.0
		if max := math.Max(a, b); max > 0 {
			s = (b - a) / max
		}
		total += s
	}

	return total / float64(n)
}

// meanDistanceTo computes the mean Euclidean distance from point i to
// every other point in members. If excludeSelf, i itself (present in
// members since it shares the cluster) is skipped.
func meanDistanceTo(data [][]float64, i int, members []int, excludeSelf bool) float64 {
	var sum float64
	count := 0
	for _, j := range members {
		if excludeSelf && j == i {
			continue
		}
		sum += math.Sqrt(squaredEuclidean(data[i], data[j]))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
