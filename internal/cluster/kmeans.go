package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// KMeans partitions rows into K clusters with Lloyd's algorithm. Centroids
// are seeded with kmeans++, and NInit independent restarts are run with the
// lowest-inertia result kept. All randomness flows from Seed, so identical
// input and seed produce identical labels.
type KMeans struct {
	K       int
	MaxIter int
	NInit   int
	Seed    int64

	Centroids [][]float64
	Labels    []int
	Inertia   float64
}

// NewKMeans returns a model with the defaults used by the cluster command:
// 300 iterations per restart and 10 restarts.
func NewKMeans(k int, seed int64) *KMeans {
	return &KMeans{K: k, MaxIter: 300, NInit: 10, Seed: seed}
}

// FitPredict fits the model on X and returns one label per row, in [0, K).
// A non-numeric (NaN) value anywhere in X is a fatal error: aggregation is
// expected to deliver numeric data, and there is no graceful handling for
// anything else.
func (m *KMeans) FitPredict(X *mat.Dense) ([]int, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Labels, nil
}

// Fit runs the restarts and stores the best centroids, labels, and inertia.
func (m *KMeans) Fit(X *mat.Dense) error {
	n, d := X.Dims()
	if n == 0 {
		return errors.New("kmeans: empty input")
	}
	if m.K < 1 {
		return fmt.Errorf("kmeans: k must be >= 1, got %d", m.K)
	}
	if n < m.K {
		return fmt.Errorf("kmeans: %d rows cannot support k=%d", n, m.K)
	}

	points := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, X)
		for j := 0; j < d; j++ {
			if math.IsNaN(row[j]) {
				return fmt.Errorf("kmeans: non-numeric value in row %d", i)
			}
		}
		points[i] = row
	}

	rng := rand.New(rand.NewSource(m.Seed))

	best := math.Inf(1)
	for run := 0; run < m.NInit; run++ {
		centroids, labels, inertia := m.fitOnce(points, d, rng)
		if inertia < best {
			best = inertia
			m.Centroids = centroids
			m.Labels = labels
		}
	}
	m.Inertia = best
	return nil
}

// fitOnce performs one seeded run of Lloyd's algorithm.
func (m *KMeans) fitOnce(points [][]float64, d int, rng *rand.Rand) ([][]float64, []int, float64) {
	n := len(points)
	centroids := m.seedCentroids(points, rng)
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	for it := 0; it < m.MaxIter; it++ {
		changed := false
		for i, p := range points {
			nearest := nearestCentroid(p, centroids)
			if assign[i] != nearest {
				assign[i] = nearest
				changed = true
			}
		}

		sums := make([][]float64, m.K)
		counts := make([]int, m.K)
		for k := range sums {
			sums[k] = make([]float64, d)
		}
		for i, p := range points {
			k := assign[i]
			counts[k]++
			for j, v := range p {
				sums[k][j] += v
			}
		}
		for k := 0; k < m.K; k++ {
			if counts[k] == 0 {
				// Re-seed an empty cluster with the point farthest from its
				// current centroid, and move that point into the cluster.
				idx := farthestPoint(points, centroids, assign)
				copy(centroids[k], points[idx])
				assign[idx] = k
				changed = true
				continue
			}
			for j := 0; j < d; j++ {
				centroids[k][j] = sums[k][j] / float64(counts[k])
			}
		}

		if !changed {
			break
		}
	}

	inertia := 0.0
	for i, p := range points {
		inertia += euclidSquared(p, centroids[assign[i]])
	}
	return centroids, assign, inertia
}

// seedCentroids picks K starting centroids with kmeans++: the first uniformly
// at random, the rest proportionally to squared distance from the nearest
// chosen centroid.
func (m *KMeans) seedCentroids(points [][]float64, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, m.K)

	first := rng.Intn(n)
	centroids[0] = append([]float64(nil), points[first]...)

	distSq := make([]float64, n)
	for k := 1; k < m.K; k++ {
		total := 0.0
		for i, p := range points {
			nearest := math.Inf(1)
			for _, c := range centroids[:k] {
				if d2 := euclidSquared(p, c); d2 < nearest {
					nearest = d2
				}
			}
			distSq[i] = nearest
			total += nearest
		}

		idx := n - 1
		if total > 0 {
			r := rng.Float64() * total
			cumulative := 0.0
			for i, d2 := range distSq {
				cumulative += d2
				if cumulative >= r {
					idx = i
					break
				}
			}
		} else {
			// All remaining points coincide with a centroid.
			idx = rng.Intn(n)
		}
		centroids[k] = append([]float64(nil), points[idx]...)
	}
	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for k, c := range centroids {
		if d2 := euclidSquared(p, c); d2 < bestDist {
			bestDist = d2
			best = k
		}
	}
	return best
}

// farthestPoint returns the index of the point with the largest squared
// distance to its assigned centroid.
func farthestPoint(points [][]float64, centroids [][]float64, assign []int) int {
	idx, worst := 0, -1.0
	for i, p := range points {
		if d2 := euclidSquared(p, centroids[assign[i]]); d2 > worst {
			worst = d2
			idx = i
		}
	}
	return idx
}

func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for j := range a {
		diff := a[j] - b[j]
		sum += diff * diff
	}
	return sum
}
