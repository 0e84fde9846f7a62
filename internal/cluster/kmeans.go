package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrTooFewSamples is returned when there are fewer rows than clusters.
	ErrTooFewSamples = errors.New("cluster: fewer samples than clusters")
	// ErrMissingValues is returned by the reject policy when a customer
	// lacks one of the clustered metrics.
	ErrMissingValues = errors.New("cluster: missing values")
)

// KMeans holds the fit parameters. The zero value is not usable; start
// from DefaultKMeans.
type KMeans struct {
	K       int
	MaxIter int
	NInit   int
	Tol     float64
	Seed    int64
}

func DefaultKMeans() KMeans {
	return KMeans{K: 3, MaxIter: 300, NInit: 10, Tol: 1e-4, Seed: 42}
}

// Model is a fitted K-Means model. It is immutable once returned by Fit.
type Model struct {
	centroids  [][]float64
	Inertia    float64 `json:"inertia" yaml:"inertia"`
	Iterations int     `json:"iterations" yaml:"iterations"`
}

// Centroids returns a copy of the cluster centers.
func (m Model) Centroids() [][]float64 {
	out := make([][]float64, len(m.centroids))
	for i, c := range m.centroids {
		out[i] = append([]float64(nil), c...)
	}
	return out
}

// Predict returns the index of the nearest centroid. Ties go to the lower index.
func (m Model) Predict(x []float64) int {
	best, bestD := 0, math.Inf(1)
	for i, c := range m.centroids {
		if d := sqDist(x, c); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Fit runs NInit k-means++ seeded Lloyd iterations and keeps the lowest
// inertia. Identical input and Seed give identical models.
func (k KMeans) Fit(rows [][]float64) (Model, []int, error) {
	if k.K <= 0 {
		return Model{}, nil, fmt.Errorf("cluster: k must be positive, got %d", k.K)
	}
	if len(rows) < k.K {
		return Model{}, nil, fmt.Errorf("%w: %d samples, k=%d", ErrTooFewSamples, len(rows), k.K)
	}
	def := DefaultKMeans()
	if k.MaxIter <= 0 {
		k.MaxIter = def.MaxIter
	}
	if k.NInit <= 0 {
		k.NInit = def.NInit
	}
	if k.Tol < 0 {
		k.Tol = def.Tol
	}
	tol := k.Tol * meanVariance(rows)
	rng := rand.New(rand.NewSource(k.Seed))

	var best Model
	var bestLabels []int
	for run := 0; run < k.NInit; run++ {
		centroids := initPlusPlus(rows, k.K, rng)
		m, labels := lloyd(rows, centroids, k.MaxIter, tol)
		log.Debug().Int("run", run).Float64("inertia", m.Inertia).Int("iterations", m.Iterations).Msg("kmeans run")
		if bestLabels == nil || m.Inertia < best.Inertia {
			best, bestLabels = m, labels
		}
	}
	return best, bestLabels, nil
}

// initPlusPlus picks the first center uniformly and each next one with
// probability proportional to its squared distance from the nearest center.
func initPlusPlus(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), rows[rng.Intn(len(rows))]...))
	d2 := make([]float64, len(rows))
	for i, r := range rows {
		d2[i] = sqDist(r, centroids[0])
	}
	for len(centroids) < k {
		total := floats.Sum(d2)
		var pick int
		if total == 0 {
			pick = rng.Intn(len(rows))
		} else {
			target := rng.Float64() * total
			acc := 0.0
			pick = len(rows) - 1
			for i, d := range d2 {
				acc += d
				if acc >= target && d > 0 {
					pick = i
					break
				}
			}
		}
		c := append([]float64(nil), rows[pick]...)
		centroids = append(centroids, c)
		for i, r := range rows {
			if d := sqDist(r, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

func lloyd(rows [][]float64, centroids [][]float64, maxIter int, tol float64) (Model, []int) {
	k := len(centroids)
	dim := len(rows[0])
	labels := make([]int, len(rows))
	m := Model{centroids: centroids}
	for it := 1; it <= maxIter; it++ {
		m.Iterations = it
		for i, r := range rows {
			labels[i] = m.Predict(r)
		}
		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, dim)
		}
		for i, r := range rows {
			floats.Add(next[labels[i]], r)
			counts[labels[i]]++
		}
		var reseeded map[int]bool
		for c := range next {
			if counts[c] == 0 {
				// Reseed an empty cluster at the point farthest from its center,
				// never reusing a point within one iteration.
				if reseeded == nil {
					reseeded = map[int]bool{}
				}
				far := farthest(rows, labels, m.centroids, reseeded)
				reseeded[far] = true
				copy(next[c], rows[far])
				continue
			}
			floats.Scale(1/float64(counts[c]), next[c])
		}
		shift := 0.0
		for c := range next {
			shift += sqDist(next[c], m.centroids[c])
		}
		m.centroids = next
		if shift <= tol {
			break
		}
	}
	m.Inertia = 0
	for i, r := range rows {
		labels[i] = m.Predict(r)
		m.Inertia += sqDist(r, m.centroids[labels[i]])
	}
	return m, labels
}

func farthest(rows [][]float64, labels []int, centroids [][]float64, skip map[int]bool) int {
	best, bestD := 0, -1.0
	for i, r := range rows {
		if skip[i] {
			continue
		}
		if d := sqDist(r, centroids[labels[i]]); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

func meanVariance(rows [][]float64) float64 {
	dim := len(rows[0])
	col := make([]float64, len(rows))
	sum := 0.0
	for j := 0; j < dim; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		_, sd := stat.PopMeanStdDev(col, nil)
		sum += sd * sd
	}
	return sum / float64(dim)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
