package cluster

import (
	"errors"
	"fmt"
	"testing"

	"github.com/KaramelBytes/xdrstat/internal/aggregate"
	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// three well separated groups of ten customers
func groups() []aggregate.Customer {
	centers := [][3]float64{{1e3, 20, 50}, {5e6, 120, 300}, {2e7, 400, 9000}}
	var out []aggregate.Customer
	for g, c := range centers {
		for i := 0; i < 10; i++ {
			jitter := 1 + float64(i)/100
			out = append(out, aggregate.Customer{
				ID:            fmt.Sprintf("g%d-%d", g, i),
				AvgTCPRetrans: dataset.Some(c[0] * jitter),
				AvgRTT:        dataset.Some(c[1] * jitter),
				AvgThroughput: dataset.Some(c[2] * jitter),
			})
		}
	}
	return out
}

func TestScalerStandardizesAndInverts(t *testing.T) {
	rows := [][]float64{{1, 5}, {3, 5}, {5, 5}}
	s, err := FitScaler(rows)
	require.NoError(t, err)
	z := s.Transform(rows)
	assert.InDelta(t, -1.224744871, z[0][0], 1e-9)
	assert.InDelta(t, 0, z[1][0], 1e-12)
	assert.Equal(t, 0.0, z[2][1], "zero spread becomes 0")
	back := s.Inverse(z[2])
	assert.InDeltaSlice(t, rows[2], back, 1e-9)

	_, err = FitScaler(nil)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestCustomersDeterministicWithSeed(t *testing.T) {
	first, err := Customers(groups(), Options{})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := Customers(groups(), Options{})
		require.NoError(t, err)
		assert.Equal(t, first.Assignments, again.Assignments)
		assert.Equal(t, first.Inertia, again.Inertia)
	}
}

func TestCustomersSeparatesGroups(t *testing.T) {
	res, err := Customers(groups(), Options{KMeans: DefaultKMeans()})
	require.NoError(t, err)
	require.Len(t, res.Assignments, 30)
	for _, a := range res.Assignments {
		assert.GreaterOrEqual(t, a.Label, 0)
		assert.Less(t, a.Label, 3)
	}
	for g := 0; g < 3; g++ {
		want := res.Assignments[g*10].Label
		for i := 1; i < 10; i++ {
			assert.Equal(t, want, res.Assignments[g*10+i].Label)
		}
	}
	sizes := 0
	for _, p := range res.Profiles {
		assert.Equal(t, 10, p.Size)
		sizes += p.Size
	}
	assert.Equal(t, 30, sizes)

	big := res.Profiles[res.Assignments[20].Label]
	assert.InDelta(t, 400*1.045, big.AvgRTT, 1e-6)
}

func TestMissingPolicies(t *testing.T) {
	cs := groups()
	cs[3].AvgRTT = dataset.Absent

	res, err := Customers(cs, Options{Missing: MissingDrop})
	require.NoError(t, err)
	assert.Equal(t, []string{"g0-3"}, res.Skipped)
	assert.Len(t, res.Assignments, 29)

	_, err = Customers(cs, Options{Missing: MissingReject})
	assert.True(t, errors.Is(err, ErrMissingValues))

	res, err = Customers(cs, Options{Missing: MissingImputeMean})
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	assert.Len(t, res.Assignments, 30)
}

func TestTooFewSamples(t *testing.T) {
	_, err := Customers(groups()[:2], Options{})
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestParseMissingPolicy(t *testing.T) {
	for in, want := range map[string]MissingPolicy{"": MissingDrop, "Reject": MissingReject, "impute": MissingImputeMean} {
		got, err := ParseMissingPolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMissingPolicy("zero")
	assert.Error(t, err)
}

func TestPredictTiesGoToLowerIndex(t *testing.T) {
	m := Model{centroids: [][]float64{{0}, {2}}}
	assert.Equal(t, 0, m.Predict([]float64{1}))
	assert.Equal(t, 1, m.Predict([]float64{1.5}))
}

func TestCustomersKeepsCallerSeed(t *testing.T) {
	res, err := Customers(groups(), Options{KMeans: KMeans{Seed: 0, MaxIter: 50}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.K)
	assert.Equal(t, int64(0), res.Seed)

	res, err = Customers(groups(), Options{KMeans: KMeans{K: 2, Seed: 9}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.K)
	assert.Equal(t, int64(9), res.Seed)

	res, err = Customers(groups(), Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.Seed)
}

func TestEmptyClustersReseedAtDistinctPoints(t *testing.T) {
	rows := [][]float64{{0, 0}, {1, 0}, {10, 0}, {11, 0}}
	start := [][]float64{{0, 0}, {100, 100}, {200, 200}}
	m, labels := lloyd(rows, start, 100, 0)

	c := m.Centroids()
	assert.NotEqual(t, c[1], c[2])
	seen := map[int]bool{}
	for _, l := range labels {
		seen[l] = true
	}
	assert.Len(t, seen, 3, "every cluster keeps members")
}
