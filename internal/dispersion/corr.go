package dispersion

import (
	"math"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix holds a symmetric Pearson correlation matrix.
type CorrMatrix struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Values  [][]float64 `json:"values" yaml:"values"` // row-major, Values[i][j]
}

// Correlations computes pairwise Pearson correlations over rows where both
// columns are present. Pairs with fewer than two such rows or zero variance
// get 0.
func Correlations(f *dataset.Frame, cols []string) (*CorrMatrix, error) {
	data := make([][]dataset.NullFloat, len(cols))
	for i, c := range cols {
		vals, err := f.Numeric(c)
		if err != nil {
			return nil, err
		}
		data[i] = vals
	}
	n := len(cols)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var x, y []float64
			for i := range data[a] {
				if data[a][i].Valid && data[b][i].Valid {
					x = append(x, data[a][i].Float64)
					y = append(y, data[b][i].Float64)
				}
			}
			var r float64
			if len(x) >= 2 {
				r = stat.Correlation(x, y, nil)
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			if r > 1 {
				r = 1
			} else if r < -1 {
				r = -1
			}
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	out := make([]string, n)
	copy(out, cols)
	return &CorrMatrix{Columns: out, Values: mat}, nil
}
