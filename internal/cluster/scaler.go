package cluster

import (
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes features to zero mean and unit population variance.
// A Scaler is immutable once fitted.
type Scaler struct {
	mean  []float64
	scale []float64
}

// FitScaler learns per-feature mean and population std from rows. Features
// with zero spread keep a scale of 1, so they become 0 after centering.
func FitScaler(rows [][]float64) (Scaler, error) {
	if len(rows) == 0 {
		return Scaler{}, ErrTooFewSamples
	}
	d := len(rows[0])
	s := Scaler{mean: make([]float64, d), scale: make([]float64, d)}
	col := make([]float64, len(rows))
	for j := 0; j < d; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		m, sd := stat.PopMeanStdDev(col, nil)
		s.mean[j] = m
		if sd == 0 {
			sd = 1
		}
		s.scale[j] = sd
	}
	return s, nil
}

// Mean returns a copy of the fitted feature means.
func (s Scaler) Mean() []float64 { return append([]float64(nil), s.mean...) }

// Scale returns a copy of the fitted feature scales.
func (s Scaler) Scale() []float64 { return append([]float64(nil), s.scale...) }

// Transform returns standardized copies of rows.
func (s Scaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		z := make([]float64, len(r))
		for j, v := range r {
			z[j] = (v - s.mean[j]) / s.scale[j]
		}
		out[i] = z
	}
	return out
}

// Inverse maps one standardized row back to original units.
func (s Scaler) Inverse(z []float64) []float64 {
	out := make([]float64, len(z))
	for j, v := range z {
		out[j] = v*s.scale[j] + s.mean[j]
	}
	return out
}
