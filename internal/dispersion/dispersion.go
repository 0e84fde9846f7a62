// Package dispersion computes central tendency and spread of numeric columns.
package dispersion

import (
	"math"
	"sort"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the dispersion metrics of one column. Variance and StdDev use
// the sample (N-1) convention and are absent with fewer than two values.
type Summary struct {
	Column   string            `json:"column" yaml:"column"`
	Count    int               `json:"count" yaml:"count"`
	Mean     dataset.NullFloat `json:"mean" yaml:"mean"`
	Median   dataset.NullFloat `json:"median" yaml:"median"`
	Variance dataset.NullFloat `json:"variance" yaml:"variance"`
	StdDev   dataset.NullFloat `json:"std_dev" yaml:"std_dev"`
}

// Compute summarizes the present values of vals.
func Compute(vals []dataset.NullFloat) Summary {
	x := dataset.Present(vals)
	s := Summary{Count: len(x)}
	if len(x) == 0 {
		return s
	}
	s.Mean = dataset.Some(stat.Mean(x, nil))
	s.Median = dataset.Some(Median(x))
	if len(x) > 1 {
		v := stat.Variance(x, nil)
		s.Variance = dataset.Some(v)
		s.StdDev = dataset.Some(math.Sqrt(v))
	}
	return s
}

// Column summarizes a numeric column of f.
func Column(f *dataset.Frame, name string) (Summary, error) {
	vals, err := f.Numeric(name)
	if err != nil {
		return Summary{}, err
	}
	s := Compute(vals)
	s.Column = name
	return s, nil
}

// Median returns the median of x, averaging the two middle values for even
// lengths. x is not modified.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	cp := make([]float64, len(x))
	copy(cp, x)
	sort.Float64s(cp)
	return Quantile(cp, 0.5)
}

// Quantile interpolates linearly between the closest ranks of an ascending
// slice (position q*(n-1)).
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// MedianMAD returns the median and the median absolute deviation of x.
func MedianMAD(x []float64) (median, mad float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	median = Median(x)
	dev := make([]float64, len(x))
	for i, v := range x {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}
