package outlier

import (
	"sort"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/dispersion"
	"gonum.org/v1/gonum/stat"
)

// DefaultIQRMultiplier widens the [Q1, Q3] box on each side.
const DefaultIQRMultiplier = 1.5

// IQR replaces values outside [Q1 - m*IQR, Q3 + m*IQR] with the column mean.
// The mean is taken over all present values, outliers included, unless
// ExcludeOutliersFromMean is set.
type IQR struct {
	Columns                 []string
	Multiplier              float64
	ExcludeOutliersFromMean bool
}

func (IQR) Name() string { return "iqr" }

// Apply checks every column before touching any of them.
func (p IQR) Apply(f *dataset.Frame) ([]Report, error) {
	cols := make([][]dataset.NullFloat, len(p.Columns))
	for i, name := range p.Columns {
		vals, err := f.Numeric(name)
		if err != nil {
			return nil, err
		}
		cols[i] = vals
	}
	reports := make([]Report, 0, len(p.Columns))
	for i, name := range p.Columns {
		out, rep := ReplaceIQR(cols[i], p.Multiplier, p.ExcludeOutliersFromMean)
		rep.Column = name
		if err := f.SetNumeric(name, out); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// ReplaceIQR returns a copy of vals with IQR outliers replaced. Absent cells
// stay absent.
func ReplaceIQR(vals []dataset.NullFloat, multiplier float64, excludeOutliers bool) ([]dataset.NullFloat, Report) {
	if multiplier <= 0 {
		multiplier = DefaultIQRMultiplier
	}
	out := make([]dataset.NullFloat, len(vals))
	copy(out, vals)
	rep := Report{Policy: "iqr", Threshold: multiplier}

	x := dataset.Present(vals)
	if len(x) == 0 {
		return out, rep
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	q1 := dispersion.Quantile(sorted, 0.25)
	q3 := dispersion.Quantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-multiplier*iqr, q3+multiplier*iqr
	rep.Lower = dataset.Some(lower)
	rep.Upper = dataset.Some(upper)

	outside := func(v float64) bool { return v < lower || v > upper }
	mean := stat.Mean(x, nil)
	if excludeOutliers {
		inliers := make([]float64, 0, len(x))
		for _, v := range x {
			if !outside(v) {
				inliers = append(inliers, v)
			}
		}
		if len(inliers) > 0 {
			mean = stat.Mean(inliers, nil)
		}
	}
	rep.Replacement = dataset.Some(mean)

	for i, v := range out {
		if v.Valid && outside(v.Float64) {
			out[i] = dataset.Some(mean)
			rep.Replaced++
		}
	}
	return out, rep
}
