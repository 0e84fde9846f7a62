package outlier

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/dispersion"
	"gonum.org/v1/gonum/stat"
)

// DefaultZThreshold is the |z| above which a row is an outlier.
const DefaultZThreshold = 3.0

// ZScore checks a fixed set of columns jointly. Only rows where every checked
// column is present take part. A row whose |z| exceeds Threshold in any
// column gets every checked column replaced by that column's median.
type ZScore struct {
	Columns   []string
	Threshold float64
}

func (ZScore) Name() string { return "zscore" }

func (p ZScore) Apply(f *dataset.Frame) ([]Report, error) {
	if len(p.Columns) == 0 {
		return nil, fmt.Errorf("no columns to check")
	}
	thr := p.Threshold
	if thr <= 0 {
		thr = DefaultZThreshold
	}
	cols := make([][]dataset.NullFloat, len(p.Columns))
	for i, name := range p.Columns {
		vals, err := f.Numeric(name)
		if err != nil {
			return nil, err
		}
		cols[i] = vals
	}

	var complete []int
	for r := 0; r < f.Len(); r++ {
		ok := true
		for _, c := range cols {
			if !c[r].Valid {
				ok = false
				break
			}
		}
		if ok {
			complete = append(complete, r)
		}
	}

	flagged := make(map[int]bool)
	for _, c := range cols {
		x := make([]float64, len(complete))
		for i, r := range complete {
			x[i] = c[r].Float64
		}
		if len(x) == 0 {
			continue
		}
		mean, std := stat.PopMeanStdDev(x, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		for i, r := range complete {
			if math.Abs((x[i]-mean)/std) > thr {
				flagged[r] = true
			}
		}
	}

	reports := make([]Report, len(p.Columns))
	for i, name := range p.Columns {
		reports[i] = Report{Policy: p.Name(), Column: name, Threshold: thr}
		present := dataset.Present(cols[i])
		if len(present) > 0 {
			reports[i].Replacement = dataset.Some(dispersion.Median(present))
		}
	}
	if len(flagged) == 0 {
		return reports, nil
	}
	for i, name := range p.Columns {
		out := make([]dataset.NullFloat, len(cols[i]))
		copy(out, cols[i])
		for r := range flagged {
			out[r] = reports[i].Replacement
		}
		reports[i].Replaced = len(flagged)
		if err := f.SetNumeric(name, out); err != nil {
			return nil, err
		}
	}
	return reports, nil
}
