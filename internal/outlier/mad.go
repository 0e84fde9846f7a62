package outlier

import (
	"math"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/dispersion"
)

const (
	// DefaultMADThreshold is the robust |z| cut-off.
	DefaultMADThreshold = 3.5
	// madMinSamples is the smallest column the robust z-score is trusted on.
	madMinSamples = 8
)

// MAD flags values whose robust z-score 0.6745*(v-median)/MAD exceeds
// Threshold and replaces them with the column median. Columns are handled
// independently.
type MAD struct {
	Columns   []string
	Threshold float64
}

func (MAD) Name() string { return "mad" }

func (p MAD) Apply(f *dataset.Frame) ([]Report, error) {
	thr := p.Threshold
	if thr <= 0 {
		thr = DefaultMADThreshold
	}
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
		rep := Report{Policy: p.Name(), Column: name, Threshold: thr}
		x := dataset.Present(cols[i])
		if len(x) < madMinSamples {
			reports = append(reports, rep)
			continue
		}
		median, mad := dispersion.MedianMAD(x)
		rep.Replacement = dataset.Some(median)
		if mad == 0 {
			reports = append(reports, rep)
			continue
		}
		out := make([]dataset.NullFloat, len(cols[i]))
		copy(out, cols[i])
		for r, v := range out {
			if v.Valid && math.Abs(0.6745*(v.Float64-median)/mad) > thr {
				out[r] = dataset.Some(median)
				rep.Replaced++
			}
		}
		if err := f.SetNumeric(name, out); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
