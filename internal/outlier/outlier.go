// Package outlier replaces statistical outliers in numeric columns with a
// central value. Policies run on a copy of the input frame; the result is a
// Normalized frame, which is what the aggregation stages accept.
package outlier

import (
	"fmt"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/rs/zerolog/log"
)

// Report describes what one policy did to one column.
type Report struct {
	Policy      string            `json:"policy" yaml:"policy"`
	Column      string            `json:"column" yaml:"column"`
	Lower       dataset.NullFloat `json:"lower" yaml:"lower"`
	Upper       dataset.NullFloat `json:"upper" yaml:"upper"`
	Threshold   float64           `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Replacement dataset.NullFloat `json:"replacement" yaml:"replacement"`
	Replaced    int               `json:"replaced" yaml:"replaced"`
}

// Policy rewrites outlying cells of f in place.
type Policy interface {
	Name() string
	Apply(f *dataset.Frame) ([]Report, error)
}

// Normalized is a frame that went through outlier normalization.
type Normalized struct {
	frame   *dataset.Frame
	Reports []Report
}

// Frame returns the normalized frame.
func (n Normalized) Frame() *dataset.Frame { return n.frame }

// Normalize applies the policies in order to a copy of f. With no policies
// the copy is returned unchanged.
func Normalize(f *dataset.Frame, policies ...Policy) (Normalized, error) {
	if f == nil {
		return Normalized{}, fmt.Errorf("normalize: nil frame")
	}
	out := f.Clone()
	var reports []Report
	for _, p := range policies {
		reps, err := p.Apply(out)
		if err != nil {
			return Normalized{}, fmt.Errorf("%s outliers: %w", p.Name(), err)
		}
		for _, r := range reps {
			log.Debug().
				Str("policy", r.Policy).
				Str("column", r.Column).
				Int("replaced", r.Replaced).
				Msg("outliers replaced")
		}
		reports = append(reports, reps...)
	}
	return Normalized{frame: out, Reports: reports}, nil
}
