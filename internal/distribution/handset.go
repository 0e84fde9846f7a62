package distribution

import (
	"github.com/KaramelBytes/xdrstat/internal/dataset"
)

// HandsetReport maps handset type to mean throughput and mean TCP
// retransmission. A handset with no present value maps to an absent value.
type HandsetReport struct {
	Throughput map[string]dataset.NullFloat `json:"throughput" yaml:"throughput"`
	TCP        map[string]dataset.NullFloat `json:"tcp" yaml:"tcp"`
}

// Handsets averages the throughput and tcp columns per handset type. Rows
// without a handset are skipped.
func Handsets(f *dataset.Frame, handset, throughput, tcp string) (HandsetReport, error) {
	hs, err := f.Categorical(handset)
	if err != nil {
		return HandsetReport{}, err
	}
	tp, err := f.Numeric(throughput)
	if err != nil {
		return HandsetReport{}, err
	}
	tc, err := f.Numeric(tcp)
	if err != nil {
		return HandsetReport{}, err
	}
	return HandsetReport{
		Throughput: meanBy(hs, tp),
		TCP:        meanBy(hs, tc),
	}, nil
}

func meanBy(keys []string, vals []dataset.NullFloat) map[string]dataset.NullFloat {
	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[string]*acc)
	for i, k := range keys {
		if k == "" {
			continue
		}
		a := groups[k]
		if a == nil {
			a = &acc{}
			groups[k] = a
		}
		if vals[i].Valid {
			a.sum += vals[i].Float64
			a.n++
		}
	}
	out := make(map[string]dataset.NullFloat, len(groups))
	for k, a := range groups {
		if a.n == 0 {
			out[k] = dataset.Absent
			continue
		}
		out[k] = dataset.Some(a.sum / float64(a.n))
	}
	return out
}
