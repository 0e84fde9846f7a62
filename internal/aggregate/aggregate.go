// Package aggregate groups normalized session records by customer.
package aggregate

import (
	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/outlier"
	"github.com/rs/zerolog/log"
)

// Columns names the frame columns the aggregation reads. Duration and
// TotalBytes are optional: when empty or absent from the frame the matching
// totals stay absent.
type Columns struct {
	Customer   string
	Handset    string
	TCP        string
	RTT        string
	Throughput string
	Duration   string
	TotalBytes string
}

// Customer is the per-customer aggregate. Metrics with no present value in
// the customer's sessions are absent.
type Customer struct {
	ID              string            `json:"id" yaml:"id"`
	Sessions        int               `json:"sessions" yaml:"sessions"`
	AvgTCPRetrans   dataset.NullFloat `json:"avg_tcp_retransmission" yaml:"avg_tcp_retransmission"`
	AvgRTT          dataset.NullFloat `json:"avg_rtt" yaml:"avg_rtt"`
	Handset         string            `json:"handset" yaml:"handset"`
	AvgThroughput   dataset.NullFloat `json:"avg_throughput" yaml:"avg_throughput"`
	TotalDurationMs dataset.NullFloat `json:"total_duration_ms" yaml:"total_duration_ms"`
	TotalBytes      dataset.NullFloat `json:"total_bytes" yaml:"total_bytes"`
}

// Result lists one Customer per distinct identifier, in order of first
// appearance. SkippedRows counts rows without a customer identifier.
type Result struct {
	Customers   []Customer `json:"customers" yaml:"customers"`
	SkippedRows int        `json:"skipped_rows" yaml:"skipped_rows"`
}

type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) add(v dataset.NullFloat) {
	if v.Valid {
		a.sum += v.Float64
		a.n++
	}
}

func (a meanAcc) mean() dataset.NullFloat {
	if a.n == 0 {
		return dataset.Absent
	}
	return dataset.Some(a.sum / float64(a.n))
}

func (a meanAcc) total() dataset.NullFloat {
	if a.n == 0 {
		return dataset.Absent
	}
	return dataset.Some(a.sum)
}

type group struct {
	sessions int
	tcp      meanAcc
	rtt      meanAcc
	tp       meanAcc
	dur      meanAcc
	bytes    meanAcc
	handsets *Mode
}

// Customers aggregates the normalized frame per customer.
func Customers(n outlier.Normalized, cols Columns) (Result, error) {
	f := n.Frame()
	ids, err := f.Categorical(cols.Customer)
	if err != nil {
		return Result{}, err
	}
	handsets, err := f.Categorical(cols.Handset)
	if err != nil {
		return Result{}, err
	}
	tcp, err := f.Numeric(cols.TCP)
	if err != nil {
		return Result{}, err
	}
	rtt, err := f.Numeric(cols.RTT)
	if err != nil {
		return Result{}, err
	}
	tp, err := f.Numeric(cols.Throughput)
	if err != nil {
		return Result{}, err
	}
	dur, err := optionalNumeric(f, cols.Duration)
	if err != nil {
		return Result{}, err
	}
	bytes, err := optionalNumeric(f, cols.TotalBytes)
	if err != nil {
		return Result{}, err
	}

	var res Result
	var order []string
	groups := make(map[string]*group)
	for i := 0; i < f.Len(); i++ {
		id := ids[i]
		if id == "" {
			res.SkippedRows++
			continue
		}
		g := groups[id]
		if g == nil {
			g = &group{handsets: NewMode()}
			groups[id] = g
			order = append(order, id)
		}
		g.sessions++
		g.tcp.add(tcp[i])
		g.rtt.add(rtt[i])
		g.tp.add(tp[i])
		if dur != nil {
			g.dur.add(dur[i])
		}
		if bytes != nil {
			g.bytes.add(bytes[i])
		}
		g.handsets.Add(handsets[i])
	}
	if res.SkippedRows > 0 {
		log.Warn().Int("rows", res.SkippedRows).Str("column", cols.Customer).Msg("rows without customer id skipped")
	}

	res.Customers = make([]Customer, 0, len(order))
	for _, id := range order {
		g := groups[id]
		handset, _ := g.handsets.Value()
		res.Customers = append(res.Customers, Customer{
			ID:              id,
			Sessions:        g.sessions,
			AvgTCPRetrans:   g.tcp.mean(),
			AvgRTT:          g.rtt.mean(),
			Handset:         handset,
			AvgThroughput:   g.tp.mean(),
			TotalDurationMs: g.dur.total(),
			TotalBytes:      g.bytes.total(),
		})
	}
	return res, nil
}

func optionalNumeric(f *dataset.Frame, name string) ([]dataset.NullFloat, error) {
	if name == "" || !f.Has(name) {
		return nil, nil
	}
	return f.Numeric(name)
}
