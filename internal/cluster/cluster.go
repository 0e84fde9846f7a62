// Package cluster standardizes per-customer experience metrics and groups
// customers with K-Means.
package cluster

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/aggregate"
	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// MissingPolicy decides what happens to customers lacking a clustered metric.
type MissingPolicy string

const (
	MissingDrop       MissingPolicy = "drop"
	MissingReject     MissingPolicy = "reject"
	MissingImputeMean MissingPolicy = "impute-mean"
)

// ParseMissingPolicy accepts drop, reject or impute-mean. Empty means drop.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingDrop:
		return MissingDrop, nil
	case MissingReject:
		return MissingReject, nil
	case MissingImputeMean, "impute":
		return MissingImputeMean, nil
	}
	return "", fmt.Errorf("unknown missing-value policy %q (want drop, reject or impute-mean)", s)
}

// Options configures Customers. A zero KMeans uses DefaultKMeans; otherwise
// only a zero K is defaulted and Seed is taken as given.
type Options struct {
	KMeans  KMeans
	Missing MissingPolicy
}

// Assignment is one customer's cluster label.
type Assignment struct {
	ID    string `json:"id" yaml:"id"`
	Label int    `json:"label" yaml:"label"`
}

// Profile describes one cluster in original units.
type Profile struct {
	Label         int     `json:"label" yaml:"label"`
	Size          int     `json:"size" yaml:"size"`
	AvgTCPRetrans float64 `json:"avg_tcp_retransmission" yaml:"avg_tcp_retransmission"`
	AvgRTT        float64 `json:"avg_rtt" yaml:"avg_rtt"`
	AvgThroughput float64 `json:"avg_throughput" yaml:"avg_throughput"`
}

// Result holds labels for every clustered customer and the fit that produced
// them. Skipped lists customers excluded by the drop policy.
type Result struct {
	K           int          `json:"k" yaml:"k"`
	Seed        int64        `json:"seed" yaml:"seed"`
	Assignments []Assignment `json:"assignments" yaml:"assignments"`
	Skipped     []string     `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Profiles    []Profile    `json:"profiles" yaml:"profiles"`
	Inertia     float64      `json:"inertia" yaml:"inertia"`

	Scaler Scaler `json:"-" yaml:"-"`
	Model  Model  `json:"-" yaml:"-"`
}

// Customers clusters customers on average TCP retransmission, RTT and
// throughput.
func Customers(customers []aggregate.Customer, opt Options) (Result, error) {
	if opt.KMeans == (KMeans{}) {
		opt.KMeans = DefaultKMeans()
	} else if opt.KMeans.K == 0 {
		opt.KMeans.K = DefaultKMeans().K
	}
	if opt.Missing == "" {
		opt.Missing = MissingDrop
	}
	ids, rows, skipped, err := features(customers, opt.Missing)
	if err != nil {
		return Result{}, err
	}
	if len(skipped) > 0 {
		log.Warn().Int("customers", len(skipped)).Str("policy", string(opt.Missing)).Msg("customers with missing metrics excluded from clustering")
	}
	scaler, err := FitScaler(rows)
	if err != nil {
		return Result{}, fmt.Errorf("%w: no customer has all metrics", err)
	}
	model, labels, err := opt.KMeans.Fit(scaler.Transform(rows))
	if err != nil {
		return Result{}, err
	}

	res := Result{
		K:        opt.KMeans.K,
		Seed:     opt.KMeans.Seed,
		Skipped:  skipped,
		Inertia:  model.Inertia,
		Scaler:   scaler,
		Model:    model,
		Profiles: make([]Profile, opt.KMeans.K),
	}
	res.Assignments = make([]Assignment, len(ids))
	for i, id := range ids {
		res.Assignments[i] = Assignment{ID: id, Label: labels[i]}
		res.Profiles[labels[i]].Size++
	}
	for c, z := range model.Centroids() {
		orig := scaler.Inverse(z)
		p := &res.Profiles[c]
		p.Label = c
		p.AvgTCPRetrans, p.AvgRTT, p.AvgThroughput = orig[0], orig[1], orig[2]
	}
	return res, nil
}

func features(customers []aggregate.Customer, policy MissingPolicy) (ids []string, rows [][]float64, skipped []string, err error) {
	var means [3]float64
	if policy == MissingImputeMean {
		for j := range means {
			vals := make([]float64, 0, len(customers))
			for _, c := range customers {
				if v := metrics(c)[j]; v.Valid {
					vals = append(vals, v.Float64)
				}
			}
			if len(vals) > 0 {
				means[j] = stat.Mean(vals, nil)
			}
		}
	}
	for _, c := range customers {
		m := metrics(c)
		row := make([]float64, len(m))
		complete := true
		for j, v := range m {
			if !v.Valid {
				complete = false
				row[j] = means[j]
				continue
			}
			row[j] = v.Float64
		}
		if !complete {
			switch policy {
			case MissingReject:
				return nil, nil, nil, fmt.Errorf("%w: customer %s", ErrMissingValues, c.ID)
			case MissingDrop:
				skipped = append(skipped, c.ID)
				continue
			}
		}
		ids = append(ids, c.ID)
		rows = append(rows, row)
	}
	return ids, rows, skipped, nil
}

func metrics(c aggregate.Customer) [3]dataset.NullFloat {
	return [3]dataset.NullFloat{c.AvgTCPRetrans, c.AvgRTT, c.AvgThroughput}
}
