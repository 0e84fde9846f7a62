// Package pipeline runs the analysis stages in order: derive metrics,
// normalize outliers, then summarize, aggregate and cluster.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/xdrstat/internal/aggregate"
	"github.com/KaramelBytes/xdrstat/internal/cluster"
	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/dispersion"
	"github.com/KaramelBytes/xdrstat/internal/distribution"
	"github.com/KaramelBytes/xdrstat/internal/outlier"
	"github.com/KaramelBytes/xdrstat/internal/report"
	"github.com/KaramelBytes/xdrstat/internal/xdr"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Stage selects which results a run produces.
type Stage uint8

const (
	StageDispersion Stage = 1 << iota
	StageDistribution
	StageCustomers
	StageClusters

	StageAll = StageDispersion | StageDistribution | StageCustomers | StageClusters
)

// Options configures a run. The zero value runs every stage with default
// outlier policies on the default xDR columns.
type Options struct {
	Columns  xdr.Columns
	Stages   Stage
	Outliers PolicyOptions
	// Policies overrides the policies built from Outliers when non-nil.
	Policies []outlier.Policy

	TopN                int
	DispersionColumns   []string
	DistributionColumns []string
	Correlations        bool
	Cluster             cluster.Options
	CustomerRows        int
	Source              string

	// Strict lists the stages whose failure aborts the run. A customer or
	// cluster stage outside Strict that hits a missing column or too few
	// customers is left out of the report with a warning.
	Strict Stage
}

// Run analyzes f and returns the report. f itself is not modified.
func Run(f *dataset.Frame, opt Options) (*report.Report, error) {
	if opt.Columns == (xdr.Columns{}) {
		opt.Columns = xdr.DefaultColumns()
	}
	if opt.Stages == 0 {
		opt.Stages = StageAll
	}
	if opt.TopN <= 0 {
		opt.TopN = distribution.DefaultTopN
	}
	cols := opt.Columns

	work := f.Clone()
	if err := xdr.Derive(work, cols); err != nil {
		return nil, fmt.Errorf("derive metrics: %w", err)
	}
	policies := opt.Policies
	if policies == nil {
		var err error
		policies, err = BuildPolicies(work, cols, opt.Outliers)
		if err != nil {
			return nil, err
		}
	}
	norm, err := outlier.Normalize(work, policies...)
	if err != nil {
		return nil, err
	}
	nf := norm.Frame()

	source := opt.Source
	if source == "" {
		source = f.Name
	}
	rep := &report.Report{
		RunID:        uuid.New().String(),
		Source:       source,
		GeneratedAt:  time.Now().UTC(),
		Rows:         f.Len(),
		Coercion:     f.Coercion,
		Outliers:     norm.Reports,
		CustomerRows: opt.CustomerRows,
	}
	for _, c := range f.Coercion {
		if c.Dropped > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %.1f%% of values were not numeric and were treated as missing", c.Column, c.DroppedFraction()*100))
		}
	}

	if opt.Stages&StageDispersion != 0 {
		names := opt.DispersionColumns
		if len(names) == 0 {
			names = present(nf, xdr.TCP, xdr.RTT, xdr.Throughput, cols.Duration, xdr.TotalBytes)
		}
		for _, name := range names {
			s, err := dispersion.Column(nf, name)
			if err != nil {
				return nil, fmt.Errorf("dispersion: %w", err)
			}
			rep.Dispersion = append(rep.Dispersion, s)
		}
		if opt.Correlations && len(names) >= 2 {
			rep.Correlations, err = dispersion.Correlations(nf, names)
			if err != nil {
				return nil, fmt.Errorf("correlations: %w", err)
			}
		}
	}

	if opt.Stages&StageDistribution != 0 {
		names := opt.DistributionColumns
		if len(names) == 0 {
			names = present(nf, xdr.TCP, xdr.RTT, xdr.Throughput)
		}
		for _, name := range names {
			d, err := distribution.Column(nf, name, opt.TopN)
			if err != nil {
				return nil, fmt.Errorf("distribution: %w", err)
			}
			rep.Distributions = append(rep.Distributions, d)
		}
		if nf.Has(cols.Handset) {
			rep.TopHandsets, err = distribution.TopCategories(nf, cols.Handset, opt.TopN)
			if err != nil {
				return nil, fmt.Errorf("top handsets: %w", err)
			}
			if nf.Has(xdr.Throughput) && nf.Has(xdr.TCP) {
				h, err := distribution.Handsets(nf, cols.Handset, xdr.Throughput, xdr.TCP)
				if err != nil {
					return nil, fmt.Errorf("handsets: %w", err)
				}
				rep.Handsets = &h
			}
		}
		if cols.Manufacturer != "" && nf.Has(cols.Manufacturer) {
			rep.TopManufacturers, err = distribution.TopCategories(nf, cols.Manufacturer, opt.TopN)
			if err != nil {
				return nil, fmt.Errorf("top manufacturers: %w", err)
			}
		}
	}

	if want := opt.Stages & (StageCustomers | StageClusters); want != 0 {
		agg, err := aggregate.Customers(norm, aggregate.Columns{
			Customer:   cols.Customer,
			Handset:    cols.Handset,
			TCP:        xdr.TCP,
			RTT:        xdr.RTT,
			Throughput: xdr.Throughput,
			Duration:   cols.Duration,
			TotalBytes: xdr.TotalBytes,
		})
		if err != nil {
			err = fmt.Errorf("aggregate customers: %w", err)
			if err := skipStage(rep, opt.Strict&want != 0, "customers", err); err != nil {
				return nil, err
			}
		} else {
			if opt.Stages&StageCustomers != 0 {
				rep.Customers = &agg
			}
			if opt.Stages&StageClusters != 0 {
				cl, err := cluster.Customers(agg.Customers, opt.Cluster)
				if err != nil {
					err = fmt.Errorf("cluster customers: %w", err)
					if err := skipStage(rep, opt.Strict&StageClusters != 0, "clusters", err); err != nil {
						return nil, err
					}
				} else {
					rep.Clusters = &cl
				}
			}
		}
	}

	log.Info().Str("run", rep.RunID).Str("source", rep.Source).Int("rows", rep.Rows).Msg("analysis complete")
	return rep, nil
}

// skipStage records a recoverable stage failure as a warning and returns nil,
// or returns err when the stage is strict or the failure is not recoverable.
func skipStage(rep *report.Report, strict bool, stage string, err error) error {
	var mc *dataset.MissingColumnError
	if strict || !(errors.As(err, &mc) || errors.Is(err, cluster.ErrTooFewSamples)) {
		return err
	}
	log.Warn().Err(err).Str("stage", stage).Msg("stage skipped")
	rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s stage skipped: %v", stage, err))
	return nil
}

func present(f *dataset.Frame, names ...string) []string {
	var out []string
	for _, n := range names {
		if k, ok := f.Kind(n); ok && k == dataset.Numeric {
			out = append(out, n)
		}
	}
	return out
}
