package pipeline

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/outlier"
	"github.com/KaramelBytes/xdrstat/internal/xdr"
	"github.com/rs/zerolog/log"
)

// PolicyOptions names the outlier policies to apply, in order, and their
// parameters. Column lists left empty fall back to the record metrics
// present in the frame.
type PolicyOptions struct {
	Names                   []string
	IQRMultiplier           float64
	ExcludeOutliersFromMean bool
	IQRColumns              []string
	ZThreshold              float64
	ZColumns                []string
	MADThreshold            float64
}

// DefaultPolicyNames runs the IQR pass and then the z-score pass.
var DefaultPolicyNames = []string{"iqr", "zscore"}

// BuildPolicies resolves policy names against the columns of f.
func BuildPolicies(f *dataset.Frame, cols xdr.Columns, o PolicyOptions) ([]outlier.Policy, error) {
	names := o.Names
	if names == nil {
		names = DefaultPolicyNames
	}
	metrics := present(f, cols.Duration, cols.DLBytes, cols.ULBytes, cols.RTTDL, cols.RTTUL,
		cols.TPDL, cols.TPUL, cols.TCPDL, cols.TCPUL, xdr.TCP, xdr.RTT, xdr.Throughput, xdr.TotalBytes)
	iqrCols := o.IQRColumns
	if len(iqrCols) == 0 {
		iqrCols = metrics
	}
	zCols := o.ZColumns
	if len(zCols) == 0 {
		zCols = present(f, xdr.TCP, xdr.RTT, xdr.Throughput)
	}

	var out []outlier.Policy
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "", "none":
		case "iqr":
			out = append(out, outlier.IQR{Columns: iqrCols, Multiplier: o.IQRMultiplier, ExcludeOutliersFromMean: o.ExcludeOutliersFromMean})
		case "zscore", "z-score", "z":
			if len(zCols) == 0 {
				log.Warn().Msg("no metric columns for z-score check, skipped")
				continue
			}
			out = append(out, outlier.ZScore{Columns: zCols, Threshold: o.ZThreshold})
		case "mad":
			out = append(out, outlier.MAD{Columns: iqrCols, Threshold: o.MADThreshold})
		default:
			return nil, fmt.Errorf("unknown outlier policy %q (use iqr, zscore, mad or none)", n)
		}
	}
	return out, nil
}
