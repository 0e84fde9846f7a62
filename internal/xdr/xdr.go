// Package xdr describes the telecom session record (xDR) layout: which input
// columns carry which attribute, and the per-record metrics derived from them.
package xdr

import (
	"errors"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/rs/zerolog/log"
)

// Names of the derived per-record metrics.
const (
	TCP        = "TCP"
	RTT        = "RTT"
	Throughput = "Throughput"
	TotalBytes = "Total Bytes"
)

// Columns maps record attributes to input column names.
type Columns struct {
	Customer     string `mapstructure:"customer" yaml:"customer" validate:"required"`
	Handset      string `mapstructure:"handset" yaml:"handset" validate:"required"`
	Manufacturer string `mapstructure:"manufacturer" yaml:"manufacturer"`
	Duration     string `mapstructure:"duration" yaml:"duration"`
	DLBytes      string `mapstructure:"dl_bytes" yaml:"dl_bytes"`
	ULBytes      string `mapstructure:"ul_bytes" yaml:"ul_bytes"`
	RTTDL        string `mapstructure:"rtt_dl" yaml:"rtt_dl"`
	RTTUL        string `mapstructure:"rtt_ul" yaml:"rtt_ul"`
	TPDL         string `mapstructure:"tp_dl" yaml:"tp_dl"`
	TPUL         string `mapstructure:"tp_ul" yaml:"tp_ul"`
	TCPDL        string `mapstructure:"tcp_dl" yaml:"tcp_dl"`
	TCPUL        string `mapstructure:"tcp_ul" yaml:"tcp_ul"`
}

// DefaultColumns returns the header names of the standard xDR export.
func DefaultColumns() Columns {
	return Columns{
		Customer:     "MSISDN/Number",
		Handset:      "Handset Type",
		Manufacturer: "Handset Manufacturer",
		Duration:     "Dur. (ms)",
		DLBytes:      "Total DL (Bytes)",
		ULBytes:      "Total UL (Bytes)",
		RTTDL:        "Avg RTT DL (ms)",
		RTTUL:        "Avg RTT UL (ms)",
		TPDL:         "Avg Bearer TP DL (kbps)",
		TPUL:         "Avg Bearer TP UL (kbps)",
		TCPDL:        "TCP DL Retrans. Vol (Bytes)",
		TCPUL:        "TCP UL Retrans. Vol (Bytes)",
	}
}

// Schema declares the record columns. Inputs that already carry the derived
// metric columns (TCP, RTT, Throughput) are accepted as numeric too.
func (c Columns) Schema() dataset.Schema {
	var fields []dataset.Field
	add := func(name string, kind dataset.Kind) {
		if name != "" {
			fields = append(fields, dataset.Field{Name: name, Kind: kind})
		}
	}
	add(c.Customer, dataset.Categorical)
	add(c.Handset, dataset.Categorical)
	add(c.Manufacturer, dataset.Categorical)
	for _, n := range []string{c.Duration, c.DLBytes, c.ULBytes, c.RTTDL, c.RTTUL, c.TPDL, c.TPUL, c.TCPDL, c.TCPUL} {
		add(n, dataset.Numeric)
	}
	for _, n := range []string{TCP, RTT, Throughput, TotalBytes} {
		if _, ok := (dataset.Schema{Fields: fields}).Lookup(n); !ok {
			add(n, dataset.Numeric)
		}
	}
	return dataset.Schema{Fields: fields}
}

// Derive adds the per-record metrics to f. A metric column already present in
// the input is kept; otherwise it is the sum of its downlink and uplink parts.
// Metrics whose parts are all missing are left out and reported later by the
// operation that needs them.
func Derive(f *dataset.Frame, c Columns) error {
	derived := []struct {
		out   string
		parts []string
	}{
		{TCP, []string{c.TCPDL, c.TCPUL}},
		{RTT, []string{c.RTTDL, c.RTTUL}},
		{Throughput, []string{c.TPDL, c.TPUL}},
		{TotalBytes, []string{c.DLBytes, c.ULBytes}},
	}
	for _, d := range derived {
		if f.Has(d.out) {
			continue
		}
		err := f.SumColumns(d.out, nonEmpty(d.parts)...)
		var mc *dataset.MissingColumnError
		if errors.As(err, &mc) {
			log.Debug().Str("metric", d.out).Str("column", mc.Column).Msg("metric not derived")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
