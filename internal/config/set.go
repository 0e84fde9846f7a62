package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

type setter func(c *Global, val string) error

func intField(dst func(c *Global) *int) setter {
	return func(c *Global, val string) error {
		i, err := cast.ToIntE(val)
		if err != nil {
			return fmt.Errorf("invalid int: %v", val)
		}
		*dst(c) = i
		return nil
	}
}

func floatField(dst func(c *Global) *float64) setter {
	return func(c *Global, val string) error {
		f, err := cast.ToFloat64E(val)
		if err != nil {
			return fmt.Errorf("invalid float: %v", val)
		}
		*dst(c) = f
		return nil
	}
}

func stringField(dst func(c *Global) *string) setter {
	return func(c *Global, val string) error {
		*dst(c) = strings.TrimSpace(val)
		return nil
	}
}

var setters = map[string]setter{
	"columns.customer":     stringField(func(c *Global) *string { return &c.Columns.Customer }),
	"columns.handset":      stringField(func(c *Global) *string { return &c.Columns.Handset }),
	"columns.manufacturer": stringField(func(c *Global) *string { return &c.Columns.Manufacturer }),
	"columns.duration":     stringField(func(c *Global) *string { return &c.Columns.Duration }),
	"columns.dl_bytes":     stringField(func(c *Global) *string { return &c.Columns.DLBytes }),
	"columns.ul_bytes":     stringField(func(c *Global) *string { return &c.Columns.ULBytes }),
	"columns.rtt_dl":       stringField(func(c *Global) *string { return &c.Columns.RTTDL }),
	"columns.rtt_ul":       stringField(func(c *Global) *string { return &c.Columns.RTTUL }),
	"columns.tp_dl":        stringField(func(c *Global) *string { return &c.Columns.TPDL }),
	"columns.tp_ul":        stringField(func(c *Global) *string { return &c.Columns.TPUL }),
	"columns.tcp_dl":       stringField(func(c *Global) *string { return &c.Columns.TCPDL }),
	"columns.tcp_ul":       stringField(func(c *Global) *string { return &c.Columns.TCPUL }),

	"outlier_policies": func(c *Global, val string) error {
		var out []string
		for _, p := range strings.Split(val, ",") {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				out = append(out, p)
			}
		}
		c.OutlierPolicies = out
		return nil
	},
	"iqr_multiplier": floatField(func(c *Global) *float64 { return &c.IQRMultiplier }),
	"exclude_outliers_from_mean": func(c *Global, val string) error {
		b, err := cast.ToBoolE(val)
		if err != nil {
			return fmt.Errorf("invalid bool: %v", val)
		}
		c.ExcludeOutliersFromMean = b
		return nil
	},
	"z_threshold":   floatField(func(c *Global) *float64 { return &c.ZThreshold }),
	"mad_threshold": floatField(func(c *Global) *float64 { return &c.MADThreshold }),

	"top_n":         intField(func(c *Global) *int { return &c.TopN }),
	"output_format": stringField(func(c *Global) *string { return &c.OutputFormat }),
	"max_rows":      intField(func(c *Global) *int { return &c.MaxRows }),

	"cluster_k": intField(func(c *Global) *int { return &c.ClusterK }),
	"cluster_seed": func(c *Global, val string) error {
		i, err := cast.ToInt64E(val)
		if err != nil {
			return fmt.Errorf("invalid int: %v", val)
		}
		c.ClusterSeed = i
		return nil
	},
	"cluster_missing": stringField(func(c *Global) *string { return &c.ClusterMissing }),

	"decimal_separator":   stringField(func(c *Global) *string { return &c.DecimalSeparator }),
	"thousands_separator": stringField(func(c *Global) *string { return &c.ThousandsSeparator }),

	"database_driver": stringField(func(c *Global) *string { return &c.DatabaseDriver }),
	"database_dsn":    stringField(func(c *Global) *string { return &c.DatabaseDSN }),
	"database_table":  stringField(func(c *Global) *string { return &c.DatabaseTable }),

	"log_level": stringField(func(c *Global) *string { return &c.LogLevel }),
}

// Keys lists the settable keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one key from its text form and validates the result. On error
// c is left unchanged.
func (c *Global) Set(key, val string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	next := *c
	next.OutlierPolicies = append([]string(nil), c.OutlierPolicies...)
	if err := set(&next, val); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
