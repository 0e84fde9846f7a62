package cmd

import (
	"fmt"
	"strings"

	cfgpkg "github.com/KaramelBytes/xdrstat/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set xdrstat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := activeConfig()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "columns.customer: %s\n", c.Columns.Customer)
		fmt.Fprintf(w, "columns.handset: %s\n", c.Columns.Handset)
		fmt.Fprintf(w, "columns.manufacturer: %s\n", c.Columns.Manufacturer)
		fmt.Fprintf(w, "columns.duration: %s\n", c.Columns.Duration)
		fmt.Fprintf(w, "columns.dl_bytes: %s\n", c.Columns.DLBytes)
		fmt.Fprintf(w, "columns.ul_bytes: %s\n", c.Columns.ULBytes)
		fmt.Fprintf(w, "columns.rtt_dl: %s\n", c.Columns.RTTDL)
		fmt.Fprintf(w, "columns.rtt_ul: %s\n", c.Columns.RTTUL)
		fmt.Fprintf(w, "columns.tp_dl: %s\n", c.Columns.TPDL)
		fmt.Fprintf(w, "columns.tp_ul: %s\n", c.Columns.TPUL)
		fmt.Fprintf(w, "columns.tcp_dl: %s\n", c.Columns.TCPDL)
		fmt.Fprintf(w, "columns.tcp_ul: %s\n", c.Columns.TCPUL)
		fmt.Fprintf(w, "outlier_policies: %s\n", strings.Join(c.OutlierPolicies, ","))
		fmt.Fprintf(w, "iqr_multiplier: %.3f\n", c.IQRMultiplier)
		fmt.Fprintf(w, "exclude_outliers_from_mean: %t\n", c.ExcludeOutliersFromMean)
		fmt.Fprintf(w, "z_threshold: %.3f\n", c.ZThreshold)
		fmt.Fprintf(w, "mad_threshold: %.3f\n", c.MADThreshold)
		fmt.Fprintf(w, "top_n: %d\n", c.TopN)
		fmt.Fprintf(w, "output_format: %s\n", c.OutputFormat)
		if c.MaxRows > 0 {
			fmt.Fprintf(w, "max_rows: %d\n", c.MaxRows)
		}
		fmt.Fprintf(w, "cluster_k: %d\n", c.ClusterK)
		fmt.Fprintf(w, "cluster_seed: %d\n", c.ClusterSeed)
		fmt.Fprintf(w, "cluster_missing: %s\n", c.ClusterMissing)
		if c.DecimalSeparator != "" {
			fmt.Fprintf(w, "decimal_separator: %s\n", c.DecimalSeparator)
		}
		if c.ThousandsSeparator != "" {
			fmt.Fprintf(w, "thousands_separator: %s\n", c.ThousandsSeparator)
		}
		fmt.Fprintf(w, "database_driver: %s\n", c.DatabaseDriver)
		fmt.Fprintf(w, "database_dsn: %s\n", mask(c.DatabaseDSN))
		fmt.Fprintf(w, "database_table: %s\n", c.DatabaseTable)
		fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long:  "Keys: " + strings.Join(cfgpkg.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := cfg.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
