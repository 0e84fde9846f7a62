package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/distribution"
	"github.com/KaramelBytes/xdrstat/internal/report"
	"github.com/KaramelBytes/xdrstat/internal/store"
	"github.com/spf13/cobra"
)

var (
	ovMetric string
	ovFile   string
	ovFormat string
	ovTop    int
	ovFlags  = &analysisFlags{}
)

var overviewCmd = &cobra.Command{
	Use:   "overview [section]",
	Short: "Show ranked top-N aggregations from the database (or top categories from a file)",
	Long: `Sections: overview, engagement, experience, satisfaction.
Without --file the queries run against the configured database table.
With --file only the category rankings (handsets, manufacturers, sessions) are available.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		section := "overview"
		if len(args) == 1 {
			section = strings.ToLower(strings.TrimSpace(args[0]))
		}
		format := ovFormat
		if format == "" {
			format = activeConfig().OutputFormat
		}
		fmtv, err := report.ParseFormat(format)
		if err != nil {
			return err
		}
		var panels []store.Panel
		if ovFile != "" {
			panels, err = filePanels(cmd, section)
		} else {
			panels, err = dbPanels(cmd, section)
		}
		if err != nil {
			return err
		}
		out, err := report.RenderPanels(panels, fmtv)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
		return nil
	},
}

func dbPanels(cmd *cobra.Command, section string) ([]store.Panel, error) {
	s, err := openStore(ovTop)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	if ovMetric == "" {
		return s.Section(cmd.Context(), section)
	}
	rows, err := s.Overview(cmd.Context(), section, ovMetric)
	if err != nil {
		return nil, err
	}
	return []store.Panel{{Section: section, Metric: ovMetric, Title: section + " " + ovMetric, Rows: rows}}, nil
}

// filePanels ranks the categorical columns of a file. Sessions per customer is
// the row count per customer id.
func filePanels(cmd *cobra.Command, section string) ([]store.Panel, error) {
	if section != "overview" {
		return nil, fmt.Errorf("section %q needs the database (drop --file)", section)
	}
	f, _, err := ovFlags.loadInput(cmd.Context(), ovFile)
	if err != nil {
		return nil, err
	}
	c := activeConfig()
	n := c.TopN
	if ovTop > 0 {
		n = ovTop
	}
	sources := []struct{ metric, title, column string }{
		{"handsets", "Top handsets", c.Columns.Handset},
		{"manufacturers", "Top manufacturers", c.Columns.Manufacturer},
		{"sessions", "Top customers by sessions", c.Columns.Customer},
	}
	var panels []store.Panel
	for _, src := range sources {
		if ovMetric != "" && ovMetric != src.metric {
			continue
		}
		fs, err := distribution.TopCategories(f, src.column, n)
		if err != nil {
			panels = append(panels, store.Panel{Section: section, Metric: src.metric, Title: src.title, Error: err.Error()})
			continue
		}
		panels = append(panels, report.FrequencyPanel(section, src.metric, src.title, fs))
	}
	if len(panels) == 0 {
		return nil, fmt.Errorf("unknown file metric %q (use handsets, manufacturers, sessions)", ovMetric)
	}
	return panels, nil
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	overviewCmd.Flags().StringVar(&ovMetric, "metric", "", "run a single metric of the section")
	overviewCmd.Flags().StringVar(&ovFile, "file", "", "rank categories of a CSV/XLSX file instead of the database")
	overviewCmd.Flags().StringVarP(&ovFormat, "format", "f", "", "output format: markdown|json|yaml")
	overviewCmd.Flags().IntVar(&ovTop, "top", 0, "number of rows per ranking (default from config)")
	overviewCmd.Flags().StringVar(&ovFlags.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	overviewCmd.Flags().StringVar(&ovFlags.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	overviewCmd.Flags().IntVar(&ovFlags.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index")
}
