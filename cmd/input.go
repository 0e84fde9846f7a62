package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/cluster"
	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/ingest"
	"github.com/KaramelBytes/xdrstat/internal/pipeline"
	"github.com/KaramelBytes/xdrstat/internal/report"
	"github.com/KaramelBytes/xdrstat/internal/store"
	"github.com/KaramelBytes/xdrstat/internal/utils"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// analysisFlags are the input and tuning flags shared by the analysis commands.
type analysisFlags struct {
	fromDB     bool
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int

	format       string
	output       string
	topN         int
	policies     []string
	iqrMult      float64
	excludeMean  bool
	zThreshold   float64
	clusterK     int
	clusterSeed  int64
	missing      string
	correlations bool
	columns      []string
	customerRows int
}

func (a *analysisFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&a.fromDB, "from-db", false, "read records from the configured database table instead of files")
	f.StringVar(&a.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	f.StringVar(&a.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted; '1,234' is then ambiguous and treated as missing)")
	f.StringVar(&a.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.IntVar(&a.maxRows, "max-rows", 0, "maximum rows to process (0 = config value, unlimited by default)")
	f.StringVar(&a.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	f.IntVar(&a.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")

	f.StringVarP(&a.format, "format", "f", "", "output format: markdown|json|yaml (default from config)")
	f.StringVarP(&a.output, "output", "o", "", "write the report to this path (a directory when several inputs are given)")
	f.IntVar(&a.topN, "top", 0, "number of top/bottom/most frequent values to report")
	f.StringSliceVar(&a.policies, "policies", nil, "outlier policies in order: iqr,zscore,mad,none")
	f.Float64Var(&a.iqrMult, "iqr-multiplier", 0, "IQR fence multiplier")
	f.BoolVar(&a.excludeMean, "exclude-outliers-from-mean", false, "compute the IQR replacement mean without the outliers")
	f.Float64Var(&a.zThreshold, "z-threshold", 0, "z-score threshold")
	f.IntVar(&a.clusterK, "k", 0, "number of clusters")
	f.Int64Var(&a.clusterSeed, "seed", 0, "K-Means random seed")
	f.StringVar(&a.missing, "missing", "", "cluster missing-value policy: drop|reject|impute-mean")
	f.BoolVar(&a.correlations, "correlations", false, "compute Pearson correlations among the dispersion columns")
	f.StringSliceVar(&a.columns, "columns", nil, "columns to report (default: TCP, RTT, Throughput and totals)")
	f.IntVar(&a.customerRows, "customer-rows", 20, "customers listed in markdown output (0 = all)")
}

func (a *analysisFlags) locale() (dataset.Locale, error) {
	loc := activeConfig().Locale()
	switch strings.ToLower(strings.TrimSpace(a.decimal)) {
	case ",", "comma":
		loc.DecimalSeparator = ','
	case ".", "dot":
		loc.DecimalSeparator = '.'
	case "":
	default:
		return loc, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", a.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(a.thousands)) {
	case ",":
		loc.ThousandsSeparator = ','
	case ".":
		loc.ThousandsSeparator = '.'
	case "space", " ":
		loc.ThousandsSeparator = ' '
	case "":
	default:
		return loc, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", a.thousands)
	}
	return loc, nil
}

func (a *analysisFlags) ingestOptions() (ingest.Options, error) {
	delim, err := ingest.ParseDelimiter(a.delimiter)
	if err != nil {
		return ingest.Options{}, fmt.Errorf("unsupported --delimiter: %s", a.delimiter)
	}
	maxRows := a.maxRows
	if maxRows == 0 {
		maxRows = activeConfig().MaxRows
	}
	return ingest.Options{MaxRows: maxRows, Delimiter: delim, SheetName: a.sheetName, SheetIndex: a.sheetIndex}, nil
}

func (a *analysisFlags) outputFormat() (report.Format, error) {
	f := a.format
	if f == "" {
		f = activeConfig().OutputFormat
	}
	return report.ParseFormat(f)
}

// pipelineOptions merges flags over the configuration. seedSet reports whether
// --seed was given, so that --seed 0 is honored.
func (a *analysisFlags) pipelineOptions(stages pipeline.Stage, seedSet bool) (pipeline.Options, error) {
	c := activeConfig()
	opt := pipeline.Options{
		Columns: c.Columns,
		Stages:  stages,
		Outliers: pipeline.PolicyOptions{
			Names:                   c.OutlierPolicies,
			IQRMultiplier:           c.IQRMultiplier,
			ExcludeOutliersFromMean: c.ExcludeOutliersFromMean || a.excludeMean,
			ZThreshold:              c.ZThreshold,
			MADThreshold:            c.MADThreshold,
		},
		TopN:         c.TopN,
		Correlations: a.correlations,
		CustomerRows: a.customerRows,
	}
	if len(a.policies) > 0 {
		opt.Outliers.Names = a.policies
	}
	if a.iqrMult > 0 {
		opt.Outliers.IQRMultiplier = a.iqrMult
	}
	if a.zThreshold > 0 {
		opt.Outliers.ZThreshold = a.zThreshold
	}
	if a.topN > 0 {
		opt.TopN = a.topN
	}
	// a stage command fails when its own stage cannot run
	if stages != pipeline.StageAll {
		opt.Strict = stages
	}
	opt.DispersionColumns = a.columns
	opt.DistributionColumns = a.columns

	km := cluster.DefaultKMeans()
	km.K = c.ClusterK
	km.Seed = c.ClusterSeed
	if a.clusterK > 0 {
		km.K = a.clusterK
	}
	if seedSet {
		km.Seed = a.clusterSeed
	}
	missing := c.ClusterMissing
	if a.missing != "" {
		missing = a.missing
	}
	mp, err := cluster.ParseMissingPolicy(missing)
	if err != nil {
		return opt, err
	}
	opt.Cluster = cluster.Options{KMeans: km, Missing: mp}
	return opt, nil
}

// openStore connects to the configured database. limit <= 0 uses top_n.
func openStore(limit int) (*store.Store, error) {
	c := activeConfig()
	if limit <= 0 {
		limit = c.TopN
	}
	return store.Open(store.Config{
		Driver: c.DatabaseDriver,
		DSN:    c.DatabaseDSN,
		Table:  c.DatabaseTable,
		Limit:  limit,
	}, c.Columns)
}

// loadInput reads one file, or the database table when --from-db is set.
func (a *analysisFlags) loadInput(ctx context.Context, path string) (*dataset.Frame, *ingest.Table, error) {
	loc, err := a.locale()
	if err != nil {
		return nil, nil, err
	}
	schema := activeConfig().Columns.Schema()
	if a.fromDB {
		s, err := openStore(0)
		if err != nil {
			return nil, nil, err
		}
		defer s.Close()
		maxRows := a.maxRows
		if maxRows == 0 {
			maxRows = activeConfig().MaxRows
		}
		f, err := s.LoadFrame(ctx, schema, loc, maxRows)
		return f, nil, err
	}
	opt, err := a.ingestOptions()
	if err != nil {
		return nil, nil, err
	}
	return ingest.Load(path, opt, schema, loc)
}

// expandInputs resolves globs, drops duplicates and sorts the result.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// analyzeOne runs the pipeline on one input and renders the report.
func (a *analysisFlags) analyzeOne(cmd *cobra.Command, path string, stages pipeline.Stage) ([]byte, error) {
	format, err := a.outputFormat()
	if err != nil {
		return nil, err
	}
	opt, err := a.pipelineOptions(stages, cmd.Flags().Changed("seed"))
	if err != nil {
		return nil, err
	}
	f, tab, err := a.loadInput(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	rep, err := pipeline.Run(f, opt)
	if err != nil {
		return nil, err
	}
	if tab != nil {
		rep.Source = tab.Name
		rep.Rows = tab.Total
		rep.Processed = tab.Processed
		rep.Warnings = append(tab.Warnings, rep.Warnings...)
	}
	return rep.Render(format)
}

// emit writes out to --output or stdout.
func (a *analysisFlags) emit(cmd *cobra.Command, out []byte) error {
	if a.output == "" {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
		return nil
	}
	if err := utils.SafeWriteFile(a.output, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote report to %s\n", color.GreenString("✓"), a.output)
	return nil
}

// stageCommand builds a single-input command that runs the given stages.
func stageCommand(use, short string, stages pipeline.Stage) *cobra.Command {
	flags := &analysisFlags{}
	c := &cobra.Command{
		Use:   use + " [file]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else if !flags.fromDB {
				return fmt.Errorf("%s needs an input file or --from-db", use)
			}
			out, err := flags.analyzeOne(cmd, path, stages)
			if err != nil {
				return err
			}
			return flags.emit(cmd, out)
		},
	}
	flags.register(c)
	return c
}
