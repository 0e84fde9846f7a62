package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/pipeline"
	"github.com/KaramelBytes/xdrstat/internal/report"
	"github.com/KaramelBytes/xdrstat/internal/utils"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	anaFlags = &analysisFlags{}
	anaQuiet bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <files...>",
	Short: "Run the full analysis (outliers, dispersion, distributions, customers, clusters) on xDR files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if anaFlags.fromDB {
			if len(args) > 0 {
				return fmt.Errorf("--from-db takes no input files")
			}
			out, err := anaFlags.analyzeOne(cmd, "", pipeline.StageAll)
			if err != nil {
				return err
			}
			return anaFlags.emit(cmd, out)
		}
		if len(args) == 0 {
			return fmt.Errorf("analyze needs at least one input file or --from-db")
		}
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if len(files) == 1 {
			out, err := anaFlags.analyzeOne(cmd, files[0], pipeline.StageAll)
			if err != nil {
				return err
			}
			return anaFlags.emit(cmd, out)
		}

		format, err := anaFlags.outputFormat()
		if err != nil {
			return err
		}
		if anaFlags.output != "" {
			if err := os.MkdirAll(anaFlags.output, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		var bar *progressbar.ProgressBar
		if !anaQuiet {
			bar = progressbar.NewOptions(len(files),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("analyzing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		for _, path := range files {
			out, err := anaFlags.analyzeOne(cmd, path, pipeline.StageAll)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			if anaFlags.output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
			} else {
				target := reportPath(anaFlags.output, path, format)
				if err := utils.SafeWriteFile(target, out); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				if !anaQuiet {
					fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", color.GreenString("✓"), filepath.Base(target))
				}
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		}
		return nil
	},
}

// reportPath picks <dir>/<base>.report.<ext>, adding __2, __3, ... when the
// name is already taken.
func reportPath(dir, input string, format report.Format) string {
	ext := map[report.Format]string{report.Markdown: "md", report.JSON: "json", report.YAML: "yaml"}[format]
	base := filepath.Base(input)
	safe := strings.TrimSuffix(base, filepath.Ext(base))
	outFile := filepath.Join(dir, safe+".report."+ext)
	if _, err := os.Stat(outFile); err == nil {
		idx := 2
		for {
			cand := filepath.Join(dir, fmt.Sprintf("%s__%d.report.%s", safe, idx, ext))
			if _, err := os.Stat(cand); os.IsNotExist(err) {
				if !anaQuiet {
					fmt.Printf("%s Detected existing report, writing to %s to avoid overwrite.\n", color.YellowString("⚠"), filepath.Base(cand))
				}
				return cand
			}
			idx++
		}
	}
	return outFile
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&anaQuiet, "quiet", false, "suppress progress and non-essential output")

	rootCmd.AddCommand(
		stageCommand("dispersion", "Report mean, median, sample variance and std of the metric columns", pipeline.StageDispersion),
		stageCommand("distribution", "Report top, bottom and most frequent values and per-handset averages", pipeline.StageDistribution),
		stageCommand("customers", "Aggregate sessions per customer (averages and most used handset)", pipeline.StageCustomers),
		stageCommand("cluster", "Cluster customers by experience metrics with K-Means", pipeline.StageClusters),
	)
}
