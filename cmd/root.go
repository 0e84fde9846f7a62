package cmd

import (
	"fmt"
	"os"
	"time"

	cfgpkg "github.com/KaramelBytes/xdrstat/internal/config"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "xdrstat",
	Short: "xdrstat: outlier, dispersion and customer experience analysis of xDR session data",
	Long: `xdrstat reads telecom session records (xDR) from CSV, XLSX or a database table,
normalizes outliers, reports dispersion and distributions, aggregates per-customer
experience metrics and clusters customers with K-Means.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.xdrstat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "%s Warning: failed to load config: %v\n", color.YellowString("⚠"), err)
		c = cfgpkg.Defaults()
	}
	cfg = c
	setupLogging(cfg.LogLevel, debug)
}

func setupLogging(level string, debug bool) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// activeConfig returns the loaded configuration, or defaults when running outside
// Execute (tests, library use).
func activeConfig() *cfgpkg.Global {
	if cfg == nil {
		cfg = cfgpkg.Defaults()
	}
	return cfg
}
