package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/xdr"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Columns xdr.Columns `mapstructure:"columns" yaml:"columns"`

	// Outlier handling
	OutlierPolicies         []string `mapstructure:"outlier_policies" yaml:"outlier_policies" validate:"dive,oneof=iqr zscore mad none"`
	IQRMultiplier           float64  `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier" validate:"gt=0"`
	ExcludeOutliersFromMean bool     `mapstructure:"exclude_outliers_from_mean" yaml:"exclude_outliers_from_mean"`
	ZThreshold              float64  `mapstructure:"z_threshold" yaml:"z_threshold" validate:"gt=0"`
	MADThreshold            float64  `mapstructure:"mad_threshold" yaml:"mad_threshold" validate:"gt=0"`

	// Reports
	TopN         int    `mapstructure:"top_n" yaml:"top_n" validate:"gte=1"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format" validate:"oneof=markdown json yaml"`
	MaxRows      int    `mapstructure:"max_rows" yaml:"max_rows" validate:"gte=0"`

	// Clustering
	ClusterK       int    `mapstructure:"cluster_k" yaml:"cluster_k" validate:"gte=1"`
	ClusterSeed    int64  `mapstructure:"cluster_seed" yaml:"cluster_seed"`
	ClusterMissing string `mapstructure:"cluster_missing" yaml:"cluster_missing" validate:"oneof=drop reject impute-mean"`

	// Numeric parsing locale: dot|comma, and dot|comma|space for thousands.
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator" validate:"omitempty,oneof=dot comma"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator" validate:"omitempty,oneof=dot comma space"`

	// Database
	DatabaseDriver string `mapstructure:"database_driver" yaml:"database_driver" validate:"oneof=postgres sqlite"`
	DatabaseDSN    string `mapstructure:"database_dsn" yaml:"database_dsn"`
	DatabaseTable  string `mapstructure:"database_table" yaml:"database_table" validate:"required"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Validate checks field ranges and enumerations.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Locale returns the numeric parsing locale. Unset separators are
// auto-detected per value.
func (c *Global) Locale() dataset.Locale {
	var loc dataset.Locale
	switch c.DecimalSeparator {
	case "dot":
		loc.DecimalSeparator = '.'
	case "comma":
		loc.DecimalSeparator = ','
	}
	switch c.ThousandsSeparator {
	case "dot":
		loc.ThousandsSeparator = '.'
	case "comma":
		loc.ThousandsSeparator = ','
	case "space":
		loc.ThousandsSeparator = ' '
	}
	return loc
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".xdrstat"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.xdrstat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	cols := xdr.DefaultColumns()
	v.SetDefault("columns.customer", cols.Customer)
	v.SetDefault("columns.handset", cols.Handset)
	v.SetDefault("columns.manufacturer", cols.Manufacturer)
	v.SetDefault("columns.duration", cols.Duration)
	v.SetDefault("columns.dl_bytes", cols.DLBytes)
	v.SetDefault("columns.ul_bytes", cols.ULBytes)
	v.SetDefault("columns.rtt_dl", cols.RTTDL)
	v.SetDefault("columns.rtt_ul", cols.RTTUL)
	v.SetDefault("columns.tp_dl", cols.TPDL)
	v.SetDefault("columns.tp_ul", cols.TPUL)
	v.SetDefault("columns.tcp_dl", cols.TCPDL)
	v.SetDefault("columns.tcp_ul", cols.TCPUL)

	v.SetDefault("outlier_policies", []string{"iqr", "zscore"})
	v.SetDefault("iqr_multiplier", 1.5)
	v.SetDefault("exclude_outliers_from_mean", false)
	v.SetDefault("z_threshold", 3.0)
	v.SetDefault("mad_threshold", 3.5)

	v.SetDefault("top_n", 10)
	v.SetDefault("output_format", "markdown")
	v.SetDefault("max_rows", 0)

	v.SetDefault("cluster_k", 3)
	v.SetDefault("cluster_seed", 42)
	v.SetDefault("cluster_missing", "drop")

	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")

	v.SetDefault("database_driver", "postgres")
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_table", "xdr_data")

	v.SetDefault("log_level", "info")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("XDRSTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}
