// Package report renders analysis results as markdown, JSON or YAML.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/xdrstat/internal/aggregate"
	"github.com/KaramelBytes/xdrstat/internal/cluster"
	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/dispersion"
	"github.com/KaramelBytes/xdrstat/internal/distribution"
	"github.com/KaramelBytes/xdrstat/internal/outlier"
	"github.com/KaramelBytes/xdrstat/internal/utils"
	"gopkg.in/yaml.v3"
)

// Format selects the output encoding.
type Format string

const (
	Markdown Format = "markdown"
	JSON     Format = "json"
	YAML     Format = "yaml"
)

// ParseFormat accepts markdown (md), json or yaml (yml). Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unsupported format: %s (use markdown|json|yaml)", s)
}

// Report collects the results of one analysis run. Sections left nil or
// empty are omitted from every rendering.
type Report struct {
	RunID            string                      `json:"run_id" yaml:"run_id"`
	Source           string                      `json:"source" yaml:"source"`
	GeneratedAt      time.Time                   `json:"generated_at" yaml:"generated_at"`
	Rows             int                         `json:"rows" yaml:"rows"`
	Processed        int                         `json:"processed,omitempty" yaml:"processed,omitempty"`
	Coercion         []dataset.CoercionStat      `json:"coercion,omitempty" yaml:"coercion,omitempty"`
	Outliers         []outlier.Report            `json:"outliers,omitempty" yaml:"outliers,omitempty"`
	Dispersion       []dispersion.Summary        `json:"dispersion,omitempty" yaml:"dispersion,omitempty"`
	Correlations     *dispersion.CorrMatrix      `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Distributions    []distribution.ColumnReport `json:"distributions,omitempty" yaml:"distributions,omitempty"`
	TopHandsets      []distribution.Frequency    `json:"top_handsets,omitempty" yaml:"top_handsets,omitempty"`
	TopManufacturers []distribution.Frequency    `json:"top_manufacturers,omitempty" yaml:"top_manufacturers,omitempty"`
	Handsets         *distribution.HandsetReport `json:"handsets,omitempty" yaml:"handsets,omitempty"`
	Customers        *aggregate.Result           `json:"customers,omitempty" yaml:"customers,omitempty"`
	Clusters         *cluster.Result             `json:"clusters,omitempty" yaml:"clusters,omitempty"`
	Warnings         []string                    `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// CustomerRows caps the customers listed in markdown; 0 lists all.
	CustomerRows int `json:"-" yaml:"-"`
}

// Render encodes r in the given format.
func (r *Report) Render(f Format) ([]byte, error) {
	switch f {
	case JSON:
		return utils.PrettyJSON(r)
	case YAML:
		b, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	case Markdown, "":
		return []byte(r.Markdown()), nil
	}
	return nil, fmt.Errorf("unsupported format: %s", f)
}
