package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/KaramelBytes/xdrstat/internal/aggregate"
	"github.com/KaramelBytes/xdrstat/internal/cluster"
	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/dispersion"
	"github.com/KaramelBytes/xdrstat/internal/distribution"
	"github.com/KaramelBytes/xdrstat/internal/outlier"
	"github.com/KaramelBytes/xdrstat/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample() *Report {
	return &Report{
		RunID:     "run-1",
		Source:    "xdr.csv",
		Rows:      120,
		Processed: 100,
		Coercion:  []dataset.CoercionStat{{Column: "Dur. (ms)", Total: 100, Missing: 2, Dropped: 5}},
		Outliers: []outlier.Report{
			{Policy: "iqr", Column: "TCP", Lower: dataset.Some(-1), Upper: dataset.Some(7), Threshold: 1.5, Replacement: dataset.Some(22), Replaced: 1},
			{Policy: "zscore", Column: "RTT", Threshold: 3, Replacement: dataset.Some(51), Replaced: 2},
		},
		Dispersion: []dispersion.Summary{
			{Column: "TCP", Count: 1, Mean: dataset.Some(3), Median: dataset.Some(3)},
		},
		TopHandsets: []distribution.Frequency{{Value: "iPhone", Count: 4}},
		Handsets: &distribution.HandsetReport{
			Throughput: map[string]dataset.NullFloat{"iPhone": dataset.Some(12.5)},
			TCP:        map[string]dataset.NullFloat{"iPhone": dataset.Absent},
		},
		Customers: &aggregate.Result{
			Customers: []aggregate.Customer{
				{ID: "a", Sessions: 2, AvgRTT: dataset.Some(10), Handset: "iPhone"},
				{ID: "b", Sessions: 1},
			},
			SkippedRows: 3,
		},
		Clusters: &cluster.Result{
			K: 2, Seed: 42,
			Assignments: []cluster.Assignment{{ID: "a", Label: 0}},
			Profiles:    []cluster.Profile{{Label: 0, Size: 1, AvgRTT: 10}, {Label: 1}},
			Skipped:     []string{"b"},
		},
		Warnings:     []string{"Processed first 100 of 120 rows (max-rows limit)"},
		CustomerRows: 1,
	}
}

func TestMarkdownSections(t *testing.T) {
	md := sample().Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "Rows: ~120 (processed 100)", "Run: run-1",
		"[COERCION]", "Dur. (ms): missing 2, non-numeric 5 of 100 (5.0% dropped)",
		"[OUTLIERS]", "iqr TCP: replaced 1 outside [-1, 7] with 22", "zscore RTT: replaced 2 above |z|>3.0 with 51",
		"[DISPERSION]", "| TCP | 1 | 3 | 3 | NA | NA |",
		"[TOP CATEGORIES]", "handsets: iPhone(4)",
		"[PER-HANDSET AVERAGES]", "| iPhone | 12.5 | NA |",
		"[CUSTOMERS]", "Customers: 2 (3 rows without id skipped)", "(1 more)",
		"[CLUSTERS]", "K=2 seed=42", "cluster 0 (n=1)", "Skipped (missing metrics): 1",
		"[NOTES]",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "| b |")
	assert.NotContains(t, md, "[CORRELATIONS]")
}

func TestRenderJSONUsesNullForAbsent(t *testing.T) {
	b, err := sample().Render(JSON)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "run-1", got["run_id"])
	disp := got["dispersion"].([]any)[0].(map[string]any)
	assert.Nil(t, disp["variance"])
	assert.Equal(t, 3.0, disp["mean"])
	_, hasRows := got["CustomerRows"]
	assert.False(t, hasRows)
}

func TestRenderYAML(t *testing.T) {
	b, err := sample().Render(YAML)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(b, &got))
	assert.Equal(t, "xdr.csv", got["source"])
	assert.Contains(t, string(b), "skipped_rows: 3")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": Markdown, "md": Markdown, "JSON": JSON, "yml": YAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("html")
	assert.Error(t, err)
}

func TestPanelsMarkdown(t *testing.T) {
	panels := []store.Panel{
		FrequencyPanel("overview", "handsets", "Top handsets", []distribution.Frequency{{Value: "iPhone", Count: 3}, {Value: "Galaxy", Count: 1}}),
		{Section: "overview", Metric: "manufacturers", Title: "Top manufacturers", Error: "category column not configured"},
		{Title: "Top sessions"},
	}
	md := PanelsMarkdown(panels)
	assert.True(t, strings.HasPrefix(md, "[TOP HANDSETS]\n 1. iPhone: 3\n 2. Galaxy: 1\n"), md)
	assert.Contains(t, md, "[TOP MANUFACTURERS]\n✗ category column not configured\n")
	assert.Contains(t, md, "[TOP SESSIONS]\n(no rows)\n")

	b, err := RenderPanels(panels, JSON)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"key": "iPhone"`)
}
