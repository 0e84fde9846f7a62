package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/distribution"
)

// Markdown renders a compact report for terminals and docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	}
	if r.Processed > 0 && r.Processed < r.Rows {
		b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", r.Rows, r.Processed))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}

	if len(r.Coercion) > 0 {
		b.WriteString("\n[COERCION]\n")
		for _, c := range r.Coercion {
			b.WriteString(fmt.Sprintf("- %s: missing %d, non-numeric %d of %d (%.1f%% dropped)\n",
				safeName(c.Column), c.Missing, c.Dropped, c.Total, c.DroppedFraction()*100))
		}
	}

	if len(r.Outliers) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		for _, o := range r.Outliers {
			b.WriteString(fmt.Sprintf("- %s %s: replaced %d", o.Policy, safeName(o.Column), o.Replaced))
			if o.Lower.Valid && o.Upper.Valid {
				b.WriteString(fmt.Sprintf(" outside [%s, %s]", num(o.Lower), num(o.Upper)))
			} else if o.Threshold > 0 {
				b.WriteString(fmt.Sprintf(" above |z|>%.1f", o.Threshold))
			}
			if o.Replacement.Valid {
				b.WriteString(fmt.Sprintf(" with %s", num(o.Replacement)))
			}
			b.WriteString("\n")
		}
	}

	if len(r.Dispersion) > 0 {
		b.WriteString("\n[DISPERSION]\n")
		b.WriteString("| column | count | mean | median | variance | std |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
		for _, d := range r.Dispersion {
			b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s |\n",
				safeVal(d.Column), d.Count, num(d.Mean), num(d.Median), num(d.Variance), num(d.StdDev)))
		}
	}

	if r.Correlations != nil && len(r.Correlations.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Correlations.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Correlations.Columns[i], B: r.Correlations.Columns[j], R: r.Correlations.Values[i][j]})
			}
		}
		sort.SliceStable(pairs, func(i, j int) bool { return math.Abs(pairs[i].R) > math.Abs(pairs[j].R) })
		for i := 0; i < min(10, len(pairs)); i++ {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pairs[i].A, pairs[i].B, pairs[i].R))
		}
	}

	if len(r.TopHandsets) > 0 || len(r.TopManufacturers) > 0 {
		b.WriteString("\n[TOP CATEGORIES]\n")
		writeFreq(&b, "handsets", r.TopHandsets)
		writeFreq(&b, "manufacturers", r.TopManufacturers)
	}

	if len(r.Distributions) > 0 {
		b.WriteString("\n[DISTRIBUTIONS]\n")
		for _, d := range r.Distributions {
			b.WriteString(fmt.Sprintf("- %s\n", safeName(d.Column)))
			if len(d.Top) > 0 {
				b.WriteString(fmt.Sprintf("  • top: %s\n", floatList(d.Top)))
				b.WriteString(fmt.Sprintf("  • bottom: %s\n", floatList(d.Bottom)))
			}
			if len(d.MostFrequent) > 0 {
				b.WriteString("  • most frequent: ")
				b.WriteString(freqList(d.MostFrequent))
				b.WriteString("\n")
			}
		}
	}

	if r.Handsets != nil && (len(r.Handsets.Throughput) > 0 || len(r.Handsets.TCP) > 0) {
		b.WriteString("\n[PER-HANDSET AVERAGES]\n")
		b.WriteString("| handset | throughput | tcp retransmission |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, h := range handsetKeys(r.Handsets) {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", safeVal(h), num(r.Handsets.Throughput[h]), num(r.Handsets.TCP[h])))
		}
	}

	if r.Customers != nil {
		b.WriteString("\n[CUSTOMERS]\n")
		b.WriteString(fmt.Sprintf("Customers: %d", len(r.Customers.Customers)))
		if r.Customers.SkippedRows > 0 {
			b.WriteString(fmt.Sprintf(" (%d rows without id skipped)", r.Customers.SkippedRows))
		}
		b.WriteString("\n")
		rows := r.Customers.Customers
		if r.CustomerRows > 0 && len(rows) > r.CustomerRows {
			rows = rows[:r.CustomerRows]
		}
		if len(rows) > 0 {
			b.WriteString("| id | sessions | avg tcp | avg rtt | avg throughput | handset |\n")
			b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
			for _, c := range rows {
				b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s |\n",
					safeVal(c.ID), c.Sessions, num(c.AvgTCPRetrans), num(c.AvgRTT), num(c.AvgThroughput), safeVal(c.Handset)))
			}
			if len(rows) < len(r.Customers.Customers) {
				b.WriteString(fmt.Sprintf("(%d more)\n", len(r.Customers.Customers)-len(rows)))
			}
		}
	}

	if r.Clusters != nil {
		b.WriteString("\n[CLUSTERS]\n")
		b.WriteString(fmt.Sprintf("K=%d seed=%d inertia=%.4g customers=%d\n",
			r.Clusters.K, r.Clusters.Seed, r.Clusters.Inertia, len(r.Clusters.Assignments)))
		for _, p := range r.Clusters.Profiles {
			b.WriteString(fmt.Sprintf("- cluster %d (n=%d): tcp %.4g, rtt %.4g, throughput %.4g\n",
				p.Label, p.Size, p.AvgTCPRetrans, p.AvgRTT, p.AvgThroughput))
		}
		if len(r.Clusters.Skipped) > 0 {
			b.WriteString(fmt.Sprintf("Skipped (missing metrics): %d\n", len(r.Clusters.Skipped)))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeFreq(b *strings.Builder, label string, fs []distribution.Frequency) {
	if len(fs) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("- %s: %s\n", label, freqList(fs)))
}

func freqList(fs []distribution.Frequency) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = fmt.Sprintf("%s(%d)", safeVal(f.Value), f.Count)
	}
	return strings.Join(parts, ", ")
}

func floatList(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%.4g", x)
	}
	return strings.Join(parts, ", ")
}

func handsetKeys(h *distribution.HandsetReport) []string {
	seen := map[string]struct{}{}
	for k := range h.Throughput {
		seen[k] = struct{}{}
	}
	for k := range h.TCP {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func num(v dataset.NullFloat) string {
	if !v.Valid {
		return "NA"
	}
	return fmt.Sprintf("%.4g", v.Float64)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
