// Package distribution reports top, bottom and most frequent values of a
// column, and per-handset averages.
package distribution

import (
	"sort"
	"strconv"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
)

// DefaultTopN is the report size when none is given.
const DefaultTopN = 10

// Frequency is one value and the number of times it occurs.
type Frequency struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// ColumnReport holds the distribution of one column. Top and Bottom are only
// filled for numeric columns.
type ColumnReport struct {
	Column       string      `json:"column" yaml:"column"`
	Top          []float64   `json:"top,omitempty" yaml:"top,omitempty"`
	Bottom       []float64   `json:"bottom,omitempty" yaml:"bottom,omitempty"`
	MostFrequent []Frequency `json:"most_frequent" yaml:"most_frequent"`
}

// Column reports the n largest, n smallest and n most frequent present values
// of name. Equal values keep their input order.
func Column(f *dataset.Frame, name string, n int) (ColumnReport, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	kind, ok := f.Kind(name)
	if !ok {
		return ColumnReport{}, &dataset.MissingColumnError{Column: name}
	}
	rep := ColumnReport{Column: name}
	if kind == dataset.Categorical {
		vals, err := f.Categorical(name)
		if err != nil {
			return ColumnReport{}, err
		}
		rep.MostFrequent = MostFrequent(vals, n)
		return rep, nil
	}
	vals, err := f.Numeric(name)
	if err != nil {
		return ColumnReport{}, err
	}
	x := dataset.Present(vals)
	rep.Top = Top(x, n)
	rep.Bottom = Bottom(x, n)
	labels := make([]string, len(x))
	for i, v := range x {
		labels[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	rep.MostFrequent = MostFrequent(labels, n)
	return rep, nil
}

// Top returns up to n values in descending order.
func Top(x []float64, n int) []float64 {
	s := append([]float64(nil), x...)
	sort.SliceStable(s, func(i, j int) bool { return s[i] > s[j] })
	return s[:min(n, len(s))]
}

// Bottom returns up to n values in ascending order.
func Bottom(x []float64, n int) []float64 {
	s := append([]float64(nil), x...)
	sort.SliceStable(s, func(i, j int) bool { return s[i] < s[j] })
	return s[:min(n, len(s))]
}

// MostFrequent returns up to n distinct non-empty values by descending count.
// Ties keep the order of first occurrence.
func MostFrequent(vals []string, n int) []Frequency {
	idx := make(map[string]int)
	var freq []Frequency
	for _, v := range vals {
		if v == "" {
			continue
		}
		if i, ok := idx[v]; ok {
			freq[i].Count++
			continue
		}
		idx[v] = len(freq)
		freq = append(freq, Frequency{Value: v, Count: 1})
	}
	sort.SliceStable(freq, func(i, j int) bool { return freq[i].Count > freq[j].Count })
	if n > 0 && len(freq) > n {
		freq = freq[:n]
	}
	return freq
}

// TopCategories counts the values of a categorical column.
func TopCategories(f *dataset.Frame, name string, n int) ([]Frequency, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	vals, err := f.Categorical(name)
	if err != nil {
		return nil, err
	}
	return MostFrequent(vals, n), nil
}
