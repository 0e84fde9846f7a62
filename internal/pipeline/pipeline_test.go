package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/xdrstat/internal/cluster"
	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/outlier"
	"github.com/KaramelBytes/xdrstat/internal/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionsFrame(t *testing.T, drop string) *dataset.Frame {
	t.Helper()
	c := xdr.DefaultColumns()
	header := []string{c.Customer, c.Handset, c.Manufacturer, c.Duration, c.DLBytes, c.ULBytes,
		c.RTTDL, c.RTTUL, c.TPDL, c.TPUL, c.TCPDL, c.TCPUL}
	handsets := []string{"iPhone", "Galaxy", "Pixel", "iPhone", "Galaxy"}
	makers := map[string]string{"iPhone": "Apple", "Galaxy": "Samsung", "Pixel": "Google"}
	var rows [][]string
	for i := 0; i < 25; i++ {
		k := i % 5
		dur := strconv.Itoa(1000 + i*10)
		if i == 3 {
			dur = "abc"
		}
		rows = append(rows, []string{
			fmt.Sprintf("3360%d", k), handsets[k], makers[handsets[k]], dur,
			strconv.Itoa(1000000 + i), "100000",
			strconv.Itoa(20 + k*10), "5",
			strconv.Itoa(100 + k*50), "10",
			strconv.Itoa(1000 * (k + 1)), "100",
		})
	}
	if drop != "" {
		for j, h := range header {
			if h == drop {
				header = append(header[:j:j], header[j+1:]...)
				for r := range rows {
					rows[r] = append(rows[r][:j:j], rows[r][j+1:]...)
				}
				break
			}
		}
	}
	f, err := dataset.FromStrings("sessions.csv", header, rows, c.Schema(), dataset.Locale{})
	require.NoError(t, err)
	return f
}

func TestRunAllStages(t *testing.T) {
	f := sessionsFrame(t, "")
	before, _ := f.Numeric(xdr.DefaultColumns().Duration)
	snapshot := append([]dataset.NullFloat(nil), before...)

	rep, err := Run(f, Options{Cluster: cluster.Options{KMeans: cluster.KMeans{K: 2, Seed: 42}}})
	require.NoError(t, err)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "sessions.csv", rep.Source)
	assert.Equal(t, 25, rep.Rows)
	require.NotEmpty(t, rep.Warnings)
	assert.Contains(t, rep.Warnings[0], "Dur. (ms)")

	var dispCols []string
	for _, d := range rep.Dispersion {
		dispCols = append(dispCols, d.Column)
	}
	assert.Equal(t, []string{xdr.TCP, xdr.RTT, xdr.Throughput, "Dur. (ms)", xdr.TotalBytes}, dispCols)
	require.Len(t, rep.Distributions, 3)
	assert.Equal(t, "iPhone", rep.TopHandsets[0].Value)
	assert.Equal(t, 10, rep.TopHandsets[0].Count)
	assert.Equal(t, "Apple", rep.TopManufacturers[0].Value)
	require.NotNil(t, rep.Handsets)
	assert.Len(t, rep.Handsets.Throughput, 3)

	require.NotNil(t, rep.Customers)
	require.Len(t, rep.Customers.Customers, 5)
	for _, c := range rep.Customers.Customers {
		assert.Equal(t, 5, c.Sessions)
		assert.True(t, c.AvgRTT.Valid)
	}
	assert.Equal(t, dataset.Some(25), rep.Customers.Customers[0].AvgRTT)

	require.NotNil(t, rep.Clusters)
	assert.Len(t, rep.Clusters.Assignments, 5)

	after, _ := f.Numeric(xdr.DefaultColumns().Duration)
	assert.Equal(t, snapshot, after, "input frame must not change")
	assert.False(t, f.Has(xdr.TCP), "derived columns stay off the input frame")
}

func TestRunSelectedStages(t *testing.T) {
	rep, err := Run(sessionsFrame(t, ""), Options{Stages: StageCustomers, Policies: []outlier.Policy{}})
	require.NoError(t, err)
	assert.Empty(t, rep.Outliers)
	assert.Empty(t, rep.Dispersion)
	assert.Nil(t, rep.Clusters)
	require.NotNil(t, rep.Customers)
}

func TestRunReportsMissingColumn(t *testing.T) {
	_, err := Run(sessionsFrame(t, "Handset Type"), Options{Stages: StageCustomers, Strict: StageCustomers})
	var mc *dataset.MissingColumnError
	require.True(t, errors.As(err, &mc), "got %v", err)
	assert.Equal(t, "Handset Type", mc.Column)
}

func TestRunSkipsCustomerStagesWithoutHandset(t *testing.T) {
	rep, err := Run(sessionsFrame(t, "Handset Type"), Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Dispersion)
	assert.NotEmpty(t, rep.Distributions)
	assert.Nil(t, rep.Customers)
	assert.Nil(t, rep.Clusters)
	assert.Contains(t, strings.Join(rep.Warnings, "\n"), "customers stage skipped")
	assert.Contains(t, strings.Join(rep.Warnings, "\n"), "Handset Type")
}

// twoCustomers has three sessions for two customer ids.
func twoCustomers(t *testing.T) *dataset.Frame {
	t.Helper()
	c := xdr.DefaultColumns()
	header := []string{c.Customer, c.Handset, c.RTTDL, c.RTTUL, c.TPDL, c.TPUL, c.TCPDL, c.TCPUL}
	rows := [][]string{
		{"1", "iPhone", "20", "5", "100", "10", "1000", "100"},
		{"1", "iPhone", "30", "5", "120", "10", "1500", "100"},
		{"2", "Galaxy", "50", "6", "300", "20", "9000", "300"},
	}
	f, err := dataset.FromStrings("two.csv", header, rows, c.Schema(), dataset.Locale{})
	require.NoError(t, err)
	return f
}

func TestRunSkipsClusteringWithTooFewCustomers(t *testing.T) {
	opt := Options{
		Policies: []outlier.Policy{},
		Cluster:  cluster.Options{KMeans: cluster.KMeans{K: 3, Seed: 42}},
	}
	rep, err := Run(twoCustomers(t), opt)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Dispersion)
	require.NotNil(t, rep.Customers)
	assert.Len(t, rep.Customers.Customers, 2)
	assert.Nil(t, rep.Clusters)
	require.NotEmpty(t, rep.Warnings)
	assert.Contains(t, rep.Warnings[len(rep.Warnings)-1], "clusters stage skipped")

	opt.Stages = StageClusters
	opt.Strict = StageClusters
	_, err = Run(twoCustomers(t), opt)
	assert.ErrorIs(t, err, cluster.ErrTooFewSamples)
}

func TestRunReportsTopCategoryErrors(t *testing.T) {
	cols := xdr.DefaultColumns()
	cols.Handset = cols.Duration
	_, err := Run(sessionsFrame(t, ""), Options{Columns: cols, Stages: StageDistribution})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top handsets")
	var ke *dataset.KindError
	assert.True(t, errors.As(err, &ke), "got %v", err)
}

func TestBuildPolicies(t *testing.T) {
	f := sessionsFrame(t, "")
	require.NoError(t, xdr.Derive(f, xdr.DefaultColumns()))

	ps, err := BuildPolicies(f, xdr.DefaultColumns(), PolicyOptions{})
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "iqr", ps[0].Name())
	assert.Equal(t, "zscore", ps[1].Name())
	assert.Equal(t, []string{xdr.TCP, xdr.RTT, xdr.Throughput}, ps[1].(outlier.ZScore).Columns)

	ps, err = BuildPolicies(f, xdr.DefaultColumns(), PolicyOptions{Names: []string{"mad", "none"}})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "mad", ps[0].Name())

	_, err = BuildPolicies(f, xdr.DefaultColumns(), PolicyOptions{Names: []string{"winsorize"}})
	assert.Error(t, err)
}
