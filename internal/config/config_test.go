package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, xdr.DefaultColumns(), c.Columns)
	assert.Equal(t, []string{"iqr", "zscore"}, c.OutlierPolicies)
	assert.Equal(t, 1.5, c.IQRMultiplier)
	assert.Equal(t, 3.0, c.ZThreshold)
	assert.Equal(t, 10, c.TopN)
	assert.Equal(t, 3, c.ClusterK)
	assert.Equal(t, int64(42), c.ClusterSeed)
	assert.Equal(t, "drop", c.ClusterMissing)
	assert.Equal(t, "xdr_data", c.DatabaseTable)
	assert.Equal(t, "postgres", c.DatabaseDriver)
	assert.Equal(t, dataset.Locale{}, c.Locale())
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "xdrstat.yaml")
	require.NoError(t, os.WriteFile(p, []byte("top_n: 5\ncolumns:\n  customer: msisdn\ndecimal_separator: comma\n"), 0o644))
	t.Setenv("XDRSTAT_CLUSTER_K", "4")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 5, c.TopN)
	assert.Equal(t, "msisdn", c.Columns.Customer)
	assert.Equal(t, "Handset Type", c.Columns.Handset)
	assert.Equal(t, 4, c.ClusterK)
	assert.Equal(t, ',', c.Locale().DecimalSeparator)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("cluster_missing: zero\n"), 0o644))
	_, err := Load(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ClusterMissing")
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	require.NoError(t, c.Set("outlier_policies", "IQR, mad"))
	require.NoError(t, c.Set("cluster_seed", "7"))
	require.NoError(t, c.Set("columns.customer", "msisdn"))
	require.NoError(t, c.Set("exclude_outliers_from_mean", "true"))

	err = c.Set("top_n", "0")
	require.Error(t, err)
	assert.Equal(t, 10, c.TopN, "failed set leaves config unchanged")
	assert.Error(t, c.Set("cluster_k", "many"))
	assert.Error(t, c.Set("api_key", "x"))

	require.NoError(t, Save(c, ""))
	back, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"iqr", "mad"}, back.OutlierPolicies)
	assert.Equal(t, int64(7), back.ClusterSeed)
	assert.Equal(t, "msisdn", back.Columns.Customer)
	assert.True(t, back.ExcludeOutliersFromMean)
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "database_dsn")
	assert.IsIncreasing(t, keys)
}
