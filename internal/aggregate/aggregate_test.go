package aggregate

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/KaramelBytes/xdrstat/internal/outlier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = Columns{
	Customer:   "MSISDN",
	Handset:    "Handset",
	TCP:        "TCP",
	RTT:        "RTT",
	Throughput: "Throughput",
	Duration:   "Duration",
}

func sessions(t *testing.T) *dataset.Frame {
	t.Helper()
	f := dataset.NewFrame("sessions", 7)
	require.NoError(t, f.SetCategorical("MSISDN", []string{"b", "a", "b", "", "a", "b", "c"}))
	require.NoError(t, f.SetCategorical("Handset", []string{"X", "P", "Y", "Z", "Q", "Y", ""}))
	require.NoError(t, f.SetNumeric("TCP", []dataset.NullFloat{
		dataset.Some(1), dataset.Some(10), dataset.Some(3), dataset.Some(99), dataset.Absent, dataset.Absent, dataset.Absent,
	}))
	require.NoError(t, f.SetNumeric("RTT", []dataset.NullFloat{
		dataset.Some(20), dataset.Some(30), dataset.Some(40), dataset.Some(1), dataset.Some(50), dataset.Some(60), dataset.Some(5),
	}))
	require.NoError(t, f.SetNumeric("Throughput", []dataset.NullFloat{
		dataset.Some(100), dataset.Some(200), dataset.Some(300), dataset.Some(1), dataset.Some(400), dataset.Some(500), dataset.Absent,
	}))
	require.NoError(t, f.SetNumeric("Duration", []dataset.NullFloat{
		dataset.Some(1000), dataset.Some(2000), dataset.Absent, dataset.Some(1), dataset.Some(3000), dataset.Some(4000), dataset.Absent,
	}))
	return f
}

func normalized(t *testing.T, f *dataset.Frame) outlier.Normalized {
	t.Helper()
	n, err := outlier.Normalize(f)
	require.NoError(t, err)
	return n
}

func TestCustomersOneRowPerDistinctID(t *testing.T) {
	res, err := Customers(normalized(t, sessions(t)), cols)
	require.NoError(t, err)
	require.Len(t, res.Customers, 3)
	assert.Equal(t, 1, res.SkippedRows)

	ids := []string{res.Customers[0].ID, res.Customers[1].ID, res.Customers[2].ID}
	assert.Equal(t, []string{"b", "a", "c"}, ids, "order of first appearance")

	b := res.Customers[0]
	assert.Equal(t, 3, b.Sessions)
	assert.Equal(t, dataset.Some(2), b.AvgTCPRetrans)
	assert.Equal(t, dataset.Some(40), b.AvgRTT)
	assert.Equal(t, dataset.Some(300), b.AvgThroughput)
	assert.Equal(t, "Y", b.Handset)
	assert.Equal(t, dataset.Some(5000), b.TotalDurationMs)
	assert.False(t, b.TotalBytes.Valid)

	a := res.Customers[1]
	assert.Equal(t, dataset.Some(10), a.AvgTCPRetrans)
	assert.Equal(t, "P", a.Handset, "tie goes to first seen")
}

func TestCustomersEmptyGroupIsAbsent(t *testing.T) {
	res, err := Customers(normalized(t, sessions(t)), cols)
	require.NoError(t, err)
	c := res.Customers[2]
	assert.Equal(t, "c", c.ID)
	assert.False(t, c.AvgTCPRetrans.Valid)
	assert.False(t, c.AvgThroughput.Valid)
	assert.Equal(t, dataset.Some(5), c.AvgRTT)
	assert.Equal(t, "", c.Handset)
}

func TestCustomersMissingColumn(t *testing.T) {
	f := sessions(t)
	bad := cols
	bad.RTT = "Avg RTT"
	_, err := Customers(normalized(t, f), bad)
	var mc *dataset.MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "Avg RTT", mc.Column)
}

func TestMode(t *testing.T) {
	m := NewMode()
	v, n := m.Value()
	assert.Equal(t, "", v)
	assert.Equal(t, 0, n)
	for _, s := range []string{"a", "b", "", "b", "a", "c"} {
		m.Add(s)
	}
	v, n = m.Value()
	assert.Equal(t, "a", v)
	assert.Equal(t, 2, n)
}
