package xdr

import (
	"testing"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSumsDownlinkAndUplink(t *testing.T) {
	c := DefaultColumns()
	header := []string{c.Customer, c.Handset, c.RTTDL, c.RTTUL, c.TPDL, c.TPUL, c.TCPDL}
	rows := [][]string{
		{"1", "A", "10", "5", "100", "20", "3"},
		{"2", "B", "", "7", "", "", ""},
	}
	f, err := dataset.FromStrings("x.csv", header, rows, c.Schema(), dataset.Locale{})
	require.NoError(t, err)
	require.NoError(t, Derive(f, c))

	rtt, err := f.Numeric(RTT)
	require.NoError(t, err)
	assert.Equal(t, []dataset.NullFloat{dataset.Some(15), dataset.Some(7)}, rtt)

	tp, _ := f.Numeric(Throughput)
	assert.Equal(t, []dataset.NullFloat{dataset.Some(120), dataset.Absent}, tp)

	tcp, _ := f.Numeric(TCP)
	assert.Equal(t, []dataset.NullFloat{dataset.Some(3), dataset.Absent}, tcp)

	assert.False(t, f.Has(TotalBytes))
}

func TestDeriveKeepsDirectMetricColumns(t *testing.T) {
	c := DefaultColumns()
	header := []string{"MSISDN/Number", "Handset Type", "TCP", "RTT", "Throughput"}
	rows := [][]string{{"1", "A", "4", "50", "900"}}
	f, err := dataset.FromStrings("x.csv", header, rows, c.Schema(), dataset.Locale{})
	require.NoError(t, err)
	require.NoError(t, Derive(f, c))
	tcp, _ := f.Numeric(TCP)
	assert.Equal(t, []dataset.NullFloat{dataset.Some(4)}, tcp)
}
