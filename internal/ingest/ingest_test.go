package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadCSVPadsAndLimits(t *testing.T) {
	p := writeFile(t, "xdr.csv", "MSISDN/Number,Handset Type,Dur. (ms)\n1,Apple,100\n2,Samsung\n3,Huawei,300\n")
	tab, err := ReadCSV(p, Options{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, "xdr.csv", tab.Name)
	assert.Equal(t, []string{"MSISDN/Number", "Handset Type", "Dur. (ms)"}, tab.Header)
	assert.Equal(t, [][]string{{"1", "Apple", "100"}, {"2", "Samsung", ""}}, tab.Rows)
	assert.Equal(t, 3, tab.Total)
	assert.Equal(t, 2, tab.Processed)
	require.Len(t, tab.Warnings, 1)
	assert.Contains(t, tab.Warnings[0], "first 2 of 3")
}

func TestReadCSVWarnsOnWideRows(t *testing.T) {
	p := writeFile(t, "xdr.csv", "a,b\n1,2,3\n4,5,\n6,7,8,9\n")
	tab, err := ReadCSV(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}, {"4", "5"}, {"6", "7"}}, tab.Rows)
	require.Len(t, tab.Warnings, 1)
	assert.Contains(t, tab.Warnings[0], "in 2 rows")
}

func TestReadTSVByExtension(t *testing.T) {
	p := writeFile(t, "xdr.tsv", "a\tb\n1\t2\n")
	tab, err := Read(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}}, tab.Rows)
}

func TestReadCSVEmptyFile(t *testing.T) {
	tab, err := ReadCSV(writeFile(t, "empty.csv", ""), Options{})
	require.NoError(t, err)
	assert.Empty(t, tab.Header)
	assert.Zero(t, tab.Total)
}

func TestLoadChecksSchema(t *testing.T) {
	p := writeFile(t, "xdr.csv", "MSISDN/Number,Dur. (ms)\n1,100\n2,n/a\n3,abc\n")
	s := dataset.Schema{Fields: []dataset.Field{
		{Name: "MSISDN/Number", Kind: dataset.Categorical},
		{Name: "Dur. (ms)", Kind: dataset.Numeric},
	}}
	f, tab, err := Load(p, Options{}, s, dataset.Locale{})
	require.NoError(t, err)
	assert.Equal(t, 3, tab.Processed)
	dur, err := f.Numeric("Dur. (ms)")
	require.NoError(t, err)
	assert.Equal(t, []dataset.NullFloat{dataset.Some(100), dataset.Absent, dataset.Absent}, dur)
	require.Len(t, f.Coercion, 1)
	assert.Equal(t, 1, f.Coercion[0].Dropped)
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"ignored"}))
	_, err := wb.NewSheet("xdr")
	require.NoError(t, err)
	require.NoError(t, wb.SetSheetRow("xdr", "A1", &[]any{"MSISDN/Number", "Handset Type", "Avg RTT DL (ms)"}))
	require.NoError(t, wb.SetSheetRow("xdr", "A2", &[]any{"33601", "Apple iPhone", 42}))
	require.NoError(t, wb.SetSheetRow("xdr", "A3", &[]any{"33602", "Samsung"}))
	p := filepath.Join(t.TempDir(), "xdr.xlsx")
	require.NoError(t, wb.SaveAs(p))
	return p
}

func TestReadXLSXBySheetName(t *testing.T) {
	p := writeWorkbook(t)
	tab, err := Read(p, Options{SheetName: "XDR"})
	require.NoError(t, err)
	assert.Equal(t, "xdr.xlsx:xdr", tab.Name)
	assert.Equal(t, []string{"MSISDN/Number", "Handset Type", "Avg RTT DL (ms)"}, tab.Header)
	assert.Equal(t, [][]string{{"33601", "Apple iPhone", "42"}, {"33602", "Samsung", ""}}, tab.Rows)
}

func TestReadXLSXByIndexAndMissingSheet(t *testing.T) {
	p := writeWorkbook(t)
	tab, err := ReadXLSX(p, Options{SheetIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, tab.Processed)

	_, err = ReadXLSX(p, Options{SheetName: "sessions"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Available sheets: Sheet1, xdr"), err.Error())

	_, err = ReadXLSX(p, Options{SheetIndex: 5})
	assert.Error(t, err)
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": 0, ",": ',', "tab": '\t', ";": ';'} {
		got, err := ParseDelimiter(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDelimiter("|")
	assert.Error(t, err)
}
