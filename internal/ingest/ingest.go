// Package ingest reads xDR exports from CSV/TSV files and XLSX workbooks.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/rs/zerolog/log"
)

// Options controls how raw rows are read.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// XLSX sheet by name, or by 1-based index when the name is empty.
	SheetName  string
	SheetIndex int
}

// Table is a raw string table before schema checking.
type Table struct {
	Name      string
	Header    []string
	Rows      [][]string
	Total     int
	Processed int
	Warnings  []string

	wide int
}

// Frame checks the table against s and coerces its cells.
func (t *Table) Frame(s dataset.Schema, loc dataset.Locale) (*dataset.Frame, error) {
	return dataset.FromStrings(t.Name, t.Header, t.Rows, s, loc)
}

// Read picks the reader by file extension.
func Read(path string, opt Options) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return ReadXLSX(path, opt)
	}
	return ReadCSV(path, opt)
}

// Load reads path and checks it against s in one step.
func Load(path string, opt Options, s dataset.Schema, loc dataset.Locale) (*dataset.Frame, *Table, error) {
	t, err := Read(path, opt)
	if err != nil {
		return nil, nil, err
	}
	f, err := t.Frame(s, loc)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", t.Name, err)
	}
	return f, t, nil
}

// ReadCSV reads a delimited text file. Short rows are padded with empty
// cells and long rows are cut to the header with a warning; rows beyond
// MaxRows are counted but not kept.
func ReadCSV(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	t := &Table{Name: filepath.Base(path)}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t.Header = append([]string(nil), header...)
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.Total+2, err)
		}
		t.Total++
		if t.Processed >= maxRows {
			continue
		}
		t.addRow(rec)
		t.Processed++
	}
	t.noteTruncation()
	return t, nil
}

func (t *Table) noteTruncation() {
	if t.wide > 0 {
		w := fmt.Sprintf("Dropped extra cells beyond the %d header columns in %d rows", len(t.Header), t.wide)
		t.Warnings = append(t.Warnings, w)
		log.Warn().Str("file", t.Name).Int("rows", t.wide).Msg("rows wider than header")
	}
	if t.Processed < t.Total {
		w := fmt.Sprintf("Processed first %d of %d rows (max-rows limit)", t.Processed, t.Total)
		t.Warnings = append(t.Warnings, w)
		log.Warn().Str("file", t.Name).Int("processed", t.Processed).Int("total", t.Total).Msg("row limit reached")
	}
}

// addRow pads or cuts rec to the header width. Rows whose cut cells are not
// blank are counted and reported by noteTruncation.
func (t *Table) addRow(rec []string) {
	n := len(t.Header)
	if len(rec) > n && !isBlank(rec[n:]) {
		t.wide++
	}
	row := make([]string, n)
	copy(row, rec)
	t.Rows = append(t.Rows, row)
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// ParseDelimiter maps the CLI spelling of a delimiter to a rune.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	}
	return 0, fmt.Errorf("unsupported delimiter: %s", s)
}
