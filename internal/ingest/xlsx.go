package ingest

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads one worksheet. The first row is the header.
// If SheetName is empty and SheetIndex <= 0, the first sheet is used.
func ReadXLSX(path string, opt Options) (*Table, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	sheet := ""
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.SheetName, filepath.Base(path), strings.Join(sheets, ", "))
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range in workbook '%s' (%d sheets)", idx, filepath.Base(path), len(sheets))
		}
		sheet = sheets[idx-1]
	}

	rows, err := wb.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	t := &Table{Name: filepath.Base(path) + ":" + sheet}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	first := true
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if first {
			t.Header = cols
			first = false
			continue
		}
		if isBlank(cols) {
			continue
		}
		t.Total++
		if t.Processed >= maxRows {
			continue
		}
		t.addRow(cols)
		t.Processed++
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	t.noteTruncation()
	return t, nil
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
