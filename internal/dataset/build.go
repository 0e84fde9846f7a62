package dataset

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// CoercionStat counts how the cells of one numeric column were coerced.
type CoercionStat struct {
	Column  string `json:"column" yaml:"column"`
	Total   int    `json:"total" yaml:"total"`
	Missing int    `json:"missing" yaml:"missing"`
	Dropped int    `json:"dropped" yaml:"dropped"`
}

// DroppedFraction is the share of cells that were present but not numeric.
func (c CoercionStat) DroppedFraction() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Dropped) / float64(c.Total)
}

// FromStrings builds a frame from text rows, as read from CSV or XLSX.
func FromStrings(name string, header []string, rows [][]string, s Schema, loc Locale) (*Frame, error) {
	return build(name, header, len(rows), func(i, j int) any {
		if j >= len(rows[i]) {
			return nil
		}
		return rows[i][j]
	}, s, loc)
}

// FromValues builds a frame from driver values, as scanned from a database.
func FromValues(name string, header []string, rows [][]any, s Schema, loc Locale) (*Frame, error) {
	return build(name, header, len(rows), func(i, j int) any {
		if j >= len(rows[i]) {
			return nil
		}
		return rows[i][j]
	}, s, loc)
}

func build(name string, header []string, n int, cell func(i, j int) any, s Schema, loc Locale) (*Frame, error) {
	if len(header) == 0 {
		return nil, &SchemaError{Reason: "empty header"}
	}
	seen := make(map[string]int, len(header))
	for j, h := range header {
		key := normalizeName(h)
		if key == "" {
			continue
		}
		if prev, ok := seen[key]; ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("duplicate column %q at positions %d and %d", strings.TrimSpace(h), prev+1, j+1)}
		}
		seen[key] = j
	}

	f := NewFrame(name, n)
	for _, fd := range s.Fields {
		if _, ok := seen[normalizeName(fd.Name)]; !ok {
			log.Debug().Str("column", fd.Name).Str("input", name).Msg("declared column not present in input")
		}
	}
	for j, h := range header {
		if normalizeName(h) == "" {
			continue
		}
		fd, declared := s.Lookup(h)
		if !declared {
			if !s.InferExtra {
				continue
			}
			fd = Field{Name: strings.TrimSpace(h), Kind: inferKind(n, j, cell, loc)}
		}
		switch fd.Kind {
		case Numeric:
			vals := make([]NullFloat, n)
			st := CoercionStat{Column: fd.Name, Total: n}
			for i := 0; i < n; i++ {
				x, state := coerceNumeric(cell(i, j), loc)
				switch state {
				case cellOK:
					vals[i] = Some(x)
				case cellMissing:
					st.Missing++
				case cellDropped:
					st.Dropped++
				}
			}
			if st.Dropped > 0 {
				log.Warn().
					Str("column", fd.Name).
					Int("dropped", st.Dropped).
					Int("total", st.Total).
					Float64("fraction", st.DroppedFraction()).
					Msg("non-numeric values treated as absent")
			}
			f.Coercion = append(f.Coercion, st)
			if err := f.SetNumeric(fd.Name, vals); err != nil {
				return nil, err
			}
		case Categorical:
			vals := make([]string, n)
			for i := 0; i < n; i++ {
				vals[i] = CoerceString(cell(i, j))
			}
			if err := f.SetCategorical(fd.Name, vals); err != nil {
				return nil, err
			}
		default:
			return nil, &SchemaError{Reason: fmt.Sprintf("column %q has unknown kind %q", fd.Name, fd.Kind)}
		}
	}
	return f, nil
}

// inferKind decides by predominant parsed type: numeric wins ties.
func inferKind(n, j int, cell func(i, j int) any, loc Locale) Kind {
	var num, txt int
	for i := 0; i < n; i++ {
		switch _, state := coerceNumeric(cell(i, j), loc); state {
		case cellOK:
			num++
		case cellDropped:
			txt++
		}
	}
	if num > 0 && num >= txt {
		return Numeric
	}
	return Categorical
}
