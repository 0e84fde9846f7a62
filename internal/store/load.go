package store

import (
	"context"
	"fmt"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/rs/zerolog/log"
)

// LoadFrame reads the whole table into a frame checked against schema.
// maxRows limits the rows read; 0 means unlimited.
func (s *Store) LoadFrame(ctx context.Context, schema dataset.Schema, loc dataset.Locale, maxRows int) (*dataset.Frame, error) {
	q := "SELECT * FROM " + s.quotedTable()
	var args []any
	if maxRows > 0 {
		q += " LIMIT ?"
		args = append(args, maxRows)
	}
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.table, err)
	}
	defer rows.Close()
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.table, err)
	}
	var data [][]any
	for rows.Next() {
		vals := make([]any, len(header))
		ptrs := make([]any, len(header))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("load %s: scan: %w", s.table, err)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", s.table, err)
	}
	log.Info().Str("table", s.table).Int("rows", len(data)).Msg("records loaded")
	return dataset.FromValues(s.table, header, data, schema, loc)
}
