package dataset

import (
	"encoding/json"
	"strconv"
)

// NullFloat is a numeric cell that may be absent.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some wraps a present value.
func Some(v float64) NullFloat { return NullFloat{Float64: v, Valid: true} }

// Absent is the zero NullFloat.
var Absent = NullFloat{}

func (n NullFloat) String() string {
	if !n.Valid {
		return "NA"
	}
	return strconv.FormatFloat(n.Float64, 'g', 6, 64)
}

// MarshalJSON encodes absent values as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON accepts a number or null.
func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Absent
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}

// MarshalYAML encodes absent values as null.
func (n NullFloat) MarshalYAML() (interface{}, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

// Present returns the present values in order, skipping absent cells.
func Present(vals []NullFloat) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out
}
