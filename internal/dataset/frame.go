package dataset

import (
	"fmt"
	"strings"
)

// Kind is the declared type of a column.
type Kind string

const (
	Numeric     Kind = "numeric"
	Categorical Kind = "categorical"
)

// Field declares one column of a Schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema lists the columns an input is expected to carry. Header matching is
// case-insensitive and ignores surrounding whitespace.
type Schema struct {
	Fields []Field
	// InferExtra keeps columns not declared in Fields, inferring their kind
	// from the predominant parsed type.
	InferExtra bool
}

// Lookup returns the declared field matching name.
func (s Schema) Lookup(name string) (Field, bool) {
	key := normalizeName(name)
	for _, f := range s.Fields {
		if normalizeName(f.Name) == key {
			return f, true
		}
	}
	return Field{}, false
}

// Frame is an in-memory table of typed columns. All columns share the same
// length. Categorical cells use "" for absent.
type Frame struct {
	Name     string
	Coercion []CoercionStat

	rows        int
	order       []string
	kinds       map[string]Kind
	numeric     map[string][]NullFloat
	categorical map[string][]string
}

// NewFrame returns an empty frame with the given row count.
func NewFrame(name string, rows int) *Frame {
	return &Frame{
		Name:        name,
		rows:        rows,
		kinds:       map[string]Kind{},
		numeric:     map[string][]NullFloat{},
		categorical: map[string][]string{},
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Kind reports the kind of a column.
func (f *Frame) Kind(name string) (Kind, bool) {
	k, ok := f.kinds[name]
	return k, ok
}

// Has reports whether the column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.kinds[name]
	return ok
}

// Numeric returns the cells of a numeric column. The slice is shared with the
// frame; use SetNumeric to replace it.
func (f *Frame) Numeric(name string) ([]NullFloat, error) {
	k, ok := f.kinds[name]
	if !ok {
		return nil, &MissingColumnError{Column: name}
	}
	if k != Numeric {
		return nil, &KindError{Column: name, Want: Numeric, Got: k}
	}
	return f.numeric[name], nil
}

// Categorical returns the cells of a categorical column.
func (f *Frame) Categorical(name string) ([]string, error) {
	k, ok := f.kinds[name]
	if !ok {
		return nil, &MissingColumnError{Column: name}
	}
	if k != Categorical {
		return nil, &KindError{Column: name, Want: Categorical, Got: k}
	}
	return f.categorical[name], nil
}

// SetNumeric adds or replaces a numeric column.
func (f *Frame) SetNumeric(name string, vals []NullFloat) error {
	if len(vals) != f.rows {
		return fmt.Errorf("column %q has %d rows, frame has %d", name, len(vals), f.rows)
	}
	if k, ok := f.kinds[name]; ok && k != Numeric {
		delete(f.categorical, name)
	} else if !ok {
		f.order = append(f.order, name)
	}
	f.kinds[name] = Numeric
	f.numeric[name] = vals
	return nil
}

// SetCategorical adds or replaces a categorical column.
func (f *Frame) SetCategorical(name string, vals []string) error {
	if len(vals) != f.rows {
		return fmt.Errorf("column %q has %d rows, frame has %d", name, len(vals), f.rows)
	}
	if k, ok := f.kinds[name]; ok && k != Categorical {
		delete(f.numeric, name)
	} else if !ok {
		f.order = append(f.order, name)
	}
	f.kinds[name] = Categorical
	f.categorical[name] = vals
	return nil
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := NewFrame(f.Name, f.rows)
	c.order = append(c.order, f.order...)
	c.Coercion = append(c.Coercion, f.Coercion...)
	for k, v := range f.kinds {
		c.kinds[k] = v
	}
	for k, v := range f.numeric {
		cp := make([]NullFloat, len(v))
		copy(cp, v)
		c.numeric[k] = cp
	}
	for k, v := range f.categorical {
		cp := make([]string, len(v))
		copy(cp, v)
		c.categorical[k] = cp
	}
	return c
}

// SumColumns stores the row-wise sum of the given numeric columns under out.
// A row is absent only when every part is absent. Parts missing from the frame
// are ignored; if none exist a MissingColumnError names the first one.
func (f *Frame) SumColumns(out string, parts ...string) error {
	var cols [][]NullFloat
	for _, p := range parts {
		if !f.Has(p) {
			continue
		}
		vals, err := f.Numeric(p)
		if err != nil {
			return err
		}
		cols = append(cols, vals)
	}
	if len(cols) == 0 {
		name := out
		if len(parts) > 0 {
			name = parts[0]
		}
		return &MissingColumnError{Column: name}
	}
	sum := make([]NullFloat, f.rows)
	for i := 0; i < f.rows; i++ {
		for _, c := range cols {
			if !c[i].Valid {
				continue
			}
			sum[i].Float64 += c[i].Float64
			sum[i].Valid = true
		}
	}
	return f.SetNumeric(out, sum)
}

func normalizeName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
