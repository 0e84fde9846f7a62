package dataset

import "fmt"

// MissingColumnError reports a required column absent from the frame.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Column)
}

// KindError reports a column that exists with the wrong kind.
type KindError struct {
	Column string
	Want   Kind
	Got    Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("column %q is %s, want %s", e.Column, e.Got, e.Want)
}

// SchemaError reports an input header that cannot be mapped onto a schema.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "schema: " + e.Reason }
