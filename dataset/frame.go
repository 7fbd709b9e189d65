package dataset

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// ColumnType is the inferred scalar type of a Frame column.
type ColumnType int

const (
	// TypeText is the fallback for every declared type that is not one of the others.
	TypeText ColumnType = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeTimestamp
	TypeTimestampTZ
)

// String returns the string representation of the column type.
func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "Integer"
	case TypeFloat:
		return "Float"
	case TypeBoolean:
		return "Boolean"
	case TypeTimestamp:
		return "Timestamp"
	case TypeTimestampTZ:
		return "TimestampWithZone"
	default:
		return "Text"
	}
}

// ColumnDescriptor pairs a column name with its inferred type.
type ColumnDescriptor struct {
	Name string
	Type ColumnType
}

// Column is a named Frame column with its declared type.
type Column struct {
	Name string
	Type arrow.DataType
}

// Col is shorthand for building a Column.
func Col(name string, typ arrow.DataType) Column {
	return Column{Name: name, Type: typ}
}

// Frame is an in-memory table of typed columns and rows of Values.
// Row order is preserved exactly as appended.
type Frame struct {
	columns []Column
	rows    [][]Value
}

// NewFrame creates an empty frame with the given columns.
func NewFrame(columns ...Column) *Frame {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Frame{columns: cols}
}

// Append adds one row. The number of values must match the number of columns.
func (f *Frame) Append(values ...Value) error {
	if len(values) != len(f.columns) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(values), len(f.columns))
	}
	row := make([]Value, len(values))
	copy(row, values)
	f.rows = append(f.rows, row)
	return nil
}

// MustAppend is like Append but panics on arity mismatch.
func (f *Frame) MustAppend(values ...Value) *Frame {
	if err := f.Append(values...); err != nil {
		panic(err)
	}
	return f
}

// Columns returns the frame's columns in order.
func (f *Frame) Columns() []Column {
	if f == nil {
		return nil
	}
	return f.columns
}

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	if f == nil {
		return nil
	}
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// NumRows returns the number of rows. A nil frame has zero rows.
func (f *Frame) NumRows() int {
	if f == nil {
		return 0
	}
	return len(f.rows)
}

// Row returns the i-th row.
func (f *Frame) Row(i int) []Value {
	return f.rows[i]
}

// Rows returns all rows in order.
func (f *Frame) Rows() [][]Value {
	if f == nil {
		return nil
	}
	return f.rows
}

// Slice returns the rows covered by the window.
func (f *Frame) Slice(w Window) [][]Value {
	return f.rows[w.Start:w.End]
}
