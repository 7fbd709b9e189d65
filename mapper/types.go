// Package mapper translates between frame column types, SQL column types
// and SQL literals, and coerces driver results back into Go values.
package mapper

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/dan-strohschein/pgtab/dataset"
)

// SQL column types emitted by CREATE TABLE.
const (
	SQLInteger     = "INTEGER"
	SQLFloat       = "DOUBLE PRECISION"
	SQLBoolean     = "BOOLEAN"
	SQLTimestamp   = "TIMESTAMP"
	SQLTimestampTZ = "TIMESTAMP WITH TIME ZONE"
	SQLText        = "TEXT"
)

// InferType classifies a declared column type. The rules are checked in
// order: boolean, integer, floating point, zoned timestamp, plain
// timestamp or date, and everything else is text.
func InferType(dt arrow.DataType) dataset.ColumnType {
	if dt == nil {
		return dataset.TypeText
	}

	switch dt.ID() {
	case arrow.BOOL:
		return dataset.TypeBoolean
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return dataset.TypeInteger
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return dataset.TypeFloat
	case arrow.TIMESTAMP:
		if ts, ok := dt.(*arrow.TimestampType); ok && ts.TimeZone != "" {
			return dataset.TypeTimestampTZ
		}
		return dataset.TypeTimestamp
	case arrow.DATE32, arrow.DATE64:
		return dataset.TypeTimestamp
	default:
		return dataset.TypeText
	}
}

// SQLType returns the column type used in CREATE TABLE for t.
func SQLType(t dataset.ColumnType) string {
	switch t {
	case dataset.TypeInteger:
		return SQLInteger
	case dataset.TypeFloat:
		return SQLFloat
	case dataset.TypeBoolean:
		return SQLBoolean
	case dataset.TypeTimestamp:
		return SQLTimestamp
	case dataset.TypeTimestampTZ:
		return SQLTimestampTZ
	default:
		return SQLText
	}
}

// Describe infers a descriptor for every column of f, in column order.
func Describe(f *dataset.Frame) []dataset.ColumnDescriptor {
	cols := f.Columns()
	out := make([]dataset.ColumnDescriptor, len(cols))
	for i, c := range cols {
		out[i] = dataset.ColumnDescriptor{Name: c.Name, Type: InferType(c.Type)}
	}
	return out
}
