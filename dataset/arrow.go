package dataset

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// FromArrowRecord converts a record batch into a new Frame.
// Column types are taken from the record schema.
func FromArrowRecord(rec arrow.Record) (*Frame, error) {
	f := NewFrame(columnsFromSchema(rec.Schema())...)
	if err := f.appendRecord(rec); err != nil {
		return nil, err
	}
	return f, nil
}

// FromArrowTable converts every chunk of an arrow table into a single Frame.
func FromArrowTable(tbl arrow.Table) (*Frame, error) {
	f := NewFrame(columnsFromSchema(tbl.Schema())...)

	tr := array.NewTableReader(tbl, 64*1024)
	defer tr.Release()

	for tr.Next() {
		if err := f.appendRecord(tr.Record()); err != nil {
			return nil, err
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("failed to read arrow table: %w", err)
	}
	return f, nil
}

// ReadCSV reads a CSV stream with a header row, inferring column types.
// Empty fields are read as NULL.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewInferringReader(r,
		csv.WithHeader(true),
		csv.WithChunk(4096),
		csv.WithNullReader(true, ""),
	)
	defer reader.Release()

	var f *Frame
	for reader.Next() {
		rec := reader.Record()
		if f == nil {
			f = NewFrame(columnsFromSchema(rec.Schema())...)
		}
		if err := f.appendRecord(rec); err != nil {
			return nil, err
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if f == nil {
		f = NewFrame()
	}
	return f, nil
}

// ReadParquet loads a parquet file into a Frame.
func ReadParquet(ctx context.Context, path string) (*Frame, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer tbl.Release()

	return FromArrowTable(tbl)
}

func columnsFromSchema(schema *arrow.Schema) []Column {
	fields := schema.Fields()
	cols := make([]Column, len(fields))
	for i, field := range fields {
		cols[i] = Column{Name: field.Name, Type: field.Type}
	}
	return cols
}

func (f *Frame) appendRecord(rec arrow.Record) error {
	if int(rec.NumCols()) != len(f.columns) {
		return fmt.Errorf("record has %d columns, frame has %d", rec.NumCols(), len(f.columns))
	}

	nrows := int(rec.NumRows())
	rows := make([][]Value, nrows)
	for i := range rows {
		rows[i] = make([]Value, len(f.columns))
	}

	for c := 0; c < len(f.columns); c++ {
		col := rec.Column(c)
		for r := 0; r < nrows; r++ {
			v, err := arrowValue(col, r)
			if err != nil {
				return fmt.Errorf("column %q row %d: %w", f.columns[c].Name, r, err)
			}
			rows[r][c] = v
		}
	}

	f.rows = append(f.rows, rows...)
	return nil
}

// arrowValue converts one arrow cell into a Value.
// Types without a dedicated variant are carried as their text rendering.
func arrowValue(col arrow.Array, pos int) (Value, error) {
	if col.IsNull(pos) {
		return Null(), nil
	}

	switch col.DataType().ID() {
	case arrow.BOOL:
		return Bool(col.(*array.Boolean).Value(pos)), nil

	case arrow.INT8:
		return Int(int64(col.(*array.Int8).Value(pos))), nil
	case arrow.INT16:
		return Int(int64(col.(*array.Int16).Value(pos))), nil
	case arrow.INT32:
		return Int(int64(col.(*array.Int32).Value(pos))), nil
	case arrow.INT64:
		return Int(col.(*array.Int64).Value(pos)), nil
	case arrow.UINT8:
		return Int(int64(col.(*array.Uint8).Value(pos))), nil
	case arrow.UINT16:
		return Int(int64(col.(*array.Uint16).Value(pos))), nil
	case arrow.UINT32:
		return Int(int64(col.(*array.Uint32).Value(pos))), nil
	case arrow.UINT64:
		u := col.(*array.Uint64).Value(pos)
		if u > math.MaxInt64 {
			return Value{}, fmt.Errorf("uint64 value %d overflows int64", u)
		}
		return Int(int64(u)), nil

	case arrow.FLOAT16:
		return floatValue(float64(col.(*array.Float16).Value(pos).Float32())), nil
	case arrow.FLOAT32:
		return floatValue(float64(col.(*array.Float32).Value(pos))), nil
	case arrow.FLOAT64:
		return floatValue(col.(*array.Float64).Value(pos)), nil

	case arrow.STRING:
		return Text(col.(*array.String).Value(pos)), nil
	case arrow.LARGE_STRING:
		return Text(col.(*array.LargeString).Value(pos)), nil

	case arrow.TIMESTAMP:
		dt := col.DataType().(*arrow.TimestampType)
		t := col.(*array.Timestamp).Value(pos).ToTime(dt.Unit)
		if dt.TimeZone == "" {
			return Timestamp(t), nil
		}
		loc, err := time.LoadLocation(dt.TimeZone)
		if err != nil {
			return Value{}, fmt.Errorf("unknown time zone %q: %w", dt.TimeZone, err)
		}
		return TimestampTZ(t.In(loc)), nil

	case arrow.DATE32:
		return Timestamp(col.(*array.Date32).Value(pos).ToTime()), nil
	case arrow.DATE64:
		return Timestamp(col.(*array.Date64).Value(pos).ToTime()), nil

	default:
		return Text(col.ValueStr(pos)), nil
	}
}

// floatValue maps NaN to the missing-value sentinel.
func floatValue(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Float(f)
}
