package schema

import (
	"context"

	"github.com/dan-strohschein/pgtab/dataset"
)

// Querier runs raw SQL text and returns the result table, if any.
type Querier interface {
	Execute(ctx context.Context, text string) (*dataset.ResultTable, error)
}

// TableName is a schema-qualified table reference.
type TableName struct {
	Schema string
	Table  string
}

// String returns the unquoted dotted form.
func (n TableName) String() string {
	return n.Schema + "." + n.Table
}

// Quoted returns the quoted, schema-qualified form used in statements.
func (n TableName) Quoted() string {
	return QualifiedName(n.Schema, n.Table)
}

// ColumnInfo describes one column of an existing table.
type ColumnInfo struct {
	Name     string `json:"column_name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"is_nullable"`
	Default  any    `json:"column_default,omitempty"`
}

// TableInfo describes an existing table and its columns.
type TableInfo struct {
	Name    TableName    `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}
