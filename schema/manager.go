package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/dan-strohschein/pgtab/dataset"
	"github.com/dan-strohschein/pgtab/mapper"
)

// Manager answers catalog questions and runs schema DDL through a Querier.
type Manager struct {
	q       Querier
	dialect Dialect
	mapper  *mapper.ResponseMapper
}

// NewManager creates a manager for the given dialect.
// A nil dialect means Postgres.
func NewManager(q Querier, dialect Dialect) *Manager {
	if dialect == nil {
		dialect = Postgres
	}
	return &Manager{q: q, dialect: dialect, mapper: mapper.NewResponseMapper()}
}

// Dialect returns the dialect the manager renders queries for.
func (m *Manager) Dialect() Dialect {
	return m.dialect
}

// ListSchemas returns every user-visible schema name.
func (m *Manager) ListSchemas(ctx context.Context) ([]string, error) {
	res, err := m.q.Execute(ctx, m.dialect.ListSchemasQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return m.firstColumn(res), nil
}

// SchemaExists reports whether the named schema exists.
func (m *Manager) SchemaExists(ctx context.Context, schema string) (bool, error) {
	return m.exists(ctx, m.dialect.SchemaExistsQuery(schema))
}

// CreateSchema creates the schema if it does not already exist.
func (m *Manager) CreateSchema(ctx context.Context, schema string) error {
	if !m.dialect.SupportsSchemas() {
		return fmt.Errorf("create schema %q: %w", schema, ErrUnsupported)
	}
	if _, err := m.q.Execute(ctx, m.dialect.CreateSchemaStatement(schema)); err != nil {
		return fmt.Errorf("failed to create schema %q: %w", schema, err)
	}
	return nil
}

// DropSchema drops the schema if it exists. With cascade, contained
// objects are dropped too.
func (m *Manager) DropSchema(ctx context.Context, schema string, cascade bool) error {
	if !m.dialect.SupportsSchemas() {
		return fmt.Errorf("drop schema %q: %w", schema, ErrUnsupported)
	}
	if _, err := m.q.Execute(ctx, m.dialect.DropSchemaStatement(schema, cascade)); err != nil {
		return fmt.Errorf("failed to drop schema %q: %w", schema, err)
	}
	return nil
}

// ListTables returns the base tables of a schema, sorted by name.
// An empty schema means the dialect default.
func (m *Manager) ListTables(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = m.dialect.DefaultSchema()
	}
	res, err := m.q.Execute(ctx, m.dialect.ListTablesQuery(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %q: %w", schema, err)
	}
	return m.firstColumn(res), nil
}

// TableExists reports whether a table exists. When schema is empty the
// table name may itself be qualified.
func (m *Manager) TableExists(ctx context.Context, table, schema string) (bool, error) {
	n, err := m.Resolve(table, schema)
	if err != nil {
		return false, err
	}
	return m.exists(ctx, m.dialect.TableExistsQuery(n))
}

// DescribeTable returns the columns of a table in ordinal order.
// A table that does not exist yields an empty description.
func (m *Manager) DescribeTable(ctx context.Context, table, schema string) (*TableInfo, error) {
	n, err := m.Resolve(table, schema)
	if err != nil {
		return nil, err
	}

	res, err := m.q.Execute(ctx, m.dialect.DescribeTableQuery(n))
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", n, err)
	}

	info := &TableInfo{Name: n, Columns: make([]ColumnInfo, 0, res.NumRows())}
	for i := 0; i < res.NumRows(); i++ {
		info.Columns = append(info.Columns, ColumnInfo{
			Name:     m.mapper.ToString(res.Cell(i, 0)),
			DataType: m.mapper.ToString(res.Cell(i, 1)),
			Nullable: strings.EqualFold(m.mapper.ToString(res.Cell(i, 2)), "YES"),
			Default:  res.Cell(i, 3),
		})
	}
	return info, nil
}

// Resolve parses table into a TableName. An explicit schema overrides any
// qualification and an unqualified name gets the dialect default.
func (m *Manager) Resolve(table, schema string) (TableName, error) {
	n, err := ParseTableName(table, m.dialect.DefaultSchema())
	if err != nil {
		return TableName{}, err
	}
	if schema != "" {
		n.Schema = schema
	}
	return n, nil
}

func (m *Manager) exists(ctx context.Context, query string) (bool, error) {
	res, err := m.q.Execute(ctx, query)
	if err != nil {
		return false, err
	}
	return m.mapper.ToBool(res.Cell(0, 0))
}

func (m *Manager) firstColumn(res *dataset.ResultTable) []string {
	out := make([]string, 0, res.NumRows())
	for i := 0; i < res.NumRows(); i++ {
		out = append(out, m.mapper.ToString(res.Cell(i, 0)))
	}
	return out
}
