package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dan-strohschein/pgtab/mapper"
)

// ErrUnsupported is returned for catalog operations a dialect cannot perform.
var ErrUnsupported = errors.New("operation not supported by dialect")

// Dialect renders the catalog queries and DDL that differ between databases.
// Catalog queries return a single EXISTS cell or one row per item.
type Dialect interface {
	Name() string
	DefaultSchema() string
	SupportsSchemas() bool

	TableExistsQuery(n TableName) string
	SchemaExistsQuery(schema string) string
	ListSchemasQuery() string
	ListTablesQuery(schema string) string
	DescribeTableQuery(n TableName) string

	TruncateStatement(n TableName) string
	CreateSchemaStatement(schema string) string
	DropSchemaStatement(schema string, cascade bool) string
}

// Dialects.
var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// DialectByName resolves a dialect or driver name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string          { return "postgres" }
func (postgresDialect) DefaultSchema() string { return "public" }
func (postgresDialect) SupportsSchemas() bool { return true }

func (postgresDialect) TableExistsQuery(n TableName) string {
	return fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = %s AND table_name = %s)",
		mapper.QuoteString(n.Schema), mapper.QuoteString(n.Table))
}

func (postgresDialect) SchemaExistsQuery(schema string) string {
	return fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = %s)",
		mapper.QuoteString(schema))
}

func (postgresDialect) ListSchemasQuery() string {
	return "SELECT schema_name FROM information_schema.schemata " +
		"WHERE schema_name NOT IN ('pg_catalog', 'information_schema') " +
		"AND schema_name NOT LIKE 'pg_toast%' AND schema_name NOT LIKE 'pg_temp%' " +
		"ORDER BY schema_name"
}

func (postgresDialect) ListTablesQuery(schema string) string {
	return fmt.Sprintf(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = %s AND table_type = 'BASE TABLE' ORDER BY table_name",
		mapper.QuoteString(schema))
}

func (postgresDialect) DescribeTableQuery(n TableName) string {
	return fmt.Sprintf(
		"SELECT column_name, data_type, is_nullable, column_default FROM information_schema.columns "+
			"WHERE table_schema = %s AND table_name = %s ORDER BY ordinal_position",
		mapper.QuoteString(n.Schema), mapper.QuoteString(n.Table))
}

func (postgresDialect) TruncateStatement(n TableName) string {
	return "TRUNCATE TABLE " + n.Quoted()
}

func (postgresDialect) CreateSchemaStatement(schema string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + QuoteIdent(schema)
}

func (postgresDialect) DropSchemaStatement(schema string, cascade bool) string {
	stmt := "DROP SCHEMA IF EXISTS " + QuoteIdent(schema)
	if cascade {
		stmt += " CASCADE"
	}
	return stmt
}

// sqliteDialect maps schemas onto attached databases; "main" is the default.
type sqliteDialect struct{}

func (sqliteDialect) Name() string          { return "sqlite" }
func (sqliteDialect) DefaultSchema() string { return "main" }
func (sqliteDialect) SupportsSchemas() bool { return false }

func (sqliteDialect) TableExistsQuery(n TableName) string {
	return fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s.sqlite_master WHERE type = 'table' AND name = %s)",
		QuoteIdent(n.Schema), mapper.QuoteString(n.Table))
}

func (sqliteDialect) SchemaExistsQuery(schema string) string {
	return fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM pragma_database_list WHERE name = %s)",
		mapper.QuoteString(schema))
}

func (sqliteDialect) ListSchemasQuery() string {
	return "SELECT name FROM pragma_database_list ORDER BY seq"
}

func (sqliteDialect) ListTablesQuery(schema string) string {
	return fmt.Sprintf(
		"SELECT name FROM %s.sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%%' ORDER BY name",
		QuoteIdent(schema))
}

func (sqliteDialect) DescribeTableQuery(n TableName) string {
	return fmt.Sprintf(
		"SELECT name, type, CASE WHEN \"notnull\" = 0 THEN 'YES' ELSE 'NO' END, dflt_value "+
			"FROM pragma_table_info(%s, %s) ORDER BY cid",
		mapper.QuoteString(n.Table), mapper.QuoteString(n.Schema))
}

func (sqliteDialect) TruncateStatement(n TableName) string {
	return "DELETE FROM " + n.Quoted()
}

func (sqliteDialect) CreateSchemaStatement(string) string    { return "" }
func (sqliteDialect) DropSchemaStatement(string, bool) string { return "" }
