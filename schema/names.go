package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTableName is returned for table names that cannot be split
// into a schema and a table.
var ErrInvalidTableName = errors.New("invalid table name")

// ParseTableName splits "table" or "schema.table" into its parts.
// Surrounding double quotes are stripped from each part and an
// unqualified name gets defaultSchema.
func ParseTableName(name, defaultSchema string) (TableName, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return TableName{}, fmt.Errorf("%w: %q has more than one '.' separator", ErrInvalidTableName, name)
	}

	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"`)
		if parts[i] == "" {
			return TableName{}, fmt.Errorf("%w: %q has an empty part", ErrInvalidTableName, name)
		}
	}

	if len(parts) == 1 {
		return TableName{Schema: defaultSchema, Table: parts[0]}, nil
	}
	return TableName{Schema: parts[0], Table: parts[1]}, nil
}

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QualifiedName returns "schema"."table", or just "table" when schema is empty.
func QualifiedName(schema, table string) string {
	if schema == "" {
		return QuoteIdent(table)
	}
	return QuoteIdent(schema) + "." + QuoteIdent(table)
}

// QuoteIdents quotes every identifier and joins them with ", ".
func QuoteIdents(idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = QuoteIdent(id)
	}
	return strings.Join(quoted, ", ")
}
