package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	colorsEnabled = false
}

// run executes the root command with args and returns its stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func sqliteArgs(t *testing.T) []string {
	t.Helper()
	return []string{"--driver", "sqlite3", "--dsn", filepath.Join(t.TempDir(), "test.db"), "--log-level", "ERROR"}
}

func TestReadSQL(t *testing.T) {
	got, err := readSQL(nil, []string{"SELECT 1"}, "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", got)

	got, err = readSQL(strings.NewReader("SELECT 2"), []string{"-"}, "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", got)

	path := filepath.Join(t.TempDir(), "q.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT 3"), 0o600))
	got, err = readSQL(nil, nil, path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 3", got)

	_, err = readSQL(nil, nil, "")
	assert.Error(t, err)
	_, err = readSQL(nil, []string{"SELECT 1"}, path)
	assert.Error(t, err)
}

func TestResolveDSN(t *testing.T) {
	dsn, err := resolveDSN(&globalFlags{dsn: "postgres://localhost/db", driver: "pgx"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/db", dsn)

	_, err = resolveDSN(&globalFlags{driver: "sqlite3"})
	assert.ErrorContains(t, err, "--dsn is required")

	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_PORT", "5432")
	t.Setenv("PG_DBNAME", "app")
	t.Setenv("PG_USER", "me")
	dsn, err = resolveDSN(&globalFlags{driver: "pgx", envFiles: []string{filepath.Join(t.TempDir(), "none.env")}})
	require.NoError(t, err)
	assert.Contains(t, dsn, "host=db port=5432 dbname=app user=me")
}

func TestQueryCommand(t *testing.T) {
	args := sqliteArgs(t)

	out, err := run(t, "", append(args, "query", "CREATE TABLE t (id INTEGER, name TEXT); INSERT INTO t VALUES (1, 'Ann')")...)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	out, err = run(t, "SELECT id, name, NULL AS missing FROM t", append(args, "query", "-")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(1 row)")

	_, err = run(t, "", append(args, "query", "SELECT * FROM nope")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_STATEMENT_FAILED")
}

func TestLoadAndCatalogCommands(t *testing.T) {
	args := sqliteArgs(t)

	csvPath := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,name,score\n1,Ann,1.5\n2,Bo,\n3,Cy,2.25\n"), 0o600))

	out, err := run(t, "", append(args, "load", csvPath, "people", "--batch-size", "2")...)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 3 rows into people")

	out, err = run(t, "", append(args, "query", "SELECT COUNT(*) AS n FROM people")...)
	require.NoError(t, err)
	assert.Contains(t, out, "3")

	out, err = run(t, "", append(args, "tables")...)
	require.NoError(t, err)
	assert.Contains(t, out, "people")

	out, err = run(t, "", append(args, "describe", "people")...)
	require.NoError(t, err)
	assert.Contains(t, out, "INTEGER")
	assert.Contains(t, out, "DOUBLE PRECISION")

	out, err = run(t, "", append(args, "schemas")...)
	require.NoError(t, err)
	assert.Contains(t, out, "main")

	_, err = run(t, "", append(args, "create-schema", "other")...)
	assert.Error(t, err)

	_, err = run(t, "", append(args, "load", csvPath+".txt", "people")...)
	assert.ErrorContains(t, err, "unsupported format")
}

func TestCheckCommand(t *testing.T) {
	out, err := run(t, "", append(sqliteArgs(t), "check", "--verbose")...)
	require.NoError(t, err)
	assert.Contains(t, out, "all checks passed")
	assert.Contains(t, out, `"dialect": "sqlite"`)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "pgtab dev\n", out)
}
