package client_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dan-strohschein/pgtab/client"
	"github.com/dan-strohschein/pgtab/dataset"
	"github.com/dan-strohschein/pgtab/schema"
	"github.com/dan-strohschein/pgtab/testutil"
)

const pgExistsPrefix = "SELECT EXISTS (SELECT 1 FROM information_schema.tables"

func newLoader(mock *testutil.MockConnection, dialect schema.Dialect, batchSize int) *client.BulkLoader {
	exec := client.NewExecutor(mock, true, nil)
	return client.NewBulkLoader(exec, dialect, batchSize, nil)
}

func smallFrame() *dataset.Frame {
	return dataset.NewFrame(
		dataset.Col("id", arrow.PrimitiveTypes.Int64),
		dataset.Col("name", arrow.BinaryTypes.String),
	).
		MustAppend(dataset.Int(1), dataset.Text("Ann")).
		MustAppend(dataset.Int(2), dataset.Text("O'Brien")).
		MustAppend(dataset.Int(3), dataset.Null())
}

func TestBulkLoader_CreatesMissingTable(t *testing.T) {
	mock := testutil.NewMockConnection()
	mock.ExpectExecPrefix(pgExistsPrefix).WillReturnRows([]string{"exists"}, []any{false})

	err := newLoader(mock, schema.Postgres, 2).Load(context.Background(), smallFrame(), "staging.people", false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'staging' AND table_name = 'people')`,
		`CREATE SCHEMA IF NOT EXISTS "staging"`,
		`CREATE TABLE "staging"."people" ("id" INTEGER, "name" TEXT)`,
		`INSERT INTO "staging"."people" ("id", "name") VALUES (1, 'Ann'), (2, 'O''Brien')`,
		`INSERT INTO "staging"."people" ("id", "name") VALUES (3, NULL)`,
	}, mock.Statements())
	mock.VerifyExpectations(t)
}

func TestBulkLoader_TruncatesExistingTable(t *testing.T) {
	mock := testutil.NewMockConnection()
	mock.ExpectExecPrefix(pgExistsPrefix).WillReturnRows([]string{"exists"}, []any{true})

	err := newLoader(mock, schema.Postgres, 10).Load(context.Background(), smallFrame(), "people", false)
	require.NoError(t, err)

	stmts := mock.Statements()
	require.Len(t, stmts, 3)
	assert.Equal(t, `TRUNCATE TABLE "public"."people"`, stmts[1])
	assert.True(t, strings.HasPrefix(stmts[2], `INSERT INTO "public"."people"`))
}

func TestBulkLoader_OverwriteRecreates(t *testing.T) {
	mock := testutil.NewMockConnection()
	mock.ExpectExecPrefix(pgExistsPrefix).WillReturnRows([]string{"exists"}, []any{true})

	err := newLoader(mock, schema.Postgres, 10).Load(context.Background(), smallFrame(), "public.people", true)
	require.NoError(t, err)

	stmts := mock.Statements()
	require.Len(t, stmts, 4)
	assert.Equal(t, `DROP TABLE IF EXISTS "public"."people"`, stmts[1])
	assert.Equal(t, `CREATE TABLE "public"."people" ("id" INTEGER, "name" TEXT)`, stmts[2])
}

func TestBulkLoader_BatchesCoverAllRows(t *testing.T) {
	mock := testutil.NewMockConnection()
	mock.ExpectExecPrefix(pgExistsPrefix).WillReturnRows([]string{"exists"}, []any{false})

	frame := testutil.BuildEmployees(2501)
	require.NoError(t, newLoader(mock, schema.Postgres, 1000).Load(context.Background(), frame, "emp", false))

	var inserts []string
	for _, s := range mock.Statements() {
		if strings.HasPrefix(s, "INSERT INTO") {
			inserts = append(inserts, s)
		}
	}
	require.Len(t, inserts, 3)
	assert.Equal(t, 999, strings.Count(inserts[0], "), ("))
	assert.Equal(t, 0, strings.Count(inserts[2], "), ("), "last batch holds one row")
	assert.Contains(t, inserts[2], "(2501, ")
}

func TestBulkLoader_EmptyFrameIsNoop(t *testing.T) {
	mock := testutil.NewMockConnection()
	loader := newLoader(mock, schema.Postgres, 10)

	require.NoError(t, loader.Load(context.Background(), nil, "t", false))
	require.NoError(t, loader.Load(context.Background(), dataset.NewFrame(dataset.Col("x", arrow.PrimitiveTypes.Int64)), "t", false))
	assert.Empty(t, mock.GetCalls())
}

func TestBulkLoader_InvalidTableName(t *testing.T) {
	mock := testutil.NewMockConnection()
	loader := newLoader(mock, schema.Postgres, 10)

	for _, name := range []string{"a.b.c", "", ".t", "s."} {
		err := loader.Load(context.Background(), smallFrame(), name, false)

		var valErr *client.ValidationError
		require.ErrorAs(t, err, &valErr, name)
		assert.Equal(t, "E_INVALID_TABLE_NAME", valErr.Code)
		assert.ErrorIs(t, err, schema.ErrInvalidTableName)
	}
	assert.Empty(t, mock.GetCalls(), "validation happens before any database call")
}

func TestBulkLoader_BatchFailureKeepsEarlierBatches(t *testing.T) {
	mock := testutil.NewMockConnection()
	mock.ExpectExecPrefix(pgExistsPrefix).WillReturnRows([]string{"exists"}, []any{false})
	mock.ExpectExec(`INSERT INTO "public"."people" ("id", "name") VALUES (3, NULL)`).
		WillReturnError(errors.New(`null value in column "name"`))
	mock.ExpectRollback()

	err := newLoader(mock, schema.Postgres, 2).Load(context.Background(), smallFrame(), "people", false)
	require.Error(t, err)

	var execErr *client.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 2, execErr.Details["batch"])
	assert.Equal(t, 2, execErr.Details["row_start"])
	assert.Equal(t, 3, execErr.Details["row_end"])

	// exists query, DDL and the first batch each committed before the failure.
	assert.Equal(t, 3, mock.GetCallCount("Commit"))
	assert.Equal(t, 1, mock.GetCallCount("Rollback"))
	mock.VerifyExpectations(t)
}

func TestBulkLoader_SQLiteDialect(t *testing.T) {
	mock := testutil.NewMockConnection()
	mock.ExpectExecPrefix("SELECT EXISTS (SELECT 1 FROM \"main\".sqlite_master").
		WillReturnRows([]string{"e"}, []any{int64(1)})

	err := newLoader(mock, schema.SQLite, 10).Load(context.Background(), smallFrame(), "people", false)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "main"."people"`, mock.Statements()[1])
}

func TestBulkLoader_NoColumns(t *testing.T) {
	mock := testutil.NewMockConnection()
	frame := dataset.NewFrame().MustAppend()

	err := newLoader(mock, schema.Postgres, 10).Load(context.Background(), frame, "t", false)

	var valErr *client.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "E_INVALID_FRAME", valErr.Code)
}
