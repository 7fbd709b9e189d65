package client_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dan-strohschein/pgtab/testutil"
)

func TestPostgres_LoadIntoNewSchema(t *testing.T) {
	c := testutil.NewPostgresClientOrSkip(t)
	ctx, _ := testutil.WithTimeout(t, 30*time.Second)
	mgr := c.Schemas()

	schemaName := testutil.UniqueName("pgtab")
	t.Cleanup(func() {
		if err := mgr.DropSchema(ctx, schemaName, true); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schemaName, err)
		}
	})

	table := schemaName + ".employees"
	require.NoError(t, c.Insert(ctx, testutil.BuildEmployees(25, testutil.WithNullEvery(4)), table, false))

	exists, err := mgr.SchemaExists(ctx, schemaName)
	require.NoError(t, err)
	assert.True(t, exists)

	tables, err := mgr.ListTables(ctx, schemaName)
	require.NoError(t, err)
	assert.Equal(t, []string{"employees"}, tables)

	info, err := mgr.DescribeTable(ctx, "employees", schemaName)
	require.NoError(t, err)
	require.Len(t, info.Columns, 5)
	assert.Equal(t, "integer", info.Columns[0].DataType)
	assert.Equal(t, "double precision", info.Columns[2].DataType)
	assert.Equal(t, "timestamp without time zone", info.Columns[4].DataType)

	assert.Equal(t, int64(25), testutil.CountRows(t, c, `"`+schemaName+`".employees`))

	require.NoError(t, c.Insert(ctx, testutil.BuildEmployees(5), table, true))
	assert.Equal(t, int64(5), testutil.CountRows(t, c, `"`+schemaName+`".employees`))
}

func TestPostgres_QueryTypes(t *testing.T) {
	c := testutil.NewPostgresClientOrSkip(t)
	ctx, _ := testutil.WithTimeout(t)

	res, err := c.Query(ctx, "SELECT 1::int4 AS i, 2.5::float4 AS f, 'x'::text AS s, TRUE AS b, NULL::text AS n")
	require.NoError(t, err)
	require.Equal(t, 1, res.NumRows())

	assert.Equal(t, int64(1), res.Cell(0, 0))
	assert.Equal(t, float64(2.5), res.Cell(0, 1))
	assert.Equal(t, "x", res.Cell(0, 2))
	assert.Equal(t, true, res.Cell(0, 3))
	assert.Nil(t, res.Cell(0, 4))
}
