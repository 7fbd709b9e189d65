package testutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dan-strohschein/pgtab/dataset"
	"github.com/dan-strohschein/pgtab/testutil"
)

func TestBuildEmployees(t *testing.T) {
	frame := testutil.BuildEmployees(3)

	require.Equal(t, 3, frame.NumRows())
	assert.Equal(t, []string{"id", "name", "salary", "active", "hired_at"}, frame.ColumnNames())

	for i, row := range frame.Rows() {
		assert.Equal(t, int64(i+1), row[0].Int())
		assert.Equal(t, dataset.KindText, row[1].Kind())
		assert.Equal(t, dataset.KindTimestamp, row[4].Kind())
	}
	assert.Equal(t, time.Date(2020, 1, 2, 9, 0, 0, 0, time.UTC), frame.Row(1)[4].Time())
}

func TestBuildEmployees_Deterministic(t *testing.T) {
	a := testutil.BuildEmployees(10, testutil.WithSeed(42))
	b := testutil.BuildEmployees(10, testutil.WithSeed(42))
	assert.Equal(t, a.Rows(), b.Rows())
}

func TestBuildEmployees_NullEvery(t *testing.T) {
	frame := testutil.BuildEmployees(4, testutil.WithNullEvery(2))

	assert.False(t, frame.Row(0)[1].IsNull())
	assert.True(t, frame.Row(1)[1].IsNull())
	assert.False(t, frame.Row(1)[0].IsNull(), "id is never null")
	assert.True(t, frame.Row(3)[4].IsNull())
}

func TestSequenceID(t *testing.T) {
	assert.NotEqual(t, testutil.SequenceID(), testutil.SequenceID())
}

func TestQuotedText(t *testing.T) {
	s := testutil.QuotedText()
	assert.Contains(t, s, "'")
	assert.NotContains(t, s, ";")
}
