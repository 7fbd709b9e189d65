package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" database/sql driver
	"github.com/stretchr/testify/require"

	"github.com/dan-strohschein/pgtab/client"
	"github.com/dan-strohschein/pgtab/mapper"
)

// EnvTestDSN names the variable holding a PostgreSQL DSN for integration tests.
const EnvTestDSN = "PGTAB_TEST_DSN"

var testNameCounter uint64

// NewSQLiteClient returns a client connected to a private in-memory SQLite
// database. The client is disconnected when the test ends.
func NewSQLiteClient(t testing.TB, mutate ...func(*client.ClientOptions)) *client.Client {
	t.Helper()

	opts := client.DefaultOptions()
	opts.DriverName = "sqlite3"
	opts.Logger = client.NewNoopLogger()
	opts.DebugMode = testing.Verbose()
	for _, fn := range mutate {
		fn(&opts)
	}

	c := client.NewClient(&opts)
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", UniqueName("mem"))
	require.NoError(t, c.Connect(ctx, dsn), "failed to open in-memory sqlite database")

	t.Cleanup(func() {
		if c.GetState() == client.CONNECTED {
			if err := c.Disconnect(ctx); err != nil {
				t.Logf("warning: failed to disconnect: %v", err)
			}
		}
	})
	return c
}

// NewPostgresClientOrSkip connects to the database named by PGTAB_TEST_DSN
// or skips the test when it is unset.
//
// Example:
//
//	export PGTAB_TEST_DSN="postgres://postgres@localhost:5432/postgres"
//	c := testutil.NewPostgresClientOrSkip(t)
func NewPostgresClientOrSkip(t testing.TB) *client.Client {
	t.Helper()

	dsn := os.Getenv(EnvTestDSN)
	if dsn == "" {
		t.Skip(EnvTestDSN + " not set, skipping integration test")
		return nil
	}

	opts := client.DefaultOptions()
	opts.DebugMode = testing.Verbose()
	c := client.NewClient(&opts)
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx, dsn), "failed to connect to test database")
	t.Cleanup(func() {
		if err := c.Disconnect(ctx); err != nil {
			t.Logf("warning: failed to disconnect: %v", err)
		}
	})
	return c
}

// UniqueName generates a unique identifier for tables and schemas.
// Format: <prefix>_<timestamp>_<counter>
func UniqueName(prefix string) string {
	if prefix == "" {
		prefix = "test"
	}
	n := atomic.AddUint64(&testNameCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().Unix(), n)
}

// WithTimeout creates a context with timeout for tests.
// Default timeout is 10 seconds.
func WithTimeout(t testing.TB, timeout ...time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	duration := 10 * time.Second
	if len(timeout) > 0 {
		duration = timeout[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	t.Cleanup(cancel)

	return ctx, cancel
}

// CountRows returns SELECT COUNT(*) for table, which is used verbatim.
func CountRows(t testing.TB, c *client.Client, table string) int64 {
	t.Helper()

	res, err := c.Query(context.Background(), "SELECT COUNT(*) FROM "+table)
	require.NoError(t, err)
	require.NotNil(t, res)

	n, err := mapper.NewResponseMapper().ToInt(res.Cell(0, 0))
	require.NoError(t, err)
	return n
}

// DropTable drops table when the test ends.
func DropTable(t testing.TB, c *client.Client, table string) {
	t.Helper()
	t.Cleanup(func() {
		if c.GetState() != client.CONNECTED {
			return
		}
		if _, err := c.Query(context.Background(), "DROP TABLE IF EXISTS "+table); err != nil {
			t.Logf("warning: failed to drop test table %s: %v", table, err)
		}
	})
}

// SkipIf skips the test if the condition is true.
func SkipIf(t testing.TB, condition bool, reason string) {
	t.Helper()
	if condition {
		t.Skip(reason)
	}
}

// SkipUnless skips the test unless the condition is true.
func SkipUnless(t testing.TB, condition bool, reason string) {
	t.Helper()
	if !condition {
		t.Skip(reason)
	}
}
