// Command pgtab runs SQL against PostgreSQL (or SQLite) and bulk loads
// CSV and Parquet files into tables.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" database/sql driver
	"github.com/spf13/cobra"

	"github.com/dan-strohschein/pgtab/client"
)

type globalFlags struct {
	dsn          string
	driver       string
	envFiles     []string
	logLevel     string
	noAutoCommit bool
	debug        bool
	batchSize    int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "pgtab",
		Short:         "Run SQL and load tabular files into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       client.Version,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.dsn, "dsn", "", "connection string (default: built from PG_* environment variables)")
	pf.StringVar(&flags.driver, "driver", "pgx", "database/sql driver: pgx or sqlite3")
	pf.StringSliceVar(&flags.envFiles, "env-file", nil, "dotenv files read before PG_* variables (default .env)")
	pf.StringVar(&flags.logLevel, "log-level", "WARN", "log level: DEBUG, INFO, WARN, ERROR")
	pf.BoolVar(&flags.noAutoCommit, "no-autocommit", false, "leave the transaction open; it is rolled back on exit")
	pf.BoolVar(&flags.debug, "debug", false, "verbose SQL logging and JSON error details")
	pf.IntVar(&flags.batchSize, "batch-size", 0, "rows per INSERT statement when loading (default 1000)")

	root.AddCommand(
		newQueryCmd(flags),
		newLoadCmd(flags),
		newSchemasCmd(flags),
		newTablesCmd(flags),
		newDescribeCmd(flags),
		newCreateSchemaCmd(flags),
		newDropSchemaCmd(flags),
		newCheckCmd(flags),
		newVersionCmd(),
	)
	return root
}

// connect builds a client from the global flags and connects it.
// The returned cleanup disconnects the client.
func connect(ctx context.Context, flags *globalFlags) (*client.Client, func(), error) {
	dsn, err := resolveDSN(flags)
	if err != nil {
		return nil, nil, err
	}

	opts := client.DefaultOptions()
	opts.DriverName = flags.driver
	opts.LogLevel = flags.logLevel
	opts.Logger = client.NewLogger(flags.logLevel, os.Stderr)
	opts.AutoCommit = !flags.noAutoCommit
	opts.DebugMode = flags.debug
	if flags.batchSize > 0 {
		opts.BatchSize = flags.batchSize
	}

	c := client.NewClient(&opts)
	if err := c.Connect(ctx, dsn); err != nil {
		return nil, nil, errors.New(client.FormatError(err, flags.debug))
	}

	cleanup := func() {
		if c.GetState() == client.CONNECTED {
			c.Disconnect(context.Background())
		}
	}
	return c, cleanup, nil
}

func resolveDSN(flags *globalFlags) (string, error) {
	if flags.dsn != "" {
		return flags.dsn, nil
	}
	if flags.driver != "pgx" {
		return "", fmt.Errorf("--dsn is required for driver %q", flags.driver)
	}
	cfg, err := client.LoadConfigFromEnv(flags.envFiles...)
	if err != nil {
		return "", err
	}
	return cfg.DSN(), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pgtab %s\n", client.Version)
		},
	}
}
