package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dan-strohschein/pgtab/dataset"
)

func newLoadCmd(flags *globalFlags) *cobra.Command {
	var (
		overwrite bool
		format    string
	)

	cmd := &cobra.Command{
		Use:   "load <file> <table>",
		Short: "Load a CSV or Parquet file into a table",
		Long: `Load a CSV or Parquet file into a table.

A missing table is created from the file's column types. An existing table
is truncated first, or dropped and recreated with --overwrite. Rows are
inserted in batches of --batch-size; each batch commits on its own.`,
		Example: `  pgtab load employees.csv staging.employees
  pgtab load events.parquet events --overwrite --batch-size 5000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, table := args[0], args[1]
			ctx := cmd.Context()

			start := time.Now()
			frame, err := readFrame(cmd, path, format)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			c, cleanup, err := connect(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := c.Insert(ctx, frame, table, overwrite); err != nil {
				return formatErr(c, err)
			}
			if !c.AutoCommit() {
				if err := c.Commit(ctx); err != nil {
					return formatErr(c, err)
				}
			}

			printSuccess(cmd.OutOrStdout(), fmt.Sprintf("loaded %d %s into %s in %s",
				frame.NumRows(), plural(frame.NumRows(), "row"), table, time.Since(start).Round(time.Millisecond)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "drop and recreate an existing table")
	cmd.Flags().StringVar(&format, "format", "", "input format: csv or parquet (default: from the file extension)")
	return cmd
}

func readFrame(cmd *cobra.Command, path, format string) (*dataset.Frame, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	switch format {
	case "csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return dataset.ReadCSV(f)
	case "parquet", "pq":
		return dataset.ReadParquet(cmd.Context(), path)
	default:
		return nil, fmt.Errorf("unsupported format %q (want csv or parquet)", format)
	}
}
