package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dan-strohschein/pgtab/client"
	"github.com/dan-strohschein/pgtab/dataset"
	"github.com/dan-strohschein/pgtab/mapper"
)

func newQueryCmd(flags *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "query [sql|-]",
		Short: "Run SQL text as one transaction and print the last result set",
		Example: `  pgtab query "SELECT * FROM public.users LIMIT 10"
  pgtab query --file migrate.sql
  echo "SELECT now()" | pgtab query -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSQL(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, cleanup, err := connect(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := c.Query(ctx, text)
			if err != nil {
				return formatErr(c, err)
			}
			out := cmd.OutOrStdout()
			if res == nil {
				printSuccess(out, "OK")
			} else {
				printResult(out, res)
			}
			if !c.AutoCommit() {
				printWarning(out, "auto-commit is off; the transaction is rolled back on exit")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read SQL from a file")
	return cmd
}

// readSQL picks the SQL text from the argument, a file, or stdin for "-".
func readSQL(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("pass either SQL text or --file, not both")
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case len(args) == 0:
		return "", errors.New("no SQL given")
	case args[0] == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return args[0], nil
	}
}

func printResult(w io.Writer, res *dataset.ResultTable) {
	m := mapper.NewResponseMapper()
	rows := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				cells[j] = "NULL"
				continue
			}
			cells[j] = m.ToString(v)
		}
		rows[i] = cells
	}
	printTable(w, res.Columns, rows)
	fmt.Fprintln(w, colorDim(fmt.Sprintf("(%d %s)", res.NumRows(), plural(res.NumRows(), "row"))))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// formatErr renders err for the terminal in the client's error format.
func formatErr(c *client.Client, err error) error {
	if err == nil {
		return nil
	}
	return errors.New(strings.TrimSpace(c.FormatError(err)))
}
