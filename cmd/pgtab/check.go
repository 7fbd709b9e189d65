package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCheckCmd(flags *globalFlags) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test the database connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			printHeader(out, "Test Database Connection")

			fmt.Fprint(out, "  1. Connect to database... ")
			start := time.Now()
			c, cleanup, err := connect(ctx, flags)
			if err != nil {
				fmt.Fprintln(out, colorRed("FAIL"))
				return err
			}
			defer cleanup()
			fmt.Fprintf(out, "%s %s\n", colorGreen("OK"), colorDim(time.Since(start).Round(time.Millisecond).String()))

			fmt.Fprint(out, "  2. Run a query... ")
			start = time.Now()
			if _, err := c.Query(ctx, "SELECT 1"); err != nil {
				fmt.Fprintln(out, colorRed("FAIL"))
				return formatErr(c, err)
			}
			fmt.Fprintf(out, "%s %s\n", colorGreen("OK"), colorDim(time.Since(start).Round(time.Millisecond).String()))

			fmt.Fprint(out, "  3. Read the catalog... ")
			schemas, err := c.Schemas().ListSchemas(ctx)
			if err != nil {
				fmt.Fprintln(out, colorRed("FAIL"))
				return formatErr(c, err)
			}
			fmt.Fprintf(out, "%s %s\n", colorGreen("OK"), colorDim(fmt.Sprintf("%d schemas", len(schemas))))

			if verbose {
				fmt.Fprintln(out)
				fmt.Fprintln(out, c.DumpDebugInfoJSON())
			}
			fmt.Fprintln(out)
			printSuccess(out, "all checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print client debug info")
	return cmd
}
