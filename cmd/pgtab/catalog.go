package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dan-strohschein/pgtab/mapper"
)

func newSchemasCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, cleanup, err := connect(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := c.Schemas().ListSchemas(ctx)
			if err != nil {
				return formatErr(c, err)
			}
			printNames(cmd, "schema", names)
			return nil
		},
	}
}

func newTablesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tables [schema]",
		Short: "List tables in a schema (default: the dialect's default schema)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, cleanup, err := connect(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			schemaName := ""
			if len(args) == 1 {
				schemaName = args[0]
			}
			names, err := c.Schemas().ListTables(ctx, schemaName)
			if err != nil {
				return formatErr(c, err)
			}
			printNames(cmd, "table", names)
			return nil
		},
	}
}

func newDescribeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, cleanup, err := connect(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			info, err := c.Schemas().DescribeTable(ctx, args[0], "")
			if err != nil {
				return formatErr(c, err)
			}
			if len(info.Columns) == 0 {
				return fmt.Errorf("table %s not found", info.Name)
			}

			m := mapper.NewResponseMapper()
			rows := make([][]string, len(info.Columns))
			for i, col := range info.Columns {
				nullable := "NO"
				if col.Nullable {
					nullable = "YES"
				}
				def := ""
				if col.Default != nil {
					def = m.ToString(col.Default)
				}
				rows[i] = []string{col.Name, col.DataType, nullable, def}
			}

			out := cmd.OutOrStdout()
			printHeader(out, info.Name.String())
			printTable(out, []string{"column", "type", "nullable", "default"}, rows)
			return nil
		},
	}
}

func newCreateSchemaCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "create-schema <name>",
		Short: "Create a schema if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, cleanup, err := connect(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := c.Schemas().CreateSchema(ctx, args[0]); err != nil {
				return formatErr(c, err)
			}
			printSuccess(cmd.OutOrStdout(), "created schema "+args[0])
			return nil
		},
	}
}

func newDropSchemaCmd(flags *globalFlags) *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "drop-schema <name>",
		Short: "Drop a schema if it exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, cleanup, err := connect(ctx, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := c.Schemas().DropSchema(ctx, args[0], cascade); err != nil {
				return formatErr(c, err)
			}
			printSuccess(cmd.OutOrStdout(), "dropped schema "+args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "also drop every object in the schema")
	return cmd
}

func printNames(cmd *cobra.Command, header string, names []string) {
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	out := cmd.OutOrStdout()
	printTable(out, []string{header}, rows)
	fmt.Fprintln(out, colorDim(fmt.Sprintf("(%d %s)", len(names), plural(len(names), header))))
}
