package cmd

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/outputs/formats"
)

var describeRaw bool

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the schema of the flattened dataset.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loader().Load(cmd.Context())
		if err != nil {
			return err
		}
		schema, err := ds.Schema()
		if err != nil {
			return err
		}
		if describeRaw {
			spew.Fdump(cmd.OutOrStdout(), schema)
			return nil
		}

		names := make([]octosql.Value, len(schema.Fields))
		types := make([]octosql.Value, len(schema.Fields))
		for i, field := range schema.Fields {
			names[i] = octosql.NewString(field.Name)
			types[i] = octosql.NewString(field.Type.String())
		}
		table, err := execution.NewTable(
			execution.NewColumn("name", octosql.String, names),
			execution.NewColumn("type", octosql.String, types),
		)
		if err != nil {
			return err
		}
		return formats.WriteTable(formats.NewTableFormatter(cmd.OutOrStdout()), table)
	},
}

func init() {
	describeCmd.Flags().BoolVar(&describeRaw, "raw", false, "Dump the schema structure as is.")
	rootCmd.AddCommand(describeCmd)
}
