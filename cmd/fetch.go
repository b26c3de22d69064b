package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and flatten the dataset unless it's already cached.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := loader()
		if err := l.EnsurePresent(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), absPath(l.ParquetPath()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
