package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cube2222/octogeo/analysis"
	"github.com/cube2222/octogeo/dataframe"
	"github.com/cube2222/octogeo/outputs/formats"
)

var (
	reportEager   bool
	reportOutput  string
	reportExplain bool
	reportLimit   int
)

var reportCmd = &cobra.Command{
	Use:   "report [name...]",
	Short: "Run the reports, all of them when no names are given.",
	Example: `octogeo report
octogeo report density --explain
octogeo report creation-years --eager --output csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		w := cmd.OutOrStdout()

		all := analysis.Reports(analysis.Reference{
			Latitude:  cfg.Reference.Latitude,
			Longitude: cfg.Reference.Longitude,
		})
		reports := all
		if len(args) > 0 {
			reports = nil
			for _, name := range args {
				report, ok := analysis.Lookup(all, name)
				if !ok {
					names := make([]string, len(all))
					for i := range all {
						names[i] = all[i].Name
					}
					return errors.Errorf("unknown report '%s', available: %s", name, strings.Join(names, ", "))
				}
				reports = append(reports, report)
			}
		}
		if reportOutput == "arrow" && len(reports) != 1 {
			return errors.New("arrow output needs exactly one report")
		}

		ds, err := loader().Load(ctx)
		if err != nil {
			return err
		}
		env := environment()
		source := dataframe.Scan(cfg.Dataset.Name, ds, env)

		var base dataframe.DataFrame
		if reportEager && !reportExplain {
			if base, err = source.Collect(ctx); err != nil {
				return errors.Wrap(err, "couldn't read dataset")
			}
		}

		for _, report := range reports {
			if reportLimit > 0 {
				limit := reportLimit
				report.Steps = append(report.Steps, func(lf dataframe.LazyFrame) dataframe.LazyFrame { return lf.Limit(limit) })
			}
			if reportOutput == "table" {
				fmt.Fprintf(w, "\n=== %s ===\n", report.Title)
			}

			if reportExplain {
				dot, err := report.Lazy(source).Explain(ctx)
				if err != nil {
					return errors.Wrapf(err, "couldn't explain %s", report.Name)
				}
				fmt.Fprintln(w, dot)
				continue
			}

			var result dataframe.DataFrame
			if reportEager {
				result, err = report.Eager(ctx, base)
			} else {
				result, err = report.Lazy(source).Collect(ctx)
			}
			if err != nil {
				return errors.Wrapf(err, "couldn't run %s", report.Name)
			}

			format, err := formats.New(reportOutput, w)
			if err != nil {
				return err
			}
			if err := formats.WriteTable(format, result.Table()); err != nil {
				return errors.Wrapf(err, "couldn't print %s", report.Name)
			}
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportEager, "eager", false, "Materialize after every step instead of running one optimized plan.")
	reportCmd.Flags().StringVar(&reportOutput, "output", "table", "Output format: table, csv, json or arrow.")
	reportCmd.Flags().BoolVar(&reportExplain, "explain", false, "Print the optimized plan in graphviz dot format instead of running it.")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0, "Limit the rows of every report. Zero means no extra limit.")
	rootCmd.AddCommand(reportCmd)
}
