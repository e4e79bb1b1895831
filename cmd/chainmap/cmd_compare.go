package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/theflywheel/chainmap/internal/report"
)

// errRegression makes the process exit with status 2
var errRegression = errors.New("significant performance regressions detected")

var cmdCompare = &cobra.Command{
	Use:   "compare <base_json_file> <current_json_file>",
	Short: "Compare two benchmark history files",
	Long: `
The "compare" command matches results by name and reports the percent change
of every shared metric.

EXIT STATUS
===========

Exit status is 0 if no significant regression was found.
Exit status is 1 if the comparison could not be made.
Exit status is 2 if at least one benchmark regressed significantly.
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return compare(cmd, args[0], args[1], compareOptions)
	},
}

// CompareOptions bundles all options for the compare command.
type CompareOptions struct {
	Threshold float64
	Output    string
}

var compareOptions CompareOptions

func init() {
	cmdRoot.AddCommand(cmdCompare)

	f := cmdCompare.Flags()
	f.Float64Var(&compareOptions.Threshold, "threshold", report.DefaultThreshold, "percent change treated as significant")
	f.StringVarP(&compareOptions.Output, "output", "o", "benchmark-comparison.json", "comparison JSON file, empty to skip")
}

func compare(cmd *cobra.Command, basePath, currentPath string, opts CompareOptions) error {
	base, err := report.Load(basePath)
	if err != nil {
		return err
	}
	current, err := report.Load(currentPath)
	if err != nil {
		return err
	}

	c := report.Compare(base, current, opts.Threshold)
	c.Write(cmd.OutOrStdout())

	if opts.Output != "" {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.Wrap(err, "creating comparison JSON")
		}
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return errors.Wrap(err, "writing comparison file")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nComparison JSON written to %s\n", opts.Output)
	}

	if c.SignificantRegressions > 0 {
		return errors.Wrapf(errRegression, "%d benchmarks", c.SignificantRegressions)
	}
	return nil
}
