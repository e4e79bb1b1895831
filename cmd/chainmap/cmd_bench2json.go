package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/theflywheel/chainmap/internal/report"
)

var cmdBench2JSON = &cobra.Command{
	Use:   "bench2json <benchmark_output_file>",
	Short: "Convert `go test -bench` output to a JSON history file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return benchToJSON(cmd, args[0], bench2JSONOptions)
	},
}

// Bench2JSONOptions bundles all options for the bench2json command.
type Bench2JSONOptions struct {
	Output   string
	CommitID string
	Branch   string
	RepoRoot string
}

var bench2JSONOptions Bench2JSONOptions

func init() {
	cmdRoot.AddCommand(cmdBench2JSON)

	f := cmdBench2JSON.Flags()
	f.StringVarP(&bench2JSONOptions.Output, "output", "o", "", "output file (default: input with .json extension)")
	f.StringVar(&bench2JSONOptions.CommitID, "commit", "", "commit id (default: read from .git)")
	f.StringVar(&bench2JSONOptions.Branch, "branch", "", "branch name (default: read from .git)")
	f.StringVar(&bench2JSONOptions.RepoRoot, "repo", ".", "repository root")
}

func benchToJSON(cmd *cobra.Command, input string, opts Bench2JSONOptions) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return errors.Wrap(err, "reading benchmark output")
	}

	parsed := report.ParseGoBench(string(data))
	summary := report.NewSummary(opts.RepoRoot)
	summary.Results = parsed.Results
	if parsed.GoVersion != "" {
		summary.GoVersion = parsed.GoVersion
	}
	if parsed.SystemInfo != "" {
		summary.SystemInfo = parsed.SystemInfo
	}
	if opts.CommitID != "" {
		summary.CommitID = opts.CommitID
	}
	if opts.Branch != "" {
		summary.Branch = opts.Branch
	}

	output := opts.Output
	if output == "" {
		output = strings.TrimSuffix(input, ".txt") + ".json"
	}
	if err := report.Save(output, summary); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "JSON benchmark results (%d) written to %s\n", len(summary.Results), output)
	return nil
}
