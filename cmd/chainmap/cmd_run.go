package main

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theflywheel/chainmap/internal/report"
	"github.com/theflywheel/chainmap/internal/workload"
)

var cmdRun = &cobra.Command{
	Use:   "run -f suite.yaml",
	Short: "Run a workload suite and record the results",
	Long: `
The "run" command loads a workload suite (a YAML file or any URL the afs
library can read), runs every workload on its own table and merges the
results into a JSON history file. A history path ending in ".zst" is written
zstd-compressed.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuite(cmd, runOptions)
	},
}

// RunOptions bundles all options for the run command.
type RunOptions struct {
	Suite       string
	Output      string
	Concurrency int
	RepoRoot    string
}

var runOptions RunOptions

func init() {
	cmdRoot.AddCommand(cmdRun)

	f := cmdRun.Flags()
	f.StringVarP(&runOptions.Suite, "file", "f", "", "workload suite `url`")
	f.StringVarP(&runOptions.Output, "output", "o", "", "history file (default: the suite's output, or benchmark_history/latest.json)")
	f.IntVar(&runOptions.Concurrency, "concurrency", 0, "run `n` workloads at once (default: the suite's setting)")
	f.StringVar(&runOptions.RepoRoot, "repo", ".", "repository root used to stamp the commit id")
	_ = cmdRun.MarkFlagRequired("file")
}

func runSuite(cmd *cobra.Command, opts RunOptions) error {
	ctx := cmd.Context()
	suite, err := workload.Load(ctx, opts.Suite)
	if err != nil {
		return err
	}
	if opts.Concurrency > 0 {
		suite.Concurrency = opts.Concurrency
	}

	output := opts.Output
	if output == "" {
		output = suite.Output
	}
	if output == "" {
		output = filepath.Join("benchmark_history", "latest.json")
	}

	log.Infof("running %d workloads, %d at a time", len(suite.Workloads), suite.Concurrency)
	results, err := workload.RunSuite(ctx, suite, log.StandardLogger())
	if err != nil {
		return errors.Wrap(err, "suite failed")
	}

	if err := report.Append(output, report.NewSummary(opts.RepoRoot), results...); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(w, "%-24s %10d ops %10.1f ns/op  max chain %3.0f  load %.2f\n",
			r.Name, r.Operations, r.NsPerOp, r.Metrics["max_chain"], r.Metrics["load_factor"])
	}
	fmt.Fprintf(w, "Results saved to: %s\n", output)
	return nil
}
