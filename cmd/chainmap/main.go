package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.2.0"

// globalOptions are flags shared by every command
type globalOptions struct {
	LogLevel string
	Verbose  bool
}

var globals globalOptions

// cmdRoot is the base command when no other command has been specified.
var cmdRoot = &cobra.Command{
	Use:   "chainmap",
	Short: "Exercise and benchmark chained hash tables",
	Long: `
chainmap runs workload suites against fixed-capacity chained hash tables,
converts go benchmark output to JSON history files and compares two
histories for performance regressions.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(globals.LogLevel)
		if err != nil {
			return errors.Wrap(err, "--log-level")
		}
		if globals.Verbose {
			level = log.DebugLevel
		}
		log.SetLevel(level)
		log.SetOutput(cmd.ErrOrStderr())
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chainmap %s\n", version)
	},
}

func init() {
	f := cmdRoot.PersistentFlags()
	f.StringVar(&globals.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.BoolVarP(&globals.Verbose, "verbose", "v", false, "debug logging, including every allocation")

	cmdRoot.AddCommand(cmdVersion)
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errRegression) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
