package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theflywheel/chainmap/hashfn"
)

var cmdHashes = &cobra.Command{
	Use:   "hashes",
	Short: "List the hash functions a workload can name",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		for _, name := range hashfn.Names() {
			fmt.Fprintln(w, name)
		}
		fmt.Fprintln(w, "constant:N")
	},
}

func init() {
	cmdRoot.AddCommand(cmdHashes)
}
