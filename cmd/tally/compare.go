package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var compareCmd = &cobra.Command{
	Use:   "compare OLD NEW",
	Short: "Diff two JSON snapshots",
	Long: `Compare reads two snapshots written with --format json and reports
total deltas, per-file additions, removals, and modifications, and the
largest movers. Discovery and measurement do not run.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := types.DefaultConfig()
		cfg.CompareOld = args[0]
		cfg.CompareNew = args[1]
		return runEngine(&cfg)
	},
}
