// Package main provides the tally CLI.
// Implements: prd004-cli-surface R1 (commands, exit codes).
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tally: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// configErrs are the usage-class sentinels; they exit 2, everything
// else exits 1.
var configErrs = []error{
	types.ErrNoRoots,
	types.ErrJobsOutOfRange,
	types.ErrUnknownSortKey,
	types.ErrUnknownGroupAxis,
	types.ErrUnknownFormat,
	types.ErrBadGlob,
	types.ErrBadFilterExpr,
	types.ErrWatchWithCompare,
	types.ErrWatchIntervalShort,
	types.ErrSizeRangeInverted,
}

func exitCode(err error) int {
	for _, sentinel := range configErrs {
		if errors.Is(err, sentinel) {
			return 2
		}
	}
	return 1
}
