package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/language"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the recognized comment styles and their extensions",
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STYLE\tEXTENSIONS")
		for _, info := range language.Styles() {
			fmt.Fprintf(tw, "%s\t%s\n", info.Style, strings.Join(info.Extensions, " "))
		}
		tw.Flush()
	},
}
