package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// table writes the default aligned text output.
func (r *Renderer) table(w io.Writer, stats []types.FileStats, tables []types.GroupTable) error {
	sum := types.Summarize(stats)

	if r.cfg.TotalOnly {
		if err := r.printTotals(w, sum); err != nil {
			return err
		}
		return r.printGroups(w, tables)
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	if !r.cfg.SummaryOnly {
		fmt.Fprint(tw, "FILE\tLINES\tCHARS")
		if r.cfg.Words {
			fmt.Fprint(tw, "\tWORDS")
		}
		if r.cfg.SLOC {
			fmt.Fprint(tw, "\tSLOC")
		}
		fmt.Fprint(tw, "\tSIZE")
		if r.cfg.Ratio {
			fmt.Fprint(tw, "\tRATIO")
		}
		fmt.Fprintln(tw)

		for i := range stats {
			s := &stats[i]
			fmt.Fprintf(tw, "%s\t%d\t%d", s.Path, s.Lines, s.Chars)
			if r.cfg.Words {
				fmt.Fprintf(tw, "\t%s", optional(s.Words))
			}
			if r.cfg.SLOC {
				fmt.Fprintf(tw, "\t%s", optional(s.SLOC))
			}
			fmt.Fprintf(tw, "\t%s", humanize.Bytes(uint64(s.Size)))
			if r.cfg.Ratio {
				fmt.Fprintf(tw, "\t%s", ratio(s.Lines, sum.Lines))
			}
			fmt.Fprintln(tw)
		}
	}

	if r.cfg.TotalRow || r.cfg.SummaryOnly {
		fmt.Fprintf(tw, "TOTAL (%d files)\t%d\t%d", sum.Files, sum.Lines, sum.Chars)
		if r.cfg.Words {
			fmt.Fprintf(tw, "\t%d", sum.Words)
		}
		if r.cfg.SLOC {
			fmt.Fprintf(tw, "\t%d", sum.SLOC)
		}
		fmt.Fprint(tw, "\t")
		if r.cfg.Ratio {
			fmt.Fprint(tw, "\t100.0%")
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return r.printGroups(w, tables)
}

func (r *Renderer) printTotals(w io.Writer, sum types.Summary) error {
	_, err := fmt.Fprintf(w, "files=%d lines=%d chars=%d", sum.Files, sum.Lines, sum.Chars)
	if err != nil {
		return err
	}
	if r.cfg.Words {
		fmt.Fprintf(w, " words=%d", sum.Words)
	}
	if r.cfg.SLOC {
		fmt.Fprintf(w, " sloc=%d", sum.SLOC)
	}
	_, err = fmt.Fprintln(w)
	return err
}

func (r *Renderer) printGroups(w io.Writer, tables []types.GroupTable) error {
	for _, table := range tables {
		fmt.Fprintf(w, "\nby %s:\n", table.Label)
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tLINES\tCHARS\tCOUNT")
		for _, row := range table.Rows {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", row.Key, row.Lines, row.Chars, row.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func ratio(part, total int64) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}

// markdown writes GitHub-style pipe tables.
func (r *Renderer) markdown(w io.Writer, stats []types.FileStats, tables []types.GroupTable) error {
	sum := types.Summarize(stats)

	if !r.cfg.TotalOnly && !r.cfg.SummaryOnly {
		cols := r.header()
		printMdRow(w, cols)
		sep := make([]string, len(cols))
		for i := range sep {
			sep[i] = "---"
		}
		printMdRow(w, sep)
		for i := range stats {
			printMdRow(w, r.fileRow(&stats[i]))
		}
	}
	if r.cfg.TotalRow || r.cfg.TotalOnly || r.cfg.SummaryOnly {
		printMdRow(w, r.totalRow(sum))
	}

	for _, table := range tables {
		fmt.Fprintf(w, "\n**by %s**\n\n", table.Label)
		printMdRow(w, []string{"key", "lines", "chars", "count"})
		printMdRow(w, []string{"---", "---", "---", "---"})
		for _, row := range table.Rows {
			printMdRow(w, []string{row.Key, itoa(row.Lines), itoa(row.Chars), itoa(row.Count)})
		}
	}
	return nil
}

func printMdRow(w io.Writer, cells []string) {
	fmt.Fprint(w, "|")
	for _, c := range cells {
		fmt.Fprintf(w, " %s |", c)
	}
	fmt.Fprintln(w)
}
