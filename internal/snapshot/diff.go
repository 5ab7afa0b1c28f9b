package snapshot

import (
	"fmt"
	"io"
	"sort"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// topMovers caps the ranked per-file delta list in the report.
const topMovers = 10

// FileDelta records how one path changed between two snapshots.
type FileDelta struct {
	Path  string
	Lines int64 // signed delta
	Chars int64
	Words int64
}

// Report is the structured result of comparing two snapshots. All deltas
// are new minus old.
type Report struct {
	OldSummary types.Summary
	NewSummary types.Summary
	Added      []FileDelta
	Removed    []FileDelta
	Modified   []FileDelta
}

// Empty reports whether the two snapshots were identical.
func (r *Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// Diff compares two snapshots keyed by file path. Optional counters absent
// from either side contribute zero, so snapshots produced with different
// flag sets still compare.
func Diff(oldSnap, newSnap *types.Snapshot) *Report {
	r := &Report{
		OldSummary: summarize(oldSnap),
		NewSummary: summarize(newSnap),
	}

	oldFiles := make(map[string]*types.SnapshotFile, len(oldSnap.Files))
	for i := range oldSnap.Files {
		oldFiles[oldSnap.Files[i].File] = &oldSnap.Files[i]
	}

	seen := make(map[string]bool, len(newSnap.Files))
	for i := range newSnap.Files {
		nf := &newSnap.Files[i]
		seen[nf.File] = true
		of, ok := oldFiles[nf.File]
		if !ok {
			r.Added = append(r.Added, FileDelta{Path: nf.File, Lines: nf.Lines, Chars: nf.Chars, Words: nf.Words})
			continue
		}
		d := FileDelta{
			Path:  nf.File,
			Lines: nf.Lines - of.Lines,
			Chars: nf.Chars - of.Chars,
			Words: nf.Words - of.Words,
		}
		if d.Lines != 0 || d.Chars != 0 || d.Words != 0 {
			r.Modified = append(r.Modified, d)
		}
	}
	for i := range oldSnap.Files {
		of := &oldSnap.Files[i]
		if !seen[of.File] {
			r.Removed = append(r.Removed, FileDelta{Path: of.File, Lines: -of.Lines, Chars: -of.Chars, Words: -of.Words})
		}
	}

	sortByPath(r.Added)
	sortByPath(r.Removed)
	sortByPath(r.Modified)
	return r
}

// summarize recomputes totals from the file list rather than trusting the
// stored summary, which older producers may have truncated.
func summarize(snap *types.Snapshot) types.Summary {
	var sum types.Summary
	for i := range snap.Files {
		f := &snap.Files[i]
		sum.Files++
		sum.Lines += f.Lines
		sum.Chars += f.Chars
		sum.Words += f.Words
		sum.SLOC += f.SLOC
	}
	return sum
}

func sortByPath(deltas []FileDelta) {
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Path < deltas[j].Path })
}

// Movers returns the n files with the largest absolute line delta.
func (r *Report) Movers(n int) []FileDelta {
	all := make([]FileDelta, 0, len(r.Added)+len(r.Removed)+len(r.Modified))
	all = append(all, r.Added...)
	all = append(all, r.Removed...)
	all = append(all, r.Modified...)
	sort.SliceStable(all, func(i, j int) bool { return abs(all[i].Lines) > abs(all[j].Lines) })
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Render writes the human-readable comparison report.
func (r *Report) Render(w io.Writer) error {
	if r.Empty() {
		_, err := fmt.Fprintln(w, "no changes")
		return err
	}

	fmt.Fprintf(w, "files %d -> %d (%+d)\n", r.OldSummary.Files, r.NewSummary.Files, r.NewSummary.Files-r.OldSummary.Files)
	fmt.Fprintf(w, "lines %d -> %d (%+d)\n", r.OldSummary.Lines, r.NewSummary.Lines, r.NewSummary.Lines-r.OldSummary.Lines)
	fmt.Fprintf(w, "chars %d -> %d (%+d)\n", r.OldSummary.Chars, r.NewSummary.Chars, r.NewSummary.Chars-r.OldSummary.Chars)
	if r.OldSummary.Words != 0 || r.NewSummary.Words != 0 {
		fmt.Fprintf(w, "words %d -> %d (%+d)\n", r.OldSummary.Words, r.NewSummary.Words, r.NewSummary.Words-r.OldSummary.Words)
	}

	for _, d := range r.Added {
		fmt.Fprintf(w, "added    %s (%+d lines)\n", d.Path, d.Lines)
	}
	for _, d := range r.Removed {
		fmt.Fprintf(w, "removed  %s (%+d lines)\n", d.Path, d.Lines)
	}
	for _, d := range r.Modified {
		fmt.Fprintf(w, "modified %s (%+d lines)\n", d.Path, d.Lines)
	}

	movers := r.Movers(topMovers)
	if len(movers) > 1 {
		fmt.Fprintln(w, "top movers:")
		for _, d := range movers {
			fmt.Fprintf(w, "  %+6d  %s\n", d.Lines, d.Path)
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
