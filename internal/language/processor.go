// Package language maps file extensions to per-language line processors.
// A processor consumes a file one line at a time and decides, for each
// line, whether it contains at least one byte of code outside comments
// and strings. State carries across lines where a comment or string
// crosses line boundaries.
// Implements: prd002-line-processors R1-R9.
package language

import "strings"

// Processor is the per-language SLOC state machine. One instance serves
// one file; instances are never shared between files or goroutines.
type Processor interface {
	// Feed consumes one line with the trailing newline already stripped
	// and returns 1 when the line contains code, 0 when it is blank or
	// pure comment (or lies inside a block comment or docstring).
	Feed(line string) int

	// Reset restores the initial state so the processor can be reused
	// for another pass over the same language.
	Reset()

	// InBlock reports whether the processor is currently inside a
	// multi-line construct (block comment, string, heredoc, POD).
	InBlock() bool
}

// shebangProc suppresses a "#!" interpreter line. The rule applies on
// line 1 only and regardless of the underlying comment style.
type shebangProc struct {
	inner Processor
	first bool
}

func newShebangProc(inner Processor) *shebangProc {
	return &shebangProc{inner: inner, first: true}
}

func (p *shebangProc) Feed(line string) int {
	if p.first {
		p.first = false
		if strings.HasPrefix(line, "#!") {
			return 0
		}
	}
	return p.inner.Feed(line)
}

func (p *shebangProc) Reset() {
	p.first = true
	p.inner.Reset()
}

func (p *shebangProc) InBlock() bool {
	return p.inner.InBlock()
}

// blank reports whether the line holds only whitespace.
func blank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// boolToCount converts the per-line code flag to the Feed result.
func boolToCount(hasCode bool) int {
	if hasCode {
		return 1
	}
	return 0
}
