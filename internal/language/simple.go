// Line-marker-only processors: Lisp, Erlang/LaTeX, VHDL, Fortran, Batch,
// Visual Basic, simple-hash configs, and the fallback style that counts
// every non-blank line. These carry no cross-line state: a marker can
// only open a comment when it is the first non-blank token, so a marker
// inside a string is never misread (code precedes it on the line).
// Also hosts the MATLAB and PowerShell processors, which add a block form.
// Implements: prd002-line-processors R7 (line-marker styles).
package language

import (
	"strings"
	"unicode"
)

type lineDialect struct {
	markers []string // case-sensitive comment prefixes
	ciWords []string // case-insensitive word prefixes (REM, @REM)
	col1    string   // fixed-form Fortran column-1 comment characters
}

type lineProc struct {
	d lineDialect
}

func newLineProc(d lineDialect) *lineProc {
	return &lineProc{d: d}
}

func (p *lineProc) Reset() {}

func (p *lineProc) InBlock() bool { return false }

func (p *lineProc) Feed(line string) int {
	if blank(line) {
		return 0
	}
	if p.d.col1 != "" && strings.ContainsAny(line[:1], p.d.col1) {
		return 0
	}
	trimmed := strings.TrimLeft(line, " \t")
	for _, m := range p.d.markers {
		if strings.HasPrefix(trimmed, m) {
			return 0
		}
	}
	for _, w := range p.d.ciWords {
		if hasWordPrefixFold(trimmed, w) {
			return 0
		}
	}
	return 1
}

// hasWordPrefixFold reports whether s begins with word (ASCII
// case-insensitive) followed by whitespace or end of line.
func hasWordPrefixFold(s, word string) bool {
	if len(s) < len(word) {
		return false
	}
	if !strings.EqualFold(s[:len(word)], word) {
		return false
	}
	if len(s) == len(word) {
		return true
	}
	c := s[len(word)]
	return c == ' ' || c == '\t'
}

// matlabProc: '%' line comments plus %{ / %} block markers that must
// stand alone at column 0.
type matlabProc struct {
	inBlock bool
}

func newMatlabProc() *matlabProc {
	return &matlabProc{}
}

func (p *matlabProc) Reset() {
	p.inBlock = false
}

func (p *matlabProc) InBlock() bool {
	return p.inBlock
}

func (p *matlabProc) Feed(line string) int {
	bare := strings.TrimRight(line, " \t")
	if p.inBlock {
		if bare == "%}" {
			p.inBlock = false
		}
		return 0
	}
	if bare == "%{" {
		p.inBlock = true
		return 0
	}
	if blank(line) {
		return 0
	}
	if strings.HasPrefix(strings.TrimLeft(line, " \t"), "%") {
		return 0
	}
	return 1
}

// powershellProc: '#' line comments, <# ... #> block comments, and
// string-aware scanning so "<#" inside a quoted literal stays code.
type powershellProc struct {
	inComment bool
	inDouble  bool
	inSingle  bool
}

func newPowershellProc() *powershellProc {
	return &powershellProc{}
}

func (p *powershellProc) Reset() {
	*p = powershellProc{}
}

func (p *powershellProc) InBlock() bool {
	return p.inComment || p.inDouble || p.inSingle
}

func (p *powershellProc) Feed(line string) int {
	hasCode := p.inDouble || p.inSingle
	runes := []rune(line)

	for i := 0; i < len(runes); {
		switch {
		case p.inComment:
			if matchAt(runes, i, "#>") {
				p.inComment = false
				i += 2
				continue
			}
			i++

		case p.inDouble:
			hasCode = true
			// PowerShell escapes with a backtick.
			if runes[i] == '`' && i+1 < len(runes) {
				i += 2
				continue
			}
			if runes[i] == '"' {
				p.inDouble = false
			}
			i++

		case p.inSingle:
			hasCode = true
			if runes[i] == '\'' {
				p.inSingle = false
			}
			i++

		default:
			if unicode.IsSpace(runes[i]) {
				i++
				continue
			}
			if matchAt(runes, i, "<#") {
				p.inComment = true
				i += 2
				continue
			}
			if runes[i] == '#' {
				return boolToCount(hasCode)
			}
			if runes[i] == '"' {
				hasCode = true
				p.inDouble = true
				i++
				continue
			}
			if runes[i] == '\'' {
				hasCode = true
				p.inSingle = true
				i++
				continue
			}
			hasCode = true
			i++
		}
	}

	return boolToCount(hasCode)
}
