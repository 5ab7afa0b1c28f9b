// Python line processor: '#' comments, single and triple-quoted strings
// with the f/u/r/b prefix family, and the docstring rule. A triple-quoted
// literal is a docstring (non-code) only when it is the statement, i.e.
// it begins the trimmed line; its interior lines then contribute nothing.
// Implements: prd002-line-processors R5 (Python).
package language

import (
	"strings"
	"unicode"
)

type pyProc struct {
	inTriple    bool
	tripleQuote rune // '"' or '\''
	tripleDoc   bool // open literal is a docstring
	tripleRaw   bool // r-prefix: backslash not an escape
}

func newPyProc() *pyProc {
	return &pyProc{}
}

func (p *pyProc) Reset() {
	*p = pyProc{}
}

func (p *pyProc) InBlock() bool {
	return p.inTriple
}

func (p *pyProc) Feed(line string) int {
	hasCode := p.inTriple && !p.tripleDoc
	runes := []rune(line)
	var inStr bool
	var strQuote rune
	var strRaw bool

	for i := 0; i < len(runes); {
		switch {
		case p.inTriple:
			if !p.tripleDoc {
				hasCode = true
			}
			if !p.tripleRaw && runes[i] == '\\' && i+1 < len(runes) {
				i += 2
				continue
			}
			if matchAt(runes, i, strings.Repeat(string(p.tripleQuote), 3)) {
				i += 3
				p.inTriple = false
				p.tripleDoc = false
				continue
			}
			i++

		case inStr:
			hasCode = true
			if !strRaw && runes[i] == '\\' && i+1 < len(runes) {
				i += 2
				continue
			}
			if runes[i] == strQuote {
				inStr = false
			}
			i++

		default:
			if unicode.IsSpace(runes[i]) {
				i++
				continue
			}
			if runes[i] == '#' {
				return boolToCount(hasCode)
			}
			if next, quote, raw, ok := pyStringOpen(runes, i); ok {
				if triple := matchAt(runes, next-1, strings.Repeat(string(quote), 3)); triple {
					// next-1 points at the first quote; consume all three.
					p.inTriple = true
					p.tripleQuote = quote
					p.tripleRaw = raw
					p.tripleDoc = !hasCode && pyLeadingWhitespace(runes, i)
					i = next + 2
					continue
				}
				hasCode = true
				inStr = true
				strQuote = quote
				strRaw = raw
				i = next
				continue
			}
			hasCode = true
			i++
		}
	}

	return boolToCount(hasCode)
}

// pyStringOpen detects a string literal opener with an optional prefix:
// any of f/F/u/U/r/R/b/B or the two-letter combinations fr, rf, br, rb
// in either case. It returns the index just past the opening quote, the
// quote rune, and whether the literal is raw.
func pyStringOpen(runes []rune, i int) (next int, quote rune, raw bool, ok bool) {
	j := i
	prefix := 0
	for j < len(runes) && prefix < 2 && isPyPrefixLetter(runes[j]) {
		if runes[j] == 'r' || runes[j] == 'R' {
			raw = true
		}
		prefix++
		j++
	}
	if j >= len(runes) || (runes[j] != '"' && runes[j] != '\'') {
		return 0, 0, false, false
	}
	return j + 1, runes[j], raw, true
}

func isPyPrefixLetter(r rune) bool {
	switch r {
	case 'f', 'F', 'u', 'U', 'r', 'R', 'b', 'B':
		return true
	}
	return false
}

// pyLeadingWhitespace reports whether everything before position i is
// whitespace, which makes a triple-quoted literal the statement.
func pyLeadingWhitespace(runes []rune, i int) bool {
	for k := 0; k < i; k++ {
		if !unicode.IsSpace(runes[k]) {
			return false
		}
	}
	return true
}
