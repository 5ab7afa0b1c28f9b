// Swift line processor. Swift combines nesting block comments with
// extended string delimiters: "...", #"..."#, """multiline""", and
// #"""..."""# with any number of hashes. The hash count gates escape
// significance (inside #"..."#, only \# starts an escape).
// Implements: prd002-line-processors R2 (Swift dialect).
package language

import (
	"strings"
	"unicode"
)

type swiftProc struct {
	blockDepth int
	inString   bool
	multiline  bool // """ form, may span lines
	hashes     int  // delimiter hash count of the open string
}

func newSwiftProc() *swiftProc {
	return &swiftProc{}
}

func (p *swiftProc) Reset() {
	*p = swiftProc{}
}

func (p *swiftProc) InBlock() bool {
	return p.blockDepth > 0 || (p.inString && p.multiline)
}

func (p *swiftProc) Feed(line string) int {
	hasCode := p.inString && p.multiline
	runes := []rune(line)

	for i := 0; i < len(runes); {
		switch {
		case p.blockDepth > 0:
			if matchAt(runes, i, "/*") {
				p.blockDepth++
				i += 2
				continue
			}
			if matchAt(runes, i, "*/") {
				p.blockDepth--
				i += 2
				continue
			}
			i++

		case p.inString:
			hasCode = true
			if next, ok := p.stringEscape(runes, i); ok {
				i = next
				continue
			}
			if next, ok := p.stringTerminator(runes, i); ok {
				i = next
				p.inString = false
				continue
			}
			i++

		default:
			if unicode.IsSpace(runes[i]) {
				i++
				continue
			}
			if matchAt(runes, i, "//") {
				return boolToCount(hasCode)
			}
			if matchAt(runes, i, "/*") {
				p.blockDepth = 1
				i += 2
				continue
			}
			if next, ok := p.tryOpenString(runes, i); ok {
				hasCode = true
				i = next
				continue
			}
			hasCode = true
			i++
		}
	}

	if p.inString && !p.multiline {
		// A plain "..." cannot legally span lines; drop the state so an
		// unterminated literal does not poison the rest of the file.
		p.inString = false
	}
	return boolToCount(hasCode)
}

// tryOpenString detects #*" or #*""" openers and records hash count and
// multiline-ness.
func (p *swiftProc) tryOpenString(runes []rune, i int) (int, bool) {
	hashes := 0
	j := i
	for j < len(runes) && runes[j] == '#' {
		hashes++
		j++
	}
	if j >= len(runes) || runes[j] != '"' {
		return 0, false
	}
	if matchAt(runes, j, `"""`) {
		p.inString = true
		p.multiline = true
		p.hashes = hashes
		return j + 3, true
	}
	p.inString = true
	p.multiline = false
	p.hashes = hashes
	return j + 1, true
}

// stringEscape consumes a delimiter-aware escape: backslash followed by
// exactly the open delimiter's hash count.
func (p *swiftProc) stringEscape(runes []rune, i int) (int, bool) {
	if runes[i] != '\\' {
		return 0, false
	}
	if p.hashes > 0 && !matchAt(runes, i+1, strings.Repeat("#", p.hashes)) {
		return 0, false
	}
	// Skip the backslash, the hashes, and the escaped character.
	next := i + 1 + p.hashes + 1
	if next > len(runes) {
		next = len(runes)
	}
	return next, true
}

// stringTerminator matches the closing quote run plus the delimiter's
// hash count.
func (p *swiftProc) stringTerminator(runes []rune, i int) (int, bool) {
	quotes := `"`
	if p.multiline {
		quotes = `"""`
	}
	term := quotes + strings.Repeat("#", p.hashes)
	if !matchAt(runes, i, term) {
		return 0, false
	}
	return i + len(term), true
}
