// Perl line processor: '#' comments, POD documentation blocks, strings,
// and heredocs. A POD block opens with =pod, =head*, =for, =begin (or
// any =word directive at column 0) and runs through =cut inclusive.
// Implements: prd002-line-processors R6 (Perl, POD).
package language

import (
	"strings"
	"unicode"
)

type perlProc struct {
	heredocs heredocStack
	inPOD    bool
	inDouble bool
	inSingle bool
}

func newPerlProc() *perlProc {
	return &perlProc{}
}

func (p *perlProc) Reset() {
	*p = perlProc{}
}

func (p *perlProc) InBlock() bool {
	return p.inPOD || p.heredocs.active() || p.inDouble || p.inSingle
}

func (p *perlProc) Feed(line string) int {
	if p.inPOD {
		if strings.HasPrefix(line, "=cut") {
			p.inPOD = false
		}
		return 0
	}
	if p.heredocs.active() {
		if p.heredocs.closes(line) {
			return 0
		}
		return 1
	}
	if podOpens(line) {
		p.inPOD = true
		return 0
	}

	hasCode := p.inDouble || p.inSingle
	runes := []rune(line)

	for i := 0; i < len(runes); {
		switch {
		case p.inDouble:
			hasCode = true
			if runes[i] == '\\' && i+1 < len(runes) {
				i += 2
				continue
			}
			if runes[i] == '"' {
				p.inDouble = false
			}
			i++

		case p.inSingle:
			hasCode = true
			if runes[i] == '\\' && i+1 < len(runes) {
				i += 2
				continue
			}
			if runes[i] == '\'' {
				p.inSingle = false
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
			if next, ident, allowIndent, ok := scanHeredocOpener(runes, i); ok {
				p.heredocs.open(ident, allowIndent)
				hasCode = true
				i = next
				continue
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

// podOpens reports whether line starts a POD block: '=' at column 0
// followed by an ASCII letter (=pod, =head1, =for, =begin, ...).
func podOpens(line string) bool {
	if !strings.HasPrefix(line, "=") || len(line) < 2 {
		return false
	}
	c := line[1]
	if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
		return false
	}
	// =cut without an open block is still POD directive territory; it
	// never marks code either way.
	return true
}
