// Ruby line processor: '#' comments, =begin/=end block comments anchored
// at column 0, and single/double quoted strings.
// Implements: prd002-line-processors R5 (Ruby).
package language

import (
	"strings"
	"unicode"
)

type rubyProc struct {
	inBlock  bool // =begin ... =end
	inDouble bool
	inSingle bool
}

func newRubyProc() *rubyProc {
	return &rubyProc{}
}

func (p *rubyProc) Reset() {
	*p = rubyProc{}
}

func (p *rubyProc) InBlock() bool {
	return p.inBlock || p.inDouble || p.inSingle
}

func (p *rubyProc) Feed(line string) int {
	if p.inBlock {
		if strings.HasPrefix(line, "=end") {
			p.inBlock = false
		}
		return 0
	}
	if strings.HasPrefix(line, "=begin") {
		p.inBlock = true
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
