// Shell line processor (sh, bash, zsh): '#' comments, single and double
// quoted strings, and heredocs. Heredoc body lines count as code; the
// terminator line does not.
// Implements: prd002-line-processors R6 (shell).
package language

import "unicode"

type shellProc struct {
	heredocs heredocStack
	inDouble bool
	inSingle bool
}

func newShellProc() *shellProc {
	return &shellProc{}
}

func (p *shellProc) Reset() {
	*p = shellProc{}
}

func (p *shellProc) InBlock() bool {
	return p.heredocs.active() || p.inDouble || p.inSingle
}

func (p *shellProc) Feed(line string) int {
	if p.heredocs.active() {
		if p.heredocs.closes(line) {
			return 0
		}
		// Heredoc body is string content, which counts as code.
		return 1
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
			// No escapes inside single quotes in shell.
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
			if runes[i] == '\\' && i+1 < len(runes) {
				hasCode = true
				i += 2
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
