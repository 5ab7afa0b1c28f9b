// Generic nested-pair block processor for the Haskell ({- -}), Julia
// (#= =#), and OCaml ((* *)) families. All three nest their block
// comments by depth; line markers vary per dialect.
// Implements: prd002-line-processors R3 (nested pairs).
package language

import "unicode"

type pairDialect struct {
	lineMarkers []string // "" disables, e.g. OCaml has none
	open        string
	close       string
	stringAware bool // skip markers inside "..." literals
}

type pairProc struct {
	d        pairDialect
	depth    int
	inString bool
}

func newPairProc(d pairDialect) *pairProc {
	return &pairProc{d: d}
}

func (p *pairProc) Reset() {
	p.depth = 0
	p.inString = false
}

func (p *pairProc) InBlock() bool {
	return p.depth > 0 || p.inString
}

func (p *pairProc) Feed(line string) int {
	hasCode := p.inString
	runes := []rune(line)

	for i := 0; i < len(runes); {
		switch {
		case p.depth > 0:
			if matchAt(runes, i, p.d.open) {
				p.depth++
				i += len([]rune(p.d.open))
				continue
			}
			if matchAt(runes, i, p.d.close) {
				p.depth--
				i += len([]rune(p.d.close))
				continue
			}
			i++

		case p.inString:
			hasCode = true
			if runes[i] == '\\' && i+1 < len(runes) {
				i += 2
				continue
			}
			if runes[i] == '"' {
				p.inString = false
			}
			i++

		default:
			if unicode.IsSpace(runes[i]) {
				i++
				continue
			}
			// Block open wins over a line marker that prefixes it
			// (Julia's #= versus #).
			if matchAt(runes, i, p.d.open) {
				p.depth = 1
				i += len([]rune(p.d.open))
				continue
			}
			lineComment := false
			for _, m := range p.d.lineMarkers {
				if matchAt(runes, i, m) {
					lineComment = true
					break
				}
			}
			if lineComment {
				return boolToCount(hasCode)
			}
			if p.d.stringAware && runes[i] == '"' {
				hasCode = true
				p.inString = true
				i++
				continue
			}
			hasCode = true
			i++
		}
	}

	return boolToCount(hasCode)
}
