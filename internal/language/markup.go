// HTML/XML line processor: <!-- ... --> comments, everything else code.
// Implements: prd002-line-processors R2 (markup).
package language

import "unicode"

type markupProc struct {
	inComment bool
}

func newMarkupProc() *markupProc {
	return &markupProc{}
}

func (p *markupProc) Reset() {
	p.inComment = false
}

func (p *markupProc) InBlock() bool {
	return p.inComment
}

func (p *markupProc) Feed(line string) int {
	hasCode := false
	runes := []rune(line)

	for i := 0; i < len(runes); {
		if p.inComment {
			if matchAt(runes, i, "-->") {
				p.inComment = false
				i += 3
				continue
			}
			i++
			continue
		}
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		if matchAt(runes, i, "<!--") {
			p.inComment = true
			i += 4
			continue
		}
		hasCode = true
		i++
	}

	return boolToCount(hasCode)
}
