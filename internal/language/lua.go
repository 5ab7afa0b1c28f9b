// Lua line processor: '--' comments and long-bracket block comments
// --[=*[ ... ]=*] with a matched equals-sign count.
// Implements: prd002-line-processors R3 (Lua long brackets).
package language

import (
	"strings"
	"unicode"
)

type luaProc struct {
	inLong   bool
	eqCount  int
	inDouble bool
	inSingle bool
}

func newLuaProc() *luaProc {
	return &luaProc{}
}

func (p *luaProc) Reset() {
	*p = luaProc{}
}

func (p *luaProc) InBlock() bool {
	return p.inLong || p.inDouble || p.inSingle
}

func (p *luaProc) Feed(line string) int {
	hasCode := p.inDouble || p.inSingle
	runes := []rune(line)

	for i := 0; i < len(runes); {
		switch {
		case p.inLong:
			if next, ok := p.longClose(runes, i); ok {
				p.inLong = false
				i = next
				continue
			}
			i++

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
			if matchAt(runes, i, "--") {
				if next, eq, ok := longOpen(runes, i+2); ok {
					p.inLong = true
					p.eqCount = eq
					i = next
					continue
				}
				// Plain -- comment runs to end of line.
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

// longOpen matches [=*[ at position i and returns the equals count.
func longOpen(runes []rune, i int) (next int, eq int, ok bool) {
	if i >= len(runes) || runes[i] != '[' {
		return 0, 0, false
	}
	j := i + 1
	for j < len(runes) && runes[j] == '=' {
		eq++
		j++
	}
	if j >= len(runes) || runes[j] != '[' {
		return 0, 0, false
	}
	return j + 1, eq, true
}

// longClose matches ]=*] with the open bracket's equals count.
func (p *luaProc) longClose(runes []rune, i int) (int, bool) {
	term := "]" + strings.Repeat("=", p.eqCount) + "]"
	if !matchAt(runes, i, term) {
		return 0, false
	}
	return i + len(term), true
}
