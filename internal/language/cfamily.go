// C-family line processor: line comments, flat or nested block comments,
// escape-aware strings, and the raw-string dialects (C++ R"delim(...)",
// Rust r#"..."#, JavaScript template literals, D's nesting /+ ... +/).
// One configuration struct covers every dialect in the family; each
// dialect gets its own constructor in registry.go.
// Implements: prd002-line-processors R2 (C family), R4 (raw strings).
package language

import (
	"strings"
	"unicode"
)

// cDialect selects the optional rules of the C family.
type cDialect struct {
	lineMarkers []string // in match order, e.g. {"//"} or {"--"}
	blockOpen   string   // "" disables block comments
	blockClose  string
	nestedBlock bool // Rust, Kotlin, Scala, Swift, Haskell-style nesting
	plusBlock   bool // D's additional /+ ... +/ (always nesting)

	doubleQuote bool // "..." strings
	singleQuote bool // '...' char or string literals
	backslash   bool // backslash escapes inside quotes
	hashLine    bool // PHP: '#' also opens a line comment
	templates   bool // JavaScript/TypeScript `...` template literals
	cppRaw      bool // C++ R"delim( ... )delim"
	rustRaw     bool // Rust r#"..."#, br#"..."#
	rustChar    bool // distinguish 'a' char literals from 'a lifetimes
}

// cProc scans one C-family file. The cross-line state is the block
// comment depth and whichever string construct is still open.
type cProc struct {
	d cDialect

	blockDepth int // 0 = outside; flat dialects never exceed 1
	plusDepth  int // D /+ ... +/ depth
	inDouble   bool
	inSingle   bool
	inTemplate bool
	inRaw      bool
	rawTerm    string // exact terminator for the open raw string
}

func newCProc(d cDialect) *cProc {
	return &cProc{d: d}
}

func (p *cProc) Reset() {
	*p = cProc{d: p.d}
}

func (p *cProc) InBlock() bool {
	return p.blockDepth > 0 || p.plusDepth > 0 ||
		p.inDouble || p.inSingle || p.inTemplate || p.inRaw
}

func (p *cProc) Feed(line string) int {
	hasCode := p.inDouble || p.inSingle || p.inTemplate || p.inRaw
	runes := []rune(line)

	for i := 0; i < len(runes); {
		switch {
		case p.plusDepth > 0:
			if matchAt(runes, i, "/+") {
				p.plusDepth++
				i += 2
				continue
			}
			if matchAt(runes, i, "+/") {
				p.plusDepth--
				i += 2
				continue
			}
			i++

		case p.blockDepth > 0:
			if p.d.nestedBlock && matchAt(runes, i, p.d.blockOpen) {
				p.blockDepth++
				i += len([]rune(p.d.blockOpen))
				continue
			}
			if matchAt(runes, i, p.d.blockClose) {
				p.blockDepth--
				i += len([]rune(p.d.blockClose))
				continue
			}
			i++

		case p.inRaw:
			hasCode = true
			if matchAt(runes, i, p.rawTerm) {
				i += len([]rune(p.rawTerm))
				p.inRaw = false
				p.rawTerm = ""
				continue
			}
			i++

		case p.inDouble:
			hasCode = true
			if p.d.backslash && runes[i] == '\\' && i+1 < len(runes) {
				i += 2
				continue
			}
			if runes[i] == '"' {
				p.inDouble = false
			}
			i++

		case p.inSingle:
			hasCode = true
			if p.d.backslash && runes[i] == '\\' && i+1 < len(runes) {
				i += 2
				continue
			}
			if runes[i] == '\'' {
				p.inSingle = false
			}
			i++

		case p.inTemplate:
			hasCode = true
			if runes[i] == '\\' && i+1 < len(runes) {
				i += 2
				continue
			}
			if runes[i] == '`' {
				p.inTemplate = false
			}
			i++

		default:
			if unicode.IsSpace(runes[i]) {
				i++
				continue
			}
			if p.lineComment(runes, i) {
				// Rest of the line is comment.
				return boolToCount(hasCode)
			}
			if p.d.blockOpen != "" && matchAt(runes, i, p.d.blockOpen) {
				p.blockDepth = 1
				i += len([]rune(p.d.blockOpen))
				continue
			}
			if p.d.plusBlock && matchAt(runes, i, "/+") {
				p.plusDepth = 1
				i += 2
				continue
			}
			if p.d.cppRaw {
				if next, ok := p.tryCppRaw(runes, i); ok {
					hasCode = true
					i = next
					continue
				}
			}
			if p.d.rustRaw {
				if next, ok := p.tryRustRaw(runes, i); ok {
					hasCode = true
					i = next
					continue
				}
			}
			if p.d.doubleQuote && runes[i] == '"' {
				hasCode = true
				p.inDouble = true
				i++
				continue
			}
			if p.d.singleQuote && runes[i] == '\'' {
				if p.d.rustChar && !looksLikeCharLiteral(runes, i) {
					// Lifetime marker such as 'a, not a string.
					hasCode = true
					i++
					continue
				}
				hasCode = true
				p.inSingle = true
				i++
				continue
			}
			if p.d.templates && runes[i] == '`' {
				hasCode = true
				p.inTemplate = true
				i++
				continue
			}
			hasCode = true
			i++
		}
	}

	// Single-line string constructs do not legally span lines in most
	// dialects, but an unterminated literal keeps the flag so the next
	// line is still counted as code, matching the carry-over contract.
	return boolToCount(hasCode)
}

// lineComment reports whether a line comment opens at position i.
func (p *cProc) lineComment(runes []rune, i int) bool {
	for _, m := range p.d.lineMarkers {
		if matchAt(runes, i, m) {
			return true
		}
	}
	if p.d.hashLine && runes[i] == '#' {
		return true
	}
	return false
}

// tryCppRaw detects a C++ raw string literal R"delim( and records its
// exact terminator )delim". Encoding prefixes u8, u, U, L are accepted.
func (p *cProc) tryCppRaw(runes []rune, i int) (int, bool) {
	start := i
	switch {
	case matchAt(runes, start, "u8"):
		start += 2
	case start < len(runes) && (runes[start] == 'u' || runes[start] == 'U' || runes[start] == 'L'):
		start++
	}
	if start >= len(runes) || runes[start] != 'R' {
		return 0, false
	}
	if start+1 >= len(runes) || runes[start+1] != '"' {
		return 0, false
	}
	// The delimiter runs until the opening parenthesis.
	j := start + 2
	var delim []rune
	for j < len(runes) && runes[j] != '(' {
		if runes[j] == '"' || runes[j] == '\\' || unicode.IsSpace(runes[j]) {
			return 0, false
		}
		delim = append(delim, runes[j])
		j++
	}
	if j >= len(runes) {
		return 0, false
	}
	p.inRaw = true
	p.rawTerm = ")" + string(delim) + `"`
	return j + 1, true
}

// tryRustRaw detects r"...", r#"..."#, and the byte variants br..., and
// records the terminator with the matching hash count.
func (p *cProc) tryRustRaw(runes []rune, i int) (int, bool) {
	start := i
	if runes[start] == 'b' {
		start++
	}
	if start >= len(runes) || runes[start] != 'r' {
		return 0, false
	}
	j := start + 1
	hashes := 0
	for j < len(runes) && runes[j] == '#' {
		hashes++
		j++
	}
	if j >= len(runes) || runes[j] != '"' {
		return 0, false
	}
	p.inRaw = true
	p.rawTerm = `"` + strings.Repeat("#", hashes)
	return j + 1, true
}

// looksLikeCharLiteral distinguishes 'a' and '\n' from lifetime markers.
func looksLikeCharLiteral(runes []rune, i int) bool {
	if i+2 >= len(runes) {
		return false
	}
	if runes[i+1] != '\\' && runes[i+2] == '\'' {
		return true
	}
	if runes[i+1] == '\\' && i+3 < len(runes) && runes[i+3] == '\'' {
		return true
	}
	return false
}

// matchAt reports whether s occurs in runes at position i.
func matchAt(runes []rune, i int, s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if i >= len(runes) || runes[i] != r {
			return false
		}
		i++
	}
	return true
}
