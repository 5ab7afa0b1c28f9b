// Heredoc tracking shared by the shell and Perl processors. Multiple
// heredocs opened on one line land on a LIFO stack of (identifier,
// allow-indent) entries; a body line closes the topmost entry when it
// matches the identifier whole-line, after trimming leading whitespace
// when indentation was allowed (<<- or <<~ form).
// Implements: prd002-line-processors R6 (heredocs).
package language

import "strings"

type heredoc struct {
	ident       string
	allowIndent bool
}

type heredocStack struct {
	pending []heredoc
}

func (h *heredocStack) open(ident string, allowIndent bool) {
	h.pending = append(h.pending, heredoc{ident: ident, allowIndent: allowIndent})
}

func (h *heredocStack) active() bool {
	return len(h.pending) > 0
}

func (h *heredocStack) reset() {
	h.pending = nil
}

// closes reports whether line terminates the topmost heredoc and pops
// it when so. The terminator line itself is not code.
func (h *heredocStack) closes(line string) bool {
	if len(h.pending) == 0 {
		return false
	}
	top := h.pending[len(h.pending)-1]
	candidate := line
	if top.allowIndent {
		candidate = strings.TrimLeft(candidate, " \t")
	}
	if candidate != top.ident {
		return false
	}
	h.pending = h.pending[:len(h.pending)-1]
	return true
}

// scanHeredocOpener matches a heredoc operator at position i: << with an
// optional - or ~ modifier and an identifier that may be wrapped in
// single or double quotes. <<< herestrings are rejected. Returns the
// index just past the opener.
func scanHeredocOpener(runes []rune, i int) (next int, ident string, allowIndent bool, ok bool) {
	if !matchAt(runes, i, "<<") {
		return 0, "", false, false
	}
	j := i + 2
	if j < len(runes) && runes[j] == '<' {
		// Herestring, not a heredoc.
		return 0, "", false, false
	}
	if j < len(runes) && (runes[j] == '-' || runes[j] == '~') {
		allowIndent = true
		j++
	}
	var quote rune
	if j < len(runes) && (runes[j] == '\'' || runes[j] == '"') {
		quote = runes[j]
		j++
	}
	start := j
	for j < len(runes) && isHeredocIdentRune(runes[j]) {
		j++
	}
	if j == start {
		return 0, "", false, false
	}
	ident = string(runes[start:j])
	if quote != 0 {
		if j >= len(runes) || runes[j] != quote {
			return 0, "", false, false
		}
		j++
	}
	return j, ident, allowIndent, true
}

func isHeredocIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
