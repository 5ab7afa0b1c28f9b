// Comment-style registry: resolves a filename and extension to a line
// processor. Extensions are matched lowercased on the final dot suffix;
// a handful of well-known extensionless files (Dockerfile, Makefile)
// match on the base name. A user-supplied extension map is applied
// before lookup so operators can route unknown suffixes to a dialect.
// Implements: prd002-line-processors R1 (registry).
package language

import (
	"sort"
	"strings"
)

// Comment styles. Each names a processor variant; several styles share
// an implementation with different dialect settings.
const (
	StyleC       = "c"
	StyleCNested = "c-nested"
	StyleGo      = "go"
	StyleCSS     = "css"
	StyleJS      = "javascript"
	StyleSwift   = "swift"
	StyleD       = "d"
	StylePython  = "python"
	StyleRuby    = "ruby"
	StylePerl    = "perl"
	StylePHP     = "php"
	StyleShell   = "shell"
	StyleHash    = "hash"
	StylePwsh    = "powershell"
	StyleLua     = "lua"
	StyleMarkup  = "markup"
	StyleSQL     = "sql"
	StyleHaskell = "haskell"
	StyleJulia   = "julia"
	StyleOCaml   = "ocaml"
	StyleFSharp  = "fsharp"
	StyleMatlab  = "matlab"
	StyleLisp    = "lisp"
	StylePercent = "percent"
	StyleFortran = "fortran"
	StyleF77     = "fortran-fixed"
	StyleAsm     = "asm"
	StyleGas     = "gas"
	StyleVHDL    = "vhdl"
	StyleBatch   = "batch"
	StyleVB      = "vb"
	StyleNone    = "none"
)

// extStyle maps a lowercased extension (without dot) to its style.
var extStyle = map[string]string{
	// C family, flat blocks.
	"c": StyleC, "h": StyleC, "cpp": StyleC, "cc": StyleC, "cxx": StyleC,
	"hpp": StyleC, "hh": StyleC, "hxx": StyleC, "cs": StyleC, "java": StyleC,
	"jsonc": StyleC, "json5": StyleC,

	"go": StyleGo,

	"css": StyleCSS, "scss": StyleCSS, "less": StyleCSS,

	// C family, nesting blocks.
	"rs": StyleCNested, "kt": StyleCNested, "kts": StyleCNested,
	"scala": StyleCNested, "sc": StyleCNested,

	// JavaScript/TypeScript family.
	"js": StyleJS, "ts": StyleJS, "jsx": StyleJS, "tsx": StyleJS,
	"mjs": StyleJS, "cjs": StyleJS, "mts": StyleJS, "cts": StyleJS,

	"swift": StyleSwift,

	"d": StyleD,

	"py": StylePython, "pyw": StylePython, "pyi": StylePython,

	"rb": StyleRuby, "rake": StyleRuby,

	"pl": StylePerl, "pm": StylePerl, "t": StylePerl,

	"php": StylePHP,

	"sh": StyleShell, "bash": StyleShell, "zsh": StyleShell, "ksh": StyleShell,

	// Simple hash.
	"yaml": StyleHash, "yml": StyleHash, "toml": StyleHash,
	"mk": StyleHash, "cmake": StyleHash, "tf": StyleHash, "tfvars": StyleHash,
	"r": StyleHash, "conf": StyleHash, "ini": StyleHash, "cfg": StyleHash,
	"properties": StyleHash, "dockerfile": StyleHash,

	"ps1": StylePwsh, "psm1": StylePwsh, "psd1": StylePwsh,

	"lua": StyleLua,

	"html": StyleMarkup, "htm": StyleMarkup, "xml": StyleMarkup,
	"svg": StyleMarkup, "vue": StyleMarkup, "xhtml": StyleMarkup,

	"sql": StyleSQL,

	"hs": StyleHaskell, "lhs": StyleHaskell, "elm": StyleHaskell, "purs": StyleHaskell,

	"jl": StyleJulia,

	"ml": StyleOCaml, "mli": StyleOCaml, "pas": StyleOCaml, "pp": StyleOCaml,
	"fs": StyleFSharp, "fsi": StyleFSharp, "fsx": StyleFSharp,

	"m": StyleMatlab, "mat": StyleMatlab,

	"lisp": StyleLisp, "lsp": StyleLisp, "cl": StyleLisp, "el": StyleLisp,
	"clj": StyleLisp, "cljs": StyleLisp, "cljc": StyleLisp,
	"scm": StyleLisp, "rkt": StyleLisp,

	"erl": StylePercent, "hrl": StylePercent, "tex": StylePercent, "sty": StylePercent,

	"f90": StyleFortran, "f95": StyleFortran, "f03": StyleFortran, "f08": StyleFortran,
	"for": StyleF77, "f": StyleF77, "f77": StyleF77,

	"asm": StyleAsm,
	"s":   StyleGas,

	"vhd": StyleVHDL, "vhdl": StyleVHDL,

	"bat": StyleBatch, "cmd": StyleBatch,

	"vb": StyleVB, "vbs": StyleVB, "bas": StyleVB,
}

// nameStyle matches extensionless well-known filenames, lowercased.
var nameStyle = map[string]string{
	"dockerfile":     StyleHash,
	"makefile":       StyleHash,
	"gnumakefile":    StyleHash,
	"cmakelists.txt": StyleHash,
	"rakefile":       StyleRuby,
	"gemfile":        StyleRuby,
	"vagrantfile":    StyleRuby,
}

// Registry resolves files to processors, honoring a user extension map.
type Registry struct {
	remap map[string]string // effective-extension remap, lowercased
}

// NewRegistry builds a registry. extMap remaps a file's extension before
// lookup (both sides lowercased, dots ignored); nil is allowed.
func NewRegistry(extMap map[string]string) *Registry {
	r := &Registry{}
	if len(extMap) > 0 {
		r.remap = make(map[string]string, len(extMap))
		for from, to := range extMap {
			from = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(from)), ".")
			to = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(to)), ".")
			if from != "" && to != "" {
				r.remap[from] = to
			}
		}
	}
	return r
}

// StyleFor resolves the comment style for a file. name is the base
// filename, ext the lowercased extension without dot.
func (r *Registry) StyleFor(name, ext string) string {
	if r.remap != nil {
		if mapped, ok := r.remap[ext]; ok {
			ext = mapped
		}
	}
	if style, ok := extStyle[ext]; ok {
		return style
	}
	if style, ok := nameStyle[strings.ToLower(name)]; ok {
		return style
	}
	return StyleNone
}

// ProcessorFor returns a fresh line processor for the file. The result
// is never nil; unknown files get the fallback style, which counts any
// non-blank line as code. Every processor is wrapped with the line-1
// shebang rule.
func (r *Registry) ProcessorFor(name, ext string) Processor {
	return newShebangProc(newStyleProcessor(r.StyleFor(name, ext)))
}

// newStyleProcessor builds the bare processor for a style.
func newStyleProcessor(style string) Processor {
	switch style {
	case StyleC:
		return newCProc(cDialect{
			lineMarkers: []string{"//"},
			blockOpen:   "/*", blockClose: "*/",
			doubleQuote: true, singleQuote: true, backslash: true,
			cppRaw: true,
		})
	case StyleGo:
		// Go's backquoted raw strings behave like template literals
		// minus interpolation, so the scanner is shared.
		return newCProc(cDialect{
			lineMarkers: []string{"//"},
			blockOpen:   "/*", blockClose: "*/",
			doubleQuote: true, singleQuote: true, backslash: true,
			templates: true,
		})
	case StyleCSS:
		return newCProc(cDialect{
			blockOpen: "/*", blockClose: "*/",
			doubleQuote: true, singleQuote: true, backslash: true,
		})
	case StyleCNested:
		return newCProc(cDialect{
			lineMarkers: []string{"//"},
			blockOpen:   "/*", blockClose: "*/", nestedBlock: true,
			doubleQuote: true, singleQuote: true, backslash: true,
			rustRaw: true, rustChar: true,
		})
	case StyleJS:
		return newCProc(cDialect{
			lineMarkers: []string{"//"},
			blockOpen:   "/*", blockClose: "*/",
			doubleQuote: true, singleQuote: true, backslash: true,
			templates: true,
		})
	case StyleSwift:
		return newSwiftProc()
	case StyleD:
		return newCProc(cDialect{
			lineMarkers: []string{"//"},
			blockOpen:   "/*", blockClose: "*/",
			doubleQuote: true, singleQuote: true, backslash: true,
			plusBlock: true,
		})
	case StylePython:
		return newPyProc()
	case StyleRuby:
		return newRubyProc()
	case StylePerl:
		return newPerlProc()
	case StylePHP:
		return newCProc(cDialect{
			lineMarkers: []string{"//"},
			blockOpen:   "/*", blockClose: "*/",
			doubleQuote: true, singleQuote: true, backslash: true,
			hashLine: true,
		})
	case StyleShell:
		return newShellProc()
	case StyleHash:
		return newLineProc(lineDialect{markers: []string{"#"}})
	case StylePwsh:
		return newPowershellProc()
	case StyleLua:
		return newLuaProc()
	case StyleMarkup:
		return newMarkupProc()
	case StyleSQL:
		return newCProc(cDialect{
			lineMarkers: []string{"--"},
			blockOpen:   "/*", blockClose: "*/",
			doubleQuote: true, singleQuote: true,
		})
	case StyleHaskell:
		return newPairProc(pairDialect{
			lineMarkers: []string{"--"},
			open:        "{-", close: "-}", stringAware: true,
		})
	case StyleJulia:
		return newPairProc(pairDialect{
			lineMarkers: []string{"#"},
			open:        "#=", close: "=#", stringAware: true,
		})
	case StyleOCaml:
		return newPairProc(pairDialect{
			open: "(*", close: "*)", stringAware: true,
		})
	case StyleFSharp:
		return newPairProc(pairDialect{
			lineMarkers: []string{"//"},
			open:        "(*", close: "*)", stringAware: true,
		})
	case StyleMatlab:
		return newMatlabProc()
	case StyleLisp:
		return newLineProc(lineDialect{markers: []string{";"}})
	case StylePercent:
		return newLineProc(lineDialect{markers: []string{"%"}})
	case StyleFortran:
		return newLineProc(lineDialect{markers: []string{"!"}})
	case StyleF77:
		return newLineProc(lineDialect{markers: []string{"!"}, col1: "Cc*"})
	case StyleAsm:
		return newLineProc(lineDialect{markers: []string{";"}})
	case StyleGas:
		return newCProc(cDialect{
			lineMarkers: []string{"#", ";"},
			blockOpen:   "/*", blockClose: "*/",
			doubleQuote: true, backslash: true,
		})
	case StyleVHDL:
		return newLineProc(lineDialect{markers: []string{"--"}})
	case StyleBatch:
		return newLineProc(lineDialect{markers: []string{"::"}, ciWords: []string{"rem", "@rem"}})
	case StyleVB:
		return newLineProc(lineDialect{markers: []string{"'"}, ciWords: []string{"rem"}})
	default:
		return newLineProc(lineDialect{})
	}
}

// StyleInfo describes one registered style for the languages listing.
type StyleInfo struct {
	Style      string
	Extensions []string
}

// Styles returns every style with its extensions, sorted by style name.
func Styles() []StyleInfo {
	byStyle := make(map[string][]string)
	for ext, style := range extStyle {
		byStyle[style] = append(byStyle[style], ext)
	}
	result := make([]StyleInfo, 0, len(byStyle))
	for style, exts := range byStyle {
		sort.Strings(exts)
		result = append(result, StyleInfo{Style: style, Extensions: exts})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Style < result[j].Style
	})
	return result
}
