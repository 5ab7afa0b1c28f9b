// Filter expression language: a small boolean/arithmetic calculus over the
// per-file variables lines, chars, words, sloc, size, ext, name, and mtime.
// Expressions are parsed and type-checked once when the run configuration is
// built, so evaluation per file cannot fail.
// Implements: prd001-measurement-core R9 (expression post-filter).
package analyze

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mesh-intelligence/tally/pkg/types"
)

type kind int

const (
	kindNum kind = iota
	kindStr
	kindBool
)

func (k kind) String() string {
	switch k {
	case kindNum:
		return "number"
	case kindStr:
		return "string"
	default:
		return "boolean"
	}
}

// env binds the variable set for one file.
type env struct {
	lines, chars, words, sloc, size, mtime int64
	ext, name                              string
}

func bindStats(s *types.FileStats) env {
	e := env{
		lines: s.Lines,
		chars: s.Chars,
		size:  s.Size,
		ext:   s.Ext,
		name:  s.Name,
	}
	if s.HasWords() {
		e.words = s.Words
	}
	if s.HasSLOC() {
		e.sloc = s.SLOC
	}
	if !s.Mtime.IsZero() {
		e.mtime = s.Mtime.Unix()
	}
	return e
}

type value struct {
	num int64
	str string
	b   bool
}

type node interface {
	kind() kind
	eval(e *env) value
}

type numLit struct{ v int64 }

func (n numLit) kind() kind      { return kindNum }
func (n numLit) eval(*env) value { return value{num: n.v} }

type strLit struct{ v string }

func (n strLit) kind() kind      { return kindStr }
func (n strLit) eval(*env) value { return value{str: n.v} }

type boolLit struct{ v bool }

func (n boolLit) kind() kind      { return kindBool }
func (n boolLit) eval(*env) value { return value{b: n.v} }

type varRef struct {
	name string
	k    kind
}

func (n varRef) kind() kind { return n.k }

func (n varRef) eval(e *env) value {
	switch n.name {
	case "lines":
		return value{num: e.lines}
	case "chars":
		return value{num: e.chars}
	case "words":
		return value{num: e.words}
	case "sloc":
		return value{num: e.sloc}
	case "size":
		return value{num: e.size}
	case "mtime":
		return value{num: e.mtime}
	case "ext":
		return value{str: e.ext}
	default: // name
		return value{str: e.name}
	}
}

type binOp struct {
	op   string
	l, r node
	k    kind
}

func (n binOp) kind() kind { return n.k }

func (n binOp) eval(e *env) value {
	l, r := n.l.eval(e), n.r.eval(e)
	switch n.op {
	case "+":
		return value{num: l.num + r.num}
	case "-":
		return value{num: l.num - r.num}
	case "*":
		return value{num: l.num * r.num}
	case "/":
		if r.num == 0 {
			return value{num: 0}
		}
		return value{num: l.num / r.num}
	case "%":
		if r.num == 0 {
			return value{num: 0}
		}
		return value{num: l.num % r.num}
	case "&&":
		return value{b: l.b && r.b}
	case "||":
		return value{b: l.b || r.b}
	}
	// Comparison; operand kinds already agree.
	if n.l.kind() == kindStr {
		return value{b: cmpStr(n.op, l.str, r.str)}
	}
	return value{b: cmpNum(n.op, l.num, r.num)}
}

func cmpNum(op string, l, r int64) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	default:
		return l >= r
	}
}

func cmpStr(op string, l, r string) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	default:
		return l >= r
	}
}

type notOp struct{ n node }

func (n notOp) kind() kind { return kindBool }
func (n notOp) eval(e *env) value {
	return value{b: !n.n.eval(e).b}
}

type negOp struct{ n node }

func (n negOp) kind() kind { return kindNum }
func (n negOp) eval(e *env) value {
	return value{num: -n.n.eval(e).num}
}

var varKinds = map[string]kind{
	"lines": kindNum,
	"chars": kindNum,
	"words": kindNum,
	"sloc":  kindNum,
	"size":  kindNum,
	"mtime": kindNum,
	"ext":   kindStr,
	"name":  kindStr,
}

// Expr is a parsed, type-checked filter expression.
type Expr struct {
	root node
	vars map[string]bool
}

// ParseExpr parses src. The result must be boolean at the top level.
func ParseExpr(src string) (*Expr, error) {
	p := &parser{src: src, vars: make(map[string]bool)}
	p.next()
	root, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBadFilterExpr, err)
	}
	if p.tok.typ != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q", types.ErrBadFilterExpr, p.tok.text)
	}
	if root.kind() != kindBool {
		return nil, fmt.Errorf("%w: expression is %s, not boolean", types.ErrBadFilterExpr, root.kind())
	}
	return &Expr{root: root, vars: p.vars}, nil
}

// References reports whether the expression mentions the named variable.
// Used to enable optional counters only when something will read them.
func (x *Expr) References(name string) bool { return x.vars[name] }

// Match evaluates the expression against one file's measurements.
func (x *Expr) Match(s *types.FileStats) bool {
	e := bindStats(s)
	return x.root.eval(&e).b
}

type tokType int

const (
	tokEOF tokType = iota
	tokNum
	tokStr
	tokIdent
	tokOp
)

type token struct {
	typ  tokType
	text string
	num  int64
}

type parser struct {
	src  string
	pos  int
	tok  token
	vars map[string]bool
	err  error
}

func (p *parser) next() {
	if p.err != nil {
		return
	}
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = token{typ: tokEOF}
		return
	}
	c := p.src[p.pos]
	switch {
	case c >= '0' && c <= '9':
		p.lexNumber()
	case c == '"' || c == '\'':
		p.lexString(c)
	case isIdentStart(rune(c)):
		p.lexIdent()
	default:
		p.lexOp()
	}
}

func (p *parser) lexNumber() {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
	if err != nil {
		p.err = fmt.Errorf("bad number %q", p.src[start:p.pos])
		return
	}
	// Optional size suffix: k, m, g, with or without a trailing b.
	if p.pos < len(p.src) {
		mult := int64(0)
		switch lower(p.src[p.pos]) {
		case 'k':
			mult = 1 << 10
		case 'm':
			mult = 1 << 20
		case 'g':
			mult = 1 << 30
		}
		if mult > 0 {
			p.pos++
			if p.pos < len(p.src) && lower(p.src[p.pos]) == 'b' {
				p.pos++
			}
			n *= mult
		}
	}
	p.tok = token{typ: tokNum, num: n, text: p.src[start:p.pos]}
}

func (p *parser) lexString(quote byte) {
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != quote {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.err = fmt.Errorf("unterminated string")
		return
	}
	p.tok = token{typ: tokStr, text: p.src[start:p.pos]}
	p.pos++
}

func (p *parser) lexIdent() {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(rune(p.src[p.pos])) {
		p.pos++
	}
	p.tok = token{typ: tokIdent, text: p.src[start:p.pos]}
}

var operators = []string{"&&", "||", "==", "!=", "<=", ">=", "<", ">", "!", "+", "-", "*", "/", "%", "(", ")"}

func (p *parser) lexOp() {
	rest := p.src[p.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			p.pos += len(op)
			p.tok = token{typ: tokOp, text: op}
			return
		}
	}
	p.err = fmt.Errorf("unexpected character %q", rest[0])
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func (p *parser) accept(ops ...string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	for _, op := range ops {
		if p.tok.typ == tokOp && p.tok.text == op {
			p.next()
			return op, true
		}
		if p.tok.typ == tokIdent && p.tok.text == op {
			p.next()
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept("||", "or"); !ok {
			return left, p.err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if left.kind() != kindBool || right.kind() != kindBool {
			return nil, fmt.Errorf("|| needs boolean operands")
		}
		left = binOp{op: "||", l: left, r: right, k: kindBool}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept("&&", "and"); !ok {
			return left, p.err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if left.kind() != kindBool || right.kind() != kindBool {
			return nil, fmt.Errorf("&& needs boolean operands")
		}
		left = binOp{op: "&&", l: left, r: right, k: kindBool}
	}
}

func (p *parser) parseNot() (node, error) {
	if _, ok := p.accept("!", "not"); ok {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if inner.kind() != kindBool {
			return nil, fmt.Errorf("! needs a boolean operand")
		}
		return notOp{n: inner}, nil
	}
	return p.parseCmp()
}

func (p *parser) parseCmp() (node, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	op, ok := p.accept("==", "!=", "<=", ">=", "<", ">")
	if !ok {
		return left, p.err
	}
	right, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	left, right, err = coerce(left, right)
	if err != nil {
		return nil, err
	}
	return binOp{op: op, l: left, r: right, k: kindBool}, nil
}

// coerce aligns comparison operand kinds. A string literal compared against
// a numeric expression is reinterpreted as a date when it parses as one,
// which makes `mtime >= "2024-01-01"` work.
func coerce(l, r node) (node, node, error) {
	if l.kind() == r.kind() {
		if l.kind() == kindBool {
			return nil, nil, fmt.Errorf("cannot compare booleans")
		}
		return l, r, nil
	}
	if l.kind() == kindNum {
		if lit, ok := r.(strLit); ok {
			if n, ok := parseDate(lit.v); ok {
				return l, numLit{v: n}, nil
			}
		}
	}
	if r.kind() == kindNum {
		if lit, ok := l.(strLit); ok {
			if n, ok := parseDate(lit.v); ok {
				return numLit{v: n}, r, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("cannot compare %s with %s", l.kind(), r.kind())
}

var dateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(s string) (int64, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}

func (p *parser) parseSum() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.accept("+", "-")
		if !ok {
			return left, p.err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if left.kind() != kindNum || right.kind() != kindNum {
			return nil, fmt.Errorf("%s needs numeric operands", op)
		}
		left = binOp{op: op, l: left, r: right, k: kindNum}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.accept("*", "/", "%")
		if !ok {
			return left, p.err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if left.kind() != kindNum || right.kind() != kindNum {
			return nil, fmt.Errorf("%s needs numeric operands", op)
		}
		left = binOp{op: op, l: left, r: right, k: kindNum}
	}
}

func (p *parser) parseUnary() (node, error) {
	if _, ok := p.accept("-"); ok {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if inner.kind() != kindNum {
			return nil, fmt.Errorf("unary - needs a numeric operand")
		}
		return negOp{n: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.err != nil {
		return nil, p.err
	}
	switch p.tok.typ {
	case tokNum:
		n := numLit{v: p.tok.num}
		p.next()
		return n, p.err
	case tokStr:
		n := strLit{v: p.tok.text}
		p.next()
		return n, p.err
	case tokIdent:
		name := p.tok.text
		p.next()
		if p.err != nil {
			return nil, p.err
		}
		switch name {
		case "true":
			return boolLit{v: true}, nil
		case "false":
			return boolLit{v: false}, nil
		}
		k, ok := varKinds[name]
		if !ok {
			return nil, fmt.Errorf("unknown variable %q", name)
		}
		p.vars[name] = true
		return varRef{name: name, k: k}, nil
	case tokOp:
		if p.tok.text == "(" {
			p.next()
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.accept(")"); !ok {
				return nil, fmt.Errorf("missing )")
			}
			return inner, p.err
		}
	}
	return nil, fmt.Errorf("unexpected %q", p.tok.text)
}
