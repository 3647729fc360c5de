// Package expr compiles small boolean expressions used by branch nodes.
// Expressions are compiled once when the node is built; evaluation against
// a Resolver does zero parsing.
package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Resolver supplies values for identifier paths such as "vars.threshold"
// or a bare variable name.
type Resolver interface {
	Resolve(path []string) (any, bool)
}

// Expr is a compiled expression node.
type Expr interface {
	// Bool evaluates the expression against r.
	Bool(r Resolver) (bool, error)
}

type logicExpr struct {
	and         bool // false = or
	left, right Expr
}

func (e *logicExpr) Bool(r Resolver) (bool, error) {
	left, err := e.left.Bool(r)
	if err != nil {
		return false, err
	}
	if e.and && !left {
		return false, nil
	}
	if !e.and && left {
		return true, nil
	}
	return e.right.Bool(r)
}

type notExpr struct {
	inner Expr
}

func (e *notExpr) Bool(r Resolver) (bool, error) {
	v, err := e.inner.Bool(r)
	return !v, err
}

type compareExpr struct {
	op          operator
	left, right operand
}

func (e *compareExpr) Bool(r Resolver) (bool, error) {
	lv, err := e.left.value(r)
	if err != nil {
		return false, err
	}
	rv, err := e.right.value(r)
	if err != nil {
		return false, err
	}
	return apply(e.op, lv, rv)
}

type operand struct {
	literal any
	path    []string // nil when literal
}

func (o operand) value(r Resolver) (any, error) {
	if o.path == nil {
		return o.literal, nil
	}
	v, ok := r.Resolve(o.path)
	if !ok {
		return nil, fmt.Errorf("expr: %q is not defined", strings.Join(o.path, "."))
	}
	return v, nil
}

// Compile parses source into an evaluable expression.
func Compile(source string) (Expr, error) {
	s := &scanner{src: source}
	toks, err := s.run()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tEOF {
		return nil, fmt.Errorf("expr: trailing input %q", p.peek().text)
	}
	return e, nil
}

// ----- lexer -----

type tokKind int

const (
	tEOF tokKind = iota
	tIdent
	tNumber
	tString
	tBool
	tOp
	tLParen
	tRParen
)

type tok struct {
	kind tokKind
	text string
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) run() ([]tok, error) {
	var toks []tok
	for s.pos < len(s.src) {
		ch := s.src[s.pos]
		switch {
		case unicode.IsSpace(rune(ch)):
			s.pos++
		case ch == '(':
			toks = append(toks, tok{tLParen, "("})
			s.pos++
		case ch == ')':
			toks = append(toks, tok{tRParen, ")"})
			s.pos++
		case ch == '=' || ch == '!' || ch == '<' || ch == '>':
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '=' {
				toks = append(toks, tok{tOp, s.src[s.pos : s.pos+2]})
				s.pos += 2
			} else {
				toks = append(toks, tok{tOp, string(ch)})
				s.pos++
			}
		case ch == '"' || ch == '\'':
			lit, err := s.scanString(ch)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok{tString, lit})
		case unicode.IsDigit(rune(ch)) || (ch == '-' && s.pos+1 < len(s.src) && unicode.IsDigit(rune(s.src[s.pos+1]))):
			toks = append(toks, tok{tNumber, s.scanNumber()})
		case unicode.IsLetter(rune(ch)) || ch == '_':
			word := s.scanWord()
			if low := strings.ToLower(word); low == "true" || low == "false" {
				toks = append(toks, tok{tBool, low})
			} else {
				toks = append(toks, tok{tIdent, word})
			}
		default:
			return nil, fmt.Errorf("expr: unexpected character %q at %d", ch, s.pos)
		}
	}
	return append(toks, tok{tEOF, ""}), nil
}

func (s *scanner) scanString(quote byte) (string, error) {
	start := s.pos
	j := s.pos + 1
	for j < len(s.src) && s.src[j] != quote {
		if s.src[j] == '\\' {
			j++
		}
		j++
	}
	if j >= len(s.src) {
		return "", fmt.Errorf("expr: unterminated string at %d", start)
	}
	inner := s.src[start+1 : j]
	inner = strings.ReplaceAll(inner, `\"`, `"`)
	inner = strings.ReplaceAll(inner, `\'`, `'`)
	inner = strings.ReplaceAll(inner, `\\`, `\`)
	s.pos = j + 1
	return inner, nil
}

func (s *scanner) scanNumber() string {
	start := s.pos
	if s.src[s.pos] == '-' {
		s.pos++
	}
	for s.pos < len(s.src) && (unicode.IsDigit(rune(s.src[s.pos])) || s.src[s.pos] == '.') {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *scanner) scanWord() string {
	start := s.pos
	for s.pos < len(s.src) {
		ch := s.src[s.pos]
		if unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) || ch == '_' || ch == '.' {
			s.pos++
			continue
		}
		break
	}
	return s.src[start:s.pos]
}

// ----- parser -----
//
// or = and ( OR and )*
// and = unary ( AND unary )*
// unary = NOT unary | "(" or ")" | comparison

type parser struct {
	toks []tok
	pos  int
}

func (p *parser) peek() tok {
	return p.toks[p.pos]
}

func (p *parser) next() tok {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	return t.kind == tIdent && strings.EqualFold(t.text, word)
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicExpr{and: false, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("and") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &logicExpr{and: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.keyword("not") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{inner: inner}, nil
	}
	if p.peek().kind == tLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tRParen {
			return nil, fmt.Errorf("expr: expected ) but got %q", p.peek().text)
		}
		p.next()
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	var op operator
	switch {
	case t.kind == tOp:
		op = operator(t.text)
		p.next()
	case p.keyword("contains"):
		op = opContains
		p.next()
	case p.keyword("matches"):
		op = opMatches
		p.next()
	default:
		return nil, fmt.Errorf("expr: expected comparison operator, got %q", t.text)
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &compareExpr{op: op, left: left, right: right}, nil
}

func (p *parser) parseOperand() (operand, error) {
	t := p.peek()
	switch t.kind {
	case tString:
		p.next()
		return operand{literal: t.text}, nil
	case tNumber:
		p.next()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return operand{}, fmt.Errorf("expr: invalid number %q", t.text)
		}
		return operand{literal: f}, nil
	case tBool:
		p.next()
		return operand{literal: t.text == "true"}, nil
	case tIdent:
		p.next()
		return operand{path: strings.Split(t.text, ".")}, nil
	default:
		return operand{}, fmt.Errorf("expr: expected operand, got %q", t.text)
	}
}
