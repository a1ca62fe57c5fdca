package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits src into tokens. Keywords are returned as identifiers and
// resolved by the parser.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c):
			start := i
			for i < len(src) && unicode.IsDigit(rune(src[i])) {
				i++
			}
			toks = append(toks, token{kind: tokInt, text: src[start:i], pos: start})
		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(src) && (src[i] == '_' || unicode.IsLetter(rune(src[i])) || unicode.IsDigit(rune(src[i]))) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			op := ""
			for _, cand := range []string{"<=", ">=", "==", "!=", "&&", "||", "<", ">", "+", "-", "*", "/", "%", "!", "="} {
				if strings.HasPrefix(src[i:], cand) {
					op = cand
					break
				}
			}
			if op == "" {
				return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
			}
			if op == "=" {
				op = "=="
				toks = append(toks, token{kind: tokOp, text: op, pos: i})
				i++
				continue
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

// Parse parses src as an expression.
func Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	toks, err := lex(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	p := &parser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("parse %q: unexpected %q at offset %d", src, tok.text, tok.pos)
	}
	return e, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

// acceptOp consumes the next token if it is one of ops, returning its canonical spelling.
func (p *parser) acceptOp(ops ...string) (string, bool) {
	tok := p.peek()
	var text string
	switch tok.kind {
	case tokOp:
		text = tok.text
	case tokIdent:
		text = tok.text
	default:
		return "", false
	}
	for _, op := range ops {
		if text == op {
			p.next()
			return canonical(op), true
		}
	}
	return "", false
}

func canonical(op string) string {
	switch op {
	case "&&":
		return OpAnd
	case "||":
		return OpOr
	case "!":
		return OpNot
	}
	return op
}

func (p *parser) parseOr() (Expr, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("or", "||")
		if !ok {
			return x, nil
		}
		y, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) parseAnd() (Expr, error) {
	x, err := p.parseRel()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("and", "&&")
		if !ok {
			return x, nil
		}
		y, err := p.parseRel()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) parseRel() (Expr, error) {
	x, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("<=", ">=", "==", "!=", "<", ">")
	if !ok {
		return x, nil
	}
	y, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: op, X: x, Y: y}, nil
}

func (p *parser) parseAdd() (Expr, error) {
	x, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return x, nil
		}
		y, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) parseMul() (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "%")
		if !ok {
			return x, nil
		}
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if op, ok := p.acceptOp("-", "not", "!"); ok {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokInt:
		v, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", tok.text, err)
		}
		return &IntLit{Value: v}, nil
	case tokIdent:
		switch tok.text {
		case "true":
			return &BoolLit{Value: true}, nil
		case "false":
			return &BoolLit{Value: false}, nil
		case "and", "or", "not":
			return nil, fmt.Errorf("unexpected keyword %q at offset %d", tok.text, tok.pos)
		}
		return &Ident{Name: tok.text}, nil
	case tokLParen:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("expected ')' at offset %d", closing.pos)
		}
		return e, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %q at offset %d", tok.text, tok.pos)
}
