// Package formula compiles small arithmetic expressions over named numeric
// variables into an evaluable tree.
//
// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/" | "%") unary }
//	unary   = ("+" | "-") unary | power
//	power   = primary [ "^" unary ]
//	primary = number | ident | ident "(" [ expr { "," expr } ] ")" | "(" expr ")"
package formula

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrEvaluation is wrapped by every runtime evaluation failure.
var ErrEvaluation = errors.New("formula evaluation failed")

// CompileError reports a syntactically invalid expression.
type CompileError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling %q at %d: %s", e.Expr, e.Pos, e.Msg)
}

// Expr is a compiled expression. It is immutable and safe for concurrent use.
type Expr struct {
	src  string
	vars []string
	root node
}

// String returns the source expression.
func (e *Expr) String() string { return e.src }

// Vars returns the variable names the expression was compiled against.
func (e *Expr) Vars() []string { return append([]string(nil), e.vars...) }

// Eval evaluates the expression. Variables missing from vals evaluate to 0.
func (e *Expr) Eval(vals map[string]float64) (float64, error) {
	v, err := e.root.eval(vals)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q produced %v", ErrEvaluation, e.src, v)
	}
	return v, nil
}

// Compile parses expr, allowing only the given variable names.
func Compile(expr string, vars ...string) (*Expr, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(vars))
	for _, v := range vars {
		allowed[v] = true
	}

	p := &parser{src: expr, toks: toks, vars: allowed}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}

	return &Expr{src: expr, vars: append([]string(nil), vars...), root: root}, nil
}

// MustCompile is like Compile but panics on error. For tests and constants.
func MustCompile(expr string, vars ...string) *Expr {
	e, err := Compile(expr, vars...)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	src  string
	toks []token
	pos  int
	vars map[string]bool
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &CompileError{Expr: p.src, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind, text string) error {
	t := p.next()
	if t.kind != kind {
		if t.kind == tokEOF {
			return p.errorf(t, "expected %q, got end of expression", text)
		}
		return p.errorf(t, "expected %q, got %q", text, t.text)
	}
	return nil
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.text[0], l: left, r: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/" && t.text != "%") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.text[0], l: left, r: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return neg{operand}, nil
		}
		return operand, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "^" {
		p.next()
		// right-associative: 2^3^2 == 2^(3^2)
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binary{op: '^', l: base, r: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return num(t.num), nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		if !p.vars[t.text] {
			return nil, p.errorf(t, "unknown variable %q", t.text)
		}
		return variable(t.text), nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of expression")
	default:
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
}

func (p *parser) parseCall(name token) (node, error) {
	fname := strings.TrimPrefix(name.text, "Math.")
	fn, ok := functions[fname]
	if !ok {
		return nil, p.errorf(name, "unknown function %q", name.text)
	}
	p.next() // (

	var args []node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	if len(args) != fn.arity {
		return nil, p.errorf(name, "%s expects %d argument(s), got %d", fname, fn.arity, len(args))
	}
	return call{name: fname, fn: fn.impl, args: args}, nil
}
