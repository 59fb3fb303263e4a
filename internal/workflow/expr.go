package workflow

import (
	"fmt"
	"strings"
	"unicode"
)

// This file implements the small expression language used inside
// ${{ ... }} blocks and job `if:` conditions: string literals, context
// paths (github.event_name, github.event.pull_request.labels.*.name),
// ==, !=, !, && and ||, and the contains()/format() functions. The
// && / || operators are value-returning, as on the CI platform, so
// `cond && a || b` selects between a and b.

// Expr is a parsed expression node.
type Expr interface {
	eval(ctx *Context) (any, error)
}

// Context supplies the values context paths resolve against.
type Context struct {
	Workflow  string
	EventName string
	Ref       string
	RefName   string
	RunID     string
	RunNumber string
	SHA       string
	// Labels are the PR label names, backing the
	// event.pull_request.labels.*.name wildcard path.
	Labels []string
}

// lookup resolves a dotted context path.
func (c *Context) lookup(path string) (any, error) {
	switch path {
	case "github.workflow":
		return c.Workflow, nil
	case "github.event_name":
		return c.EventName, nil
	case "github.ref":
		return c.Ref, nil
	case "github.ref_name":
		return c.RefName, nil
	case "github.run_id":
		return c.RunID, nil
	case "github.run_number":
		return c.RunNumber, nil
	case "github.sha":
		return c.SHA, nil
	case "github.event.pull_request.labels.*.name":
		out := make([]any, len(c.Labels))
		for i, l := range c.Labels {
			out[i] = l
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown context path %q", path)
	}
}

type litExpr struct{ value any }

func (e litExpr) eval(*Context) (any, error) { return e.value, nil }

type pathExpr struct{ path string }

func (e pathExpr) eval(ctx *Context) (any, error) { return ctx.lookup(e.path) }

type notExpr struct{ operand Expr }

func (e notExpr) eval(ctx *Context) (any, error) {
	v, err := e.operand.eval(ctx)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

type binExpr struct {
	op          string
	left, right Expr
}

func (e binExpr) eval(ctx *Context) (any, error) {
	l, err := e.left.eval(ctx)
	if err != nil {
		return nil, err
	}
	switch e.op {
	case "&&":
		if !truthy(l) {
			return l, nil
		}
		return e.right.eval(ctx)
	case "||":
		if truthy(l) {
			return l, nil
		}
		return e.right.eval(ctx)
	}

	r, err := e.right.eval(ctx)
	if err != nil {
		return nil, err
	}
	switch e.op {
	case "==":
		return equal(l, r), nil
	case "!=":
		return !equal(l, r), nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", e.op)
	}
}

type callExpr struct {
	name string
	args []Expr
}

func (e callExpr) eval(ctx *Context) (any, error) {
	args := make([]any, len(e.args))
	for i, a := range e.args {
		v, err := a.eval(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch e.name {
	case "contains":
		if len(args) != 2 {
			return nil, fmt.Errorf("contains() takes 2 arguments, got %d", len(args))
		}
		return contains(args[0], args[1]), nil
	case "format":
		if len(args) == 0 {
			return nil, fmt.Errorf("format() needs a format string")
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("format() first argument must be a string")
		}
		return formatString(s, args[1:]), nil
	default:
		return nil, fmt.Errorf("unknown function %q", e.name)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case []any:
		return true
	default:
		return true
	}
}

func equal(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	return a == b
}

func contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case string:
		n, ok := needle.(string)
		return ok && strings.Contains(h, n)
	case []any:
		for _, item := range h {
			if equal(item, needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// formatString replaces {0}, {1}, ... placeholders.
func formatString(s string, args []any) string {
	for i, a := range args {
		s = strings.ReplaceAll(s, fmt.Sprintf("{%d}", i), stringify(a))
	}
	return s
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ParseExpr parses one expression (the text between ${{ and }}, or an
// if: condition body).
func ParseExpr(src string) (Expr, error) {
	p := &exprParser{src: src}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected trailing input at %q", p.src[p.pos:])
	}
	return e, nil
}

// EvalExpr parses and evaluates an expression against the context.
func EvalExpr(src string, ctx *Context) (any, error) {
	e, err := ParseExpr(src)
	if err != nil {
		return nil, err
	}
	return e.eval(ctx)
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *exprParser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.consume("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binExpr{op: "||", left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.consume("&&") {
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = binExpr{op: "&&", left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseEquality() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.consume("=="):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binExpr{op: "==", left: left, right: right}
		case p.consume("!="):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binExpr{op: "!=", left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (Expr, error) {
	p.skipSpace()
	// Bare "!" negation; "!=" is handled by parseEquality before this.
	if p.pos < len(p.src) && p.src[p.pos] == '!' &&
		(p.pos+1 >= len(p.src) || p.src[p.pos+1] != '=') {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	switch c := p.src[p.pos]; {
	case c == '(':
		p.pos++
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.consume(")") {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return e, nil
	case c == '\'':
		return p.parseString()
	default:
		return p.parseIdent()
	}
}

func (p *exprParser) parseString() (Expr, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\'' {
			// Doubled quote is an escaped quote.
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'' {
				sb.WriteByte('\'')
				p.pos += 2
				continue
			}
			p.pos++
			return litExpr{value: sb.String()}, nil
		}
		sb.WriteByte(c)
		p.pos++
	}
	return nil, fmt.Errorf("unterminated string literal")
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '.' || c == '*' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *exprParser) parseIdent() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("unexpected character %q", p.src[p.pos])
	}
	ident := p.src[start:p.pos]

	switch ident {
	case "true":
		return litExpr{value: true}, nil
	case "false":
		return litExpr{value: false}, nil
	}

	// Function call.
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		p.pos++
		var args []Expr
		p.skipSpace()
		if !p.consume(")") {
			for {
				arg, err := p.parseOr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.consume(",") {
					continue
				}
				if p.consume(")") {
					break
				}
				return nil, fmt.Errorf("expected , or ) in %s() arguments", ident)
			}
		}
		return callExpr{name: ident, args: args}, nil
	}

	return pathExpr{path: ident}, nil
}
