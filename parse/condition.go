package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/bracket/ast"
)

// ConditionError reports a condition that could not be tokenized or reduced.
type ConditionError struct {
	Offset int    // byte offset into the normalized condition
	Near   string // up to 50 bytes of input starting at Offset
	Msg    string
}

func (e *ConditionError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("condition: %s at offset %d", e.Msg, e.Offset)
	}
	return fmt.Sprintf("condition: %s at offset %d near %q", e.Msg, e.Offset, e.Near)
}

const operand = `[A-Za-z_]\w*(?:\.[A-Za-z_0-9]\w*)*` +
	`|'(?:\\.|[^'\\])*'` +
	`|"(?:\\.|[^"\\])*"` +
	`|-?\d+(?:\.\d+)?`

var (
	comparisonPattern = regexp.MustCompile(`^(` + operand + `)\s*(===|!==|==|!=|>=|<=|=|>|<)\s*(` + operand + `)`)
	operandPattern    = regexp.MustCompile(`^(?:` + operand + `)`)
)

type condTokenType int

const (
	tokOperand condTokenType = iota
	tokLeftParen
	tokRightParen
	tokAnd
	tokOr
	tokNot
)

type condToken struct {
	typ  condTokenType
	pos  int
	text string
	node ast.Node // operand nodes only
}

// Condition compiles a boolean expression such as
//
//	user.age >= 18 && (role == 'admin' || !banned)
//
// into its AST.  An empty expression compiles to the constant false.
func Condition(expr string) (ast.Node, error) {
	return compileCondition(expr, DefaultMaxDepth)
}

func compileCondition(expr string, maxDepth int) (node ast.Node, err error) {
	expr = normalizeCondition(expr)
	toks, err := tokenizeCondition(expr)
	if err != nil {
		return nil, err
	}
	var p = &condParser{src: expr, toks: toks, maxDepth: maxDepth}
	defer func() {
		if e := recover(); e != nil {
			ce, ok := e.(*ConditionError)
			if !ok {
				panic(e)
			}
			node, err = nil, ce
		}
	}()
	return p.sequence(false, 0), nil
}

// normalizeCondition drops leading byte order marks and turns non-breaking
// spaces into plain spaces.
func normalizeCondition(expr string) string {
	for strings.HasPrefix(expr, "\uFEFF") {
		expr = expr[len("\uFEFF"):]
	}
	return strings.ReplaceAll(expr, "\u00A0", " ")
}

func tokenizeCondition(expr string) ([]condToken, error) {
	var toks []condToken
	for i := 0; i < len(expr); {
		var rest = expr[i:]
		switch c := rest[0]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
			continue
		case c == '(':
			toks = append(toks, condToken{typ: tokLeftParen, pos: i, text: "("})
			i++
			continue
		case c == ')':
			toks = append(toks, condToken{typ: tokRightParen, pos: i, text: ")"})
			i++
			continue
		case strings.HasPrefix(rest, "&&"):
			toks = append(toks, condToken{typ: tokAnd, pos: i, text: "&&"})
			i += 2
			continue
		case strings.HasPrefix(rest, "||"):
			toks = append(toks, condToken{typ: tokOr, pos: i, text: "||"})
			i += 2
			continue
		case c == '!' && !strings.HasPrefix(rest, "!="):
			toks = append(toks, condToken{typ: tokNot, pos: i, text: "!"})
			i++
			continue
		}

		if m := comparisonPattern.FindStringSubmatch(rest); m != nil {
			toks = append(toks, condToken{typ: tokOperand, pos: i, text: m[0], node: &ast.ComparisonNode{
				Pos:   ast.Pos(i),
				Left:  m[1],
				Op:    m[2],
				Right: m[3],
			}})
			i += len(m[0])
			continue
		}
		if m := operandPattern.FindString(rest); m != "" {
			toks = append(toks, condToken{typ: tokOperand, pos: i, text: m, node: &ast.LiteralNode{
				Pos:  ast.Pos(i),
				Expr: m,
			}})
			i += len(m)
			continue
		}
		return nil, &ConditionError{Offset: i, Near: near(expr, i), Msg: "unrecognized token"}
	}
	return toks, nil
}

func near(s string, i int) string {
	if len(s)-i > 50 {
		return s[i : i+50]
	}
	return s[i:]
}

// condParser reduces a token stream into an expression tree.  Within one
// parenthesized group, && binds tighter than ||, and both associate to the
// left.
type condParser struct {
	src      string
	toks     []condToken
	i        int
	depth    int
	maxDepth int
}

// element is one entry of a group being reduced: an operand or an operator.
type element struct {
	node ast.Node
	op   condTokenType
	pos  int
}

func (p *condParser) next() (condToken, bool) {
	if p.i >= len(p.toks) {
		return condToken{}, false
	}
	tok := p.toks[p.i]
	p.i++
	return tok, true
}

func (p *condParser) errorf(pos int, format string, args ...interface{}) {
	panic(&ConditionError{Offset: pos, Near: near(p.src, pos), Msg: fmt.Sprintf(format, args...)})
}

// sequence reads a group up to the matching ')' (when nested) or the end of
// input, then folds it.
func (p *condParser) sequence(nested bool, open int) ast.Node {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		p.errorf(open, "nesting exceeds %d levels", p.maxDepth)
	}
	defer func() { p.depth-- }()

	var elems []element
	for {
		tok, ok := p.next()
		if !ok {
			if nested {
				p.errorf(open, "unclosed (")
			}
			return p.fold(elems, 0)
		}
		switch tok.typ {
		case tokLeftParen:
			elems = append(elems, element{node: p.sequence(true, tok.pos), pos: tok.pos})
		case tokRightParen:
			if !nested {
				p.errorf(tok.pos, "unexpected )")
			}
			return p.fold(elems, tok.pos)
		case tokAnd, tokOr:
			elems = append(elems, element{op: tok.typ, pos: tok.pos})
		case tokNot:
			elems = append(elems, element{node: p.negation(tok), pos: tok.pos})
		case tokOperand:
			elems = append(elems, element{node: tok.node, pos: tok.pos})
		}
	}
}

// negation reads the operand of a '!' token.
func (p *condParser) negation(bang condToken) ast.Node {
	tok, ok := p.next()
	if !ok {
		p.errorf(bang.pos, "! without operand")
	}
	var arg ast.Node
	switch tok.typ {
	case tokLeftParen:
		arg = p.sequence(true, tok.pos)
	case tokNot:
		arg = p.negation(tok)
	case tokOperand:
		arg = tok.node
	default:
		p.errorf(tok.pos, "! without operand")
	}
	return &ast.NotNode{Pos: ast.Pos(bang.pos), Arg: arg}
}

// fold checks that elems alternate operand, operator, operand, ... and
// combines them: first every &&, then every ||.  An empty group is false.
func (p *condParser) fold(elems []element, end int) ast.Node {
	if len(elems) == 0 {
		return &ast.LiteralNode{Pos: ast.Pos(end), Value: false}
	}
	for i, e := range elems {
		var isOperand = e.node != nil
		switch {
		case i%2 == 0 && !isOperand:
			p.errorf(e.pos, "operator without left operand")
		case i%2 == 1 && isOperand:
			p.errorf(e.pos, "expected && or || before operand")
		}
	}
	if len(elems)%2 == 0 {
		var last = elems[len(elems)-1]
		p.errorf(last.pos, "operator without right operand")
	}

	var ored = []ast.Node{elems[0].node}
	for i := 1; i < len(elems); i += 2 {
		var right = elems[i+1].node
		if elems[i].op == tokAnd {
			var left = ored[len(ored)-1]
			ored[len(ored)-1] = &ast.AndNode{Pos: left.Position(), Left: left, Right: right}
		} else {
			ored = append(ored, right)
		}
	}
	var result = ored[0]
	for _, right := range ored[1:] {
		result = &ast.OrNode{Pos: result.Position(), Left: result, Right: right}
	}
	return result
}
