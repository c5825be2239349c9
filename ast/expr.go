package ast

import "strconv"

// ComparisonNode compares two operands with one of
// ==, !=, ===, !==, <, >, <=, >=, or = (an alias for ==).
type ComparisonNode struct {
	Pos
	Left, Op, Right string
}

func (n *ComparisonNode) Kind() Kind     { return KindComparison }
func (n *ComparisonNode) String() string { return n.Left + " " + n.Op + " " + n.Right }

type AndNode struct {
	Pos
	Left, Right Node
}

func (n *AndNode) Kind() Kind       { return KindAnd }
func (n *AndNode) Children() []Node { return []Node{n.Left, n.Right} }
func (n *AndNode) String() string   { return "(" + n.Left.String() + " && " + n.Right.String() + ")" }

type OrNode struct {
	Pos
	Left, Right Node
}

func (n *OrNode) Kind() Kind       { return KindOr }
func (n *OrNode) Children() []Node { return []Node{n.Left, n.Right} }
func (n *OrNode) String() string   { return "(" + n.Left.String() + " || " + n.Right.String() + ")" }

type NotNode struct {
	Pos
	Arg Node
}

func (n *NotNode) Kind() Kind       { return KindNot }
func (n *NotNode) Children() []Node { return []Node{n.Arg} }
func (n *NotNode) String() string   { return "!" + n.Arg.String() }

// LiteralNode is a single operand evaluated for truthiness.  An empty Expr
// denotes the constant Value, which is what an empty condition reduces to.
type LiteralNode struct {
	Pos
	Expr  string
	Value bool
}

func (n *LiteralNode) Kind() Kind { return KindLiteral }
func (n *LiteralNode) String() string {
	if n.Expr == "" {
		return strconv.FormatBool(n.Value)
	}
	return n.Expr
}
