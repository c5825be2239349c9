package eval

import (
	"github.com/robfig/bracket/ast"
	"github.com/robfig/bracket/data"
)

// Condition evaluates a compiled boolean expression.  Nodes that are not part
// of the condition grammar evaluate to false.
func (ev *Evaluator) Condition(node ast.Node, s *Scope) bool {
	switch node := node.(type) {
	case *ast.LiteralNode:
		if node.Expr == "" {
			return node.Value
		}
		return ev.Resolve(node.Expr, s).Truthy()
	case *ast.ComparisonNode:
		return Compare(node.Op, ev.Resolve(node.Left, s), ev.Resolve(node.Right, s))
	case *ast.AndNode:
		return ev.Condition(node.Left, s) && ev.Condition(node.Right, s)
	case *ast.OrNode:
		return ev.Condition(node.Left, s) || ev.Condition(node.Right, s)
	case *ast.NotNode:
		return !ev.Condition(node.Arg, s)
	}
	return false
}

// Compare applies a comparison operator to two resolved operands.  = is an
// alias for ==, and === and !== also require the same type.  Unknown
// operators are false.
func Compare(op string, left, right data.Value) bool {
	switch op {
	case "==", "=":
		return data.Compare(left, right) == 0
	case "!=":
		return data.Compare(left, right) != 0
	case "===":
		return data.Identical(left, right)
	case "!==":
		return !data.Identical(left, right)
	case ">":
		return data.Compare(left, right) > 0
	case "<":
		return data.Compare(left, right) < 0
	case ">=":
		return data.Compare(left, right) >= 0
	case "<=":
		return data.Compare(left, right) <= 0
	}
	return false
}
