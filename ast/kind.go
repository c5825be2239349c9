package ast

import (
	"bytes"
	"encoding/gob"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	KindRoot Kind = iota
	KindText
	KindFor
	KindForeach
	KindIf
	KindElseIf
	KindElse
	KindRequire
	KindStrFilter
	KindComparison
	KindAnd
	KindOr
	KindNot
	KindLiteral
)

var kindNames = [...]string{
	KindRoot:       "root",
	KindText:       "text",
	KindFor:        "for",
	KindForeach:    "foreach",
	KindIf:         "if",
	KindElseIf:     "elseif",
	KindElse:       "else",
	KindRequire:    "require",
	KindStrFilter:  "str_filter",
	KindComparison: "comparison",
	KindAnd:        "and",
	KindOr:         "or",
	KindNot:        "not",
	KindLiteral:    "literal",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

func init() {
	gob.Register(&RootNode{})
	gob.Register(&TextNode{})
	gob.Register(&ForNode{})
	gob.Register(&ForeachNode{})
	gob.Register(&IfNode{})
	gob.Register(&ElseIfNode{})
	gob.Register(&ElseNode{})
	gob.Register(&RequireNode{})
	gob.Register(&StrFilterNode{})
	gob.Register(&ComparisonNode{})
	gob.Register(&AndNode{})
	gob.Register(&OrNode{})
	gob.Register(&NotNode{})
	gob.Register(&LiteralNode{})
}

// Encode serializes a parsed tree so that it may be cached and restored with
// Decode.
func Encode(t *Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode restores a tree serialized by Encode.
func Decode(b []byte) (*Tree, error) {
	var t Tree
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Walk calls fn for node and every descendant in depth-first order, including
// the dependents of conditional nodes and their condition trees.  Returning
// false from fn skips the node's descendants.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *IfNode:
		Walk(n.Cond, fn)
		walkList(n.Body, fn)
		walkList(n.Dependents, fn)
		return
	case *ElseIfNode:
		Walk(n.Cond, fn)
		walkList(n.Body, fn)
		walkList(n.Dependents, fn)
		return
	case ParentNode:
		walkList(n.Children(), fn)
	}
}

func walkList(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		Walk(n, fn)
	}
}
