// Package ast contains definitions for the in-memory representation of a
// bracket template: the directive tree produced by the parser and the boolean
// expression trees attached to conditional directives.
package ast

import (
	"bytes"
	"fmt"
	"strings"
)

// Node represents any singular piece of a template.  For example, a sequence
// of raw text or a loop directive.
type Node interface {
	Kind() Kind
	String() string // String returns the source representation of this node.
	Position() Pos  // byte position of start of node in the input text
}

// ParentNode is any Node that has descendent nodes rendered in order.
type ParentNode interface {
	Node
	Children() []Node
}

// Container is a ParentNode that the parser may push onto its open-directive
// stack and append children to.
type Container interface {
	ParentNode
	Append(Node)
}

// Branching is implemented by the conditional nodes that may collect else-if
// and else dependents.
type Branching interface {
	Node
	AddDependent(Node)
}

// Pos represents a byte position in the original input text from which this
// template was parsed.  It is useful to construct helpful error messages.
type Pos int

// Position returns this position.  It is implemented as a method so that Nodes
// may embed a Pos and fulfill this part of the Node interface for free.
func (p Pos) Position() Pos {
	return p
}

// Tree is a parsed template document.
type Tree struct {
	Name     string
	Root     *RootNode
	Requires []string // resolved names of every document pulled in by require
}

// RootNode holds a whole document.
type RootNode struct {
	Pos
	Nodes []Node
}

func (n *RootNode) Kind() Kind        { return KindRoot }
func (n *RootNode) Children() []Node  { return n.Nodes }
func (n *RootNode) Append(child Node) { n.Nodes = append(n.Nodes, child) }
func (n *RootNode) String() string    { return join(n.Nodes) }

// TextNode is a run of literal text that may contain {placeholders}.
type TextNode struct {
	Pos
	Text string
}

func (n *TextNode) Kind() Kind     { return KindText }
func (n *TextNode) String() string { return n.Text }

// ForNode repeats its body a number of times.
type ForNode struct {
	Pos
	Times string // raw count expression
	Body  []Node
}

func (n *ForNode) Kind() Kind        { return KindFor }
func (n *ForNode) Children() []Node  { return n.Body }
func (n *ForNode) Append(child Node) { n.Body = append(n.Body, child) }
func (n *ForNode) String() string {
	return "[for " + n.Times + " {" + join(n.Body) + "}]"
}

// ForeachNode iterates over a list or map.
type ForeachNode struct {
	Pos
	List string // variable path naming the collection
	Key  string // optional
	Item string
	Body []Node
}

func (n *ForeachNode) Kind() Kind        { return KindForeach }
func (n *ForeachNode) Children() []Node  { return n.Body }
func (n *ForeachNode) Append(child Node) { n.Body = append(n.Body, child) }
func (n *ForeachNode) String() string {
	var binding = n.Item
	if n.Key != "" {
		binding = n.Key + " => " + n.Item
	}
	return "[foreach " + n.List + " as " + binding + " {" + join(n.Body) + "}]"
}

// IfNode renders its body when Cond holds, otherwise the first matching
// dependent.
type IfNode struct {
	Pos
	Source     string // raw condition text
	Cond       Node
	Body       []Node
	Dependents []Node // *ElseIfNode and *ElseNode, in source order
}

func (n *IfNode) Kind() Kind            { return KindIf }
func (n *IfNode) Children() []Node      { return n.Body }
func (n *IfNode) Append(child Node)     { n.Body = append(n.Body, child) }
func (n *IfNode) AddDependent(dep Node) { n.Dependents = append(n.Dependents, dep) }
func (n *IfNode) String() string {
	return "[if " + n.Source + " {" + join(n.Body) + "}]" + join(n.Dependents)
}

// ElseIfNode is an alternative branch of an IfNode.  It only carries
// dependents of its own when it appears without a preceding if.
type ElseIfNode struct {
	Pos
	Source     string
	Cond       Node
	Body       []Node
	Dependents []Node
}

func (n *ElseIfNode) Kind() Kind            { return KindElseIf }
func (n *ElseIfNode) Children() []Node      { return n.Body }
func (n *ElseIfNode) Append(child Node)     { n.Body = append(n.Body, child) }
func (n *ElseIfNode) AddDependent(dep Node) { n.Dependents = append(n.Dependents, dep) }
func (n *ElseIfNode) String() string {
	return "[else if " + n.Source + " {" + join(n.Body) + "}]" + join(n.Dependents)
}

// ElseNode is the fallback branch of an IfNode.
type ElseNode struct {
	Pos
	Body []Node
}

func (n *ElseNode) Kind() Kind        { return KindElse }
func (n *ElseNode) Children() []Node  { return n.Body }
func (n *ElseNode) Append(child Node) { n.Body = append(n.Body, child) }
func (n *ElseNode) String() string    { return "[else {" + join(n.Body) + "}]" }

// RequireNode includes another document, parsed at compile time.
type RequireNode struct {
	Pos
	Path string    // raw path expression
	Name string    // resolved document name
	Body *RootNode // empty when the document could not be loaded
}

func (n *RequireNode) Kind() Kind { return KindRequire }
func (n *RequireNode) Children() []Node {
	if n.Body == nil {
		return nil
	}
	return []Node{n.Body}
}
func (n *RequireNode) String() string { return "[require(" + n.Path + ")]" }

// StrFilterNode applies a filter chain to a single expression.
type StrFilterNode struct {
	Pos
	Expr    string
	Filters []string
}

func (n *StrFilterNode) Kind() Kind { return KindStrFilter }
func (n *StrFilterNode) String() string {
	return "[str_filter(" + n.Expr + ", (" + strings.Join(n.Filters, ", ") + "))]"
}

func join(nodes []Node) string {
	var b bytes.Buffer
	for _, n := range nodes {
		fmt.Fprint(&b, n)
	}
	return b.String()
}
