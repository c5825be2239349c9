// Package debug prints template trees for inspection.
//
// The output is an indented outline with one header per node:
//
//	Node(type=root)
//	content:
//	├─ [#0] Node(type=text)
//	│   content (text): "Hello"
//	└─ [#1] Node(type=for params={"times":"3"})
//	    content:
//	    └─ [#0] Node(type=text)
//	        content (text): "x"
package debug

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/robfig/bracket/ast"
	"github.com/robfig/bracket/eval"
)

// Options control how much of a tree is printed.
type Options struct {
	MaxDepth  int  // nodes below this depth are elided; 20 when zero
	TrimText  int  // text longer than this many runes is cut; 160 when zero
	ShowEmpty bool // mention nodes without content
}

// Text returns the outline of node.
func Text(node ast.Node, opts Options) string {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 20
	}
	if opts.TrimText <= 0 {
		opts.TrimText = 160
	}
	var p = printer{opts: opts, visited: make(map[ast.Node]bool)}
	p.node(node, "", "", 0)
	return p.b.String()
}

// HTML returns the outline of node, escaped and wrapped in a <pre> block.
func HTML(node ast.Node, opts Options) string {
	return `<pre style="background:#f7f7f7;padding:12px;border-radius:6px;overflow:auto;">` +
		eval.EscapeHTML(Text(node, opts)) +
		"</pre>"
}

// Dump writes the outline of node to w.
func Dump(w io.Writer, node ast.Node, opts Options) error {
	_, err := io.WriteString(w, Text(node, opts))
	return err
}

type printer struct {
	opts    Options
	b       strings.Builder
	visited map[ast.Node]bool
}

const (
	branch     = "├─ "
	lastBranch = "└─ "
	pipe       = "│   "
	blank      = "    "
)

// node prints n after head, with its details indented by indent.
func (p *printer) node(n ast.Node, head, indent string, depth int) {
	p.b.WriteString(head)
	if n == nil {
		p.b.WriteString("<nil>\n")
		return
	}
	if p.visited[n] {
		fmt.Fprintf(&p.b, "%s (ALREADY VISITED)\n", n.Kind())
		return
	}
	p.visited[n] = true

	p.b.WriteString("Node(type=" + n.Kind().String())
	if params := params(n); params != "" {
		p.b.WriteString(" params=" + params)
	}
	p.b.WriteString(")\n")

	if depth >= p.opts.MaxDepth {
		p.line(indent, "... max depth reached ...")
		return
	}

	if text, ok := n.(*ast.TextNode); ok {
		var txt = strings.TrimSpace(text.Text)
		switch {
		case txt != "":
			p.line(indent, "content (text): "+quote(p.trim(txt)))
		case p.opts.ShowEmpty:
			p.line(indent, "content: (empty)")
		}
		return
	}

	if cond := condition(n); cond != nil {
		p.line(indent, "condition:")
		p.node(cond, indent+lastBranch, indent+blank, depth+1)
	}

	var children, dependents = contents(n)
	switch {
	case len(children) > 0:
		p.line(indent, "content:")
		for i, child := range children {
			var last = i == len(children)-1
			p.node(child, indent+connector(last)+fmt.Sprintf("[#%d] ", i), indent+padding(last), depth+1)
		}
	case p.opts.ShowEmpty:
		p.line(indent, "content: (empty)")
	}

	if len(dependents) > 0 {
		p.line(indent, "dependents:")
		for i, dep := range dependents {
			var last = i == len(dependents)-1
			p.node(dep, indent+connector(last), indent+padding(last), depth+1)
		}
	}
}

func (p *printer) line(indent, text string) {
	p.b.WriteString(indent + text + "\n")
}

func (p *printer) trim(s string) string {
	if utf8.RuneCountInString(s) <= p.opts.TrimText {
		return s
	}
	var n int
	for i := range s {
		if n == p.opts.TrimText {
			return s[:i] + "…"
		}
		n++
	}
	return s
}

func connector(last bool) string {
	if last {
		return lastBranch
	}
	return branch
}

func padding(last bool) string {
	if last {
		return blank
	}
	return pipe
}

var newlines = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`, "\t", `\t`)

func quote(s string) string {
	return `"` + newlines.Replace(s) + `"`
}

// params summarizes the fields of n as JSON.
func params(n ast.Node) string {
	var m = map[string]interface{}{}
	switch n := n.(type) {
	case *ast.ForNode:
		m["times"] = n.Times
	case *ast.ForeachNode:
		m["list"] = n.List
		m["item"] = n.Item
		if n.Key != "" {
			m["key"] = n.Key
		}
	case *ast.IfNode:
		m["condition"] = n.Source
	case *ast.ElseIfNode:
		m["condition"] = n.Source
	case *ast.RequireNode:
		m["path"] = n.Path
		m["name"] = n.Name
	case *ast.StrFilterNode:
		m["expr"] = n.Expr
		m["filters"] = n.Filters
	case *ast.ComparisonNode:
		m["left"] = n.Left
		m["op"] = n.Op
		m["right"] = n.Right
	case *ast.LiteralNode:
		if n.Expr != "" {
			m["expr"] = n.Expr
		} else {
			m["value"] = n.Value
		}
	}
	if len(m) == 0 {
		return ""
	}
	var b strings.Builder
	var enc = json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return ""
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func condition(n ast.Node) ast.Node {
	switch n := n.(type) {
	case *ast.IfNode:
		return n.Cond
	case *ast.ElseIfNode:
		return n.Cond
	}
	return nil
}

func contents(n ast.Node) (children, dependents []ast.Node) {
	switch n := n.(type) {
	case *ast.IfNode:
		return n.Body, n.Dependents
	case *ast.ElseIfNode:
		return n.Body, n.Dependents
	case *ast.RequireNode:
		if n.Body == nil {
			return nil, nil
		}
		return n.Body.Nodes, nil
	case *ast.AndNode:
		return []ast.Node{n.Left, n.Right}, nil
	case *ast.OrNode:
		return []ast.Node{n.Left, n.Right}, nil
	case *ast.NotNode:
		return []ast.Node{n.Arg}, nil
	case ast.ParentNode:
		return n.Children(), nil
	}
	return nil, nil
}
