// Package parse converts a bracket template into its in-memory representation
// (AST).
package parse

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"runtime"
	"strings"

	"github.com/robfig/bracket/ast"
	"github.com/robfig/bracket/data"
	"github.com/robfig/bracket/errortypes"
	"github.com/robfig/bracket/eval"
)

// DefaultMaxDepth bounds require nesting and condition grouping when a Parser
// does not set its own limit.
const DefaultMaxDepth = 64

// Loader reads the source of a required document by name.
type Loader interface {
	Load(name string) (string, error)
}

// Parser holds the settings used to build template trees.  The zero value
// parses documents without support for require.
type Parser struct {
	Loader        Loader
	Evaluator     *eval.Evaluator // resolves require paths; defaults to eval.New()
	Globals       *data.Map       // visible to require paths
	StripComments bool            // remove <!-- --> before scanning
	MaxDepth      int
	Logger        *slog.Logger
}

// Parse parses text with comment stripping and no loader.
func Parse(name, text string) (*ast.Tree, error) {
	return (&Parser{StripComments: true}).Parse(name, text)
}

const ident = `[a-zA-Z_]\w*(?:\.[a-zA-Z_0-9]\w*)*`

var directivePattern = regexp.MustCompile(`(?is)` + strings.Join([]string{
	`(?P<foreach>\[\s*foreach\s*(?P<list>` + ident + `)\s+as\s*(?:(?P<key>\w+)\s*=>\s*)?(?P<item>\w+)\s*\{)`,
	`(?P<for>\[\s*for\s*(?P<times>\d+|` + ident + `)\s*\{)`,
	`(?P<if>\[\s*if\s*(?P<cond>.*?)\s*\{)`,
	`(?P<elseif>\[\s*else\s*if\s*(?P<elsecond>.*?)\s*\{)`,
	`(?P<else>\[\s*else\s*\{)`,
	`(?P<require>\[\s*require\s*\(?\s*(?P<path>"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'|` + ident + `)\s*\)?\])`,
	`(?P<strfilter>\[\s*str_filter\s*\((?P<args>.*?)\)\s*\])`,
	`(?P<close>\}\s*\])`,
}, "|"))

var commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

// submatch indexes into directivePattern
var (
	groupForeach   = directivePattern.SubexpIndex("foreach")
	groupList      = directivePattern.SubexpIndex("list")
	groupKey       = directivePattern.SubexpIndex("key")
	groupItem      = directivePattern.SubexpIndex("item")
	groupFor       = directivePattern.SubexpIndex("for")
	groupTimes     = directivePattern.SubexpIndex("times")
	groupIf        = directivePattern.SubexpIndex("if")
	groupCond      = directivePattern.SubexpIndex("cond")
	groupElseIf    = directivePattern.SubexpIndex("elseif")
	groupElseCond  = directivePattern.SubexpIndex("elsecond")
	groupElse      = directivePattern.SubexpIndex("else")
	groupRequire   = directivePattern.SubexpIndex("require")
	groupPath      = directivePattern.SubexpIndex("path")
	groupStrFilter = directivePattern.SubexpIndex("strfilter")
	groupArgs      = directivePattern.SubexpIndex("args")
	groupClose     = directivePattern.SubexpIndex("close")
)

// state is shared by a document and everything it requires.
type state struct {
	p        *Parser
	ev       *eval.Evaluator
	scope    *eval.Scope
	logger   *slog.Logger
	maxDepth int
	requires []string
}

// document is the parse of a single source text.
type document struct {
	*state
	name  string
	text  string // the input, after comment stripping
	depth int    // require nesting
}

// Parse parses text, and every document it requires, into a Tree.  Only a
// malformed condition or exceeding MaxDepth is an error; anything else
// degrades to literal text or empty content.
func (p *Parser) Parse(name, text string) (tree *ast.Tree, err error) {
	var st = &state{
		p:        p,
		ev:       p.Evaluator,
		scope:    eval.NewScope(p.Globals),
		logger:   p.Logger,
		maxDepth: p.MaxDepth,
	}
	if st.ev == nil {
		st.ev = eval.New()
	}
	if st.logger == nil {
		st.logger = slog.Default()
	}
	if st.maxDepth <= 0 {
		st.maxDepth = DefaultMaxDepth
	}
	defer recoverError(&err)
	var root = st.parse(name, text, 0)
	return &ast.Tree{Name: name, Root: root, Requires: st.requires}, nil
}

func (st *state) parse(name, text string, depth int) *ast.RootNode {
	if st.p.StripComments {
		text = commentPattern.ReplaceAllString(text, "")
	}
	var d = &document{state: st, name: name, text: text, depth: depth}
	return d.root()
}

// root scans the text once, appending intervening text and opened directives
// to whatever container is on top of the stack.
func (d *document) root() *ast.RootNode {
	var (
		root  = &ast.RootNode{}
		stack = []ast.Container{root}
		pos   = 0
	)
	for _, m := range directivePattern.FindAllStringSubmatchIndex(d.text, -1) {
		var (
			start, end = m[0], m[1]
			top        = stack[len(stack)-1]
			matched    = func(group int) bool { return m[2*group] >= 0 }
			group      = func(group int) string {
				if m[2*group] < 0 {
					return ""
				}
				return d.text[m[2*group]:m[2*group+1]]
			}
		)
		if start > pos {
			top.Append(&ast.TextNode{Pos: ast.Pos(pos), Text: d.text[pos:start]})
		}
		pos = end

		switch {
		case matched(groupForeach):
			var node = &ast.ForeachNode{
				Pos:  ast.Pos(start),
				List: group(groupList),
				Key:  group(groupKey),
				Item: group(groupItem),
			}
			top.Append(node)
			stack = append(stack, node)

		case matched(groupFor):
			var node = &ast.ForNode{Pos: ast.Pos(start), Times: group(groupTimes)}
			top.Append(node)
			stack = append(stack, node)

		case matched(groupIf):
			var node = &ast.IfNode{Pos: ast.Pos(start), Source: group(groupCond)}
			node.Cond = d.condition(node.Source, m[2*groupCond])
			top.Append(node)
			stack = append(stack, node)

		case matched(groupElseIf):
			var node = &ast.ElseIfNode{Pos: ast.Pos(start), Source: group(groupElseCond)}
			node.Cond = d.condition(node.Source, m[2*groupElseCond])
			d.attach(top, node)
			stack = append(stack, node)

		case matched(groupElse):
			var node = &ast.ElseNode{Pos: ast.Pos(start)}
			d.attach(top, node)
			stack = append(stack, node)

		case matched(groupRequire):
			top.Append(d.require(start, group(groupPath)))

		case matched(groupStrFilter):
			top.Append(strFilter(start, group(groupArgs)))

		case matched(groupClose):
			if len(stack) == 1 {
				top.Append(&ast.TextNode{Pos: ast.Pos(start), Text: d.text[start:end]})
			} else {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if pos < len(d.text) {
		stack[len(stack)-1].Append(&ast.TextNode{Pos: ast.Pos(pos), Text: d.text[pos:]})
	}
	if len(stack) > 1 {
		d.logger.Debug("unclosed directive at end of template",
			"template", d.name, "directive", stack[len(stack)-1].Kind().String())
	}
	return root
}

// attach links an else or else-if node to the nearest preceding if or else-if
// among top's children, looking past whitespace-only text.  Without one the
// node becomes an ordinary child.
func (d *document) attach(top ast.Container, node ast.Node) {
	var children = top.Children()
search:
	for i := len(children) - 1; i >= 0; i-- {
		switch prev := children[i].(type) {
		case ast.Branching:
			prev.AddDependent(node)
			return
		case *ast.TextNode:
			if strings.TrimSpace(prev.Text) == "" {
				continue
			}
		}
		break search
	}
	d.logger.Debug("else without preceding if", "template", d.name, "line", d.lineNumber(int(node.Position())))
	top.Append(node)
}

// condition compiles a condition found at offset in the document text.
func (d *document) condition(src string, offset int) ast.Node {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	node, err := compileCondition(src, d.maxDepth)
	if err != nil {
		var pos = offset
		var ce *ConditionError
		if errors.As(err, &ce) {
			pos += ce.Offset
		}
		d.errorf(errortypes.KindSyntax, pos, err)
	}
	return node
}

// require resolves the path against the globals, loads the document and parses
// it in place.  A document that cannot be loaded is logged and left empty.
func (d *document) require(start int, path string) *ast.RequireNode {
	var node = &ast.RequireNode{Pos: ast.Pos(start), Path: path, Body: &ast.RootNode{}}
	node.Name = d.ev.Resolve(path, d.scope).String()
	if d.depth+1 > d.maxDepth {
		d.errorf(errortypes.KindLimit, start,
			fmt.Errorf("require of %q exceeds %d nested documents", node.Name, d.maxDepth))
	}
	if node.Name == "" {
		d.logger.Warn("require with empty path", "template", d.name, "path", path)
		return node
	}
	if d.p.Loader == nil {
		d.logger.Warn("require without a loader", "template", d.name, "require", node.Name)
		return node
	}
	src, err := d.p.Loader.Load(node.Name)
	if err != nil {
		d.logger.Warn("required template not found", "template", d.name, "require", node.Name, "error", err)
		return node
	}
	d.requires = append(d.requires, node.Name)
	node.Body = d.parse(node.Name, src, d.depth+1)
	return node
}

// strFilter splits "expr, (f1, f2(x))" into the expression and its filters.
func strFilter(start int, args string) *ast.StrFilterNode {
	var node = &ast.StrFilterNode{Pos: ast.Pos(start)}
	var parts = eval.SplitArgs(',', args)
	if len(parts) == 0 {
		return node
	}
	node.Expr = parts[0]
	var filters = strings.TrimSpace(strings.Join(parts[1:], ","))
	node.Filters = eval.SplitArgs(',', eval.TrimOnce(filters, '(', ')'))
	return node
}

// Helpers ----------

// errorf terminates processing with a positioned error.
func (d *document) errorf(kind errortypes.Kind, pos int, err error) {
	panic(errortypes.NewErrFilePos(kind, d.name, d.lineNumber(pos), d.columnNumber(pos), err))
}

// lineNumber reports which line we're on, based on the position.
func (d *document) lineNumber(pos int) int {
	return 1 + strings.Count(d.text[:pos], "\n")
}

// columnNumber reports which column in the current line we're on.
func (d *document) columnNumber(pos int) int {
	n := strings.LastIndex(d.text[:pos], "\n")
	return pos - n
}

// recoverError is the handler that turns panics into returns from the top
// level of Parse.
func recoverError(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	if err, ok := e.(error); ok {
		*errp = err
		return
	}
	*errp = fmt.Errorf("%v", e)
}
