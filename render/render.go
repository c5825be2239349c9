// Package render executes a parsed bracket template, streaming the output to
// an io.Writer.
package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/robfig/bracket/ast"
	"github.com/robfig/bracket/data"
	"github.com/robfig/bracket/errortypes"
	"github.com/robfig/bracket/eval"
)

// DefaultMaxDepth bounds the nesting of rendered directives when a Renderer
// does not set its own limit.
const DefaultMaxDepth = 256

// Renderer provides parameters to template execution.  A Renderer holds no
// per-execution state, so one may serve concurrent calls to Execute.
type Renderer struct {
	Evaluator     *eval.Evaluator
	MaxDepth      int // nested directives; DefaultMaxDepth when zero
	MaxIterations int // per loop; unbounded when zero
	Logger        *slog.Logger
}

// New returns a renderer using the given evaluator.
func New(ev *eval.Evaluator) *Renderer {
	return &Renderer{Evaluator: ev}
}

// Execute applies a parsed template to the given global data and writes the
// output to wr.  The context is checked between loop iterations.
func (r *Renderer) Execute(ctx context.Context, wr io.Writer, tree *ast.Tree, global *data.Map) (err error) {
	if tree == nil || tree.Root == nil {
		return errortypes.Errorf(errortypes.KindUnknown, "render: nil template")
	}
	var s = &state{
		ctx:      ctx,
		ev:       r.Evaluator,
		wr:       wr,
		doc:      tree.Name,
		scope:    eval.NewScope(global),
		maxDepth: r.MaxDepth,
		maxIter:  r.MaxIterations,
		logger:   r.Logger,
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.ev == nil {
		s.ev = eval.New()
	}
	if s.maxDepth <= 0 {
		s.maxDepth = DefaultMaxDepth
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	defer s.errRecover(&err)
	s.walk(tree.Root)
	return nil
}

// state represents the state of an execution.
type state struct {
	ctx      context.Context
	ev       *eval.Evaluator
	wr       io.Writer
	doc      string   // name of the document being rendered, for errors
	node     ast.Node // current node, for errors
	scope    *eval.Scope
	depth    int
	maxDepth int
	maxIter  int
	logger   *slog.Logger
}

// at marks the state to be on node n, for error reporting.
func (s *state) at(node ast.Node) {
	s.node = node
}

// errorf formats the error and terminates processing.
func (s *state) errorf(kind errortypes.Kind, format string, args ...interface{}) {
	panic(errortypes.Errorf(kind, "template %s, offset %d: %s",
		s.doc, s.position(), fmt.Sprintf(format, args...)))
}

func (s *state) position() ast.Pos {
	if s.node == nil {
		return 0
	}
	return s.node.Position()
}

// errRecover is the handler that turns panics into returns from the top
// level of Execute.
func (s *state) errRecover(errp *error) {
	if e := recover(); e != nil {
		switch e := e.(type) {
		case runtime.Error:
			*errp = fmt.Errorf("template %s, offset %d: %v\n%v", s.doc, s.position(), e, string(debug.Stack()))
		case error:
			*errp = e
		default:
			*errp = fmt.Errorf("template %s, offset %d: %v", s.doc, s.position(), e)
		}
	}
}

// walk recursively goes through each node and executes the indicated logic and
// writes the output
func (s *state) walk(node ast.Node) {
	s.at(node)
	switch node := node.(type) {
	case *ast.RootNode:
		s.walkNodes(node.Nodes)

		// Output nodes ----------
	case *ast.TextNode:
		s.write(s.ev.ReplaceVars(node.Text, s.scope))
	case *ast.StrFilterNode:
		s.write(s.ev.Apply(node.Expr, node.Filters, s.scope))
	case *ast.RequireNode:
		if node.Body != nil {
			var parent = s.doc
			s.doc = node.Name
			s.walk(node.Body)
			s.doc = parent
		}

		// Control flow ----------
	case *ast.IfNode:
		s.evalIf(node.Cond, node.Body, node.Dependents)
	case *ast.ElseIfNode:
		s.evalIf(node.Cond, node.Body, node.Dependents)
	case *ast.ElseNode:
		s.walkNodes(node.Body)
	case *ast.ForNode:
		s.evalFor(node)
	case *ast.ForeachNode:
		s.evalForeach(node)

	case ast.ParentNode:
		s.walkNodes(node.Children())
	}
}

// walkNodes renders a list of sibling nodes one level deeper.
func (s *state) walkNodes(nodes []ast.Node) {
	s.depth++
	if s.depth > s.maxDepth {
		s.errorf(errortypes.KindLimit, "directives nested deeper than %d", s.maxDepth)
	}
	for _, node := range nodes {
		s.walk(node)
	}
	s.depth--
}

func (s *state) write(str string) {
	if str == "" {
		return
	}
	if _, err := io.WriteString(s.wr, str); err != nil {
		s.errorf(errortypes.KindIO, "%s", err)
	}
}

// evalIf renders the body when cond holds, or else the first dependent that
// matches.
func (s *state) evalIf(cond ast.Node, body, dependents []ast.Node) {
	if s.ev.Condition(cond, s.scope) {
		s.walkNodes(body)
		return
	}
	for _, dep := range dependents {
		s.at(dep)
		switch dep := dep.(type) {
		case *ast.ElseIfNode:
			if s.ev.Condition(dep.Cond, s.scope) {
				s.walkNodes(dep.Body)
				return
			}
		case *ast.ElseNode:
			s.walkNodes(dep.Body)
			return
		}
	}
}

func (s *state) evalFor(node *ast.ForNode) {
	var times = count(s.ev.Resolve(node.Times, s.scope))
	if times <= 0 {
		return
	}
	s.checkIterations(times)
	if text, ok := staticText(node.Body); ok {
		s.write(strings.Repeat(text, times))
		return
	}
	for i := 0; i < times; i++ {
		s.checkContext()
		s.scope.Push()
		s.scope.Set("loop_index", data.Int(i))
		s.walkNodes(node.Body)
		s.scope.Pop()
	}
}

func (s *state) evalForeach(node *ast.ForeachNode) {
	var collection, _ = s.scope.Path(node.List)
	var (
		length int
		entry  func(i int) (key, item data.Value)
	)
	switch c := collection.(type) {
	case data.List:
		length = len(c)
		entry = func(i int) (data.Value, data.Value) { return data.Int(i), c[i] }
	case *data.Map:
		var keys = c.Keys()
		length = len(keys)
		entry = func(i int) (data.Value, data.Value) { return data.String(keys[i]), c.Key(keys[i]) }
	default:
		if collection != nil {
			s.logger.Debug("foreach over a value that is not a list or map",
				"template", s.doc, "list", node.List)
		}
		return
	}
	if length == 0 {
		return
	}
	s.checkIterations(length)
	if text, ok := staticText(node.Body); ok {
		s.write(strings.Repeat(text, length))
		return
	}
	for i := 0; i < length; i++ {
		s.checkContext()
		var key, item = entry(i)
		s.scope.Push()
		s.scope.Set(node.Item, item)
		if node.Key != "" {
			s.scope.Set(node.Key, key)
		}
		s.scope.Set("loop_index", data.Int(i))
		s.walkNodes(node.Body)
		s.scope.Pop()
	}
}

func (s *state) checkIterations(n int) {
	if s.maxIter > 0 && n > s.maxIter {
		s.errorf(errortypes.KindLimit, "loop of %d iterations exceeds the limit of %d", n, s.maxIter)
	}
}

func (s *state) checkContext() {
	if err := s.ctx.Err(); err != nil {
		panic(err)
	}
}

// count converts a resolved for-loop count to an int.  Anything non-numeric
// counts as zero.
func count(v data.Value) int {
	switch v := v.(type) {
	case data.Int:
		return int(v)
	case data.Bool:
		if v {
			return 1
		}
		return 0
	}
	if f, ok := data.Number(v); ok {
		return int(f)
	}
	return 0
}

// staticText returns the concatenated text of nodes if every node is text
// without placeholders.
func staticText(nodes []ast.Node) (string, bool) {
	var b strings.Builder
	for _, node := range nodes {
		text, ok := node.(*ast.TextNode)
		if !ok || strings.IndexByte(text.Text, '{') >= 0 {
			return "", false
		}
		b.WriteString(text.Text)
	}
	return b.String(), true
}
