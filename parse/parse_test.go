package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/robfig/bracket/ast"
	"github.com/robfig/bracket/data"
	"github.com/robfig/bracket/errortypes"
)

type parseTest struct {
	name  string
	input string
	tree  *ast.RootNode
}

func tRoot(nodes ...ast.Node) *ast.RootNode {
	return &ast.RootNode{Nodes: nodes}
}

func tText(text string) *ast.TextNode {
	return &ast.TextNode{Text: text}
}

func tLiteral(expr string) *ast.LiteralNode {
	return &ast.LiteralNode{Expr: expr}
}

var ignorePos = cmpopts.IgnoreTypes(ast.Pos(0))

var parseTests = []parseTest{
	{"empty", "", tRoot()},
	{"text", "Hello {name}!", tRoot(tText("Hello {name}!"))},
	{"for", "[for 3 {x}]", tRoot(&ast.ForNode{Times: "3", Body: []ast.Node{tText("x")}})},
	{"for variable", "[for page.count {-}]",
		tRoot(&ast.ForNode{Times: "page.count", Body: []ast.Node{tText("-")}})},
	{"foreach", "[foreach users as u {{u.name}}]",
		tRoot(&ast.ForeachNode{List: "users", Item: "u", Body: []ast.Node{tText("{u.name}")}})},
	{"foreach key", "[foreach m as k => v {{k}}]",
		tRoot(&ast.ForeachNode{List: "m", Key: "k", Item: "v", Body: []ast.Node{tText("{k}")}})},
	{"nested", "a[for 2 {[if x {y}]}]b",
		tRoot(
			tText("a"),
			&ast.ForNode{Times: "2", Body: []ast.Node{
				&ast.IfNode{Source: "x", Cond: tLiteral("x"), Body: []ast.Node{tText("y")}},
			}},
			tText("b"),
		)},
	{"if chain", "[if a {A}] [else if b {B}]\n[else {C}]",
		tRoot(
			&ast.IfNode{
				Source: "a",
				Cond:   tLiteral("a"),
				Body:   []ast.Node{tText("A")},
				Dependents: []ast.Node{
					&ast.ElseIfNode{Source: "b", Cond: tLiteral("b"), Body: []ast.Node{tText("B")}},
					&ast.ElseNode{Body: []ast.Node{tText("C")}},
				},
			},
			tText(" "),
			tText("\n"),
		)},
	{"comparison", "[if age >= 18 {adult}]",
		tRoot(&ast.IfNode{
			Source: "age >= 18",
			Cond:   &ast.ComparisonNode{Left: "age", Op: ">=", Right: "18"},
			Body:   []ast.Node{tText("adult")},
		})},
	{"orphan else", "x[else {y}]",
		tRoot(tText("x"), &ast.ElseNode{Body: []ast.Node{tText("y")}})},
	{"else after text", "[if a {A}]text[else {B}]",
		tRoot(
			&ast.IfNode{Source: "a", Cond: tLiteral("a"), Body: []ast.Node{tText("A")}},
			tText("text"),
			&ast.ElseNode{Body: []ast.Node{tText("B")}},
		)},
	{"orphan else if", "[else if a == 1 {y}]",
		tRoot(&ast.ElseIfNode{
			Source: "a == 1",
			Cond:   &ast.ComparisonNode{Left: "a", Op: "==", Right: "1"},
			Body:   []ast.Node{tText("y")},
		})},
	{"stray close", "a}]b", tRoot(tText("a"), tText("}]"), tText("b"))},
	{"unclosed", "[for 2 {x", tRoot(&ast.ForNode{Times: "2", Body: []ast.Node{tText("x")}})},
	{"comment", "a<!-- [for 2 {x}] -->b", tRoot(tText("ab"))},
	{"str_filter", "[str_filter(name, (upper, truncate(5, '...')))]",
		tRoot(&ast.StrFilterNode{Expr: "name", Filters: []string{"upper", "truncate(5, '...')"}})},
	{"str_filter single", "[str_filter('a b', trim)]",
		tRoot(&ast.StrFilterNode{Expr: "'a b'", Filters: []string{"trim"}})},
	{"empty condition", "[if {x}]",
		tRoot(&ast.IfNode{Body: []ast.Node{tText("x")}})},
	{"case insensitive", "[FOR 1 {x}]", tRoot(&ast.ForNode{Times: "1", Body: []ast.Node{tText("x")}})},
}

func TestParse(t *testing.T) {
	for _, test := range parseTests {
		tree, err := Parse(test.name, test.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if diff := cmp.Diff(test.tree, tree.Root, ignorePos); diff != "" {
			t.Errorf("%s=(%q): (-expected +got)\n%s", test.name, test.input, diff)
		}
	}
}

func TestParsePositions(t *testing.T) {
	tree, err := Parse("pos", "ab[for 2 {x}]")
	if err != nil {
		t.Fatal(err)
	}
	var nodes = tree.Root.Nodes
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %v", nodes)
	}
	if nodes[0].Position() != 0 || nodes[1].Position() != 2 {
		t.Errorf("unexpected positions %d, %d", nodes[0].Position(), nodes[1].Position())
	}
	var body = nodes[1].(*ast.ForNode).Body
	if body[0].Position() != 10 {
		t.Errorf("expected body text at 10, got %d", body[0].Position())
	}
}

func TestParseKeepsComments(t *testing.T) {
	var p = &Parser{}
	tree, err := p.Parse("comments", "a<!-- x -->b")
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.Root.String(); got != "a<!-- x -->b" {
		t.Errorf("expected comment to survive, got %q", got)
	}
}

type mapLoader map[string]string

func (m mapLoader) Load(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", errors.New("not found: " + name)
	}
	return src, nil
}

func TestRequire(t *testing.T) {
	var p = &Parser{
		Loader: mapLoader{
			"header.html": "<h1>{title}</h1>[require('nav.html')]",
			"nav.html":    "[foreach links as l {{l}}]",
		},
		Globals:       data.NewMap("layout", data.String("header.html")),
		StripComments: true,
	}
	tree, err := p.Parse("page", `[require("header.html")]|[require(layout)]|[require missing.html]`)
	if err != nil {
		t.Fatal(err)
	}

	var nav = &ast.RequireNode{Path: "'nav.html'", Name: "nav.html", Body: tRoot(
		&ast.ForeachNode{List: "links", Item: "l", Body: []ast.Node{tText("{l}")}},
	)}
	var header = tRoot(tText("<h1>{title}</h1>"), nav)
	var expected = tRoot(
		&ast.RequireNode{Path: `"header.html"`, Name: "header.html", Body: header},
		tText("|"),
		&ast.RequireNode{Path: "layout", Name: "header.html", Body: header},
		tText("|"),
		&ast.RequireNode{Path: "missing.html", Name: "", Body: tRoot()},
	)
	if diff := cmp.Diff(expected, tree.Root, ignorePos); diff != "" {
		t.Errorf("(-expected +got)\n%s", diff)
	}
	if diff := cmp.Diff([]string{"header.html", "nav.html", "header.html", "nav.html"}, tree.Requires); diff != "" {
		t.Errorf("requires (-expected +got)\n%s", diff)
	}
}

func TestRequireDepth(t *testing.T) {
	var p = &Parser{
		Loader:   mapLoader{"self": "x[require('self')]"},
		MaxDepth: 5,
	}
	_, err := p.Parse("self", "[require('self')]")
	if err == nil {
		t.Fatal("expected recursion error")
	}
	if kind := errortypes.KindOf(err); kind != errortypes.KindLimit {
		t.Errorf("expected %v, got %v (%v)", errortypes.KindLimit, kind, err)
	}
}

func TestParseErrors(t *testing.T) {
	var tests = []struct {
		name, input string
		line, col   int
		msg         string
	}{
		{"dangling and", "[if a && {x}]", 1, 7, "operator without right operand"},
		{"unclosed paren", "line1\n[if (a {x}]", 2, 5, "unclosed ("},
		{"unexpected paren", "[if a) {x}]", 1, 6, "unexpected )"},
		{"bad else if", "[if a {x}][else if || b {y}]", 1, 20, "operator without left operand"},
		{"bad token", "[if a # b {x}]", 1, 7, "unrecognized token"},
	}
	for _, test := range tests {
		_, err := Parse(test.name, test.input)
		if err == nil {
			t.Errorf("%s: expected error, got none", test.name)
			continue
		}
		if kind := errortypes.KindOf(err); kind != errortypes.KindSyntax {
			t.Errorf("%s: expected syntax error, got %v", test.name, kind)
		}
		fp := errortypes.ToErrFilePos(err)
		if fp == nil {
			t.Errorf("%s: expected positioned error, got %v", test.name, err)
			continue
		}
		if fp.Line() != test.line || fp.Col() != test.col {
			t.Errorf("%s: expected %d:%d, got %d:%d", test.name, test.line, test.col, fp.Line(), fp.Col())
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%s: expected message containing %q, got %q", test.name, test.msg, err.Error())
		}
	}
}
