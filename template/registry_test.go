package template

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robfig/bracket/ast"
)

func TestRegistry(t *testing.T) {
	var r Registry
	var page = &ast.Tree{Name: "page.html", Root: &ast.RootNode{}, Requires: []string{"header.html", "nav.html"}}
	var post = &ast.Tree{Name: "post.html", Root: &ast.RootNode{}, Requires: []string{"header.html"}}
	for _, tree := range []*ast.Tree{page, post} {
		if err := r.Add(tree); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Add(&ast.Tree{Name: "page.html"}); err == nil {
		t.Error("expected duplicate name error")
	}

	if diff := cmp.Diff([]string{"page.html", "post.html"}, r.Names()); diff != "" {
		t.Errorf("names (-expected +got)\n%s", diff)
	}
	if diff := cmp.Diff([]string{"page.html", "post.html"}, r.Dependents("header.html")); diff != "" {
		t.Errorf("dependents of header (-expected +got)\n%s", diff)
	}
	if diff := cmp.Diff([]string{"page.html"}, r.Dependents("nav.html")); diff != "" {
		t.Errorf("dependents of nav (-expected +got)\n%s", diff)
	}

	var replacement = &ast.Tree{Name: "page.html", Root: &ast.RootNode{}}
	r.Replace(replacement)
	if got, ok := r.Tree("page.html"); !ok || got != replacement {
		t.Errorf("expected replacement tree, got %v", got)
	}
	if got := r.Dependents("nav.html"); len(got) != 0 {
		t.Errorf("expected no dependents after replace, got %v", got)
	}
}
