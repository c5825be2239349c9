// Package template holds the compiled trees of a bundle, indexed by name.
package template

import (
	"fmt"
	"sort"
	"sync"

	"github.com/robfig/bracket/ast"
)

// Registry maps template names to their trees.  It is safe for concurrent
// use, so a watcher may replace trees while templates render.
type Registry struct {
	mu    sync.RWMutex
	trees map[string]*ast.Tree
}

// Add adds the given tree to the registry.  Names must be unique.
func (r *Registry) Add(tree *ast.Tree) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trees[tree.Name]; ok {
		return fmt.Errorf("template %q already defined", tree.Name)
	}
	r.set(tree)
	return nil
}

// Replace adds the tree, replacing any tree of the same name.
func (r *Registry) Replace(tree *ast.Tree) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(tree)
}

func (r *Registry) set(tree *ast.Tree) {
	if r.trees == nil {
		r.trees = make(map[string]*ast.Tree)
	}
	r.trees[tree.Name] = tree
}

// Tree returns the tree of the given name.
func (r *Registry) Tree(name string) (*ast.Tree, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tree, ok := r.trees[name]
	return tree, ok
}

// Names returns the names of all trees, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names = make([]string, 0, len(r.trees))
	for name := range r.trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependents returns the sorted names of the trees that require the named
// document, directly or through another required document.
func (r *Registry) Dependents(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, tree := range r.trees {
		for _, req := range tree.Requires {
			if req == name {
				names = append(names, tree.Name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}
