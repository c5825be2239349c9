// Package loader provides the sources that require directives and bundles read
// template text from.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned (wrapped) when a template does not exist.
var ErrNotFound = errors.New("template not found")

// NotFoundError names the template that could not be found.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Dir loads templates from a directory tree.  Names are slash separated and
// relative to the root; names escaping the root are not found.
type Dir struct {
	root string
	fsys fs.FS
}

// NewDir returns a loader rooted at dir.
func NewDir(dir string) *Dir {
	return &Dir{root: dir, fsys: os.DirFS(dir)}
}

// Load reads the named template.
func (d *Dir) Load(name string) (string, error) {
	var clean = cleanName(name)
	if !fs.ValidPath(clean) {
		return "", &NotFoundError{name}
	}
	b, err := fs.ReadFile(d.fsys, clean)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &NotFoundError{name}
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Path returns the file system path of the named template, for watching.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(cleanName(name)))
}

// Names lists every file under the root with one of the given extensions, or
// every file when none are given.
func (d *Dir) Names(exts ...string) ([]string, error) {
	var names []string
	err := fs.WalkDir(d.fsys, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !hasExt(name, exts) {
			return nil
		}
		names = append(names, name)
		return nil
	})
	return names, err
}

func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func cleanName(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	return path.Clean(name)
}

// Memory is an in-memory loader, safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewMemory returns a loader holding copies of the given templates.
func NewMemory(templates map[string]string) *Memory {
	var m = &Memory{templates: make(map[string]string, len(templates))}
	for name, src := range templates {
		m.templates[name] = src
	}
	return m
}

// Set adds or replaces a template.
func (m *Memory) Set(name, src string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.templates == nil {
		m.templates = make(map[string]string)
	}
	m.templates[name] = src
}

// Load returns the named template.
func (m *Memory) Load(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.templates[name]
	if !ok {
		return "", &NotFoundError{name}
	}
	return src, nil
}

// Chain tries each loader in order and returns the first template found.
type Chain []interface {
	Load(name string) (string, error)
}

// Load implements the loader interface.
func (c Chain) Load(name string) (string, error) {
	for _, l := range c {
		src, err := l.Load(name)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", &NotFoundError{name}
}
