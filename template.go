package bracket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	"golang.org/x/sync/singleflight"

	"github.com/robfig/bracket/ast"
	"github.com/robfig/bracket/cache"
	"github.com/robfig/bracket/config"
	"github.com/robfig/bracket/data"
	"github.com/robfig/bracket/debug"
	"github.com/robfig/bracket/errortypes"
	"github.com/robfig/bracket/eval"
	"github.com/robfig/bracket/loader"
	"github.com/robfig/bracket/parse"
	"github.com/robfig/bracket/render"
	"github.com/robfig/bracket/template"
)

// Set is a compiled bundle: the templates it holds, the globals they see and
// the cache their artifacts are kept in.  It is safe for concurrent use.
type Set struct {
	registry    template.Registry
	source      *loader.Memory // current source of every added template
	parser      *parse.Parser
	renderer    *render.Renderer
	globals     *data.Map
	globalsJSON []byte
	store       cache.Store
	secret      []byte
	cfg         *config.Config
	minifier    *minify.M
	logger      *slog.Logger
	group       singleflight.Group
	watcher     *fsnotify.Watcher
}

func newSet(ctx context.Context, b *Bundle) (*Set, error) {
	var cfg = b.cfg
	var logger = b.log()

	var ev = eval.New()
	ev.Language = cfg.Language()
	ev.Location = cfg.Location()
	ev.Logger = logger
	for name, filter := range b.filters {
		ev.Filters[name] = filter
	}

	globalsJSON, err := json.Marshal(b.globals)
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(ctx, cfg.CacheBackend, cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	var mem, chain = b.requireLoader()
	var s = &Set{
		source: mem,
		parser: &parse.Parser{
			Loader:        chain,
			Evaluator:     ev,
			Globals:       b.globals,
			StripComments: cfg.StripComments,
			MaxDepth:      cfg.MaxDepth,
			Logger:        logger,
		},
		renderer: &render.Renderer{
			Evaluator:     ev,
			MaxIterations: cfg.MaxIterations,
			Logger:        logger,
		},
		globals:     b.globals,
		globalsJSON: globalsJSON,
		store:       store,
		secret:      []byte(cfg.SecretKey),
		cfg:         cfg,
		logger:      logger,
	}
	if cfg.Minify {
		s.minifier = minify.New()
		s.minifier.AddFunc("text/html", html.Minify)
	}
	return s, nil
}

// Template returns the named template, or nil if there is none.
func (s *Set) Template(name string) *Template {
	if _, ok := s.registry.Tree(name); !ok {
		return nil
	}
	return &Template{set: s, name: name}
}

// Names returns the names of every template in the set, sorted.
func (s *Set) Names() []string {
	return s.registry.Names()
}

// Close stops watching files and releases the cache store.
func (s *Set) Close() error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}

// compile parses src, or restores its tree from the cache.  Concurrent
// compilations of the same source share one parse.
func (s *Set) compile(ctx context.Context, name, src string) (*ast.Tree, error) {
	var hash = cache.Fingerprint(s.secret, []byte(src), s.globalsJSON)
	v, err, _ := s.group.Do(name+"\x00"+hash, func() (interface{}, error) {
		if payload, ok := s.cached(ctx, cache.Parsers, name, hash); ok {
			tree, err := ast.Decode(payload)
			if err == nil {
				return tree, nil
			}
			s.logger.Warn("discarding cached template tree", "template", name, "error", err)
			s.invalidate(ctx, name)
		}

		tree, err := s.parser.Parse(name, src)
		if err != nil {
			return nil, err
		}
		payload, err := ast.Encode(tree)
		if err != nil {
			s.logger.Warn("encoding template tree", "template", name, "error", err)
			return tree, nil
		}
		if err := s.store.Put(ctx, cache.Parsers, name, hash, payload); err != nil {
			s.logger.Warn("caching template tree", "template", name, "error", err)
		}
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ast.Tree), nil
}

// cached returns the payload stored under kind and name.  Anything but a hit
// is a miss; corrupt entries are dropped.
func (s *Set) cached(ctx context.Context, kind cache.Kind, name, hash string) ([]byte, bool) {
	payload, err := s.store.Get(ctx, kind, name, hash)
	switch {
	case err == nil:
		return payload, true
	case errors.Is(err, cache.ErrMiss):
	case errors.Is(err, cache.ErrCorrupt):
		s.logger.Warn("discarding corrupt cache entry", "template", name, "kind", string(kind), "error", err)
		s.invalidate(ctx, name)
	default:
		s.logger.Warn("reading cache", "template", name, "kind", string(kind), "error", err)
	}
	return nil, false
}

func (s *Set) invalidate(ctx context.Context, name string) {
	if err := s.store.Invalidate(ctx, name); err != nil {
		s.logger.Warn("invalidating cache", "template", name, "error", err)
	}
}

// data converts obj and merges it over the globals.
func (s *Set) data(obj interface{}) (*data.Map, error) {
	if obj == nil {
		return s.globals, nil
	}
	m, ok := data.New(obj).(*data.Map)
	if !ok {
		return nil, fmt.Errorf("template data must be a map or a struct, got %T", obj)
	}
	return s.globals.Merge(m), nil
}

func (s *Set) minifyOutput(out []byte) []byte {
	if s.minifier == nil {
		return out
	}
	small, err := s.minifier.Bytes("text/html", out)
	if err != nil {
		s.logger.Debug("minifying output", "error", err)
		return out
	}
	return small
}

// Template is a named template of a Set.
type Template struct {
	set  *Set
	name string
}

func (t *Template) Name() string { return t.name }

// Execute renders the template with the given data to w.  Data may be nil, a
// *data.Map, a Go map or a struct.
func (t *Template) Execute(ctx context.Context, w io.Writer, obj interface{}) error {
	var s = t.set
	tree, ok := s.registry.Tree(t.name)
	if !ok {
		return errortypes.Errorf(errortypes.KindNotFound, "template %q not found", t.name)
	}
	global, err := s.data(obj)
	if err != nil {
		return err
	}
	if !s.cfg.CacheOutput && s.minifier == nil {
		return s.renderer.Execute(ctx, w, tree, global)
	}

	var hash string
	if s.cfg.CacheOutput {
		src, err := s.source.Load(t.name)
		if err != nil {
			return err
		}
		dataJSON, err := json.Marshal(global)
		if err != nil {
			return err
		}
		hash = cache.Fingerprint(s.secret, []byte(src), dataJSON)
		if out, ok := s.cached(ctx, cache.Templates, t.name, hash); ok {
			return write(w, out)
		}
	}

	var buf bytes.Buffer
	if err := s.renderer.Execute(ctx, &buf, tree, global); err != nil {
		return err
	}
	var out = s.minifyOutput(buf.Bytes())
	if s.cfg.CacheOutput {
		if err := s.store.Put(ctx, cache.Templates, t.name, hash, out); err != nil {
			s.logger.Warn("caching output", "template", t.name, "error", err)
		}
	}
	return write(w, out)
}

func write(w io.Writer, out []byte) error {
	if _, err := w.Write(out); err != nil {
		return errortypes.Errorf(errortypes.KindIO, "writing output: %w", err)
	}
	return nil
}

// Render returns the output of the template.
func (t *Template) Render(obj interface{}) (string, error) {
	var b strings.Builder
	if err := t.Execute(context.Background(), &b, obj); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderTo streams the output of the template to w.
func (t *Template) RenderTo(w io.Writer, obj interface{}) error {
	return t.Execute(context.Background(), w, obj)
}

// Tree returns the current parsed tree of the template.  It is replaced,
// not modified, when watched files change.
func (t *Template) Tree() *ast.Tree {
	tree, _ := t.set.registry.Tree(t.name)
	return tree
}

// Debug returns an outline of the template's tree.
func (t *Template) Debug(opts debug.Options) string {
	var tree = t.Tree()
	if tree == nil {
		return ""
	}
	return debug.Text(tree.Root, opts)
}

// Invalidate drops the cached artifacts of the template.
func (t *Template) Invalidate(ctx context.Context) error {
	return t.set.store.Invalidate(ctx, t.name)
}
