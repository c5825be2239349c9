package bracket

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/robfig/bracket/config"
	"github.com/robfig/bracket/data"
	"github.com/robfig/bracket/eval"
	"github.com/robfig/bracket/loader"
)

// Logger is used to print notifications and compile errors when using the
// "WatchFiles" feature, and cache problems that do not fail a render.
var Logger = slog.Default().With("component", "bracket")

// TemplateExts are the extensions picked up by AddTemplateDir.
var TemplateExts = []string{".html", ".tpl"}

type templateFile struct {
	name    string
	path    string // empty for templates added as strings
	content string
}

// Bundle is a collection of templates and globals.  It acts as input for the
// compiler.
type Bundle struct {
	files                 []templateFile
	dirs                  []*loader.Dir
	globals               *data.Map
	filters               map[string]eval.Filter
	cfg                   *config.Config
	logger                *slog.Logger
	err                   error
	watcher               *fsnotify.Watcher
	watched               map[string]string // file path to template name
	recompilationCallback func(*Set)
}

// NewBundle returns an empty bundle with the default configuration.
func NewBundle() *Bundle {
	return &Bundle{
		globals: data.NewMap(),
		filters: make(map[string]eval.Filter),
		cfg:     config.Default(),
		watched: make(map[string]string),
	}
}

// WithConfig replaces the configuration.  It should be called before adding
// any files, since it may turn on watching.
func (b *Bundle) WithConfig(cfg *config.Config) *Bundle {
	if cfg == nil {
		return b
	}
	if err := cfg.Validate(); err != nil && b.err == nil {
		b.err = err
	}
	b.cfg = cfg
	return b.WatchFiles(cfg.Watch)
}

// WithLogger sets the logger used by the bundle and everything it compiles.
func (b *Bundle) WithLogger(logger *slog.Logger) *Bundle {
	b.logger = logger
	return b
}

// AddFilter registers a filter in addition to the builtin ones, replacing any
// builtin of the same name.
func (b *Bundle) AddFilter(name string, filter eval.Filter) *Bundle {
	b.filters[name] = filter
	return b
}

// WatchFiles tells the bundle to watch any template files added to it,
// re-compile as necessary, and propagate the updates to the compiled Set.  It
// should be called once, before adding any files.
func (b *Bundle) WatchFiles(watch bool) *Bundle {
	if watch && b.err == nil && b.watcher == nil {
		b.watcher, b.err = fsnotify.NewWatcher()
	}
	return b
}

// AddTemplateDir adds all template files found within the given directory
// (including sub-directories) to the bundle.  Templates are named by their
// slash-separated path relative to root, and the directory also serves
// require directives naming files that were not added.
func (b *Bundle) AddTemplateDir(root string) *Bundle {
	var dir = loader.NewDir(root)
	names, err := dir.Names(TemplateExts...)
	if err != nil {
		b.err = err
		return b
	}
	b.dirs = append(b.dirs, dir)
	for _, name := range names {
		b.addFile(name, dir.Path(name))
	}
	return b
}

// AddTemplateFile adds the given template file to this bundle, named by its
// path.  If WatchFiles is on, it will be subsequently watched for updates.
func (b *Bundle) AddTemplateFile(filename string) *Bundle {
	return b.addFile(filepath.ToSlash(filepath.Clean(filename)), filename)
}

func (b *Bundle) addFile(name, path string) *Bundle {
	content, err := os.ReadFile(path)
	if err != nil {
		b.err = err
		return b
	}
	b.watch(name, path)
	b.files = append(b.files, templateFile{name, path, string(content)})
	return b
}

func (b *Bundle) watch(name, path string) {
	if b.err != nil || b.watcher == nil {
		return
	}
	if _, ok := b.watched[path]; ok {
		return
	}
	if err := b.watcher.Add(path); err != nil {
		b.err = err
		return
	}
	b.watched[path] = name
}

// AddTemplateString adds the given template to the bundle.  The name is used
// to look the template up, by require directives and in error messages.
func (b *Bundle) AddTemplateString(name, content string) *Bundle {
	b.files = append(b.files, templateFile{name: name, content: content})
	return b
}

// AddGlobalsFile opens and parses the given filename for globals, and adds
// the resulting data map to the bundle.
func (b *Bundle) AddGlobalsFile(filename string) *Bundle {
	var f, err = os.Open(filename)
	if err != nil {
		b.err = err
		return b
	}
	globals, err := ParseGlobals(f)
	f.Close()
	if err != nil {
		b.err = fmt.Errorf("%s: %w", filename, err)
		return b
	}
	return b.AddGlobalsMap(globals)
}

// AddGlobalsMap adds the given globals.  Redefining a global is an error.
func (b *Bundle) AddGlobalsMap(globals *data.Map) *Bundle {
	for _, k := range globals.Keys() {
		if existing, ok := b.globals.Get(k); ok {
			b.err = fmt.Errorf("global %q already defined as %q", k, existing)
			return b
		}
		b.globals.Set(k, globals.Key(k))
	}
	return b
}

// SetRecompilationCallback assigns the bundle a function to call after
// recompilation.  This is called after the Set has been updated.
func (b *Bundle) SetRecompilationCallback(c func(*Set)) *Bundle {
	b.recompilationCallback = c
	return b
}

// Compile parses all of the templates in this bundle, along with everything
// they require, and returns the completed Set.
func (b *Bundle) Compile() (*Set, error) {
	return b.CompileContext(context.Background())
}

// CompileContext is Compile with a context for the cache store.
func (b *Bundle) CompileContext(ctx context.Context) (*Set, error) {
	if b.err != nil {
		return nil, b.err
	}
	set, err := newSet(ctx, b)
	if err != nil {
		return nil, err
	}
	for _, file := range b.files {
		tree, err := set.compile(ctx, file.name, file.content)
		if err != nil {
			set.Close()
			return nil, err
		}
		if err := set.registry.Add(tree); err != nil {
			set.Close()
			return nil, err
		}
		b.watchRequires(tree.Requires)
	}
	if b.err != nil {
		set.Close()
		return nil, b.err
	}

	if b.watcher != nil {
		set.watcher = b.watcher
		go b.recompiler(set)
	}
	return set, nil
}

// requireLoader returns the loader serving require directives: templates
// added to the bundle first, then the added directories, then the template
// directory.
func (b *Bundle) requireLoader() (*loader.Memory, loader.Chain) {
	var mem = loader.NewMemory(nil)
	for _, file := range b.files {
		mem.Set(file.name, file.content)
	}
	var chain = loader.Chain{mem}
	for _, dir := range b.dirs {
		chain = append(chain, dir)
	}
	var root = b.cfg.TemplateDir
	if root == "" {
		root = "."
	}
	return mem, append(chain, loader.NewDir(root))
}

// watchRequires watches the files backing required documents that were not
// added to the bundle themselves.
func (b *Bundle) watchRequires(names []string) {
	if b.watcher == nil {
		return
	}
	for _, name := range names {
		for _, dir := range b.dirs {
			var path = dir.Path(name)
			if _, err := os.Stat(path); err == nil {
				b.watch(name, path)
				break
			}
		}
	}
}

func (b *Bundle) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return Logger
}

func (b *Bundle) recompiler(set *Set) {
	var logger = b.log()
	for {
		select {
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			// If it's a rename, then fsnotify has removed the watch.
			// Add it back, after a delay.
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(10 * time.Millisecond)
				if err := b.watcher.Add(ev.Name); err != nil {
					logger.Error("re-watching template", "path", ev.Name, "error", err)
				}
			}

			name, watched := b.watched[ev.Name]
			if !watched {
				continue
			}
			if err := b.recompile(set, name); err != nil {
				logger.Error("recompiling templates", "path", ev.Name, "error", err)
				continue
			}
			if b.recompilationCallback != nil {
				b.recompilationCallback(set)
			}
			logger.Info("update successful", "template", name, "op", ev.Op.String())

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			// Nothing to do with errors
			logger.Error("watching templates", "error", err)
		}
	}
}

// recompile re-reads every file of the bundle and replaces the trees of set.
// Cached artifacts of the changed document and of every template requiring
// it are dropped first, since their fingerprints do not cover required files.
func (b *Bundle) recompile(set *Set, changed string) error {
	var ctx = context.Background()
	set.invalidate(ctx, changed)
	for _, name := range set.registry.Dependents(changed) {
		set.invalidate(ctx, name)
	}

	var files = make([]templateFile, len(b.files))
	for i, file := range b.files {
		if file.path != "" {
			content, err := os.ReadFile(file.path)
			if err != nil {
				return err
			}
			file.content = string(content)
		}
		files[i] = file
		set.source.Set(file.name, file.content)
	}
	for _, file := range files {
		tree, err := set.compile(ctx, file.name, file.content)
		if err != nil {
			return err
		}
		set.registry.Replace(tree)
		b.watchRequires(tree.Requires)
	}
	return nil
}
