// Command bracket renders, inspects and serves bracket templates.
//
//	bracket render page.html --data data.json
//	bracket debug page.html --max-depth 5
//	bracket serve page.html --port 9812
//
// Settings are read from --config (YAML), --env-file and the environment; see
// package config.  With --dir, templates are named relative to that directory.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robfig/bracket"
	"github.com/robfig/bracket/ast"
	"github.com/robfig/bracket/config"
	"github.com/robfig/bracket/data"
	"github.com/robfig/bracket/debug"
)

var (
	configFile  string
	envFile     string
	templateDir string
	globalsFile string
	verbose     bool

	// loaded by compile, so that errors can be reported at the configured
	// verbosity
	loadedConfig *config.Config
)

var rootCmd = cobra.Command{
	Use:           "bracket",
	Short:         "Render bracket templates",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var dataFile string

var renderCmd = cobra.Command{
	Use:   "render [template]",
	Short: "Render a template to standard output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, name, err := compile(args[0], false)
		if err != nil {
			return err
		}
		defer set.Close()

		obj, err := loadData(dataFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		return set.Template(name).Execute(cmd.Context(), cmd.OutOrStdout(), obj)
	},
}

var (
	debugOpts  debug.Options
	debugHTML  bool
	debugStats bool
)

var debugCmd = cobra.Command{
	Use:   "debug [template]",
	Short: "Print the parsed tree of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, name, err := compile(args[0], false)
		if err != nil {
			return err
		}
		defer set.Close()

		var root = set.Template(name).Tree().Root
		var out = cmd.OutOrStdout()
		switch {
		case debugStats:
			return writeStats(out, root)
		case debugHTML:
			_, err = io.WriteString(out, debug.HTML(root, debugOpts)+"\n")
			return err
		}
		return debug.Dump(out, root, debugOpts)
	},
}

var port int

var serveCmd = cobra.Command{
	Use:   "serve [template]",
	Short: "Serve a template over HTTP, with query parameters as data",
	Long: `Serve renders the template on every request, passing the query string
parameters as data.  Template files are watched and recompiled on change.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, name, err := compile(args[0], true)
		if err != nil {
			return err
		}
		defer set.Close()
		return serve(cmd.Context(), set, name, loadedConfig, port)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file; ignored when missing")
	rootCmd.PersistentFlags().StringVar(&templateDir, "dir", "", "Template directory (overrides template_dir)")
	rootCmd.PersistentFlags().StringVar(&globalsFile, "globals", "", "Path to a globals file of name = literal lines")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	renderCmd.Flags().StringVarP(&dataFile, "data", "d", "", "JSON or YAML data file; - reads standard input")
	rootCmd.AddCommand(&renderCmd)

	debugCmd.Flags().IntVar(&debugOpts.MaxDepth, "max-depth", 20, "Elide nodes below this depth")
	debugCmd.Flags().IntVar(&debugOpts.TrimText, "trim", 160, "Cut text longer than this many characters")
	debugCmd.Flags().BoolVar(&debugOpts.ShowEmpty, "show-empty", false, "Mention nodes without content")
	debugCmd.Flags().BoolVar(&debugHTML, "html", false, "Print the outline as an HTML <pre> block")
	debugCmd.Flags().BoolVar(&debugStats, "stats", false, "Print the number of nodes of each kind instead")
	rootCmd.AddCommand(&debugCmd)

	serveCmd.Flags().IntVar(&port, "port", 9812, "Port on which to listen")
	rootCmd.AddCommand(&serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var msg = err.Error()
		if loadedConfig != nil {
			msg = loadedConfig.PublicError(err)
		}
		logger().Debug("fatal", "error", err)
		fmt.Fprintln(os.Stderr, "bracket:", msg)
		os.Exit(1)
	}
}

func logger() *slog.Logger {
	var level = slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// compile builds the set holding the named template.  Without a template
// directory, the template is a file path.
func compile(name string, watch bool) (*bracket.Set, string, error) {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	loadedConfig = cfg
	if templateDir != "" {
		cfg.TemplateDir = templateDir
	}
	cfg.Watch = cfg.Watch || watch

	var b = bracket.NewBundle().WithConfig(cfg).WithLogger(logger())
	if globalsFile != "" {
		b.AddGlobalsFile(globalsFile)
	}
	if cfg.TemplateDir != "" {
		b.AddTemplateDir(cfg.TemplateDir)
		name = filepath.ToSlash(name)
	} else {
		b.AddTemplateFile(name)
		name = filepath.ToSlash(filepath.Clean(name))
	}
	set, err := b.Compile()
	if err != nil {
		return nil, "", err
	}
	if set.Template(name) == nil {
		set.Close()
		return nil, "", fmt.Errorf("template %s not found (have %s)", name, strings.Join(set.Names(), ", "))
	}
	return set, name, nil
}

// writeStats prints how many nodes of each kind the tree holds, most common
// first.
func writeStats(w io.Writer, root ast.Node) error {
	var counts = make(map[ast.Kind]int)
	ast.Walk(root, func(n ast.Node) bool {
		counts[n.Kind()]++
		return true
	})
	var kinds = make([]ast.Kind, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if counts[kinds[i]] != counts[kinds[j]] {
			return counts[kinds[i]] > counts[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	for _, kind := range kinds {
		if _, err := fmt.Fprintf(w, "%-12s %d\n", kind, counts[kind]); err != nil {
			return err
		}
	}
	return nil
}

// loadData reads the render data from a JSON or YAML file, chosen by
// extension.  "-" reads JSON from stdin.
func loadData(path string, stdin io.Reader) (*data.Map, error) {
	if path == "" {
		return data.NewMap(), nil
	}
	var r = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var v data.Value
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err = data.ParseYAML(r)
	default:
		v, err = data.ParseJSON(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, ok := v.(*data.Map)
	if !ok {
		return nil, errors.New(path + ": data must be an object")
	}
	return m, nil
}
