package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/r5vforge/r5vforge"
	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/fsys"
	"github.com/r5vforge/r5vforge/graph"
	"github.com/r5vforge/r5vforge/projectfile"
)

// app carries the state shared by all commands.
type app struct {
	cfgFile string
	workDir string
	verbose bool

	cfg    *Config
	logger *log.Logger
	fs     afero.Fs
}

// newRootCmd builds the command tree. Project files, catalog files and
// compile output all go through fs.
func newRootCmd(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs}

	root := &cobra.Command{
		Use:   "r5vforge",
		Short: "Compile node-graph projects into R5 mods",
		Long: TitleStyle.Render("r5vforge") + SubtitleStyle.Render(" - node graphs to Squirrel mods") + `

r5vforge turns the visual scripts of a project into Squirrel source,
registers them in scripts.rson with the contexts they run in, and writes
the complete mod folder including mod.vdf and localization files.

` + SubtitleStyle.Render("Examples:") + `
  r5vforge compile mymod.r5vproj -o ./mods   Compile a project
  r5vforge validate mymod.r5vproj            Check every graph
  r5vforge nodes --category flow             List flow nodes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./r5vforge.yaml or ~/.config/r5vforge/r5vforge.yaml)")
	root.PersistentFlags().StringVar(&a.workDir, "dir", ".", "directory searched for the config and .env files")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newCompileCmd(a),
		newGenerateCmd(a),
		newValidateCmd(a),
		newNewCmd(a),
		newNodesCmd(a),
		newTreeCmd(a),
		newProjectCmd(a),
	)
	return root
}

// init loads the configuration and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.workDir, a.cfgFile)
	if err != nil {
		return &ExitError{Code: ExitPrecondition, Err: err}
	}
	a.cfg = cfg

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return &ExitError{Code: ExitPrecondition, Err: fmt.Errorf("invalid log_level: %w", err)}
	}
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:  level,
		Prefix: "r5vforge",
	})
	if cfg.File != "" {
		a.logger.Debug("loaded config", "file", cfg.File)
	}
	return nil
}

// catalog returns the built-in catalog extended with the configured
// definition files.
func (a *app) catalog() (*catalog.Catalog, error) {
	cat := catalog.Default()
	if len(a.cfg.CatalogFiles) == 0 {
		return cat, nil
	}
	ext, err := catalog.LoadFiles(cat, a.fs, a.cfg.CatalogFiles...)
	if err != nil {
		return nil, &ExitError{Code: ExitPrecondition, Err: err}
	}
	a.logger.Debug("extended catalog", "files", a.cfg.CatalogFiles, "types", ext.Len())
	return ext, nil
}

func (a *app) compiler() (*r5vforge.Compiler, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}
	return r5vforge.New(
		fsys.NewAfero(a.fs, fsys.WithSelection(a.cfg.OutputDir)),
		r5vforge.WithLogger(a.logger),
		r5vforge.WithCatalog(cat),
		r5vforge.WithCacheSize(a.cfg.CacheSize),
	)
}

// loadProject reads a project file and applies config overrides to its
// settings.
func (a *app) loadProject(path string) (*graph.Project, error) {
	p, info, err := projectfile.Load(a.fs, path)
	if err != nil {
		code := ExitFailure
		if projectfile.IsNotExist(err) {
			code = ExitPrecondition
		}
		return nil, &ExitError{Code: code, Err: err}
	}
	a.logger.Debug("loaded project", "path", path, "compressed", info.Compressed, "bytes", info.OriginalSize)

	if a.cfg.ScriptExtension != "" && p.Settings.ScriptExtension == "" {
		p.Settings.ScriptExtension = a.cfg.ScriptExtension
	}
	if a.cfg.EmbedProject {
		p.Settings.EmbedProject = true
	}
	return p, nil
}

// findScript looks a script up by ID, then by name.
func findScript(p *graph.Project, key string) (graph.Script, bool) {
	for _, s := range p.Scripts {
		if s.ID == key {
			return s, true
		}
	}
	for _, s := range p.Scripts {
		if strings.EqualFold(s.Name, key) {
			return s, true
		}
	}
	return graph.Script{}, false
}

// Execute runs the root command and exits with the mapped exit code.
func Execute() {
	err := fang.Execute(
		context.Background(),
		newRootCmd(afero.NewOsFs()),
		fang.WithVersion(r5vforge.Version),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err != nil {
		os.Exit(exitCode(err))
	}
}
