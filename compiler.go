// Package r5vforge compiles node-graph projects into R5 mods.
//
// A Compiler runs, for every script of a project, context inference and
// code generation, then writes the whole mod tree through a
// fsys.FileSystem: generated scripts, weapon and UI files copied verbatim,
// localization files, the scripts.rson registration manifest and mod.vdf.
//
// A compile is planned completely before anything is written, so graph
// errors never leave a half-written mod behind. Writing starts by deleting
// the previous output directory and then proceeds one operation at a time;
// the first failure stops it.
package r5vforge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/codegen"
	"github.com/r5vforge/r5vforge/fsys"
	"github.com/r5vforge/r5vforge/graph"
	"github.com/r5vforge/r5vforge/manifest"
	"github.com/r5vforge/r5vforge/projectfile"
	"github.com/r5vforge/r5vforge/runctx"
)

// Version is stamped into every generated script header.
const Version = "0.1.0"

// DefaultCacheSize is the number of generated script bodies a Compiler
// keeps.
const DefaultCacheSize = 128

// Compiler compiles projects. It is safe for concurrent use as long as
// concurrent compiles target different output directories.
type Compiler struct {
	fs        fsys.FileSystem
	cat       *catalog.Catalog
	gen       *codegen.Generator
	genOpts   []codegen.Option
	logger    *log.Logger
	cacheSize int
	cache     *lru.Cache[uint64, *codegen.Output]
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCatalog sets the node catalog. The default is catalog.Default().
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Compiler) {
		if cat != nil {
			c.cat = cat
		}
	}
}

// WithGeneratorOptions passes options to the code generator.
func WithGeneratorOptions(opts ...codegen.Option) Option {
	return func(c *Compiler) { c.genOpts = append(c.genOpts, opts...) }
}

// WithCacheSize sets how many generated bodies are cached. Zero disables
// the cache.
func WithCacheSize(n int) Option {
	return func(c *Compiler) { c.cacheSize = n }
}

// New creates a compiler writing through fs.
func New(fs fsys.FileSystem, opts ...Option) (*Compiler, error) {
	if fs == nil {
		return nil, errors.New("filesystem is required")
	}
	c := &Compiler{
		fs:        fs,
		cat:       catalog.Default(),
		logger:    log.New(io.Discard),
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	genOpts := append([]codegen.Option{codegen.WithLogger(c.logger)}, c.genOpts...)
	c.gen = codegen.New(c.cat, genOpts...)

	if c.cacheSize > 0 {
		cache, err := lru.New[uint64, *codegen.Output](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Catalog returns the node catalog of the compiler.
func (c *Compiler) Catalog() *catalog.Catalog { return c.cat }

// Result describes a compile. It is returned even when the compile fails.
type Result struct {
	Success bool
	// ModDir is the mod directory, empty when the compile failed before
	// it was known.
	ModDir string
	// Written lists every file written, in write order.
	Written []string
	// Contexts maps each script path (relative to scripts/vscripts) to its
	// inferred contexts.
	Contexts map[string]graph.Context
	Message  string
}

// Rendered is one generated script file.
type Rendered struct {
	// Path is relative to scripts/vscripts.
	Path      string
	Context   graph.Context
	Text      string
	Functions []string
	Warnings  []codegen.Warning
}

// Render generates the full text of one script: header, body and, when the
// settings ask for it, the embedded graph snapshot.
func (c *Compiler) Render(s graph.ModSettings, script graph.Script) (*Rendered, error) {
	rel, err := ScriptPath(s, script)
	if err != nil {
		return nil, preconditionError(script.Name, err)
	}

	runtimes := runctx.Infer(script.Nodes, c.cat)
	module := strings.TrimSuffix(path.Base(rel), path.Ext(rel))

	out, err := c.generate(script, module)
	if err != nil {
		return nil, graphError(rel, err)
	}

	var sb strings.Builder
	sb.WriteString(Header(s, script, runtimes))
	if out.Body != "" {
		sb.WriteString("\n")
		sb.WriteString(out.Body)
	}
	if s.EmbedProject {
		block, err := projectfile.EmbedScript(&script)
		if err != nil {
			return nil, graphError(rel, err)
		}
		sb.WriteString("\n")
		sb.WriteString(block)
	}

	return &Rendered{
		Path:      rel,
		Context:   runtimes,
		Text:      sb.String(),
		Functions: out.Functions,
		Warnings:  out.Warnings,
	}, nil
}

// generate runs the code generator, consulting the output cache first. The
// cache key is a fingerprint of the module name and the graph.
func (c *Compiler) generate(script graph.Script, module string) (*codegen.Output, error) {
	var key uint64
	cacheable := false
	if c.cache != nil {
		raw, err := projectfile.MarshalScript(&graph.Script{Nodes: script.Nodes, Connections: script.Connections})
		if err == nil {
			h := xxhash.New()
			h.WriteString(module)
			h.Write([]byte{0})
			h.Write(raw)
			key, cacheable = h.Sum64(), true
			if out, ok := c.cache.Get(key); ok {
				c.logger.Debug("cache hit", "module", module)
				return out, nil
			}
		}
	}

	out, err := c.gen.Run(script.Nodes, script.Connections, module)
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.cache.Add(key, out)
	}
	return out, nil
}

// Header is the comment block at the top of every generated script.
func Header(s graph.ModSettings, script graph.Script, runtimes graph.Context) string {
	var sb strings.Builder
	title := s.Name
	if s.Version != "" {
		title += " v" + s.Version
	}
	if s.Author != "" {
		title += " by " + s.Author
	}
	fmt.Fprintf(&sb, "// %s\n", title)
	fmt.Fprintf(&sb, "// Generated by r5vforge %s from script %q. Edits are overwritten by the next compile.\n", Version, script.Name)
	fmt.Fprintf(&sb, "// Context: %s\n", runtimes.When())
	return sb.String()
}

// ============================================================================
// Compile
// ============================================================================

type write struct {
	rel  string
	text string
}

type plan struct {
	modDir  string
	dirs    []string
	writes  []write
	scripts []manifest.ScriptEntry
}

// Compile compiles a project into outDir/<Author><Name>. When outDir is
// empty the filesystem is asked to select one.
//
// The returned Result is never nil. On failure err is a *CompileError and
// Result.Written lists the files written before the failing operation.
func (c *Compiler) Compile(ctx context.Context, p *graph.Project, outDir string) (*Result, error) {
	res := &Result{Contexts: map[string]graph.Context{}}
	fail := func(err *CompileError) (*Result, error) {
		res.Message = err.Error()
		c.logger.Error("compile failed", "kind", err.Kind, "artifact", err.Artifact, "err", err.Err)
		return res, err
	}

	if p == nil {
		return fail(preconditionError("", ErrEmptyProject))
	}
	if strings.TrimSpace(p.Settings.Name) == "" {
		return fail(preconditionError("", ErrMissingName))
	}
	if strings.TrimSpace(p.Settings.ID) == "" {
		return fail(preconditionError("", ErrMissingID))
	}
	if p.Empty() {
		return fail(preconditionError("", ErrEmptyProject))
	}
	if outDir == "" {
		dir, err := c.fs.SelectDirectory(ctx)
		if err != nil {
			return fail(ioError("", fmt.Errorf("select output directory: %w", err)))
		}
		if dir == "" {
			return fail(preconditionError("", ErrNoOutputDir))
		}
		outDir = dir
	}

	pl, cerr := c.plan(p)
	if cerr != nil {
		return fail(cerr)
	}
	for _, s := range pl.scripts {
		res.Contexts[s.Path] = s.Context
	}

	modDir := filepath.Join(outDir, pl.modDir)
	if !within(outDir, modDir) || filepath.Clean(outDir) == modDir {
		return fail(preconditionError(modDir, ErrUnsafePath))
	}
	res.ModDir = modDir
	abs := func(rel string) string { return filepath.Join(modDir, filepath.FromSlash(rel)) }
	for _, w := range pl.writes {
		if file := abs(w.rel); !within(modDir, file) {
			return fail(preconditionError(file, ErrUnsafePath))
		}
	}

	c.logger.Debug("delete directory", "path", modDir)
	if err := c.fs.DeleteDirectory(ctx, modDir); err != nil {
		return fail(ioError(modDir, err))
	}
	for _, d := range pl.dirs {
		dir := abs(d)
		c.logger.Debug("create directory", "path", dir)
		if err := c.fs.CreateDirectory(ctx, dir); err != nil {
			return fail(ioError(dir, err))
		}
	}
	for _, w := range pl.writes {
		file := abs(w.rel)
		c.logger.Debug("write file", "path", file, "bytes", len(w.text))
		if err := c.fs.WriteFile(ctx, file, w.text); err != nil {
			return fail(ioError(file, err))
		}
		res.Written = append(res.Written, file)
	}

	res.Success = true
	res.Message = fmt.Sprintf("compiled %d files into %s", len(res.Written), modDir)
	c.logger.Info("compile finished", "mod", modDir, "files", len(res.Written), "scripts", len(pl.scripts))
	return res, nil
}

// plan computes every directory and file of a compile without touching the
// filesystem.
func (c *Compiler) plan(p *graph.Project) (*plan, *CompileError) {
	s := p.Settings
	pl := &plan{modDir: ModDirName(s)}
	if pl.modDir == "" {
		return nil, preconditionError("", ErrMissingName)
	}
	if err := checkModDir(pl.modDir); err != nil {
		return nil, preconditionError(pl.modDir, err)
	}

	seen := make(map[string]bool)
	add := func(rel, text string) *CompileError {
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return preconditionError(rel, ErrUnsafePath)
		}
		key := strings.ToLower(rel)
		if seen[key] {
			return preconditionError(rel, ErrDuplicatePath)
		}
		seen[key] = true
		pl.writes = append(pl.writes, write{rel: rel, text: text})
		return nil
	}
	dirSeen := make(map[string]bool)
	addDir := func(d string) {
		if !dirSeen[d] {
			dirSeen[d] = true
			pl.dirs = append(pl.dirs, d)
		}
	}

	addDir(".")
	if len(p.Scripts) > 0 {
		addDir(DirVScripts)
	}
	for _, script := range p.Scripts {
		r, err := c.Render(s, script)
		if err != nil {
			var ce *CompileError
			if errors.As(err, &ce) {
				return nil, ce
			}
			return nil, graphError(script.Name, err)
		}
		for _, w := range r.Warnings {
			c.logger.Warn("script warning", "script", r.Path, "warning", w.String())
		}
		if dir := path.Dir(r.Path); dir != "." {
			addDir(path.Join(DirVScripts, dir))
		}
		if cerr := add(path.Join(DirVScripts, r.Path), r.Text); cerr != nil {
			return nil, cerr
		}
		pl.scripts = append(pl.scripts, manifest.ScriptEntry{Path: r.Path, Context: r.Context})
	}

	if len(p.Weapons) > 0 {
		addDir(DirWeapons)
	}
	for _, w := range p.Weapons {
		rel, err := WeaponPath(w)
		if err != nil {
			return nil, preconditionError(w.Name, err)
		}
		if cerr := add(rel, w.Content); cerr != nil {
			return nil, cerr
		}
	}

	for _, f := range p.UIFiles {
		rel, err := UIPath(f)
		if err != nil {
			return nil, preconditionError(f.Name, err)
		}
		addDir(path.Dir(rel))
		if cerr := add(rel, f.Content); cerr != nil {
			return nil, cerr
		}
	}

	if len(p.Localization) > 0 {
		addDir(DirLocalization)
	}
	for _, f := range p.Localization {
		rel, err := LocalizationPath(f)
		if err != nil {
			return nil, preconditionError(f.Name, err)
		}
		if cerr := add(rel, manifest.Localization(f)); cerr != nil {
			return nil, cerr
		}
	}

	if len(pl.scripts) > 0 {
		if cerr := add(FileManifest, manifest.Registration(pl.scripts)); cerr != nil {
			return nil, cerr
		}
	}
	if cerr := add(FileDescriptor, manifest.Descriptor(s, p.Localization)); cerr != nil {
		return nil, cerr
	}
	return pl, nil
}
