// Package codegen compiles a node graph into a Squirrel script body.
//
// Generation runs in three steps. Nodes are first prepared: unknown types
// are rejected, ports are instantiated from catalog templates and payloads
// are seeded with catalog defaults. The graph is then indexed once, which
// validates every connection. Finally each entry node (init-* and event
// nodes, in node-list order) becomes one global function whose body is the
// depth-first walk of its exec outputs.
//
// The output depends only on slice and port order, so generating an
// unchanged graph twice yields identical text.
package codegen

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/graph"
)

// Generator turns graphs into script bodies. It is safe for concurrent use;
// all per-call state lives in a Builder.
type Generator struct {
	cat    *catalog.Catalog
	rules  map[string]Rule
	logger *log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRule overrides or adds the emitter of one node type for this
// generator only.
func WithRule(nodeType string, r Rule) Option {
	return func(g *Generator) { g.rules[nodeType] = r }
}

// New creates a generator over a catalog. A nil catalog means
// catalog.Default().
func New(cat *catalog.Catalog, opts ...Option) *Generator {
	if cat == nil {
		cat = catalog.Default()
	}
	g := &Generator{
		cat:    cat,
		rules:  snapshotRules(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Catalog returns the catalog the generator resolves node types against.
func (g *Generator) Catalog() *catalog.Catalog { return g.cat }

// Warning is a non-fatal finding about a graph.
type Warning struct {
	NodeID  string
	Message string
}

func (w Warning) String() string {
	if w.NodeID == "" {
		return w.Message
	}
	return fmt.Sprintf("node %q: %s", w.NodeID, w.Message)
}

// Output is the full result of one generation.
type Output struct {
	Body      string
	Functions []string
	Warnings  []Warning
}

// Generate returns the script body for a graph. module prefixes every
// generated function name.
func (g *Generator) Generate(nodes []graph.Node, conns []graph.Connection, module string) (string, error) {
	out, err := g.Run(nodes, conns, module)
	if err != nil {
		return "", err
	}
	return out.Body, nil
}

// Validate runs every check Generate runs and returns the warnings, without
// keeping the generated text.
func (g *Generator) Validate(nodes []graph.Node, conns []graph.Connection) ([]Warning, error) {
	out, err := g.Run(nodes, conns, "Validate")
	if err != nil {
		return nil, err
	}
	return out.Warnings, nil
}

// Run generates a script and reports the functions it declared and any
// warnings.
func (g *Generator) Run(nodes []graph.Node, conns []graph.Connection, module string) (*Output, error) {
	idx, defs, err := g.prepare(nodes, conns)
	if err != nil {
		return nil, err
	}

	mod := Ident(module)
	if mod == "" {
		mod = "Script"
	}

	entries, err := g.entries(idx, defs, mod)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		g.logger.Debug("generating entry", "node", e.nodeID(idx), "function", e.name)
	}
	b, blocks, err := g.walk(idx, defs, entries, nil)
	if err != nil {
		return nil, err
	}
	if hoists := planHoists(b.uses); hoists != nil {
		g.logger.Debug("binding shared producers in enclosing blocks", "module", mod, "scopes", len(hoists))
		if b, blocks, err = g.walk(idx, defs, entries, hoists); err != nil {
			return nil, err
		}
	}
	var funcs []string
	for _, e := range entries {
		funcs = append(funcs, e.name)
	}

	out := &Output{Functions: funcs}
	for i, n := range idx.Nodes {
		if !b.reached[i] && !defs[i].IsEntry() {
			out.Warnings = append(out.Warnings, Warning{NodeID: n.ID, Message: "node is not reachable from any entry"})
			g.logger.Warn("unreachable node", "node", n.ID, "type", n.Type)
		}
	}
	if len(entries) == 0 {
		out.Warnings = append(out.Warnings, Warning{Message: "graph has no entry node"})
		g.logger.Warn("graph has no entry node", "module", mod)
		return out, nil
	}

	var sb strings.Builder
	for _, f := range funcs {
		fmt.Fprintf(&sb, "global function %s\n", f)
	}
	for _, block := range blocks {
		sb.WriteString("\n")
		sb.WriteString(block)
	}
	out.Body = sb.String()
	return out, nil
}

// walk emits every entry. Without hoists it records the uses of shared
// producers for planHoists.
func (g *Generator) walk(idx *graph.Index, defs []*catalog.Definition, entries []*entry, hoists map[int][]hoist) (*Builder, []string, error) {
	b := newBuilder(g, idx, defs)
	b.record = hoists == nil
	b.hoists = hoists
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		text, err := b.capture(func() error { return b.entry(e) })
		if err != nil {
			return nil, nil, err
		}
		blocks = append(blocks, text)
	}
	return b, blocks, nil
}

// prepare instantiates and checks nodes, then indexes the graph.
func (g *Generator) prepare(nodes []graph.Node, conns []graph.Connection) (*graph.Index, []*catalog.Definition, error) {
	var errs graph.Errors
	prepared := make([]graph.Node, len(nodes))
	defs := make([]*catalog.Definition, len(nodes))
	entries := make(map[string]bool)

	for i, n := range nodes {
		def, ok := g.cat.Lookup(n.Type)
		if !ok {
			errs.Add(graph.NodeError(graph.ErrUnknownNodeType, n.ID, "type %q is not in the catalog", n.Type))
			prepared[i] = n
			continue
		}
		n = catalog.Instantiate(def, n)
		n.Data = seed(def.Defaults, n.Data)
		if r, ok := g.rules[n.Type]; ok && r.Prepare != nil {
			r.Prepare(&n)
		}
		errs.Add(checkPayload(def, &n))
		prepared[i] = n
		defs[i] = def
		if def.IsEntry() {
			entries[n.ID] = true
		}
	}

	// Exec edges into entry nodes are reported as such rather than as
	// dangling ports.
	kept := make([]graph.Connection, 0, len(conns))
	for _, c := range conns {
		if entries[c.To.Node] && !isDataInput(prepared, c.To) {
			errs.Add(graph.ConnectionError(graph.ErrEntryHasIncomingExec, c.ID, c.To.Node, "entry node has an incoming exec connection"))
			continue
		}
		kept = append(kept, c)
	}

	idx, err := graph.BuildIndex(prepared, kept)
	if err != nil {
		var agg *graph.Errors
		if errors.As(err, &agg) {
			for _, e := range agg.Errors {
				errs.Add(e)
			}
		} else {
			errs.Add(err)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}
	if err := checkCycles(idx); err != nil {
		return nil, nil, err
	}
	return idx, defs, nil
}

func seed(defaults, data map[string]any) map[string]any {
	if len(defaults) == 0 {
		return data
	}
	out := make(map[string]any, len(defaults)+len(data))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func isDataInput(nodes []graph.Node, ep graph.Endpoint) bool {
	for i := range nodes {
		if nodes[i].ID == ep.Node {
			p, ok := nodes[i].Input(ep.Port)
			return ok && !p.IsExec()
		}
	}
	return false
}

// checkPayload validates the payload keys a definition constrains.
func checkPayload(def *catalog.Definition, n *graph.Node) error {
	for _, key := range def.Idents {
		if v := n.DataString(key); !IsIdent(v) {
			return graph.NodeError(graph.ErrInvalidNode, n.ID, "%s %q is not a valid identifier", key, v)
		}
	}
	keys := make([]string, 0, len(def.Enums))
	for key := range def.Enums {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		allowed := def.Enums[key]
		v := n.DataString(key)
		if !contains(allowed, v) {
			return graph.NodeError(graph.ErrInvalidNode, n.ID, "%s %q must be one of %s", key, v, strings.Join(allowed, ", "))
		}
	}
	if v, ok := n.DataValue("functionName"); ok {
		if s, _ := graph.AsString(v); s != "" && !IsIdent(s) {
			return graph.NodeError(graph.ErrInvalidNode, n.ID, "functionName %q is not a valid identifier", s)
		}
	}
	return nil
}
