// Package catalog holds the node definitions the compiler knows about.
//
// A Catalog is immutable once built. The built-in node set is assembled once
// per process by Default(); Extend returns a new catalog with additional
// definitions (for example ones loaded from a TOML or YAML file) and leaves
// the receiver untouched.
//
// Most node types need no Go code at all: a definition carries an Expr or
// Stmt template and the code generator's template emitter fills in the
// placeholders:
//
//	{in.<port>}    resolved expression of a data input
//	{out.<port>}   variable bound to a data output
//	{data.<key>}   payload value inserted as-is (identifiers, type names)
//	{lit.<key>}    payload value rendered as a Squirrel literal
//
// Control-flow nodes (branch, loops, switch, thread...) are handled by
// dedicated emitters in package codegen.
package catalog

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/r5vforge/r5vforge/graph"
)

// Purity describes how a data producer may be evaluated.
type Purity int

const (
	// Effect producers may have side effects: evaluated once and bound to a
	// temporary.
	Effect Purity = iota
	// Pure producers are inlined when they have a single consumer and bound
	// to a temporary when shared. A pure producer fed by a getter is
	// inlined like one.
	Pure
	// Literal producers are constants and are always inlined.
	Literal
	// Getter producers read state that statements may change (variables,
	// entity properties). They are inlined at every use so each read sees
	// the current value.
	Getter
)

func (p Purity) String() string {
	switch p {
	case Pure:
		return "pure"
	case Literal:
		return "literal"
	case Getter:
		return "getter"
	default:
		return "effect"
	}
}

// Well-known categories.
const (
	CategoryEntry    = "entry"
	CategoryEvent    = "event"
	CategoryFlow     = "flow"
	CategoryAsync    = "async"
	CategoryCore     = "core"
	CategoryConstant = "constant"
	CategoryMath     = "math"
	CategoryLogic    = "logic"
	CategoryString   = "string"
	CategoryEntity   = "entity"
	CategoryPlayer   = "player"
	CategoryGame     = "game"
	CategoryUI       = "ui"
)

// Initialization entry types.
const (
	TypeInitServer = "init-server"
	TypeInitClient = "init-client"
	TypeInitUI     = "init-ui"
)

// PortTemplate declares a port every instance of a node type gets.
type PortTemplate struct {
	ID    string          `json:"id" yaml:"id" toml:"id"`
	Label string          `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Kind  graph.PortKind  `json:"kind" yaml:"kind" toml:"kind"`
	Type  graph.ValueType `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
}

// Param is one parameter of an event callback, exposed through a data
// output port of the event node.
type Param struct {
	Name string          `json:"name" yaml:"name" toml:"name"`
	Type graph.ValueType `json:"type" yaml:"type" toml:"type"`
	Port string          `json:"port,omitempty" yaml:"port,omitempty" toml:"port,omitempty"`
}

// Definition is the catalog entry for one node type.
type Definition struct {
	Type        string
	Category    string
	Label       string
	Description string
	Inputs      []PortTemplate
	Outputs     []PortTemplate
	Defaults    map[string]any

	// Context is the explicit runtime requirement.
	Context graph.Context
	// Server, Client and UI are the legacy per-context flags. They mean
	// the same as the corresponding Context bits.
	Server, Client, UI bool

	Purity Purity
	Expr   string
	Stmt   string

	// Enums restricts {data.<key>} payload values to a fixed set.
	Enums map[string][]string
	// Idents lists payload keys that must hold a valid identifier.
	Idents []string

	// Event entries only.
	Callback    string
	Params      []Param
	Returns     graph.ValueType
	ReturnValue string
	FuncSuffix  string
}

// IsEntry reports whether the node type starts a traversal.
func (d *Definition) IsEntry() bool {
	return IsInitType(d.Type) || d.Category == CategoryEvent
}

// HasExec reports whether the node type takes part in control flow.
func (d *Definition) HasExec() bool {
	for _, p := range d.Inputs {
		if p.Kind == graph.KindExec {
			return true
		}
	}
	for _, p := range d.Outputs {
		if p.Kind == graph.KindExec {
			return true
		}
	}
	return false
}

// Requires returns the explicit context plus the legacy flags.
func (d *Definition) Requires() graph.Context {
	c := d.Context
	if d.Server {
		c |= graph.ContextServer
	}
	if d.Client {
		c |= graph.ContextClient
	}
	if d.UI {
		c |= graph.ContextUI
	}
	return c
}

// Default returns the declared default for a payload key.
func (d *Definition) Default(key string) (any, bool) {
	if d.Defaults == nil {
		return nil, false
	}
	v, ok := d.Defaults[key]
	return v, ok
}

// IsInitType reports whether t is one of the initialization entry types.
func IsInitType(t string) bool {
	return t == TypeInitServer || t == TypeInitClient || t == TypeInitUI
}

// Catalog is an immutable set of node definitions keyed by type.
type Catalog struct {
	defs map[string]*Definition
}

// New builds a catalog. Empty and duplicate types are rejected.
func New(defs ...Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*Definition, len(defs))}
	for i := range defs {
		if err := c.add(defs[i]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(def Definition) error {
	if def.Type == "" {
		return fmt.Errorf("node type cannot be empty")
	}
	if _, exists := c.defs[def.Type]; exists {
		return fmt.Errorf("node type %s is already registered", def.Type)
	}
	d := def
	c.defs[def.Type] = &d
	return nil
}

// Extend returns a new catalog holding the receiver's definitions plus defs.
func (c *Catalog) Extend(defs ...Definition) (*Catalog, error) {
	next := &Catalog{defs: make(map[string]*Definition, len(c.defs)+len(defs))}
	for k, v := range c.defs {
		next.defs[k] = v
	}
	for i := range defs {
		if err := next.add(defs[i]); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// Lookup returns the definition for a node type.
func (c *Catalog) Lookup(nodeType string) (*Definition, bool) {
	d, ok := c.defs[nodeType]
	return d, ok
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }

// Types returns every registered type, sorted.
func (c *Catalog) Types() []string {
	types := make([]string, 0, len(c.defs))
	for t := range c.defs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ByCategory returns node types grouped by category, each group sorted.
func (c *Catalog) ByCategory() map[string][]string {
	result := make(map[string][]string)
	for _, t := range c.Types() {
		d := c.defs[t]
		result[d.Category] = append(result[d.Category], t)
	}
	return result
}

// Categories returns the category names, sorted.
func (c *Catalog) Categories() []string {
	var cats []string
	for cat := range c.ByCategory() {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// Instantiate returns a copy of n whose ports are derived from the
// definition templates when the node carries none of its own.
func Instantiate(def *Definition, n graph.Node) graph.Node {
	if len(n.Inputs) == 0 && len(def.Inputs) > 0 {
		n.Inputs = make([]graph.Port, 0, len(def.Inputs))
		for _, t := range def.Inputs {
			n.Inputs = append(n.Inputs, t.port(graph.DirInput))
		}
	}
	if len(n.Outputs) == 0 && len(def.Outputs) > 0 {
		n.Outputs = make([]graph.Port, 0, len(def.Outputs))
		for _, t := range def.Outputs {
			n.Outputs = append(n.Outputs, t.port(graph.DirOutput))
		}
	}
	return n
}

func (t PortTemplate) port(dir graph.Direction) graph.Port {
	label := t.Label
	if label == "" {
		label = t.ID
	}
	return graph.Port{ID: t.ID, Label: label, Kind: t.Kind, Direction: dir, Type: t.Type}
}

// ============================================================================
// Built-in registry
// ============================================================================

var (
	builtinMu   sync.Mutex
	builtinDefs []Definition

	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// mustRegister adds a built-in definition. Called from init() in the
// nodes_*.go files.
func mustRegister(def Definition) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	if slices.ContainsFunc(builtinDefs, func(d Definition) bool { return d.Type == def.Type }) {
		panic(fmt.Sprintf("failed to register node %s: already registered", def.Type))
	}
	builtinDefs = append(builtinDefs, def)
}

// Default returns the process-wide built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		builtinMu.Lock()
		defer builtinMu.Unlock()
		c, err := New(builtinDefs...)
		if err != nil {
			panic(fmt.Sprintf("built-in catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// ============================================================================
// Port helpers for the built-in tables
// ============================================================================

func execIn() PortTemplate {
	return PortTemplate{ID: "exec", Kind: graph.KindExec}
}

// loopIn is the exec input a loop body links back to. It may be fed only
// from the loop's own body.
func loopIn() PortTemplate {
	return PortTemplate{ID: "continue", Label: "Continue", Kind: graph.KindExec}
}

func execOut(id string) PortTemplate {
	return PortTemplate{ID: id, Kind: graph.KindExec}
}

func then() PortTemplate { return execOut("then") }

func in(id string, t graph.ValueType) PortTemplate {
	return PortTemplate{ID: id, Kind: graph.KindData, Type: t}
}

func out(id string, t graph.ValueType) PortTemplate {
	return PortTemplate{ID: id, Kind: graph.KindData, Type: t}
}

func ports(p ...PortTemplate) []PortTemplate { return p }
