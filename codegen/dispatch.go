package codegen

import (
	"fmt"
	"sync"

	"github.com/r5vforge/r5vforge/graph"
)

// ============================================================================
// Emitter dispatch table
// ============================================================================
//
// Every node type is emitted through exactly one Rule. Types without a rule
// fall back to the template emitter, which reads the Expr/Stmt templates of
// the catalog definition. Adding a node type is therefore a catalog entry;
// a Rule is only needed when the template language cannot express it.
//
// Example:
//
//	func init() {
//	    codegen.MustRegister("debug-draw-line", codegen.Rule{
//	        Emit: func(n *graph.Node, in codegen.Operands) (codegen.Emission, error) {
//	            return codegen.Emission{Lines: []string{
//	                fmt.Sprintf("DebugDrawLine( %s, %s, 255, 0, 0, true, 5.0 )", in.In("from"), in.In("to")),
//	            }}, nil
//	        },
//	    })
//	}

// Operands are the resolved inputs handed to an emitter.
type Operands struct {
	// Inputs maps input port id to a resolved expression.
	Inputs map[string]string
	// Set holds the inputs that are connected or carry a payload value.
	Set map[string]bool

	out      func(port string) string
	consumed func(port string) bool
}

// In returns the expression for an input port.
func (o Operands) In(port string) string { return o.Inputs[port] }

// Out returns the variable name reserved for a data output. Repeated calls
// with the same port return the same name.
func (o Operands) Out(port string) string { return o.out(port) }

// Consumed reports whether a data output feeds at least one input.
func (o Operands) Consumed(port string) bool { return o.consumed(port) }

// Emission is what an emitter produces for one node.
type Emission struct {
	// Lines are statements, without indentation.
	Lines []string
	// Bindings map data output port id to an expression. When the node is a
	// data producer the generator decides whether to inline the expression
	// or bind it to a temporary.
	Bindings map[string]string
}

// EmitFunc emits straight-line code for a node.
type EmitFunc func(n *graph.Node, in Operands) (Emission, error)

// FlowFunc emits a node that owns nested blocks (branches, loops, closures).
// It is responsible for walking the node's exec outputs through b.
type FlowFunc func(b *Builder, n *graph.Node) error

// Rule is the dispatch table entry for one node type.
type Rule struct {
	Emit EmitFunc
	Flow FlowFunc
	// Prepare may adjust the concrete ports of a node before indexing.
	Prepare func(n *graph.Node)
}

var (
	rulesMu sync.RWMutex
	rules   = make(map[string]Rule)
)

// Register adds a rule to the process-wide dispatch table.
func Register(nodeType string, r Rule) error {
	if nodeType == "" {
		return fmt.Errorf("node type cannot be empty")
	}
	if r.Emit == nil && r.Flow == nil {
		return fmt.Errorf("rule for %s has neither Emit nor Flow", nodeType)
	}
	if r.Emit != nil && r.Flow != nil {
		return fmt.Errorf("rule for %s has both Emit and Flow", nodeType)
	}

	rulesMu.Lock()
	defer rulesMu.Unlock()
	if _, exists := rules[nodeType]; exists {
		return fmt.Errorf("emitter for %s is already registered", nodeType)
	}
	rules[nodeType] = r
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(nodeType string, r Rule) {
	if err := Register(nodeType, r); err != nil {
		panic(fmt.Sprintf("failed to register emitter %s: %v", nodeType, err))
	}
}

// snapshotRules copies the dispatch table. Generators work on a snapshot so
// later registrations never change a generator in use.
func snapshotRules() map[string]Rule {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	out := make(map[string]Rule, len(rules))
	for k, v := range rules {
		out[k] = v
	}
	return out
}
