package codegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/graph"
)

var placeholderRe = regexp.MustCompile(`\{(in|out|data|lit)\.([A-Za-z0-9_]+)\}|\{fn\}`)

// expander fills the placeholders of a catalog template for one node.
type expander struct {
	n    *graph.Node
	def  *catalog.Definition
	ops  Operands
	fn   string
	outs []string
	err  error
}

func (x *expander) expand(tmpl string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		if x.err != nil {
			return m
		}
		if m == "{fn}" {
			return x.fn
		}
		parts := placeholderRe.FindStringSubmatch(m)
		kind, key := parts[1], parts[2]
		switch kind {
		case "in":
			v, ok := x.ops.Inputs[key]
			if !ok {
				x.err = graph.NodeError(graph.ErrInvalidNode, x.n.ID, "template references unknown input %q", key)
				return m
			}
			return v
		case "out":
			if _, ok := x.n.Output(key); !ok || x.ops.out == nil {
				x.err = graph.NodeError(graph.ErrInvalidNode, x.n.ID, "template references unknown output %q", key)
				return m
			}
			if !contains(x.outs, key) {
				x.outs = append(x.outs, key)
			}
			return x.ops.Out(key)
		case "data":
			s := x.n.DataString(key)
			if s == "" {
				x.err = graph.NodeError(graph.ErrInvalidNode, x.n.ID, "missing value for %q", key)
				return m
			}
			return s
		default:
			v, _ := x.n.DataValue(key)
			lit, err := Literal(graph.TypeAny, v)
			if err != nil {
				x.err = graph.NodeError(graph.ErrInvalidNode, x.n.ID, "%s: %v", key, err)
				return m
			}
			return lit
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// templateEmitter emits a node from the Expr/Stmt templates of its
// definition.
func templateEmitter(def *catalog.Definition) EmitFunc {
	return func(n *graph.Node, in Operands) (Emission, error) {
		x := &expander{n: n, def: def, ops: in}
		switch {
		case def.Stmt != "":
			text := x.expand(def.Stmt)
			if x.err != nil {
				return Emission{}, x.err
			}
			em := Emission{Lines: strings.Split(text, "\n")}
			if len(x.outs) > 0 {
				em.Bindings = make(map[string]string, len(x.outs))
				for _, p := range x.outs {
					em.Bindings[p] = in.Out(p)
				}
			}
			return em, nil

		case def.Expr != "":
			expr := x.expand(def.Expr)
			if x.err != nil {
				return Emission{}, x.err
			}
			port, hasOut := firstDataOutput(n)
			if !hasExec(n) {
				if !hasOut {
					return Emission{}, graph.NodeError(graph.ErrInvalidNode, n.ID, "expression node has no data output")
				}
				return Emission{Bindings: map[string]string{port.ID: expr}}, nil
			}
			if hasOut && in.Consumed(port.ID) {
				name := in.Out(port.ID)
				return Emission{
					Lines:    []string{declare(port.Type, name, expr)},
					Bindings: map[string]string{port.ID: name},
				}, nil
			}
			return Emission{Lines: []string{expr}}, nil
		}
		return Emission{}, graph.NodeError(graph.ErrNoEmitter, n.ID, "type %q has no template", n.Type)
	}
}

// expandCallback renders an event registration line.
func expandCallback(def *catalog.Definition, n *graph.Node, fn string) (string, error) {
	x := &expander{n: n, def: def, fn: fn}
	line := x.expand(def.Callback)
	return line, x.err
}

func declare(t graph.ValueType, name, expr string) string {
	return fmt.Sprintf("%s %s = %s", TypeKeyword(t), name, expr)
}

func firstDataOutput(n *graph.Node) (graph.Port, bool) {
	for _, p := range n.Outputs {
		if p.Kind == graph.KindData {
			return p, true
		}
	}
	return graph.Port{}, false
}

func hasExec(n *graph.Node) bool {
	for _, p := range n.Inputs {
		if p.IsExec() {
			return true
		}
	}
	for _, p := range n.Outputs {
		if p.IsExec() {
			return true
		}
	}
	return false
}
