package codegen

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/r5vforge/r5vforge/graph"
)

// ============================================================================
// Built-in emitters
// ============================================================================

func init() {
	MustRegister("sequence", Rule{Emit: passThrough})
	MustRegister("branch", Rule{Flow: emitBranch})
	MustRegister("loop-for", Rule{Flow: emitFor})
	MustRegister("loop-foreach", Rule{Flow: emitForEach})
	MustRegister("loop-while", Rule{Flow: emitWhile})
	MustRegister("switch", Rule{Flow: emitSwitch, Prepare: prepareSwitch})
	MustRegister("switch-case", Rule{Flow: detachedCase})
	MustRegister("switch-default", Rule{Flow: detachedCase})
	MustRegister("break", Rule{Flow: emitBreak})
	MustRegister("continue", Rule{Flow: emitContinue})
	MustRegister("return", Rule{Flow: emitReturn})
	MustRegister("delay", Rule{Flow: emitDelay})
	MustRegister("thread", Rule{Flow: emitThread})
	MustRegister("call-function", Rule{Emit: emitCall})

	for _, t := range []string{"const-int", "const-float", "const-string", "const-bool", "const-vector"} {
		MustRegister(t, Rule{Emit: emitConstant})
	}
}

// passThrough emits nothing; the exec outputs are walked in port order.
func passThrough(*graph.Node, Operands) (Emission, error) { return Emission{}, nil }

func emitBranch(b *Builder, n *graph.Node) error {
	cond, err := b.Input(n, "condition")
	if err != nil {
		return err
	}
	hasTrue, hasFalse := b.HasTargets(n, "true"), b.HasTargets(n, "false")

	if !hasTrue && hasFalse {
		b.WriteLine("if ( !%s )", wrap(cond))
		return b.Block(func() error { return b.Chain(n, "false") })
	}

	b.WriteLine("if ( %s )", cond)
	if err := b.Block(func() error { return b.Chain(n, "true") }); err != nil {
		return err
	}
	if hasFalse {
		b.line("else")
		return b.Block(func() error { return b.Chain(n, "false") })
	}
	return nil
}

func emitFor(b *Builder, n *graph.Node) error {
	first, err := b.Input(n, "first")
	if err != nil {
		return err
	}
	last, err := b.Input(n, "last")
	if err != nil {
		return err
	}

	i := b.Temp("index")
	b.WriteLine("for ( int %s = %s; %s < %s; %s++ )", i, first, i, last, i)
	err = b.Loop(n, func() error {
		b.Bind(n, "index", i)
		return b.Chain(n, "body")
	})
	if err != nil {
		return err
	}
	return b.Chain(n, "completed")
}

func emitForEach(b *Builder, n *graph.Node) error {
	arr, err := b.Input(n, "array")
	if err != nil {
		return err
	}

	elemType := graph.TypeAny
	if p, ok := n.Output("element"); ok {
		elemType = p.Type
	}
	i, elem := b.Temp("index"), b.Temp("element")
	b.WriteLine("foreach ( int %s, %s %s in %s )", i, TypeKeyword(elemType), elem, arr)
	err = b.Loop(n, func() error {
		b.Bind(n, "index", i)
		b.Bind(n, "element", elem)
		return b.Chain(n, "body")
	})
	if err != nil {
		return err
	}
	return b.Chain(n, "completed")
}

// emitWhile re-evaluates the condition on every iteration. When resolving
// the condition needs statements of its own they go inside the loop and the
// test becomes an explicit break.
func emitWhile(b *Builder, n *graph.Node) error {
	var cond string
	b.pushScope()
	b.indent++
	pre, err := b.capture(func() error {
		var err error
		cond, err = b.Input(n, "condition")
		return err
	})
	b.indent--
	if err != nil {
		b.popScope()
		return err
	}

	err = b.breakable(b.slot(n), func() error {
		if pre == "" {
			b.WriteLine("while ( %s )", cond)
		} else {
			b.line("while ( true )")
		}
		b.line("{")
		b.indent++
		if pre != "" {
			b.buf.WriteString(pre)
			b.WriteLine("if ( !%s )", wrap(cond))
			b.line("\tbreak")
		}
		err := b.Chain(n, "body")
		b.indent--
		b.line("}")
		return err
	})
	b.popScope()
	if err != nil {
		return err
	}
	return b.Chain(n, "completed")
}

// prepareSwitch adds one exec output per declared case value.
func prepareSwitch(n *graph.Node) {
	values, _ := graph.AsList(n.Data["cases"])
	var missing []graph.Port
	for i := range values {
		id := casePort(i)
		if _, ok := n.Output(id); !ok {
			missing = append(missing, graph.Port{ID: id, Label: id, Kind: graph.KindExec, Direction: graph.DirOutput})
		}
	}
	if len(missing) > 0 {
		n.Outputs = append(slices.Clone(n.Outputs), missing...)
	}
}

func casePort(i int) string { return "case_" + strconv.Itoa(i) }

type switchArm struct {
	label string
	node  *graph.Node
	port  string
}

// emitSwitch collects the arms of a switch: declared case values first,
// then switch-case and switch-default nodes attached to the cases output in
// connection order, then the default output.
func emitSwitch(b *Builder, n *graph.Node) error {
	value, err := b.Input(n, "value")
	if err != nil {
		return err
	}

	var arms []switchArm
	seen := map[string]bool{}
	addCase := func(v any, node *graph.Node, port string) error {
		lit, err := Literal(graph.TypeAny, v)
		if err != nil {
			return graph.NodeError(graph.ErrInvalidNode, node.ID, "case value: %v", err)
		}
		if seen[lit] {
			return graph.NodeError(graph.ErrInvalidNode, node.ID, "duplicate case %s", lit)
		}
		seen[lit] = true
		arms = append(arms, switchArm{label: "case " + lit + ":", node: node, port: port})
		return nil
	}

	values, _ := graph.AsList(n.Data["cases"])
	for i, v := range values {
		if err := addCase(v, n, casePort(i)); err != nil {
			return err
		}
	}

	var defaultArm *switchArm
	setDefault := func(node *graph.Node, port string) error {
		if defaultArm != nil {
			return graph.NodeError(graph.ErrInvalidNode, n.ID, "switch has more than one default")
		}
		defaultArm = &switchArm{label: "default:", node: node, port: port}
		return nil
	}

	for _, t := range b.idx.ExecTargets(b.slot(n), "cases") {
		c := b.idx.Nodes[t.Node]
		switch c.Type {
		case "switch-case":
			v, _ := c.DataValue("value")
			if err := addCase(v, c, "body"); err != nil {
				return err
			}
		case "switch-default":
			if err := setDefault(c, "body"); err != nil {
				return err
			}
		default:
			return graph.NodeError(graph.ErrInvalidNode, c.ID, "only switch-case and switch-default may attach to a switch")
		}
	}
	if b.HasTargets(n, "default") {
		if err := setDefault(n, "default"); err != nil {
			return err
		}
	}
	if defaultArm != nil {
		arms = append(arms, *defaultArm)
	}

	b.WriteLine("switch ( %s )", value)
	b.line("{")
	b.indent++
	err = b.breakable(switchMarker, func() error {
		for _, arm := range arms {
			b.line(arm.label)
			b.indent++
			b.pushScope()
			err := b.caseBody(arm)
			b.popScope()
			if err == nil && !terminates(b.lastLine) {
				b.line("break")
			}
			b.indent--
			if err != nil {
				return err
			}
		}
		return nil
	})
	b.indent--
	b.line("}")
	return err
}

func (b *Builder) caseBody(arm switchArm) error {
	if arm.node.Type == "switch" {
		return b.Chain(arm.node, arm.port)
	}
	i := b.slot(arm.node)
	if b.state[i] == grey {
		return graph.NodeError(graph.ErrCycle, arm.node.ID, "exec path returns to %q", arm.node.ID)
	}
	b.state[i] = grey
	b.reached[i] = true
	err := b.Chain(arm.node, arm.port)
	b.state[i] = black
	return err
}

func terminates(line string) bool {
	line = strings.TrimSpace(line)
	return line == "break" || line == "continue" || line == "return" || strings.HasPrefix(line, "return ")
}

// detachedCase rejects switch arms reached from anything but a switch.
func detachedCase(b *Builder, n *graph.Node) error {
	return graph.NodeError(graph.ErrInvalidNode, n.ID, "%s must be attached to the cases output of a switch", n.Type)
}

func emitBreak(b *Builder, n *graph.Node) error {
	if !b.InBreakable() {
		return graph.NodeError(graph.ErrInvalidNode, n.ID, "break outside of a loop or switch")
	}
	b.line("break")
	return nil
}

func emitContinue(b *Builder, n *graph.Node) error {
	if !b.InLoop() {
		return graph.NodeError(graph.ErrInvalidNode, n.ID, "continue outside of a loop")
	}
	b.line("continue")
	return nil
}

func emitReturn(b *Builder, n *graph.Node) error {
	b.line(b.ReturnStatement())
	return nil
}

func emitDelay(b *Builder, n *graph.Node) error {
	if b.HasTargets(n, "delayed") {
		err := b.Closure(func() error {
			secs, err := b.Input(n, "seconds")
			if err != nil {
				return err
			}
			b.WriteLine("wait %s", secs)
			return b.Chain(n, "delayed")
		})
		if err != nil {
			return err
		}
	}
	return b.Chain(n, "then")
}

func emitThread(b *Builder, n *graph.Node) error {
	if b.HasTargets(n, "body") {
		if err := b.Closure(func() error { return b.Chain(n, "body") }); err != nil {
			return err
		}
	}
	return b.Chain(n, "then")
}

// emitCall passes arguments up to the last one that is connected or set.
func emitCall(n *graph.Node, in Operands) (Emission, error) {
	fn := n.DataString("function")
	if !IsIdent(fn) {
		return Emission{}, graph.NodeError(graph.ErrInvalidNode, n.ID, "invalid function name %q", fn)
	}

	last := -1
	for i := 0; ; i++ {
		port := fmt.Sprintf("arg%d", i)
		if _, ok := in.Inputs[port]; !ok {
			break
		}
		if in.Set[port] {
			last = i
		}
	}
	args := make([]string, 0, last+1)
	for i := 0; i <= last; i++ {
		args = append(args, in.In(fmt.Sprintf("arg%d", i)))
	}

	call := fn + "()"
	if len(args) > 0 {
		call = fmt.Sprintf("%s( %s )", fn, strings.Join(args, ", "))
	}
	if p, ok := n.Output("result"); ok && in.Consumed("result") {
		name := in.Out("result")
		return Emission{
			Lines:    []string{declare(p.Type, name, call)},
			Bindings: map[string]string{"result": name},
		}, nil
	}
	return Emission{Lines: []string{call}}, nil
}

func emitConstant(n *graph.Node, _ Operands) (Emission, error) {
	p, ok := firstDataOutput(n)
	if !ok {
		return Emission{}, graph.NodeError(graph.ErrInvalidNode, n.ID, "constant has no output")
	}
	v, _ := n.DataValue("value")
	lit, err := Literal(p.Type, v)
	if err != nil {
		return Emission{}, graph.NodeError(graph.ErrInvalidNode, n.ID, "value: %v", err)
	}
	return Emission{Bindings: map[string]string{p.ID: lit}}, nil
}

// wrap parenthesizes an expression unless it already is.
func wrap(expr string) string {
	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") && balanced(expr[1:len(expr)-1]) {
		return expr
	}
	return "( " + expr + " )"
}

func balanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
