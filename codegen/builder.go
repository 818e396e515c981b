package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/graph"
)

// ============================================================================
// Builder - per-compile traversal state
// ============================================================================
//
// A Builder walks the exec edges of one script depth-first and writes
// statements into a buffer. Node state uses three colors: white (not
// visited), grey (on the current walk path) and black (finished). Reaching
// a grey node is a cycle unless it is the innermost loop whose body is
// being walked; that back edge simply ends the body.
//
// Data producers are memoized per block. A binding made inside a block is
// dropped when the block closes, so a temporary is never referenced outside
// the block that declares it. Closures (thread, delay) open a new frame;
// reading a binding from an enclosing frame records a capture.
//
// A producer whose consumers sit in different blocks must still run once.
// Generation therefore records where each shared producer is used and, when
// the uses span blocks, walks the graph a second time binding the producer
// in the innermost block enclosing all of them, just before the statement
// that holds the first use (see hoist.go).

type color uint8

const (
	white color = iota
	grey
	black
)

// switchMarker marks an open switch in the breakable stack.
const switchMarker = -1

// continuePort is the loop input that only the loop's own body may feed.
const continuePort = "continue"

// scope holds the bindings of one block. visits counts the exec nodes
// walked directly in it so far.
type scope struct {
	id       int
	visits   int
	bindings map[int]map[string]string
}

type frame struct {
	parent    *frame
	scopes    []*scope
	breakable []int
	closure   bool
	captures  []string
}

func (f *frame) capture(name string) {
	if !IsIdent(name) || contains(f.captures, name) {
		return
	}
	f.captures = append(f.captures, name)
}

func (f *frame) innermostLoop() int {
	for i := len(f.breakable) - 1; i >= 0; i-- {
		if f.breakable[i] != switchMarker {
			return f.breakable[i]
		}
	}
	return -1
}

type function struct {
	name    string
	returns graph.ValueType
	retVal  string
	temps   int
}

// Builder emits one script. FlowFunc emitters drive it through the
// exported methods.
type Builder struct {
	gen  *Generator
	idx  *graph.Index
	defs []*catalog.Definition

	buf      *bytes.Buffer
	indent   int
	lastLine string

	state     []color
	resolving []bool
	reached   []bool
	volatile  []int8

	frame  *frame
	fn     *function
	scopes int

	// record collects uses of shared producers; hoists replays them.
	record bool
	uses   []use
	hoists map[int][]hoist
}

func newBuilder(g *Generator, idx *graph.Index, defs []*catalog.Definition) *Builder {
	n := idx.Len()
	return &Builder{
		gen:       g,
		idx:       idx,
		defs:      defs,
		buf:       &bytes.Buffer{},
		state:     make([]color, n),
		resolving: make([]bool, n),
		reached:   make([]bool, n),
		volatile:  make([]int8, n),
	}
}

// ============================================================================
// Output
// ============================================================================

// WriteLine writes a formatted line at the current indentation.
func (b *Builder) WriteLine(format string, args ...any) {
	b.line(fmt.Sprintf(format, args...))
}

func (b *Builder) line(s string) {
	b.buf.WriteString(strings.Repeat("\t", b.indent))
	b.buf.WriteString(s)
	b.buf.WriteByte('\n')
	b.lastLine = s
}

// Indent increases the indentation level.
func (b *Builder) Indent() { b.indent++ }

// Dedent decreases the indentation level.
func (b *Builder) Dedent() {
	if b.indent > 0 {
		b.indent--
	}
}

// capture runs fn with output redirected and returns what it wrote.
func (b *Builder) capture(fn func() error) (string, error) {
	saved := b.buf
	b.buf = &bytes.Buffer{}
	err := fn()
	out := b.buf.String()
	b.buf = saved
	return out, err
}

// ============================================================================
// Blocks, scopes, closures
// ============================================================================

func (b *Builder) newScope() *scope {
	b.scopes++
	return &scope{id: b.scopes, bindings: map[int]map[string]string{}}
}

func (b *Builder) newFrame(parent *frame, closure bool) *frame {
	return &frame{parent: parent, scopes: []*scope{b.newScope()}, closure: closure}
}

func (b *Builder) top() *scope { return b.frame.scopes[len(b.frame.scopes)-1] }

func (b *Builder) pushScope() { b.frame.scopes = append(b.frame.scopes, b.newScope()) }

func (b *Builder) popScope() { b.frame.scopes = b.frame.scopes[:len(b.frame.scopes)-1] }

// Block writes a braced block whose bindings are local to it.
func (b *Builder) Block(body func() error) error {
	b.line("{")
	b.indent++
	b.pushScope()
	err := body()
	b.popScope()
	b.indent--
	b.line("}")
	return err
}

// Loop writes a block that is the body of loop node n. A back edge from the
// body to n ends the body.
func (b *Builder) Loop(n *graph.Node, body func() error) error {
	return b.breakable(b.slot(n), func() error { return b.Block(body) })
}

func (b *Builder) breakable(marker int, fn func() error) error {
	b.frame.breakable = append(b.frame.breakable, marker)
	err := fn()
	b.frame.breakable = b.frame.breakable[:len(b.frame.breakable)-1]
	return err
}

// InLoop reports whether a loop body is open in the current function or
// closure.
func (b *Builder) InLoop() bool { return b.frame.innermostLoop() >= 0 }

// InBreakable reports whether a loop or switch is open.
func (b *Builder) InBreakable() bool { return len(b.frame.breakable) > 0 }

// InClosure reports whether emission happens inside a thread closure.
func (b *Builder) InClosure() bool { return b.frame.closure }

// Closure writes `thread void function() : ( captures ) { body }()`.
// The body runs in a fresh frame; temporaries of enclosing frames that it
// reads become captures.
func (b *Builder) Closure(body func() error) error {
	f := b.newFrame(b.frame, true)
	b.frame = f
	b.indent++
	text, err := b.capture(body)
	b.indent--
	b.frame = f.parent
	if err != nil {
		return err
	}

	if len(f.captures) > 0 {
		b.WriteLine("thread void function() : ( %s )", strings.Join(f.captures, ", "))
	} else {
		b.line("thread void function()")
	}
	b.line("{")
	b.buf.WriteString(text)
	b.line("}()")
	return nil
}

// ============================================================================
// Temporaries and bindings
// ============================================================================

// Temp allocates a fresh temporary name for an output port.
func (b *Builder) Temp(port string) string {
	b.fn.temps++
	return fmt.Sprintf("v%d_%s", b.fn.temps, Ident(port))
}

// Bind records that output port of n is available as name in the current
// block.
func (b *Builder) Bind(n *graph.Node, port, name string) {
	b.bind(b.slot(n), map[string]string{port: name})
}

func (b *Builder) bind(node int, outs map[string]string) {
	top := b.top()
	m := top.bindings[node]
	if m == nil {
		m = make(map[string]string, len(outs))
		top.bindings[node] = m
	}
	for k, v := range outs {
		m[k] = v
	}
}

func (b *Builder) lookup(node int, port string) (string, bool) {
	var crossed []*frame
	for f := b.frame; f != nil; f = f.parent {
		for s := len(f.scopes) - 1; s >= 0; s-- {
			if name, ok := f.scopes[s].bindings[node][port]; ok {
				for _, c := range crossed {
					c.capture(name)
				}
				return name, true
			}
		}
		if f.closure {
			crossed = append(crossed, f)
		}
	}
	return "", false
}

func (b *Builder) slot(n *graph.Node) int {
	i, _ := b.idx.Lookup(n.ID)
	return i
}

// ============================================================================
// Data resolution
// ============================================================================

// Input resolves the expression for a data input of n.
func (b *Builder) Input(n *graph.Node, port string) (string, error) {
	p, ok := n.Input(port)
	if !ok || p.IsExec() {
		return "", graph.NodeError(graph.ErrInvalidNode, n.ID, "no data input %q", port)
	}
	return b.input(b.slot(n), p)
}

func (b *Builder) input(i int, p graph.Port) (string, error) {
	if src, ok := b.idx.Producer(i, p.ID); ok {
		return b.value(src, i)
	}
	n := b.idx.Nodes[i]
	v, ok := n.DataValue(p.ID)
	if !ok {
		return ZeroValue(p.Type), nil
	}
	lit, err := Literal(p.Type, v)
	if err != nil {
		return "", graph.NodeError(graph.ErrInvalidNode, n.ID, "input %q: %v", p.ID, err)
	}
	return lit, nil
}

// value returns the expression for a producer output, emitting and binding
// the producer on first use. Getters, and pure expressions over getters, are
// emitted again at every use so they read the current state.
func (b *Builder) value(src graph.PortRef, consumer int) (string, error) {
	n := b.idx.Nodes[src.Node]
	if b.record && !hasExec(n) && b.shared(src.Node) {
		b.uses = append(b.uses, use{src: src, path: b.path()})
	}
	if expr, ok := b.lookup(src.Node, src.Port); ok {
		return expr, nil
	}

	if hasExec(n) {
		return "", graph.NodeError(graph.ErrInvalidNode, b.idx.Nodes[consumer].ID,
			"reads output %q of %q before it runs", src.Port, n.ID)
	}
	if b.resolving[src.Node] {
		return "", graph.NodeError(graph.ErrCycle, n.ID, "data dependency cycle")
	}
	b.resolving[src.Node] = true
	defer func() { b.resolving[src.Node] = false }()
	b.reached[src.Node] = true

	em, reserved, err := b.emit(src.Node)
	if err != nil {
		return "", err
	}
	for _, l := range em.Lines {
		b.line(l)
	}
	expr, ok := em.Bindings[src.Port]
	if !ok {
		return "", graph.NodeError(graph.ErrNoEmitter, n.ID, "no value for output %q", src.Port)
	}

	def := b.defs[src.Node]
	volatile := b.isVolatile(src.Node)
	switch {
	case def.Purity == catalog.Literal:
		return expr, nil
	case volatile && len(em.Lines) == 0:
		return expr, nil
	case def.Purity == catalog.Pure && len(em.Lines) == 0 && b.idx.ConsumerCount(src.Node) <= 1:
		return expr, nil
	}

	bound := make(map[string]string, len(em.Bindings))
	for _, out := range n.Outputs {
		e, ok := em.Bindings[out.ID]
		if !ok || out.IsExec() {
			continue
		}
		if name, declared := reserved[out.ID]; declared && name == e {
			bound[out.ID] = e
			continue
		}
		name := reserved[out.ID]
		if name == "" {
			name = b.Temp(out.ID)
		}
		b.line(declare(out.Type, name, e))
		bound[out.ID] = name
	}
	if !volatile {
		b.bind(src.Node, bound)
	}
	return bound[src.Port], nil
}

// shared reports whether a producer is bound to a temporary that several
// consumers may read.
func (b *Builder) shared(i int) bool {
	switch b.defs[i].Purity {
	case catalog.Effect:
		return true
	case catalog.Pure:
		return b.idx.ConsumerCount(i) > 1 && !b.isVolatile(i)
	}
	return false
}

// isVolatile reports whether a producer reads mutable state: it is a getter
// or a pure node fed by one.
func (b *Builder) isVolatile(i int) bool {
	switch b.volatile[i] {
	case 1:
		return false
	case 2:
		return true
	}
	b.volatile[i] = 1
	v := false
	switch b.defs[i].Purity {
	case catalog.Getter:
		v = true
	case catalog.Pure:
		for _, p := range b.idx.Nodes[i].Inputs {
			if p.IsExec() {
				continue
			}
			if src, ok := b.idx.Producer(i, p.ID); ok && b.isVolatile(src.Node) {
				v = true
				break
			}
		}
	}
	if v {
		b.volatile[i] = 2
	}
	return v
}

// Operands resolves every data input of n.
func (b *Builder) Operands(n *graph.Node) (Operands, error) {
	return b.operands(b.slot(n))
}

func (b *Builder) operands(i int) (Operands, error) {
	n := b.idx.Nodes[i]
	ops := Operands{
		Inputs: make(map[string]string, len(n.Inputs)),
		Set:    make(map[string]bool, len(n.Inputs)),
	}
	for _, p := range n.Inputs {
		if p.IsExec() {
			continue
		}
		expr, err := b.input(i, p)
		if err != nil {
			return Operands{}, err
		}
		ops.Inputs[p.ID] = expr
		_, connected := b.idx.Producer(i, p.ID)
		_, hasValue := n.DataValue(p.ID)
		ops.Set[p.ID] = connected || hasValue
	}
	return ops, nil
}

func (b *Builder) emit(i int) (Emission, map[string]string, error) {
	n := b.idx.Nodes[i]
	ops, err := b.operands(i)
	if err != nil {
		return Emission{}, nil, err
	}
	reserved := make(map[string]string)
	ops.out = func(port string) string {
		if name, ok := reserved[port]; ok {
			return name
		}
		name := b.Temp(port)
		reserved[port] = name
		return name
	}
	ops.consumed = func(port string) bool {
		return len(b.idx.DataConsumers(i, port)) > 0
	}

	rule, ok := b.gen.rules[n.Type]
	if ok && rule.Flow != nil {
		return Emission{}, nil, graph.NodeError(graph.ErrInvalidNode, n.ID, "control-flow node %q used as a value", n.Type)
	}
	emit := templateEmitter(b.defs[i])
	if ok && rule.Emit != nil {
		emit = rule.Emit
	}
	em, err := emit(n, ops)
	return em, reserved, err
}

// ============================================================================
// Exec traversal
// ============================================================================

// HasTargets reports whether an exec output of n is connected.
func (b *Builder) HasTargets(n *graph.Node, port string) bool {
	return len(b.idx.ExecTargets(b.slot(n), port)) > 0
}

// Chain emits every node attached to an exec output of n, in connection
// order.
func (b *Builder) Chain(n *graph.Node, port string) error {
	for _, t := range b.idx.ExecTargets(b.slot(n), port) {
		if t.Port == continuePort && b.isLoop(t.Node) && b.frame.innermostLoop() != t.Node {
			target := b.idx.Nodes[t.Node]
			return graph.NodeError(graph.ErrInvalidNode, target.ID, "%s input of %q is fed from outside its body", continuePort, target.ID)
		}
		if err := b.visit(t.Node); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) isLoop(i int) bool {
	_, ok := loopBodies[b.idx.Nodes[i].Type]
	return ok
}

func (b *Builder) visit(i int) error {
	n := b.idx.Nodes[i]
	if b.state[i] == grey {
		if b.frame.innermostLoop() == i {
			return nil
		}
		return graph.NodeError(graph.ErrCycle, n.ID, "exec path returns to %q", n.ID)
	}

	b.state[i] = grey
	b.reached[i] = true
	if err := b.enter(i); err != nil {
		return err
	}
	var err error
	if rule, ok := b.gen.rules[n.Type]; ok && rule.Flow != nil {
		err = rule.Flow(b, n)
	} else {
		err = b.straight(i)
	}
	b.state[i] = black
	return err
}

// straight emits a node without nested blocks and then each of its exec
// outputs in port order.
func (b *Builder) straight(i int) error {
	n := b.idx.Nodes[i]
	em, _, err := b.emit(i)
	if err != nil {
		return err
	}
	for _, l := range em.Lines {
		b.line(l)
	}
	if len(em.Bindings) > 0 {
		b.bind(i, em.Bindings)
	}
	for _, p := range n.ExecOutputs() {
		if err := b.Chain(n, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// ReturnStatement is the statement that leaves the current function.
func (b *Builder) ReturnStatement() string {
	if b.frame.closure || b.fn.returns == "" {
		return "return"
	}
	return "return " + b.fn.retVal
}
