package graph

// PortRef addresses a port by arena slot and port id.
type PortRef struct {
	Node int
	Port string
}

// Index is an arena of nodes plus adjacency precomputed once per compile.
// Node slots follow input order, so everything derived from the index is
// deterministic.
type Index struct {
	Nodes []*Node

	byID      map[string]int
	execOut   map[PortRef][]PortRef
	execIn    map[int][]string
	dataIn    map[PortRef]PortRef
	dataOut   map[PortRef][]PortRef
	consumers []int
	inConn    map[PortRef]string
}

// BuildIndex validates connection references and builds adjacency. Nodes
// must already carry their concrete ports. All problems found are returned
// together as *Errors.
func BuildIndex(nodes []Node, conns []Connection) (*Index, error) {
	idx := &Index{
		Nodes:     make([]*Node, len(nodes)),
		byID:      make(map[string]int, len(nodes)),
		execOut:   make(map[PortRef][]PortRef),
		execIn:    make(map[int][]string),
		dataIn:    make(map[PortRef]PortRef),
		dataOut:   make(map[PortRef][]PortRef),
		consumers: make([]int, len(nodes)),
		inConn:    make(map[PortRef]string),
	}

	var errs Errors
	for i := range nodes {
		n := &nodes[i]
		if n.ID == "" {
			errs.Add(NodeError(ErrInvalidNode, "", "node at position %d has no id", i))
			continue
		}
		if _, dup := idx.byID[n.ID]; dup {
			errs.Add(NodeError(ErrInvalidNode, n.ID, "duplicate node id"))
			continue
		}
		idx.byID[n.ID] = i
		idx.Nodes[i] = n
	}

	for _, c := range conns {
		errs.Add(idx.addConnection(c))
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) addConnection(c Connection) error {
	src, ok := idx.byID[c.From.Node]
	if !ok {
		return ConnectionError(ErrDanglingReference, c.ID, c.From.Node, "source node does not exist")
	}
	dst, ok := idx.byID[c.To.Node]
	if !ok {
		return ConnectionError(ErrDanglingReference, c.ID, c.To.Node, "destination node does not exist")
	}

	srcNode, dstNode := idx.Nodes[src], idx.Nodes[dst]
	out, ok := srcNode.Output(c.From.Port)
	if !ok {
		if _, isInput := srcNode.Input(c.From.Port); isInput {
			return ConnectionError(ErrPortDirection, c.ID, srcNode.ID, "source port %q is an input", c.From.Port)
		}
		return ConnectionError(ErrDanglingReference, c.ID, srcNode.ID, "source port %q does not exist", c.From.Port)
	}
	in, ok := dstNode.Input(c.To.Port)
	if !ok {
		if _, isOutput := dstNode.Output(c.To.Port); isOutput {
			return ConnectionError(ErrPortDirection, c.ID, dstNode.ID, "destination port %q is an output", c.To.Port)
		}
		return ConnectionError(ErrDanglingReference, c.ID, dstNode.ID, "destination port %q does not exist", c.To.Port)
	}
	if out.Kind != in.Kind {
		return ConnectionError(ErrPortKindMismatch, c.ID, dstNode.ID, "%s port %q connected to %s port %q", out.Kind, out.ID, in.Kind, in.ID)
	}

	to := PortRef{Node: dst, Port: in.ID}
	if prev, taken := idx.inConn[to]; taken {
		return ConnectionError(ErrDuplicateInput, c.ID, dstNode.ID, "port %q already fed by connection %q", in.ID, prev)
	}
	idx.inConn[to] = c.ID

	from := PortRef{Node: src, Port: out.ID}
	if out.IsExec() {
		idx.execOut[from] = append(idx.execOut[from], to)
		idx.execIn[dst] = append(idx.execIn[dst], c.ID)
		return nil
	}
	idx.dataIn[to] = from
	idx.dataOut[from] = append(idx.dataOut[from], to)
	idx.consumers[src]++
	return nil
}

// Lookup returns the arena slot of a node id.
func (idx *Index) Lookup(id string) (int, bool) {
	i, ok := idx.byID[id]
	return i, ok
}

// Len returns the number of nodes in the arena.
func (idx *Index) Len() int { return len(idx.Nodes) }

// ExecTargets returns the nodes fed by an exec output, in connection order.
func (idx *Index) ExecTargets(node int, port string) []PortRef {
	return idx.execOut[PortRef{Node: node, Port: port}]
}

// IncomingExec returns the ids of exec connections into a node.
func (idx *Index) IncomingExec(node int) []string {
	return idx.execIn[node]
}

// Producer returns the output feeding a data input, if connected.
func (idx *Index) Producer(node int, port string) (PortRef, bool) {
	p, ok := idx.dataIn[PortRef{Node: node, Port: port}]
	return p, ok
}

// DataConsumers returns the inputs fed by a data output.
func (idx *Index) DataConsumers(node int, port string) []PortRef {
	return idx.dataOut[PortRef{Node: node, Port: port}]
}

// ConsumerCount is the number of data connections leaving a node across all
// of its outputs.
func (idx *Index) ConsumerCount(node int) int {
	return idx.consumers[node]
}
