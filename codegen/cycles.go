package codegen

import (
	"github.com/r5vforge/r5vforge/graph"
)

// loopBodies maps loop-construct node types to the exec output whose chain
// may lead back to the loop node.
var loopBodies = map[string]string{
	"loop-for":     "body",
	"loop-foreach": "body",
	"loop-while":   "body",
}

// checkCycles finds exec and data cycles anywhere in the graph, including
// parts no entry reaches. An exec edge back into a loop node from its own
// body is not a cycle.
func checkCycles(idx *graph.Index) error {
	if err := checkExecCycles(idx); err != nil {
		return err
	}
	return checkDataCycles(idx)
}

func checkExecCycles(idx *graph.Index) error {
	state := make([]color, idx.Len())
	via := make([]string, idx.Len())

	var walk func(i int) error
	walk = func(i int) error {
		state[i] = grey
		n := idx.Nodes[i]
		for _, p := range n.ExecOutputs() {
			via[i] = p.ID
			for _, t := range idx.ExecTargets(i, p.ID) {
				switch state[t.Node] {
				case grey:
					target := idx.Nodes[t.Node]
					if body, ok := loopBodies[target.Type]; ok && via[t.Node] == body {
						continue
					}
					return graph.NodeError(graph.ErrCycle, target.ID, "exec cycle through %q", target.ID)
				case white:
					if err := walk(t.Node); err != nil {
						return err
					}
				}
			}
		}
		via[i] = ""
		state[i] = black
		return nil
	}

	for i := range idx.Nodes {
		if state[i] == white {
			if err := walk(i); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkDataCycles(idx *graph.Index) error {
	state := make([]color, idx.Len())

	var walk func(i int) error
	walk = func(i int) error {
		state[i] = grey
		for _, p := range idx.Nodes[i].Outputs {
			if p.IsExec() {
				continue
			}
			for _, c := range idx.DataConsumers(i, p.ID) {
				switch state[c.Node] {
				case grey:
					return graph.NodeError(graph.ErrCycle, idx.Nodes[c.Node].ID, "data dependency cycle")
				case white:
					if err := walk(c.Node); err != nil {
						return err
					}
				}
			}
		}
		state[i] = black
		return nil
	}

	for i := range idx.Nodes {
		if state[i] == white {
			if err := walk(i); err != nil {
				return err
			}
		}
	}
	return nil
}
