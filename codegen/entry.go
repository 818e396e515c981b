package codegen

import (
	"fmt"
	"strings"

	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/graph"
)

// entry is one generated global function.
type entry struct {
	slot int // -1 for the synthesized init function
	name string
	def  *catalog.Definition

	// registrations are callback registration lines emitted first in the
	// function body.
	registrations []string
}

func (e entry) nodeID(idx *graph.Index) string {
	if e.slot < 0 {
		return ""
	}
	return idx.Nodes[e.slot].ID
}

// entries lists the functions of a script in node-list order. Event
// registrations go into the first init entry whose runtime overlaps the
// event's; when there is none a <Module>_Init function is synthesized in
// front of the others.
func (g *Generator) entries(idx *graph.Index, defs []*catalog.Definition, module string) ([]*entry, error) {
	used := make(map[string]bool)
	unique := func(base string) string {
		name := base
		for i := 2; used[name]; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		used[name] = true
		return name
	}

	var list []*entry
	for i, def := range defs {
		if !def.IsEntry() {
			continue
		}
		n := idx.Nodes[i]
		suffix := def.FuncSuffix
		if suffix == "" {
			suffix = Ident(def.Type)
		}
		base := module + "_" + suffix
		if custom := n.DataString("functionName"); custom != "" {
			base = custom
		}
		list = append(list, &entry{slot: i, name: unique(base), def: def})
	}

	var synthesized *entry
	for _, e := range list {
		if e.def.Callback == "" {
			continue
		}
		n := idx.Nodes[e.slot]
		line, err := expandCallback(e.def, n, e.name)
		if err != nil {
			return nil, err
		}

		target := registrationTarget(list, e.def.Requires())
		if target == nil {
			if synthesized == nil {
				synthesized = &entry{slot: -1, name: unique(module + "_Init")}
			}
			target = synthesized
		}
		target.registrations = append(target.registrations, line)
	}

	if synthesized != nil {
		list = append([]*entry{synthesized}, list...)
	}
	return list, nil
}

func registrationTarget(list []*entry, need graph.Context) *entry {
	for _, e := range list {
		if !catalog.IsInitType(e.def.Type) {
			continue
		}
		if need == graph.ContextNone || e.def.Requires()&need != 0 {
			return e
		}
	}
	return nil
}

// entry writes one global function.
func (b *Builder) entry(e *entry) error {
	b.fn = &function{name: e.name}
	b.frame = b.newFrame(nil, false)
	b.indent = 0

	var params []string
	bindings := map[string]string{}
	if e.def != nil {
		b.fn.returns = e.def.Returns
		b.fn.retVal = e.def.ReturnValue
		if b.fn.returns != "" && b.fn.retVal == "" {
			b.fn.retVal = ZeroValue(b.fn.returns)
		}
		for _, p := range e.def.Params {
			name := Ident(p.Name)
			params = append(params, TypeKeyword(p.Type)+" "+name)
			if p.Port != "" {
				bindings[p.Port] = name
			}
		}
	}

	ret := "void"
	if b.fn.returns != "" {
		ret = TypeKeyword(b.fn.returns)
	}
	if len(params) > 0 {
		b.WriteLine("%s function %s( %s )", ret, e.name, strings.Join(params, ", "))
	} else {
		b.WriteLine("%s function %s()", ret, e.name)
	}
	b.line("{")
	b.indent++
	b.lastLine = "{"

	for _, r := range e.registrations {
		b.line(r)
	}

	if e.slot >= 0 {
		n := b.idx.Nodes[e.slot]
		if len(bindings) > 0 {
			b.bind(e.slot, bindings)
		}
		b.state[e.slot] = grey
		b.reached[e.slot] = true
		for _, p := range n.ExecOutputs() {
			if err := b.Chain(n, p.ID); err != nil {
				return err
			}
		}
		b.state[e.slot] = black
	}

	if b.fn.returns != "" && !terminates(b.lastLine) {
		b.line(b.ReturnStatement())
	}
	b.indent--
	b.line("}")
	return nil
}
