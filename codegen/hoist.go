package codegen

import (
	"github.com/r5vforge/r5vforge/graph"
)

// site is a position in one scope: the index of the exec node walked
// directly in it, or -1 before the first one.
type site struct {
	scope int
	pos   int
}

// use is one read of a shared producer. path lists the open scopes from
// the function body inwards, crossing closure frames.
type use struct {
	src  graph.PortRef
	path []site
}

// hoist binds src in scope before the exec node at pos is emitted.
type hoist struct {
	src graph.PortRef
	pos int
}

func (b *Builder) path() []site {
	var frames []*frame
	for f := b.frame; f != nil; f = f.parent {
		frames = append(frames, f)
	}
	var p []site
	for i := len(frames) - 1; i >= 0; i-- {
		for _, s := range frames[i].scopes {
			p = append(p, site{scope: s.id, pos: s.visits - 1})
		}
	}
	return p
}

// planHoists finds the producers read from more than one block and places
// each in the innermost scope that encloses every read, at the statement
// holding the first read. Producers read in separate functions are left
// alone. Hoists within one scope keep first-read order.
func planHoists(uses []use) map[int][]hoist {
	type group struct {
		first  use
		common int
	}
	var order []graph.PortRef
	groups := make(map[graph.PortRef]*group)
	for _, u := range uses {
		key := graph.PortRef{Node: u.src.Node}
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{first: u, common: len(u.path)}
			order = append(order, key)
			continue
		}
		n := 0
		for n < g.common && n < len(u.path) && u.path[n].scope == g.first.path[n].scope {
			n++
		}
		g.common = n
	}

	var out map[int][]hoist
	for _, key := range order {
		g := groups[key]
		if g.common == 0 || g.common == len(g.first.path) {
			continue
		}
		at := g.first.path[g.common-1]
		if out == nil {
			out = make(map[int][]hoist)
		}
		out[at.scope] = append(out[at.scope], hoist{src: g.first.src, pos: at.pos})
	}
	return out
}

// enter counts exec node i as walked in the current scope and binds the
// producers hoisted in front of it.
func (b *Builder) enter(i int) error {
	s := b.top()
	s.visits++
	for _, h := range b.hoists[s.id] {
		if h.pos != s.visits-1 {
			continue
		}
		if _, err := b.value(h.src, i); err != nil {
			return err
		}
	}
	return nil
}
