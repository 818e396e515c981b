// Package manifest renders the text files a mod loader reads besides the
// scripts themselves: the scripts.rson registration manifest, the mod.vdf
// descriptor, localization token files and the files of a new mod skeleton.
//
// Every function here is a pure fold over its arguments.
package manifest

import (
	"strings"

	"github.com/r5vforge/r5vforge/graph"
)

// ScriptEntry is one generated script as the registration manifest sees it.
type ScriptEntry struct {
	// Path is relative to scripts/vscripts and uses forward slashes.
	Path    string
	Context graph.Context
}

// clausePriority is the fixed order of well-known when clauses. Any other
// combination follows in first-seen order.
var clausePriority = []graph.Context{
	graph.ContextAll,
	graph.ContextServer | graph.ContextClient,
	graph.ContextServer,
	graph.ContextClient,
	graph.ContextUI,
}

// Registration renders scripts.rson. Scripts are grouped by when clause;
// within a group they keep their input order.
//
//	When: "SERVER"
//	Scripts:
//	[
//		mymod_server.nut
//	]
func Registration(scripts []ScriptEntry) string {
	groups := make(map[graph.Context][]string)
	var seen []graph.Context
	for _, s := range scripts {
		ctx := s.Context
		if ctx == graph.ContextNone {
			ctx = graph.ContextServer | graph.ContextClient
		}
		if _, ok := groups[ctx]; !ok {
			seen = append(seen, ctx)
		}
		groups[ctx] = append(groups[ctx], s.Path)
	}

	order := make([]graph.Context, 0, len(seen))
	for _, c := range clausePriority {
		if _, ok := groups[c]; ok {
			order = append(order, c)
		}
	}
	for _, c := range seen {
		if !isPriority(c) {
			order = append(order, c)
		}
	}

	var sb strings.Builder
	for i, c := range order {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(`When: "` + c.When() + "\"\n")
		sb.WriteString("Scripts:\n[\n")
		for _, p := range groups[c] {
			sb.WriteString("\t" + p + "\n")
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}

func isPriority(c graph.Context) bool {
	for _, p := range clausePriority {
		if p == c {
			return true
		}
	}
	return false
}
