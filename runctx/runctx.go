// Package runctx infers which script VMs (server, client, UI) a graph must
// be registered for.
package runctx

import (
	"strings"

	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/graph"
)

// Type-id fragments that imply a runtime. Matched against the lowercased
// type id with separators removed.
var (
	serverFragments = []string{"spawn", "gamemode", "gamerules"}
	clientFragments = []string{"localplayer", "localclient"}
)

// Infer folds over the nodes and returns the contexts the script needs.
// It never returns ContextNone: a graph that requires nothing runs on
// both server and client.
func Infer(nodes []graph.Node, cat *catalog.Catalog) graph.Context {
	var ctx graph.Context
	for i := range nodes {
		ctx |= Node(&nodes[i], cat)
	}
	if ctx == graph.ContextNone {
		return graph.ContextServer | graph.ContextClient
	}
	return ctx
}

// Node returns the contexts a single node requires. Unknown types are still
// subject to the name heuristics.
func Node(n *graph.Node, cat *catalog.Catalog) graph.Context {
	var ctx graph.Context
	if def, ok := cat.Lookup(n.Type); ok {
		ctx |= def.Requires()
		if def.Category == catalog.CategoryUI {
			ctx |= graph.ContextUI
		}
	}

	switch n.Type {
	case catalog.TypeInitServer:
		ctx |= graph.ContextServer
	case catalog.TypeInitClient:
		ctx |= graph.ContextClient
	case catalog.TypeInitUI:
		ctx |= graph.ContextUI
	}

	key := normalize(n.Type)
	if containsAny(key, serverFragments) {
		ctx |= graph.ContextServer
	}
	if containsAny(key, clientFragments) {
		ctx |= graph.ContextClient
	}
	return ctx
}

func normalize(t string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ', '.', ':':
			return -1
		}
		return r
	}, strings.ToLower(t))
}

func containsAny(s string, frags []string) bool {
	for _, f := range frags {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
