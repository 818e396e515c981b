package runctx

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/graph"
)

func nodes(types ...string) []graph.Node {
	out := make([]graph.Node, len(types))
	for i, t := range types {
		out[i] = graph.Node{ID: t, Type: t}
	}
	return out
}

func TestInfer(t *testing.T) {
	cat := catalog.Default()
	tests := []struct {
		name  string
		types []string
		want  graph.Context
		when  string
	}{
		{"server init and print", []string{"init-server", "print"}, graph.ContextServer, "SERVER"},
		{"client init", []string{"init-client", "print"}, graph.ContextClient, "CLIENT"},
		{"ui init", []string{"init-ui"}, graph.ContextUI, "UI"},
		{"nothing required", []string{"print", "add"}, graph.ContextServer | graph.ContextClient, "SERVER || CLIENT"},
		{"empty graph", nil, graph.ContextServer | graph.ContextClient, "SERVER || CLIENT"},
		{"ui category", []string{"init-client", "open-menu"}, graph.ContextClient | graph.ContextUI, "CLIENT || UI"},
		{"explicit context", []string{"get-local-player"}, graph.ContextClient, "CLIENT"},
		{"legacy flag", []string{"set-health"}, graph.ContextServer, "SERVER"},
		{"all three", []string{"init-ui", "init-client", "init-server"}, graph.ContextAll, "SERVER || CLIENT || UI"},
		{"unknown spawn heuristic", []string{"custom_SpawnBot"}, graph.ContextServer, "SERVER"},
		{"unknown gamerules heuristic", []string{"GameRules.SetScore"}, graph.ContextServer, "SERVER"},
		{"unknown local player heuristic", []string{"local-player-hud"}, graph.ContextClient, "CLIENT"},
		{"unknown without hint", []string{"mystery"}, graph.ContextServer | graph.ContextClient, "SERVER || CLIENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Infer(nodes(tt.types...), cat)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.when, got.When())
		})
	}
}

func TestInfer_OrderIndependent(t *testing.T) {
	cat := catalog.Default()
	ns := nodes("init-client", "print", "get-gamemode", "open-menu", "add", "wait")
	want := Infer(ns, cat)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]graph.Node(nil), ns...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Infer(shuffled, cat))
	}
	assert.Equal(t, graph.ContextAll, want)
}

func TestNode_UsesExtendedCatalog(t *testing.T) {
	cat, err := catalog.Default().Extend(catalog.Definition{
		Type:     "hud-flash",
		Category: "custom",
		Client:   true,
	})
	if err != nil {
		t.Fatalf("Extend failed: %v", err)
	}
	n := graph.Node{ID: "n", Type: "hud-flash"}
	assert.Equal(t, graph.ContextClient, Node(&n, cat))
	assert.Equal(t, graph.ContextNone, Node(&n, catalog.Default()))
}
