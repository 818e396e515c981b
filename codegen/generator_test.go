package codegen

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/graph"
)

// ============================================================================
// Helpers
// ============================================================================

func node(id, typ string, data map[string]any) graph.Node {
	return graph.Node{ID: id, Type: typ, Data: data}
}

func conn(id, from, fromPort, to, toPort string) graph.Connection {
	return graph.Connection{
		ID:   id,
		From: graph.Endpoint{Node: from, Port: fromPort},
		To:   graph.Endpoint{Node: to, Port: toPort},
	}
}

type fixtureGraph struct {
	Module      string             `json:"module"`
	Nodes       []graph.Node       `json:"nodes"`
	Connections []graph.Connection `json:"connections"`
}

func loadFixture(t *testing.T, path string) (fixtureGraph, string) {
	t.Helper()
	ar, err := txtar.ParseFile(path)
	require.NoError(t, err)

	var g fixtureGraph
	var want string
	for _, f := range ar.Files {
		switch f.Name {
		case "graph.json":
			require.NoError(t, json.Unmarshal(f.Data, &g), "decoding %s", path)
		case "want.nut":
			want = string(f.Data)
		}
	}
	require.NotEmpty(t, g.Nodes, "%s has no graph.json", path)
	return g, want
}

// ============================================================================
// Golden fixtures
// ============================================================================

func TestGenerate_Fixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	gen := New(nil)
	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			g, want := loadFixture(t, path)
			got, err := gen.Generate(g.Nodes, g.Connections, g.Module)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)

	for _, path := range paths {
		g, _ := loadFixture(t, path)
		first, err := New(nil).Generate(g.Nodes, g.Connections, g.Module)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := New(nil).Generate(g.Nodes, g.Connections, g.Module)
			require.NoError(t, err)
			require.Equal(t, first, again, "%s differs on run %d", path, i)
		}
	}
}

func TestGenerate_DoesNotMutateInput(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("sw", "switch", map[string]any{"cases": []any{1.0}}),
	}
	conns := []graph.Connection{conn("c1", "i", "then", "sw", "exec")}

	_, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Empty(t, nodes[1].Outputs)
	assert.Len(t, nodes[1].Data, 1)
}

// ============================================================================
// Data resolution
// ============================================================================

func TestGenerate_SharedPureProducerBoundOnce(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("sum", "add", map[string]any{"a": 1, "b": 2}),
		node("s1", "to-string", nil),
		node("p1", "print", nil),
		node("p2", "print", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "p1", "exec"),
		conn("c2", "p1", "then", "p2", "exec"),
		conn("c3", "sum", "result", "s1", "value"),
		conn("c4", "s1", "result", "p1", "message"),
		conn("c5", "sum", "result", "p2", "message"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(body, "( 1.0 + 2.0 )"), body)
	assert.Contains(t, body, "float v1_result = ( 1.0 + 2.0 )")
	assert.Contains(t, body, "printt( string( v1_result ) )")
	assert.Contains(t, body, "printt( v1_result )")
}

func TestGenerate_LiteralAlwaysInlined(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("k", "const-string", map[string]any{"value": "hi \"there\""}),
		node("p1", "print", nil),
		node("p2", "print", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "p1", "exec"),
		conn("c2", "p1", "then", "p2", "exec"),
		conn("c3", "k", "value", "p1", "message"),
		conn("c4", "k", "value", "p2", "message"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(body, `printt( "hi \"there\"" )`), body)
	assert.NotContains(t, body, "v1_")
}

func TestGenerate_UnconnectedInputFallbacks(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("h", "set-health", map[string]any{}),
		node("o", "set-origin", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "h", "exec"),
		conn("c2", "h", "then", "o", "exec"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	// Payload default, then zero values.
	assert.Contains(t, body, "null.SetHealth( 100 )")
	assert.Contains(t, body, "null.SetOrigin( < 0, 0, 0 > )")
}

func TestGenerate_ExecOutputsBindValues(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("npc", "spawn-npc", nil),
		node("h", "set-health", map[string]any{"health": 50}),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "npc", "exec"),
		conn("c2", "npc", "then", "h", "exec"),
		conn("c3", "npc", "npc", "h", "entity"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Contains(t, body, `entity v1_npc = CreateNPC( "npc_dummie", TEAM_UNASSIGNED, < 0, 0, 0 >, < 0, 0, 0 > )`)
	assert.Contains(t, body, "DispatchSpawn( v1_npc )")
	assert.Contains(t, body, "v1_npc.SetHealth( 50 )")
}

func TestGenerate_ReadBeforeRunIsError(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("p", "print", nil),
		node("w", "give-weapon", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "p", "exec"),
		conn("c2", "w", "weapon", "p", "message"),
	}

	_, err := New(nil).Generate(nodes, conns, "M")
	require.Error(t, err)
	var gerr *graph.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "p", gerr.NodeID)
}

func TestGenerate_CallFunction(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("call", "call-function", map[string]any{"function": "DoThing", "arg1": "x"}),
		node("p", "print", nil),
		node("call2", "call-function", map[string]any{"function": "Other"}),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "call", "exec"),
		conn("c2", "call", "then", "p", "exec"),
		conn("c3", "call", "result", "p", "message"),
		conn("c4", "p", "then", "call2", "exec"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Contains(t, body, `var v1_result = DoThing( null, "x" )`)
	assert.Contains(t, body, "printt( v1_result )")
	assert.Contains(t, body, "\tOther()\n")
}

// ============================================================================
// Control flow
// ============================================================================

func TestGenerate_SequenceOrder(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("seq", "sequence", nil),
		node("a", "print", map[string]any{"message": "a"}),
		node("b", "print", map[string]any{"message": "b"}),
		node("c", "print", map[string]any{"message": "c"}),
		node("a2", "print", map[string]any{"message": "a2"}),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "seq", "exec"),
		conn("c2", "seq", "then1", "b", "exec"),
		conn("c3", "seq", "then2", "c", "exec"),
		conn("c4", "seq", "then0", "a", "exec"),
		conn("c5", "a", "then", "a2", "exec"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	ia := strings.Index(body, `"a"`)
	ia2 := strings.Index(body, `"a2"`)
	ib := strings.Index(body, `"b"`)
	ic := strings.Index(body, `"c"`)
	assert.True(t, ia < ia2 && ia2 < ib && ib < ic, body)
}

func TestGenerate_BranchOnlyFalse(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("b", "branch", map[string]any{"condition": true}),
		node("p", "print", map[string]any{"message": "no"}),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "b", "exec"),
		conn("c2", "b", "false", "p", "exec"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Contains(t, body, "if ( !( true ) )")
	assert.NotContains(t, body, "else")
}

func TestGenerate_BranchBothArms(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("b", "branch", nil),
		node("yes", "print", map[string]any{"message": "yes"}),
		node("no", "print", map[string]any{"message": "no"}),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "b", "exec"),
		conn("c2", "b", "true", "yes", "exec"),
		conn("c3", "b", "false", "no", "exec"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	want := "" +
		"\tif ( false )\n" +
		"\t{\n" +
		"\t\tprintt( \"yes\" )\n" +
		"\t}\n" +
		"\telse\n" +
		"\t{\n" +
		"\t\tprintt( \"no\" )\n" +
		"\t}\n"
	assert.Contains(t, body, want)
}

func TestGenerate_ForEach(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("players", "get-players", nil),
		node("each", "loop-foreach", nil),
		node("kill", "kill-entity", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "each", "exec"),
		conn("c2", "players", "players", "each", "array"),
		conn("c3", "each", "body", "kill", "exec"),
		conn("c4", "each", "element", "kill", "entity"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Contains(t, body, "foreach ( int v1_index, var v2_element in GetPlayerArray() )")
	assert.Contains(t, body, "\t\tv2_element.Die()\n")
}

func TestGenerate_LoopBackEdgeEndsBody(t *testing.T) {
	for _, typ := range []string{"loop-for", "loop-foreach", "loop-while"} {
		t.Run(typ, func(t *testing.T) {
			nodes := []graph.Node{
				node("i", "init-server", nil),
				node("loop", typ, nil),
				node("p", "print", map[string]any{"message": "tick"}),
			}
			conns := []graph.Connection{
				conn("c1", "i", "then", "loop", "exec"),
				conn("c2", "loop", "body", "p", "exec"),
				conn("c3", "p", "then", "loop", "continue"),
			}

			body, err := New(nil).Generate(nodes, conns, "M")
			require.NoError(t, err)
			assert.Equal(t, 1, strings.Count(body, `printt( "tick" )`), body)
			assert.NotContains(t, body, "continue")
		})
	}
}

func TestGenerate_LoopContinueFromOutsideBody(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("p", "print", nil),
		node("loop", "loop-for", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "p", "exec"),
		conn("c2", "p", "then", "loop", "continue"),
	}

	_, err := New(nil).Generate(nodes, conns, "M")
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrInvalidNode)
	assert.ErrorContains(t, err, "outside its body")
}

func TestGenerate_LoopBackEdgeIntoExecIsDuplicate(t *testing.T) {
	// The exec input already carries the edge that starts the loop.
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("loop", "loop-for", nil),
		node("p", "print", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "loop", "exec"),
		conn("c2", "loop", "body", "p", "exec"),
		conn("c3", "p", "then", "loop", "exec"),
	}

	_, err := New(nil).Generate(nodes, conns, "M")
	assert.ErrorIs(t, err, graph.ErrDuplicateInput)
}

func TestGenerate_Delay(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("roll", "random-int", nil),
		node("first", "print", nil),
		node("d", "delay", map[string]any{"seconds": 2}),
		node("later", "print", nil),
		node("after", "print", map[string]any{"message": "now"}),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "first", "exec"),
		conn("c2", "roll", "result", "first", "message"),
		conn("c3", "first", "then", "d", "exec"),
		conn("c4", "d", "delayed", "later", "exec"),
		conn("c5", "roll", "result", "later", "message"),
		conn("c6", "d", "then", "after", "exec"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	want := "" +
		"\tint v1_result = RandomInt( 100 )\n" +
		"\tprintt( v1_result )\n" +
		"\tthread void function() : ( v1_result )\n" +
		"\t{\n" +
		"\t\twait 2.0\n" +
		"\t\tprintt( v1_result )\n" +
		"\t}()\n" +
		"\tprintt( \"now\" )\n"
	assert.Contains(t, body, want)
}

func TestGenerate_BlockScopedMemo(t *testing.T) {
	// A producer read inside a branch body and again after the branch is
	// bound once, in front of the branch.
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("b", "branch", map[string]any{"condition": true}),
		node("roll", "random-int", nil),
		node("inner", "print", nil),
		node("seq", "sequence", nil),
		node("outer", "print", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "seq", "exec"),
		conn("c2", "seq", "then0", "b", "exec"),
		conn("c3", "b", "true", "inner", "exec"),
		conn("c4", "roll", "result", "inner", "message"),
		conn("c5", "seq", "then1", "outer", "exec"),
		conn("c6", "roll", "result", "outer", "message"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(body, "RandomInt("), body)
	want := "" +
		"\tint v1_result = RandomInt( 100 )\n" +
		"\tif ( true )\n" +
		"\t{\n" +
		"\t\tprintt( v1_result )\n" +
		"\t}\n" +
		"\tprintt( v1_result )\n"
	assert.Contains(t, body, want)
}

func TestGenerate_SiblingBlocksShareProducer(t *testing.T) {
	// Both arms read the same roll; it runs once before the if.
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("b", "branch", nil),
		node("alive", "is-alive", nil),
		node("roll", "random-int", nil),
		node("yes", "print", nil),
		node("no", "print", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "b", "exec"),
		conn("c2", "alive", "alive", "b", "condition"),
		conn("c3", "b", "true", "yes", "exec"),
		conn("c4", "b", "false", "no", "exec"),
		conn("c5", "roll", "result", "yes", "message"),
		conn("c6", "roll", "result", "no", "message"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(body, "RandomInt("), body)
	assert.Less(t, strings.Index(body, "RandomInt("), strings.Index(body, "if ("), body)
	assert.Equal(t, 2, strings.Count(body, "printt( v1_result )"), body)
}

func TestGenerate_SharedProducerInLoopBody(t *testing.T) {
	// Reads in two blocks of one loop body are bound inside the body, so
	// each iteration rolls again.
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("loop", "loop-for", map[string]any{"first": 0, "last": 3}),
		node("seq", "sequence", nil),
		node("b1", "branch", map[string]any{"condition": true}),
		node("b2", "branch", map[string]any{"condition": false}),
		node("roll", "random-int", nil),
		node("p1", "print", nil),
		node("p2", "print", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "loop", "exec"),
		conn("c2", "loop", "body", "seq", "exec"),
		conn("c3", "seq", "then0", "b1", "exec"),
		conn("c4", "seq", "then1", "b2", "exec"),
		conn("c5", "b1", "true", "p1", "exec"),
		conn("c6", "b2", "true", "p2", "exec"),
		conn("c7", "roll", "result", "p1", "message"),
		conn("c8", "roll", "result", "p2", "message"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(body, "RandomInt("), body)
	assert.Contains(t, body, "\t\tint v2_result = RandomInt( 100 )\n\t\tif ( true )\n", body)
}

func TestGenerate_VariableReadsAreNotSnapshotted(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("decl", "declare-variable", map[string]any{"name": "x", "varType": "int", "value": 1}),
		node("get", "get-variable", map[string]any{"name": "x"}),
		node("s1", "to-string", nil),
		node("p1", "print", nil),
		node("set", "set-variable", map[string]any{"name": "x", "value": 5}),
		node("s2", "to-string", nil),
		node("p2", "print", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "decl", "exec"),
		conn("c2", "decl", "then", "p1", "exec"),
		conn("c3", "p1", "then", "set", "exec"),
		conn("c4", "set", "then", "p2", "exec"),
		conn("c5", "get", "value", "s1", "value"),
		conn("c6", "get", "value", "s2", "value"),
		conn("c7", "s1", "result", "p1", "message"),
		conn("c8", "s2", "result", "p2", "message"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	want := "" +
		"\tint x = 1\n" +
		"\tprintt( string( x ) )\n" +
		"\tx = 5\n" +
		"\tprintt( string( x ) )\n"
	assert.Contains(t, body, want)
	assert.NotContains(t, body, "v1_")
}

func TestGenerate_PureOverGetterInlined(t *testing.T) {
	// The sum reads a variable, so both prints recompute it.
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("get", "get-variable", map[string]any{"name": "n"}),
		node("sum", "add", map[string]any{"b": 1}),
		node("s1", "to-string", nil),
		node("s2", "to-string", nil),
		node("p1", "print", nil),
		node("p2", "print", nil),
	}
	conns := []graph.Connection{
		conn("c1", "i", "then", "p1", "exec"),
		conn("c2", "p1", "then", "p2", "exec"),
		conn("c3", "get", "value", "sum", "a"),
		conn("c4", "sum", "result", "s1", "value"),
		conn("c5", "sum", "result", "s2", "value"),
		conn("c6", "s1", "result", "p1", "message"),
		conn("c7", "s2", "result", "p2", "message"),
	}

	body, err := New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(body, "printt( string( ( n + 1.0 ) ) )"), body)
	assert.NotContains(t, body, "v1_")
}

func TestGenerate_DuplicateEntryNames(t *testing.T) {
	nodes := []graph.Node{
		node("a", "init-server", nil),
		node("b", "init-server", nil),
		node("c", "init-client", map[string]any{"functionName": "Custom_Client"}),
	}

	out, err := New(nil).Run(nodes, nil, "Mod")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mod_InitServer", "Mod_InitServer_2", "Custom_Client"}, out.Functions)
	assert.Contains(t, out.Body, "global function Mod_InitServer_2\n")
}

func TestGenerate_ModuleIdentifier(t *testing.T) {
	body, err := New(nil).Generate([]graph.Node{node("a", "init-ui", nil)}, nil, "my-mod 2")
	require.NoError(t, err)
	assert.Contains(t, body, "void function my_mod_2_InitUI()")

	body, err = New(nil).Generate([]graph.Node{node("a", "init-ui", nil)}, nil, "")
	require.NoError(t, err)
	assert.Contains(t, body, "Script_InitUI")
}

func TestGenerate_NoEntries(t *testing.T) {
	out, err := New(nil).Run([]graph.Node{node("p", "print", nil)}, nil, "M")
	require.NoError(t, err)
	assert.Empty(t, out.Body)
	require.Len(t, out.Warnings, 2)
	assert.Equal(t, "p", out.Warnings[0].NodeID)
}

// ============================================================================
// Errors
// ============================================================================

func TestGenerate_Errors(t *testing.T) {
	twoExecInputs := func(id string) graph.Node {
		n := node(id, "print", nil)
		n.Inputs = []graph.Port{
			{ID: "exec", Kind: graph.KindExec, Direction: graph.DirInput},
			{ID: "exec2", Kind: graph.KindExec, Direction: graph.DirInput},
			{ID: "message", Kind: graph.KindData, Direction: graph.DirInput, Type: graph.TypeString},
		}
		return n
	}

	tests := []struct {
		name   string
		nodes  []graph.Node
		conns  []graph.Connection
		kind   error
		nodeID string
	}{
		{
			name:   "unknown type",
			nodes:  []graph.Node{node("x", "teleport-everyone", nil)},
			kind:   graph.ErrUnknownNodeType,
			nodeID: "x",
		},
		{
			name:  "dangling node",
			nodes: []graph.Node{node("i", "init-server", nil)},
			conns: []graph.Connection{conn("c1", "i", "then", "ghost", "exec")},
			kind:  graph.ErrDanglingReference,
		},
		{
			name:  "dangling port",
			nodes: []graph.Node{node("i", "init-server", nil), node("p", "print", nil)},
			conns: []graph.Connection{conn("c1", "i", "then", "p", "nope")},
			kind:  graph.ErrDanglingReference,
		},
		{
			name:  "kind mismatch",
			nodes: []graph.Node{node("i", "init-server", nil), node("p", "print", nil)},
			conns: []graph.Connection{conn("c1", "i", "then", "p", "message")},
			kind:  graph.ErrPortKindMismatch,
		},
		{
			name:  "wrong direction",
			nodes: []graph.Node{node("p", "print", nil), node("q", "print", nil)},
			conns: []graph.Connection{conn("c1", "p", "exec", "q", "then")},
			kind:  graph.ErrPortDirection,
		},
		{
			name: "duplicate input",
			nodes: []graph.Node{
				node("i", "init-server", nil), node("j", "init-client", nil), node("p", "print", nil),
			},
			conns: []graph.Connection{
				conn("c1", "i", "then", "p", "exec"),
				conn("c2", "j", "then", "p", "exec"),
			},
			kind: graph.ErrDuplicateInput,
		},
		{
			name:   "entry with incoming exec",
			nodes:  []graph.Node{node("p", "print", nil), node("i", "init-server", nil)},
			conns:  []graph.Connection{conn("c1", "p", "then", "i", "exec")},
			kind:   graph.ErrEntryHasIncomingExec,
			nodeID: "i",
		},
		{
			name:  "exec cycle from entry",
			nodes: []graph.Node{node("i", "init-server", nil), twoExecInputs("a"), node("b", "print", nil)},
			conns: []graph.Connection{
				conn("c1", "i", "then", "a", "exec"),
				conn("c2", "a", "then", "b", "exec"),
				conn("c3", "b", "then", "a", "exec2"),
			},
			kind:   graph.ErrCycle,
			nodeID: "a",
		},
		{
			name:  "detached exec cycle",
			nodes: []graph.Node{node("a", "print", nil), node("b", "print", nil)},
			conns: []graph.Connection{
				conn("c1", "a", "then", "b", "exec"),
				conn("c2", "b", "then", "a", "exec"),
			},
			kind: graph.ErrCycle,
		},
		{
			name:  "data cycle",
			nodes: []graph.Node{node("x", "add", nil), node("y", "add", nil)},
			conns: []graph.Connection{
				conn("c1", "x", "result", "y", "a"),
				conn("c2", "y", "result", "x", "a"),
			},
			kind: graph.ErrCycle,
		},
		{
			name:   "bad enum",
			nodes:  []graph.Node{node("cmp", "compare", map[string]any{"op": "<>"})},
			kind:   graph.ErrInvalidNode,
			nodeID: "cmp",
		},
		{
			name:   "bad identifier",
			nodes:  []graph.Node{node("v", "get-variable", map[string]any{"name": "my var"})},
			kind:   graph.ErrInvalidNode,
			nodeID: "v",
		},
		{
			name:   "break outside loop",
			nodes:  []graph.Node{node("i", "init-server", nil), node("b", "break", nil)},
			conns:  []graph.Connection{conn("c1", "i", "then", "b", "exec")},
			kind:   graph.ErrInvalidNode,
			nodeID: "b",
		},
		{
			name:   "detached switch case",
			nodes:  []graph.Node{node("i", "init-server", nil), node("sc", "switch-case", nil)},
			conns:  []graph.Connection{conn("c1", "i", "then", "sc", "exec")},
			kind:   graph.ErrInvalidNode,
			nodeID: "sc",
		},
		{
			name: "duplicate case",
			nodes: []graph.Node{
				node("i", "init-server", nil),
				node("sw", "switch", map[string]any{"cases": []any{1.0, 1.0}}),
			},
			conns:  []graph.Connection{conn("c1", "i", "then", "sw", "exec")},
			kind:   graph.ErrInvalidNode,
			nodeID: "sw",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := New(nil).Generate(tt.nodes, tt.conns, "M")
			require.Error(t, err)
			assert.Empty(t, body)
			assert.True(t, errors.Is(err, tt.kind), "got %v, want %v", err, tt.kind)
			if tt.nodeID != "" {
				var gerr *graph.Error
				require.True(t, errors.As(err, &gerr))
				assert.Equal(t, tt.nodeID, gerr.NodeID)
			}
		})
	}
}

func TestGenerate_AggregatesStructuralErrors(t *testing.T) {
	nodes := []graph.Node{node("x", "nope", nil), node("y", "nope2", nil)}
	_, err := New(nil).Generate(nodes, nil, "M")
	require.Error(t, err)

	var agg *graph.Errors
	require.True(t, errors.As(err, &agg))
	assert.Len(t, agg.Errors, 2)
	assert.Contains(t, err.Error(), "2 graph errors")
}

// ============================================================================
// Extension points
// ============================================================================

func TestWithRule_OverridesEmitter(t *testing.T) {
	gen := New(nil, WithRule("print", Rule{
		Emit: func(n *graph.Node, in Operands) (Emission, error) {
			return Emission{Lines: []string{fmt.Sprintf("printl( %s )", in.In("message"))}}, nil
		},
	}))
	nodes := []graph.Node{node("i", "init-server", nil), node("p", "print", map[string]any{"message": "x"})}
	conns := []graph.Connection{conn("c1", "i", "then", "p", "exec")}

	body, err := gen.Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Contains(t, body, `printl( "x" )`)

	body, err = New(nil).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Contains(t, body, `printt( "x" )`)
}

func TestExtendedCatalog_TemplateNode(t *testing.T) {
	cat, err := catalog.Default().Extend(catalog.Definition{
		Type:     "give-shield",
		Category: "player",
		Label:    "Give Shield",
		Inputs: []catalog.PortTemplate{
			{ID: "exec", Kind: graph.KindExec},
			{ID: "player", Kind: graph.KindData, Type: graph.TypeEntity},
			{ID: "amount", Kind: graph.KindData, Type: graph.TypeInt},
		},
		Outputs:  []catalog.PortTemplate{{ID: "then", Kind: graph.KindExec}},
		Defaults: map[string]any{"amount": 50},
		Stmt:     "{in.player}.SetShieldHealth( {in.amount} )",
	})
	require.NoError(t, err)

	nodes := []graph.Node{
		node("e", "event-player-respawned", nil),
		node("g", "give-shield", nil),
	}
	conns := []graph.Connection{
		conn("c1", "e", "then", "g", "exec"),
		conn("c2", "e", "player", "g", "player"),
	}
	body, err := New(cat).Generate(nodes, conns, "M")
	require.NoError(t, err)
	assert.Contains(t, body, "player.SetShieldHealth( 50 )")
}

func TestRegister_Validation(t *testing.T) {
	assert.Error(t, Register("", Rule{Emit: passThrough}))
	assert.Error(t, Register("x-none", Rule{}))
	assert.Error(t, Register("x-both", Rule{Emit: passThrough, Flow: emitReturn}))
	assert.Error(t, Register("branch", Rule{Flow: emitBranch}))
}

func TestValidate_ReportsUnreachable(t *testing.T) {
	nodes := []graph.Node{
		node("i", "init-server", nil),
		node("p", "print", nil),
		node("orphan", "print", nil),
	}
	conns := []graph.Connection{conn("c1", "i", "then", "p", "exec")}

	warnings, err := New(nil).Validate(nodes, conns)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "orphan", warnings[0].NodeID)
	assert.Contains(t, warnings[0].String(), "not reachable")
}
