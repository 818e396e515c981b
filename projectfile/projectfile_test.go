package projectfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r5vforge/r5vforge/graph"
)

func sampleProject() *graph.Project {
	return &graph.Project{
		Settings: graph.ModSettings{Name: "Test", ID: "test", Version: "1.0.0", Author: "me"},
		Scripts: []graph.Script{{
			ID:      "s1",
			Name:    "main",
			Folders: []string{"server"},
			Nodes: []graph.Node{
				{ID: "n1", Type: "init-server", Position: graph.Position{X: 10, Y: 20}},
				{ID: "n2", Type: "print", Data: map[string]any{"message": "hi"}},
			},
			Connections: []graph.Connection{{
				ID:   "c1",
				From: graph.Endpoint{Node: "n1", Port: "then"},
				To:   graph.Endpoint{Node: "n2", Port: "exec"},
			}},
		}},
		Localization: []graph.LocalizationFile{{Name: "strings", Language: "english", Tokens: map[string]string{"K": "v"}}},
	}
}

func TestEncodeDecode(t *testing.T) {
	content := []byte(strings.Repeat(`{"hello":"world"}`, 50))

	data, info, err := Encode(content)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, Magic))
	assert.True(t, info.Compressed)
	assert.Equal(t, len(content), info.OriginalSize)
	assert.Equal(t, len(data), info.StoredSize)
	assert.Less(t, info.StoredSize, info.OriginalSize)

	back, info, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, content, back)
	assert.True(t, info.Compressed)
}

func TestDecode_Plain(t *testing.T) {
	back, info, err := Decode([]byte(`{"scripts":[]}`))
	require.NoError(t, err)
	assert.Equal(t, `{"scripts":[]}`, string(back))
	assert.False(t, info.Compressed)
}

func TestDecode_Errors(t *testing.T) {
	_, _, err := Decode([]byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrNotUTF8)

	_, _, err = Decode(append(append([]byte{}, Magic...), "not gzip"...))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := sampleProject()

	info, err := Save(fs, "/projects/test"+Extension, p)
	require.NoError(t, err)
	assert.True(t, info.Compressed)

	exists, err := afero.Exists(fs, "/projects/test"+Extension+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)

	got, info, err := Load(fs, "/projects/test"+Extension)
	require.NoError(t, err)
	assert.True(t, info.Compressed)
	assert.Equal(t, p.Settings, got.Settings)
	require.Len(t, got.Scripts, 1)
	assert.Equal(t, p.Scripts[0].Connections, got.Scripts[0].Connections)
	assert.Equal(t, "hi", got.Scripts[0].Nodes[1].Data["message"])
	assert.Equal(t, p.Localization, got.Localization)
}

func TestLoad_Missing(t *testing.T) {
	_, _, err := Load(afero.NewMemMapFs(), "/nope.r5vproj")
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}

func TestPackUnpack(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p.json", []byte(`{"settings":{"name":"X","id":"x"},"scripts":[]}`), 0o644))

	info, err := Pack(fs, "/p.json", "/p.r5vproj")
	require.NoError(t, err)
	assert.True(t, info.Compressed)

	packed, err := afero.ReadFile(fs, "/p.r5vproj")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(packed, Magic))

	info, err = Unpack(fs, "/p.r5vproj", "/out/p.json")
	require.NoError(t, err)
	assert.True(t, info.Compressed)

	plain, err := afero.ReadFile(fs, "/out/p.json")
	require.NoError(t, err)
	assert.Contains(t, string(plain), "\n  \"settings\": {\n")

	p, _, err := Load(fs, "/out/p.json")
	require.NoError(t, err)
	assert.Equal(t, "X", p.Settings.Name)
}

func TestEmbedExtract(t *testing.T) {
	s := sampleProject().Scripts[0]

	block, err := EmbedScript(&s)
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSuffix(block, "\n"), "\n") {
		require.True(t, strings.HasPrefix(line, SnapshotMarker), line)
		assert.LessOrEqual(t, len(line), len(SnapshotMarker)+snapshotLineWidth)
	}

	again, err := EmbedScript(&s)
	require.NoError(t, err)
	assert.Equal(t, block, again)

	script := "global function Test_InitServer\n\nvoid function Test_InitServer()\n{\n}\n\n" + block
	got, err := ExtractScript(script)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Folders, got.Folders)
	assert.Equal(t, s.Connections, got.Connections)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, graph.Position{X: 10, Y: 20}, got.Nodes[0].Position)
	assert.Equal(t, "hi", got.Nodes[1].Data["message"])
}

func TestExtract_Errors(t *testing.T) {
	_, err := ExtractScript("void function F()\n{\n}\n")
	assert.True(t, errors.Is(err, ErrNoSnapshot))

	_, err = ExtractScript(SnapshotMarker + "!!!notbase64\n")
	assert.True(t, errors.Is(err, ErrCorrupt))
}
