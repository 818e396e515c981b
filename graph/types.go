// Package graph holds the node/connection data model shared by the catalog,
// the context analyzer, the code generator and the orchestrator.
//
// Everything here is plain data. The editor produces these values; the
// compiler treats them as an immutable snapshot for the duration of one
// compile.
package graph

// PortKind distinguishes control-flow ports from value-flow ports.
type PortKind string

const (
	KindExec PortKind = "exec"
	KindData PortKind = "data"
)

// Direction of a port relative to its owning node.
type Direction string

const (
	DirInput  Direction = "input"
	DirOutput Direction = "output"
)

// ValueType tags the value carried by a data port.
type ValueType string

const (
	TypeInt    ValueType = "int"
	TypeFloat  ValueType = "float"
	TypeBool   ValueType = "bool"
	TypeString ValueType = "string"
	TypeVector ValueType = "vector"
	TypeEntity ValueType = "entity"
	TypeStruct ValueType = "struct"
	TypeArray  ValueType = "array"
	TypeTable  ValueType = "table"
	TypeAny    ValueType = "var"
)

// Port is a concrete connection point on a node instance.
type Port struct {
	ID        string    `json:"id" msgpack:"id" yaml:"id" toml:"id"`
	Label     string    `json:"label,omitempty" msgpack:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Kind      PortKind  `json:"kind" msgpack:"kind" yaml:"kind" toml:"kind"`
	Direction Direction `json:"direction,omitempty" msgpack:"direction,omitempty" yaml:"direction,omitempty" toml:"direction,omitempty"`
	Type      ValueType `json:"type,omitempty" msgpack:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
}

// IsExec reports whether the port carries control flow.
func (p Port) IsExec() bool { return p.Kind == KindExec }

// Position is the canvas location of a node. The compiler never reads it.
type Position struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Node is one instance of a catalog node type inside a script graph.
type Node struct {
	ID       string         `json:"id" msgpack:"id"`
	Type     string         `json:"type" msgpack:"type"`
	Data     map[string]any `json:"data,omitempty" msgpack:"data,omitempty"`
	Position Position       `json:"position" msgpack:"position"`
	Inputs   []Port         `json:"inputs,omitempty" msgpack:"inputs,omitempty"`
	Outputs  []Port         `json:"outputs,omitempty" msgpack:"outputs,omitempty"`
}

// Input returns the input port with the given id.
func (n *Node) Input(id string) (Port, bool) {
	for _, p := range n.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Output returns the output port with the given id.
func (n *Node) Output(id string) (Port, bool) {
	for _, p := range n.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// ExecOutputs returns the exec output ports in declaration order.
func (n *Node) ExecOutputs() []Port {
	var out []Port
	for _, p := range n.Outputs {
		if p.IsExec() {
			out = append(out, p)
		}
	}
	return out
}

// Endpoint names one side of a connection.
type Endpoint struct {
	Node string `json:"node" msgpack:"node"`
	Port string `json:"port" msgpack:"port"`
}

// Connection links an output port to an input port. The record does not
// carry the port kind; it is resolved from the owning node's port list.
type Connection struct {
	ID   string   `json:"id" msgpack:"id"`
	From Endpoint `json:"from" msgpack:"from"`
	To   Endpoint `json:"to" msgpack:"to"`
}

// Script is one script file of a project: a graph plus the folders it is
// organized under.
type Script struct {
	ID          string       `json:"id" msgpack:"id"`
	Name        string       `json:"name" msgpack:"name"`
	Folders     []string     `json:"folders,omitempty" msgpack:"folders,omitempty"`
	Nodes       []Node       `json:"nodes" msgpack:"nodes"`
	Connections []Connection `json:"connections" msgpack:"connections"`
}

// WeaponFile is a weapon definition copied verbatim into the mod.
type WeaponFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// UIKind selects where a UI file lands in the output tree.
type UIKind string

const (
	UIMenu UIKind = "menu"
	UIRes  UIKind = "res"
)

// UIFile is a UI resource copied verbatim into the mod.
type UIFile struct {
	Name    string `json:"name"`
	Kind    UIKind `json:"kind,omitempty"`
	Content string `json:"content"`
}

// LocalizationFile is one language variant of a token table.
type LocalizationFile struct {
	Name     string            `json:"name"`
	Language string            `json:"language"`
	Tokens   map[string]string `json:"tokens"`
}

// ModSettings carries the mod metadata written into mod.vdf.
type ModSettings struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
	// Localization lists manually declared localization paths.
	Localization []string `json:"localization,omitempty"`
	// ScriptExtension is appended to script names without one (".nut" when empty).
	ScriptExtension string `json:"scriptExtension,omitempty"`
	// EmbedProject embeds each script's graph in the generated file.
	EmbedProject bool `json:"embedProject,omitempty"`
}

// Project is everything one compile consumes.
type Project struct {
	Settings     ModSettings        `json:"settings"`
	Scripts      []Script           `json:"scripts"`
	Weapons      []WeaponFile       `json:"weapons,omitempty"`
	UIFiles      []UIFile           `json:"uiFiles,omitempty"`
	Localization []LocalizationFile `json:"localization,omitempty"`
}

// Empty reports whether the project has no files of any kind.
func (p *Project) Empty() bool {
	return len(p.Scripts) == 0 && len(p.Weapons) == 0 && len(p.UIFiles) == 0 && len(p.Localization) == 0
}
