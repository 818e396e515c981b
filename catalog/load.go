package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/r5vforge/r5vforge/graph"
)

// DefinitionFile is the on-disk shape of a node definition file. TOML files
// use [[node]] tables, YAML files a top-level "node" list.
type DefinitionFile struct {
	Nodes []FileDefinition `toml:"node" yaml:"node"`
}

// FileDefinition is one node definition as written in a file.
type FileDefinition struct {
	Type        string              `toml:"type" yaml:"type"`
	Category    string              `toml:"category" yaml:"category"`
	Label       string              `toml:"label" yaml:"label"`
	Description string              `toml:"description" yaml:"description"`
	Inputs      []PortTemplate      `toml:"inputs" yaml:"inputs"`
	Outputs     []PortTemplate      `toml:"outputs" yaml:"outputs"`
	Defaults    map[string]any      `toml:"defaults" yaml:"defaults"`
	Contexts    []string            `toml:"contexts" yaml:"contexts"`
	Purity      string              `toml:"purity" yaml:"purity"`
	Expr        string              `toml:"expr" yaml:"expr"`
	Stmt        string              `toml:"stmt" yaml:"stmt"`
	Enums       map[string][]string `toml:"enums" yaml:"enums"`
	Idents      []string            `toml:"idents" yaml:"idents"`
	Callback    string              `toml:"callback" yaml:"callback"`
	Params      []Param             `toml:"params" yaml:"params"`
	Returns     string              `toml:"returns" yaml:"returns"`
	ReturnValue string              `toml:"return_value" yaml:"return_value"`
	FuncSuffix  string              `toml:"func_suffix" yaml:"func_suffix"`
}

// ParsePurity parses "effect", "pure", "literal" or "getter". Empty means
// effect.
func ParsePurity(s string) (Purity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "effect":
		return Effect, nil
	case "pure":
		return Pure, nil
	case "literal":
		return Literal, nil
	case "getter":
		return Getter, nil
	default:
		return Effect, fmt.Errorf("unknown purity %q", s)
	}
}

// Definition converts the file form into a catalog definition.
func (f FileDefinition) Definition() (Definition, error) {
	purity, err := ParsePurity(f.Purity)
	if err != nil {
		return Definition{}, fmt.Errorf("node %s: %w", f.Type, err)
	}

	var ctx graph.Context
	for _, c := range f.Contexts {
		bit := graph.ParseContext(c)
		if bit == graph.ContextNone {
			return Definition{}, fmt.Errorf("node %s: unknown context %q", f.Type, c)
		}
		ctx |= bit
	}

	for _, p := range append(append([]PortTemplate(nil), f.Inputs...), f.Outputs...) {
		if p.ID == "" {
			return Definition{}, fmt.Errorf("node %s: port without id", f.Type)
		}
		if p.Kind != graph.KindExec && p.Kind != graph.KindData {
			return Definition{}, fmt.Errorf("node %s: port %s has unknown kind %q", f.Type, p.ID, p.Kind)
		}
	}

	return Definition{
		Type:        f.Type,
		Category:    f.Category,
		Label:       f.Label,
		Description: f.Description,
		Inputs:      f.Inputs,
		Outputs:     f.Outputs,
		Defaults:    f.Defaults,
		Context:     ctx,
		Purity:      purity,
		Expr:        f.Expr,
		Stmt:        f.Stmt,
		Enums:       f.Enums,
		Idents:      f.Idents,
		Callback:    f.Callback,
		Params:      f.Params,
		Returns:     graph.ValueType(f.Returns),
		ReturnValue: f.ReturnValue,
		FuncSuffix:  f.FuncSuffix,
	}, nil
}

// Parse decodes definitions in the given format ("toml" or "yaml").
// Unknown keys are rejected.
func Parse(data []byte, format string) ([]Definition, error) {
	var file DefinitionFile
	switch strings.ToLower(format) {
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("cannot parse TOML definitions: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("cannot parse YAML definitions: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}

	defs := make([]Definition, 0, len(file.Nodes))
	for _, f := range file.Nodes {
		d, err := f.Definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// LoadFile reads a definition file, picking the format from its extension.
func LoadFile(fs afero.Fs, path string) ([]Definition, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read definition file: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	defs, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// LoadFiles extends c with the definitions of every file, in order.
func LoadFiles(c *Catalog, fs afero.Fs, paths ...string) (*Catalog, error) {
	var all []Definition
	for _, p := range paths {
		defs, err := LoadFile(fs, p)
		if err != nil {
			return nil, err
		}
		all = append(all, defs...)
	}
	if len(all) == 0 {
		return c, nil
	}
	return c.Extend(all...)
}
