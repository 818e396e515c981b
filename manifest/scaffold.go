package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ModInfo describes a new, empty mod.
type ModInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Author      string `json:"author" yaml:"author"`
	Version     string `json:"version" yaml:"version"`
	ModID       string `json:"modId" yaml:"modId"`
}

// File is a text file relative to a mod directory.
type File struct {
	Path    string
	Content string
}

// Skeleton is the directory layout and starter files of a new mod.
type Skeleton struct {
	Dirs  []string
	Files []File
}

// ScaffoldDirs are created, in order, inside every new mod.
var ScaffoldDirs = []string{
	"scripts",
	"scripts/vscripts",
	"paks",
	"audio",
	"resource",
}

type modJSON struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Version      string            `json:"version"`
	Author       string            `json:"author"`
	ModID        string            `json:"modId"`
	Scripts      []string          `json:"scripts"`
	Rpaks        []string          `json:"rpaks"`
	Audio        []string          `json:"audio"`
	Localization map[string]string `json:"localization"`
}

// Scaffold returns the skeleton of a new mod: mod.vdf, manifest.json and a
// README.
func Scaffold(info ModInfo) (Skeleton, error) {
	if strings.TrimSpace(info.ModID) == "" {
		return Skeleton{}, fmt.Errorf("mod id is required")
	}

	var vdf strings.Builder
	vdf.WriteString(Quote(info.ModID) + "\n{\n")
	for _, kv := range [][2]string{
		{"Name", info.Name},
		{"Description", info.Description},
		{"Version", info.Version},
		{"RequiredOnClient", "1"},
	} {
		fmt.Fprintf(&vdf, "\t%s\t%s\n", Quote(kv[0]), Quote(kv[1]))
	}
	vdf.WriteString("}\n")

	manifest, err := json.MarshalIndent(modJSON{
		Name:         info.Name,
		Description:  info.Description,
		Version:      info.Version,
		Author:       info.Author,
		ModID:        info.ModID,
		Scripts:      []string{},
		Rpaks:        []string{},
		Audio:        []string{},
		Localization: map[string]string{},
	}, "", "  ")
	if err != nil {
		return Skeleton{}, fmt.Errorf("failed to encode manifest.json: %w", err)
	}

	readme := fmt.Sprintf("# %s\n\n%s\n\n## Author\n%s\n\n## Version\n%s\n\n## Installation\nPlace this mod in your mods directory.\n",
		info.Name, info.Description, info.Author, info.Version)

	return Skeleton{
		Dirs: append([]string(nil), ScaffoldDirs...),
		Files: []File{
			{Path: "mod.vdf", Content: vdf.String()},
			{Path: "manifest.json", Content: string(manifest) + "\n"},
			{Path: "README.md", Content: readme},
		},
	}, nil
}
