package r5vforge

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/r5vforge/r5vforge/graph"
	"github.com/r5vforge/r5vforge/manifest"
)

// Directories inside a mod, slash separated and relative to the mod root.
const (
	DirScripts      = "scripts"
	DirVScripts     = "scripts/vscripts"
	DirWeapons      = "scripts/weapons"
	DirUI           = "resource/ui"
	DirMenus        = "resource/ui/menus"
	DirLocalization = manifest.LocalizationDir

	FileManifest   = "scripts/vscripts/scripts.rson"
	FileDescriptor = "mod.vdf"

	DefaultScriptExtension = ".nut"
)

// ModDirName is the output directory of a mod: author and name run
// together, without whitespace or characters that are invalid in file
// names.
func ModDirName(s graph.ModSettings) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			return -1
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			return -1
		}
		return r
	}, s.Author+s.Name)
}

// ScriptExtension returns the extension for generated scripts, with a
// leading dot.
func ScriptExtension(s graph.ModSettings) string {
	ext := strings.TrimSpace(s.ScriptExtension)
	if ext == "" {
		return DefaultScriptExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// withExt appends ext unless name already has an extension.
func withExt(name, ext string) string {
	if path.Ext(name) != "" {
		return name
	}
	return name + ext
}

func cleanName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
}

// checkSegments rejects names with a "." or ".." element.
func checkSegments(name string) error {
	for _, seg := range strings.Split(name, "/") {
		if seg == "." || seg == ".." {
			return ErrUnsafePath
		}
	}
	return nil
}

// checkModDir rejects mod directory names that do not name a child of the
// output directory.
func checkModDir(name string) error {
	if name == "." || name == ".." || !filepath.IsLocal(name) || strings.ContainsAny(name, `/\`) {
		return ErrUnsafePath
	}
	return nil
}

// within reports whether target is dir or below it.
func within(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	return err == nil && filepath.IsLocal(rel)
}

// ScriptPath is the location of a generated script relative to
// scripts/vscripts, as it appears in scripts.rson.
func ScriptPath(s graph.ModSettings, script graph.Script) (string, error) {
	name := cleanName(script.Name)
	if name == "" {
		return "", ErrEmptyFileName
	}
	if err := checkSegments(name); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(script.Folders)+1)
	for _, f := range script.Folders {
		if f = cleanName(f); f != "" {
			if err := checkSegments(f); err != nil {
				return "", err
			}
			parts = append(parts, f)
		}
	}
	parts = append(parts, withExt(name, ScriptExtension(s)))
	return path.Join(parts...), nil
}

// WeaponPath is the location of a weapon file relative to the mod root.
func WeaponPath(w graph.WeaponFile) (string, error) {
	name := cleanName(w.Name)
	if name == "" {
		return "", ErrEmptyFileName
	}
	if err := checkSegments(name); err != nil {
		return "", err
	}
	return path.Join(DirWeapons, withExt(name, ".txt")), nil
}

// UIKindOf returns the kind of a UI file; when unset it follows the file
// extension.
func UIKindOf(f graph.UIFile) graph.UIKind {
	if f.Kind != "" {
		return f.Kind
	}
	if strings.EqualFold(path.Ext(f.Name), ".menu") {
		return graph.UIMenu
	}
	return graph.UIRes
}

// UIPath is the location of a UI file relative to the mod root. Menus go
// to resource/ui/menus, res files to resource/ui.
func UIPath(f graph.UIFile) (string, error) {
	name := cleanName(f.Name)
	if name == "" {
		return "", ErrEmptyFileName
	}
	if err := checkSegments(name); err != nil {
		return "", err
	}
	switch UIKindOf(f) {
	case graph.UIMenu:
		return path.Join(DirMenus, withExt(name, ".menu")), nil
	case graph.UIRes:
		return path.Join(DirUI, withExt(name, ".res")), nil
	default:
		return "", ErrInvalidUIKind
	}
}

// LocalizationPath is the location of one language variant relative to the
// mod root. The language must be a plain name and the base name must not be
// "." or "..".
func LocalizationPath(f graph.LocalizationFile) (string, error) {
	if strings.TrimSpace(f.Name) == "" {
		return "", ErrEmptyFileName
	}
	lang := manifest.Language(f)
	if strings.ContainsAny(lang, `/\`) || checkSegments(lang) != nil {
		return "", ErrUnsafePath
	}
	if checkSegments(manifest.LocalizationBase(f)) != nil {
		return "", ErrUnsafePath
	}
	return manifest.LocalizationPath(f), nil
}
