package manifest

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/r5vforge/r5vforge/graph"
)

// LocalizationDir is where localization files live inside a mod.
const LocalizationDir = "resource/localization"

// LanguageWildcard stands for every language in a mod.vdf localization path.
const LanguageWildcard = "%language%"

// Descriptor renders mod.vdf. Settings fields are written verbatim, quotes
// escaped. LocalizationFiles lists one wildcard path per distinct basename in
// first-seen order, followed by the manual declarations of the settings that
// are not already present.
func Descriptor(s graph.ModSettings, loc []graph.LocalizationFile) string {
	var sb strings.Builder
	kv := func(indent, key, value string) {
		fmt.Fprintf(&sb, "%s%s\t%s\n", indent, Quote(key), Quote(value))
	}

	root := s.ID
	if root == "" {
		root = s.Name
	}
	sb.WriteString(Quote(root) + "\n{\n")
	kv("\t", "Name", s.Name)
	kv("\t", "Id", s.ID)
	kv("\t", "Description", s.Description)
	kv("\t", "Version", s.Version)
	kv("\t", "Author", s.Author)

	if paths := LocalizationEntries(s, loc); len(paths) > 0 {
		sb.WriteString("\n\t" + Quote("LocalizationFiles") + "\n\t{\n")
		for _, p := range paths {
			kv("\t\t", p, "1")
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// LocalizationEntries returns the localization paths declared in mod.vdf.
func LocalizationEntries(s graph.ModSettings, loc []graph.LocalizationFile) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	for _, f := range loc {
		add(path.Join(LocalizationDir, LocalizationBase(f)+"_"+LanguageWildcard+".txt"))
	}
	for _, p := range s.Localization {
		add(strings.TrimSpace(p))
	}
	return out
}

// LocalizationBase is the logical name shared by every language variant of
// a localization file: the file name without directory, .txt extension or
// trailing _<language>.
func LocalizationBase(f graph.LocalizationFile) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(f.Name, "\\", "/")), ".txt")
	return strings.TrimSuffix(base, "_"+Language(f))
}

// LocalizationPath is where one language variant is written, relative to
// the mod directory.
func LocalizationPath(f graph.LocalizationFile) string {
	return path.Join(LocalizationDir, LocalizationBase(f)+"_"+Language(f)+".txt")
}

// Language returns the language of a localization file, "english" when
// unset.
func Language(f graph.LocalizationFile) string {
	if f.Language == "" {
		return "english"
	}
	return strings.ToLower(f.Language)
}

// Localization renders one language variant as a token file. Tokens are
// sorted by key.
//
//	"lang"
//	{
//		"Language"	"english"
//		"Tokens"
//		{
//			"MY_TOKEN"	"Hello"
//		}
//	}
func Localization(f graph.LocalizationFile) string {
	keys := make([]string, 0, len(f.Tokens))
	for k := range f.Tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(Quote("lang") + "\n{\n")
	fmt.Fprintf(&sb, "\t%s\t%s\n", Quote("Language"), Quote(Language(f)))
	sb.WriteString("\t" + Quote("Tokens") + "\n\t{\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "\t\t%s\t%s\n", Quote(k), Quote(f.Tokens[k]))
	}
	sb.WriteString("\t}\n}\n")
	return sb.String()
}

// Quote renders a KeyValues string.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
