package fsys

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// TreeDepth is how deep Tree descends below the root.
const TreeDepth = 3

// Item types.
const (
	TypeFolder = "folder"
	TypeFile   = "file"
)

// Item is one entry of a directory tree.
type Item struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Children []Item `json:"children,omitempty"`
}

// IsDir reports whether the item is a folder.
func (i Item) IsDir() bool { return i.Type == TypeFolder }

// Tree lists root recursively, TreeDepth levels deep. Within a directory,
// folders come first, then files, each sorted by name. Unreadable
// subdirectories are listed without children.
func Tree(fs afero.Fs, root string) ([]Item, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", root, ErrNotExist)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return buildTree(fs, root, 0, TreeDepth), nil
}

func buildTree(fs afero.Fs, dir string, depth, maxDepth int) []Item {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return a.Name() < b.Name()
	})

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		item := Item{Name: e.Name(), Path: p, Type: TypeFile}
		if e.IsDir() {
			item.Type = TypeFolder
			if depth < maxDepth {
				item.Children = buildTree(fs, p, depth+1, maxDepth)
			}
		}
		items = append(items, item)
	}
	return items
}
