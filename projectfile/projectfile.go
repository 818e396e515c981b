// Package projectfile reads and writes editor project files.
//
// A project is stored as JSON. Saved files are wrapped in a small
// container: the magic bytes "R5VP" followed by the gzip-compressed JSON.
// Plain JSON files (older saves, hand-written fixtures) load as well.
package projectfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/r5vforge/r5vforge/graph"
)

// Magic prefixes every compressed project file.
var Magic = []byte("R5VP")

// Extension is the conventional project file extension.
const Extension = ".r5vproj"

var (
	// ErrNotUTF8 is returned for uncompressed files that are not text.
	ErrNotUTF8 = errors.New("project file is not valid UTF-8")
	// ErrCorrupt is returned when a compressed file cannot be inflated.
	ErrCorrupt = errors.New("project file is corrupt")
)

// Info describes how a project file was stored.
type Info struct {
	Compressed   bool `json:"compressed"`
	OriginalSize int  `json:"originalSize"`
	StoredSize   int  `json:"storedSize"`
}

// Encode wraps content in the compressed container.
func Encode(content []byte) ([]byte, Info, error) {
	var buf bytes.Buffer
	buf.Write(Magic)
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, Info{}, fmt.Errorf("compression error: %w", err)
	}
	if _, err := zw.Write(content); err != nil {
		return nil, Info{}, fmt.Errorf("compression error: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, Info{}, fmt.Errorf("compression finish error: %w", err)
	}
	out := buf.Bytes()
	return out, Info{Compressed: true, OriginalSize: len(content), StoredSize: len(out)}, nil
}

// Decode unwraps a container, or returns plain text unchanged.
func Decode(data []byte) ([]byte, Info, error) {
	if !bytes.HasPrefix(data, Magic) {
		if !utf8.Valid(data) {
			return nil, Info{}, ErrNotUTF8
		}
		return data, Info{OriginalSize: len(data), StoredSize: len(data)}, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data[len(Magic):]))
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	content, err := io.ReadAll(zr)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return content, Info{Compressed: true, OriginalSize: len(content), StoredSize: len(data)}, nil
}

// Marshal encodes a project into a compressed container.
func Marshal(p *graph.Project) ([]byte, Info, error) {
	content, err := json.Marshal(p)
	if err != nil {
		return nil, Info{}, fmt.Errorf("marshal: %w", err)
	}
	return Encode(content)
}

// Unmarshal decodes a project from a container or plain JSON.
func Unmarshal(data []byte) (*graph.Project, Info, error) {
	content, info, err := Decode(data)
	if err != nil {
		return nil, Info{}, err
	}
	var p graph.Project
	if err := json.Unmarshal(content, &p); err != nil {
		return nil, Info{}, fmt.Errorf("unmarshal: %w", err)
	}
	return &p, info, nil
}

// Save writes a compressed project file. The write is atomic: data goes to
// a temporary file that is then renamed over path.
func Save(fs afero.Fs, path string, p *graph.Project) (Info, error) {
	data, info, err := Marshal(p)
	if err != nil {
		return Info{}, err
	}
	if err := writeAtomic(fs, path, data); err != nil {
		return Info{}, err
	}
	return info, nil
}

// Load reads a project file.
func Load(fs afero.Fs, path string) (*graph.Project, Info, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("read: %w", err)
	}
	p, info, err := Unmarshal(data)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, info, nil
}

// Pack rewrites any project file (plain or compressed) as a compressed one.
func Pack(fs afero.Fs, src, dst string) (Info, error) {
	data, err := afero.ReadFile(fs, src)
	if err != nil {
		return Info{}, fmt.Errorf("read: %w", err)
	}
	content, _, err := Decode(data)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", src, err)
	}
	out, info, err := Encode(content)
	if err != nil {
		return Info{}, err
	}
	return info, writeAtomic(fs, dst, out)
}

// Unpack writes the JSON content of a project file, indented.
func Unpack(fs afero.Fs, src, dst string) (Info, error) {
	data, err := afero.ReadFile(fs, src)
	if err != nil {
		return Info{}, fmt.Errorf("read: %w", err)
	}
	content, info, err := Decode(data)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", src, err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, content, "", "  "); err != nil {
		return Info{}, fmt.Errorf("%s: invalid JSON: %w", src, err)
	}
	pretty.WriteByte('\n')
	return info, writeAtomic(fs, dst, pretty.Bytes())
}

func writeAtomic(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		fs.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// IsNotExist reports whether err means the project file is missing.
func IsNotExist(err error) bool { return errors.Is(err, os.ErrNotExist) }
