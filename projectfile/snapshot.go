package projectfile

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/r5vforge/r5vforge/graph"
)

// SnapshotMarker starts every line of an embedded graph snapshot.
const SnapshotMarker = "// @r5vforge-graph "

// snapshotLineWidth is the number of base64 characters per snapshot line.
const snapshotLineWidth = 96

// ErrNoSnapshot is returned when a script carries no embedded graph.
var ErrNoSnapshot = errors.New("script has no embedded graph")

// MarshalScript encodes a script graph as msgpack with sorted map keys, so
// equal graphs encode to equal bytes.
func MarshalScript(s *graph.Script) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode script %q: %w", s.Name, err)
	}
	return buf.Bytes(), nil
}

// EmbedScript renders a comment block carrying the script graph, to be
// appended to the generated script. Each line is SnapshotMarker followed by
// a slice of the base64 of the gzip-compressed msgpack encoding.
func EmbedScript(s *graph.Script) (string, error) {
	raw, err := MarshalScript(s)
	if err != nil {
		return "", err
	}

	var zbuf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&zbuf, gzip.BestCompression)
	if err != nil {
		return "", fmt.Errorf("compression error: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("compression error: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compression error: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(zbuf.Bytes())
	var sb strings.Builder
	for len(encoded) > 0 {
		n := min(snapshotLineWidth, len(encoded))
		sb.WriteString(SnapshotMarker)
		sb.WriteString(encoded[:n])
		sb.WriteByte('\n')
		encoded = encoded[n:]
	}
	return sb.String(), nil
}

// ExtractScript recovers the graph embedded in a generated script.
func ExtractScript(text string) (*graph.Script, error) {
	var encoded strings.Builder
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, strings.TrimSpace(SnapshotMarker)); ok {
			encoded.WriteString(strings.TrimSpace(rest))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan script: %w", err)
	}
	if encoded.Len() == 0 {
		return nil, ErrNoSnapshot
	}

	compressed, err := base64.StdEncoding.DecodeString(encoded.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var s graph.Script
	if err := msgpack.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode embedded graph: %w", err)
	}
	return &s, nil
}
