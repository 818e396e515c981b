package r5vforge

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/r5vforge/r5vforge/manifest"
)

// existsChecker is implemented by filesystems that can report whether a
// path exists, such as fsys.Afero.
type existsChecker interface {
	Exists(path string) (bool, error)
}

// CreateMod creates an empty mod in parent/<ModID> and returns its path. It
// fails when that directory already exists.
func (c *Compiler) CreateMod(ctx context.Context, parent string, info manifest.ModInfo) (string, error) {
	if strings.TrimSpace(info.ModID) == "" {
		return "", preconditionError("", ErrMissingID)
	}
	if err := checkModDir(info.ModID); err != nil {
		return "", preconditionError(info.ModID, err)
	}
	if parent == "" {
		dir, err := c.fs.SelectDirectory(ctx)
		if err != nil {
			return "", ioError("", err)
		}
		if dir == "" {
			return "", preconditionError("", ErrNoOutputDir)
		}
		parent = dir
	}

	sk, err := manifest.Scaffold(info)
	if err != nil {
		return "", preconditionError(info.ModID, err)
	}

	modDir := filepath.Join(parent, info.ModID)
	if ec, ok := c.fs.(existsChecker); ok {
		exists, err := ec.Exists(modDir)
		if err != nil {
			return "", ioError(modDir, err)
		}
		if exists {
			return "", preconditionError(modDir, ErrModExists)
		}
	}

	if err := c.fs.CreateDirectory(ctx, modDir); err != nil {
		return "", ioError(modDir, err)
	}
	for _, d := range sk.Dirs {
		dir := filepath.Join(modDir, filepath.FromSlash(d))
		if err := c.fs.CreateDirectory(ctx, dir); err != nil {
			return "", ioError(dir, err)
		}
	}
	for _, f := range sk.Files {
		file := filepath.Join(modDir, filepath.FromSlash(f.Path))
		if err := c.fs.WriteFile(ctx, file, f.Content); err != nil {
			return "", ioError(file, err)
		}
	}
	c.logger.Info("created mod", "path", modDir)
	return modDir, nil
}
