// Package fsys is the filesystem collaborator of the compiler.
//
// The compiler never touches the disk directly; it goes through a
// FileSystem. Afero adapts any afero.Fs (the OS filesystem, an in-memory
// one in tests, a base-path jail) to that interface.
package fsys

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// FileSystem is what a compile needs from its environment. Calls are made
// strictly one after another.
type FileSystem interface {
	// SelectDirectory returns the output directory chosen by the user, or
	// "" when none was chosen.
	SelectDirectory(ctx context.Context) (string, error)
	// CreateDirectory creates a directory and any missing parents.
	CreateDirectory(ctx context.Context, path string) error
	// DeleteDirectory removes a directory tree. A missing directory is not
	// an error.
	DeleteDirectory(ctx context.Context, path string) error
	// WriteFile creates or truncates a file. The parent directory must exist.
	WriteFile(ctx context.Context, path, text string) error
}

// ErrNotExist is returned for paths that do not exist.
var ErrNotExist = errors.New("path does not exist")

// Afero implements FileSystem on top of an afero.Fs.
type Afero struct {
	fs       afero.Fs
	selected string
}

// Option configures an Afero filesystem.
type Option func(*Afero)

// WithSelection sets the directory SelectDirectory returns.
func WithSelection(dir string) Option {
	return func(a *Afero) { a.selected = dir }
}

// NewAfero wraps fs. A nil fs means the OS filesystem.
func NewAfero(fs afero.Fs, opts ...Option) *Afero {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	a := &Afero{fs: fs}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OS returns a FileSystem backed by the real disk.
func OS(opts ...Option) *Afero { return NewAfero(afero.NewOsFs(), opts...) }

// Fs exposes the underlying afero filesystem.
func (a *Afero) Fs() afero.Fs { return a.fs }

// SelectDirectory implements FileSystem.
func (a *Afero) SelectDirectory(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.selected, nil
}

// CreateDirectory implements FileSystem.
func (a *Afero) CreateDirectory(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.fs.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// DeleteDirectory implements FileSystem.
func (a *Afero) DeleteDirectory(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	exists, err := afero.Exists(a.fs, path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !exists {
		return nil
	}
	if err := a.fs.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete directory %s: %w", path, err)
	}
	return nil
}

// WriteFile implements FileSystem.
func (a *Afero) WriteFile(ctx context.Context, path, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := a.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func (a *Afero) Exists(path string) (bool, error) {
	return afero.Exists(a.fs, path)
}

// ReadFile returns the content of a file.
func (a *Afero) ReadFile(path string) (string, error) {
	b, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}
