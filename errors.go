package r5vforge

import (
	"errors"
	"fmt"
)

// ErrorKind classifies compile failures.
type ErrorKind int

const (
	// KindPrecondition failures are detected before the filesystem is
	// touched.
	KindPrecondition ErrorKind = iota + 1
	// KindGraph failures come from generating one script. Nothing has been
	// written when one is reported.
	KindGraph
	// KindIO failures abort the compile at the failing operation.
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindGraph:
		return "graph"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Precondition errors.
var (
	ErrMissingName   = errors.New("mod name is required")
	ErrMissingID     = errors.New("mod id is required")
	ErrEmptyProject  = errors.New("project has no files")
	ErrNoOutputDir   = errors.New("no output directory selected")
	ErrDuplicatePath = errors.New("two files map to the same output path")
	ErrModExists     = errors.New("mod directory already exists")
	ErrInvalidUIKind = errors.New("unknown UI file kind")
	ErrEmptyFileName = errors.New("file name is empty")
	ErrUnsafePath    = errors.New("path leaves the mod directory")
)

// CompileError reports which artifact a compile failed on.
type CompileError struct {
	Kind     ErrorKind
	Artifact string // output path or script name, when known
	Err      error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Artifact == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Artifact, e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

func preconditionError(artifact string, err error) *CompileError {
	return &CompileError{Kind: KindPrecondition, Artifact: artifact, Err: err}
}

func graphError(artifact string, err error) *CompileError {
	return &CompileError{Kind: KindGraph, Artifact: artifact, Err: err}
}

func ioError(artifact string, err error) *CompileError {
	return &CompileError{Kind: KindIO, Artifact: artifact, Err: err}
}

// IsKind reports whether err is a CompileError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Kind == k
}
