package main

import (
	"errors"
	"fmt"

	"github.com/r5vforge/r5vforge"
	"github.com/r5vforge/r5vforge/graph"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitPrecondition = 2
	ExitGraph        = 3
	ExitIO           = 4
)

// ExitError signals a non-zero exit code without calling os.Exit in RunE
// handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	switch {
	case r5vforge.IsKind(err, r5vforge.KindPrecondition):
		return ExitPrecondition
	case r5vforge.IsKind(err, r5vforge.KindGraph):
		return ExitGraph
	case r5vforge.IsKind(err, r5vforge.KindIO):
		return ExitIO
	}
	var ge *graph.Error
	if errors.As(err, &ge) {
		return ExitGraph
	}
	return ExitFailure
}
