package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for graph problems. Use errors.Is against an *Error.
var (
	ErrCycle                = errors.New("cycle detected")
	ErrDanglingReference    = errors.New("dangling reference")
	ErrPortKindMismatch     = errors.New("port kind mismatch")
	ErrPortDirection        = errors.New("port direction mismatch")
	ErrDuplicateInput       = errors.New("input port already connected")
	ErrEntryHasIncomingExec = errors.New("entry node has incoming exec connection")
	ErrUnknownNodeType      = errors.New("unknown node type")
	ErrNoEmitter            = errors.New("no emitter for node type")
	ErrInvalidNode          = errors.New("invalid node")
)

// Error is a graph problem that is fatal to generating one script file.
// It names the offending node and/or connection.
type Error struct {
	Kind         error
	NodeID       string
	ConnectionID string
	Detail       string
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.NodeID != "" {
		fmt.Fprintf(&sb, ": node %q", e.NodeID)
	}
	if e.ConnectionID != "" {
		fmt.Fprintf(&sb, ": connection %q", e.ConnectionID)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

// Unwrap returns the sentinel kind
func (e *Error) Unwrap() error {
	return e.Kind
}

// NodeError creates a graph error about a node.
func NodeError(kind error, nodeID, format string, args ...any) *Error {
	return &Error{Kind: kind, NodeID: nodeID, Detail: fmt.Sprintf(format, args...)}
}

// ConnectionError creates a graph error about a connection.
func ConnectionError(kind error, connID, nodeID, format string, args ...any) *Error {
	return &Error{Kind: kind, ConnectionID: connID, NodeID: nodeID, Detail: fmt.Sprintf(format, args...)}
}

// Errors collects several graph problems found in one pass.
type Errors struct {
	Errors []error
}

// Error implements the error interface
func (e *Errors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d graph errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Unwrap returns the first error (for errors.Is/As compatibility)
func (e *Errors) Unwrap() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// Add appends err if it is non-nil.
func (e *Errors) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// Err returns nil when empty, the single error when there is one, and e
// otherwise.
func (e *Errors) Err() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	default:
		return e
	}
}
