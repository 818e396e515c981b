package graph

import "strings"

// Context is a set of runtimes a script must be loaded under.
type Context uint8

const (
	ContextServer Context = 1 << iota
	ContextClient
	ContextUI

	ContextNone Context = 0
	ContextAll          = ContextServer | ContextClient | ContextUI
)

// WhenSeparator joins context tokens in a when clause.
const WhenSeparator = " || "

var contextTokens = []struct {
	bit   Context
	token string
}{
	{ContextServer, "SERVER"},
	{ContextClient, "CLIENT"},
	{ContextUI, "UI"},
}

// Has reports whether every bit of c2 is set in c.
func (c Context) Has(c2 Context) bool { return c&c2 == c2 && c2 != 0 }

// Server reports whether the SERVER bit is set.
func (c Context) Server() bool { return c.Has(ContextServer) }

// Client reports whether the CLIENT bit is set.
func (c Context) Client() bool { return c.Has(ContextClient) }

// UI reports whether the UI bit is set.
func (c Context) UI() bool { return c.Has(ContextUI) }

// Tokens returns the set bits as tokens in SERVER, CLIENT, UI order.
func (c Context) Tokens() []string {
	var out []string
	for _, t := range contextTokens {
		if c&t.bit != 0 {
			out = append(out, t.token)
		}
	}
	return out
}

// When renders the clause used by the registration manifest,
// e.g. "SERVER || CLIENT".
func (c Context) When() string {
	return strings.Join(c.Tokens(), WhenSeparator)
}

func (c Context) String() string {
	if c == ContextNone {
		return "NONE"
	}
	return c.When()
}

// ParseContext parses a single token or a when clause. Unknown tokens are
// ignored.
func ParseContext(s string) Context {
	var c Context
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' ' || r == '&'
	}) {
		for _, t := range contextTokens {
			if strings.EqualFold(part, t.token) {
				c |= t.bit
			}
		}
	}
	return c
}
