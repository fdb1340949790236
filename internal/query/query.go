// Package query implements a reduced, deterministic query surface
// over the triple store: a single triple pattern, optionally wrapped
// in a SELECT or ASK form, with an optional PREFIX prologue.
package query

import (
	"fmt"

	"github.com/ontoforge/tern/internal/store"
)

// Query is a parsed query: one triple pattern plus the result shape
// it was written in.
type Query struct {
	Pattern *store.Pattern

	// Ask forces a boolean result regardless of variables
	Ask bool

	// Projection lists the variables to report; nil means all pattern
	// variables in position order.
	Projection []string
}

// Variables returns the projected variable names
func (q *Query) Variables() []string {
	if q.Projection != nil {
		return q.Projection
	}
	return q.Pattern.Variables()
}

// SyntaxError reports query text that cannot be interpreted as a
// pattern, carrying the offending fragment.
type SyntaxError struct {
	Fragment string
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query syntax error at %q: %s", e.Fragment, e.Reason)
}
