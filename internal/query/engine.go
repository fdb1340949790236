package query

import (
	"github.com/ontoforge/tern/internal/store"
)

// Engine evaluates parsed queries against a triple store
type Engine struct {
	store *store.TripleStore
}

// NewEngine creates a new query engine
func NewEngine(s *store.TripleStore) *Engine {
	return &Engine{store: s}
}

// Result is the outcome of a query evaluation
type Result interface {
	resultType()
}

// SelectResult holds the binding solutions of a pattern with
// variables, in store iteration order.
type SelectResult struct {
	Variables []string
	Bindings  []*store.Binding
}

func (r *SelectResult) resultType() {}

// AskResult holds the boolean outcome of a ground pattern
type AskResult struct {
	Result bool
}

func (r *AskResult) resultType() {}

// Evaluate runs a parsed query. A pattern without variables, or an
// ASK form, produces an AskResult; otherwise every matching triple
// yields one binding. An empty store yields an empty result, never an
// error.
func (e *Engine) Evaluate(q *Query) (Result, error) {
	if q.Ask || q.Pattern.IsGround() {
		return e.evaluateAsk(q)
	}
	return e.evaluateSelect(q)
}

func (e *Engine) evaluateAsk(q *Query) (*AskResult, error) {
	it, err := e.store.Match(q.Pattern)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	found := it.Next()
	if err := it.Err(); err != nil {
		return nil, err
	}
	return &AskResult{Result: found}, nil
}

func (e *Engine) evaluateSelect(q *Query) (*SelectResult, error) {
	it, err := e.store.Match(q.Pattern)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	variables := q.Variables()

	var bindings []*store.Binding
	for it.Next() {
		binding := it.Binding()
		if q.Projection != nil {
			binding = project(binding, q.Projection)
		} else {
			binding = binding.Clone()
		}
		bindings = append(bindings, binding)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	return &SelectResult{
		Variables: variables,
		Bindings:  bindings,
	}, nil
}

// project keeps only the requested variables of a binding
func project(b *store.Binding, names []string) *store.Binding {
	out := store.NewBinding()
	for _, name := range names {
		if term, ok := b.Vars[name]; ok {
			out.Vars[name] = term
		}
	}
	return out
}
