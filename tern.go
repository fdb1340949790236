// Package tern is an embeddable triple store with a Turtle-style
// ingestion grammar, a single-pattern query surface, and a structural
// validator. Each engine owns its store exclusively; callers serialize
// access to one engine and may use separate engines concurrently.
package tern

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ontoforge/tern/internal/query"
	"github.com/ontoforge/tern/internal/storage"
	"github.com/ontoforge/tern/internal/store"
	"github.com/ontoforge/tern/internal/turtle"
	"github.com/ontoforge/tern/internal/validate"
	"github.com/ontoforge/tern/pkg/rdf"
)

// Engine binds the parser, store, query engine, and validator
// behind one handle.
type Engine struct {
	backend   *storage.MemoryStorage
	triples   *store.TripleStore
	evaluator *query.Engine
	validator *validate.Validator
	logger    *zap.Logger
}

// Option configures an engine
type Option func(*Engine)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRequiredProperties replaces the validator's required-property
// set
func WithRequiredProperties(props ...*rdf.NamedNode) Option {
	return func(e *Engine) {
		e.validator = validate.NewValidator(props...)
	}
}

// New creates an engine with an empty store
func New(opts ...Option) (*Engine, error) {
	backend, err := storage.NewMemoryStorage()
	if err != nil {
		return nil, errors.Wrap(err, "opening storage")
	}

	triples := store.NewTripleStore(backend)
	e := &Engine{
		backend:   backend,
		triples:   triples,
		evaluator: query.NewEngine(triples),
		validator: validate.NewValidator(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Update parses the source text and inserts every parsed triple.
// Parsing completes before the first insert, so a fatal parse
// condition leaves the store untouched. Per-statement warnings are
// logged and do not fail the call.
func (e *Engine) Update(text string) (bool, error) {
	triples, warnings, err := turtle.NewParser(text).Parse()
	if err != nil {
		return false, err
	}

	for _, w := range warnings {
		e.logger.Warn("skipped statement",
			zap.Int("line", w.Line),
			zap.String("message", w.Message))
	}

	inserted := 0
	for _, triple := range triples {
		ok, err := e.triples.Insert(triple)
		if err != nil {
			return false, errors.Wrapf(err, "inserting %s", triple)
		}
		if ok {
			inserted++
		}
	}

	e.logger.Debug("update applied",
		zap.Int("parsed", len(triples)),
		zap.Int("inserted", inserted),
		zap.Int("warnings", len(warnings)))
	return true, nil
}

// Query parses and evaluates the query text against the store. The
// result shape follows the pattern: bindings when it has variables, a
// boolean when it is ground or written as ASK. Bad query text fails
// with a *query.SyntaxError and has no store effect.
func (e *Engine) Query(text string) (*QueryResult, error) {
	q, err := query.NewParser(text).Parse()
	if err != nil {
		return nil, err
	}

	result, err := e.evaluator.Evaluate(q)
	if err != nil {
		return nil, err
	}
	return newQueryResult(result), nil
}

// Validate parses the source text into a transient graph and runs the
// validation rules over it. The engine's own store is not touched.
// The returned strings are the ordered diagnostics; an empty slice
// means the input passed.
func (e *Engine) Validate(text string) ([]string, error) {
	triples, warnings, err := turtle.NewParser(text).Parse()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		e.logger.Warn("skipped statement",
			zap.Int("line", w.Line),
			zap.String("message", w.Message))
	}

	backend, err := storage.NewMemoryStorage()
	if err != nil {
		return nil, errors.Wrap(err, "opening scratch storage")
	}
	defer backend.Close()

	scratch := store.NewTripleStore(backend)
	for _, triple := range triples {
		if _, err := scratch.Insert(triple); err != nil {
			return nil, errors.Wrapf(err, "inserting %s", triple)
		}
	}

	diagnostics, err := e.validator.Validate(scratch)
	if err != nil {
		return nil, err
	}

	messages := make([]string, 0, len(diagnostics))
	for _, d := range diagnostics {
		messages = append(messages, d.String())
	}
	return messages, nil
}

// Count returns the number of stored triples
func (e *Engine) Count() (int64, error) {
	return e.triples.Count()
}

// Close releases the engine's storage
func (e *Engine) Close() error {
	return e.backend.Close()
}
