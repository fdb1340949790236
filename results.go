package tern

import (
	"github.com/ontoforge/tern/internal/query"
	"github.com/ontoforge/tern/pkg/rdf"
)

// QueryResult is a query outcome in the shape of the SPARQL JSON
// results format: either a set of bindings or a boolean.
// https://www.w3.org/TR/sparql11-results-json/
type QueryResult struct {
	Head    ResultHead      `json:"head"`
	Results *ResultBindings `json:"results,omitempty"`
	Boolean *bool           `json:"boolean,omitempty"`
}

// ResultHead contains the variable names
type ResultHead struct {
	Vars []string `json:"vars"`
}

// ResultBindings contains the result bindings
type ResultBindings struct {
	Bindings []map[string]BindingValue `json:"bindings"`
}

// BindingValue represents a single bound value
type BindingValue struct {
	Type     string  `json:"type"`
	Value    string  `json:"value"`
	Datatype *string `json:"datatype,omitempty"`
	XMLLang  *string `json:"xml:lang,omitempty"`
}

// newQueryResult converts an evaluation result into the wire shape
func newQueryResult(result query.Result) *QueryResult {
	switch r := result.(type) {
	case *query.AskResult:
		return &QueryResult{
			Head:    ResultHead{Vars: []string{}},
			Boolean: &r.Result,
		}

	case *query.SelectResult:
		bindings := make([]map[string]BindingValue, 0, len(r.Bindings))
		for _, binding := range r.Bindings {
			row := make(map[string]BindingValue, len(binding.Vars))
			for name, term := range binding.Vars {
				row[name] = termToBindingValue(term)
			}
			bindings = append(bindings, row)
		}

		vars := r.Variables
		if vars == nil {
			vars = []string{}
		}
		return &QueryResult{
			Head:    ResultHead{Vars: vars},
			Results: &ResultBindings{Bindings: bindings},
		}
	}

	return nil
}

// termToBindingValue converts an RDF term to a SPARQL JSON binding value
func termToBindingValue(term rdf.Term) BindingValue {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return BindingValue{
			Type:  "uri",
			Value: t.IRI,
		}

	case *rdf.BlankNode:
		return BindingValue{
			Type:  "bnode",
			Value: t.ID,
		}

	case *rdf.Literal:
		bv := BindingValue{
			Type:  "literal",
			Value: t.Value,
		}
		if t.Language != "" {
			bv.XMLLang = &t.Language
		} else if t.Datatype != nil {
			datatypeIRI := t.Datatype.IRI
			bv.Datatype = &datatypeIRI
		}
		return bv

	default:
		return BindingValue{
			Type:  "literal",
			Value: term.String(),
		}
	}
}
