// Package validate checks a graph against a fixed, ordered rule set
// and reports the outcome as diagnostics. An empty diagnostics slice
// means the graph passed every configured rule.
package validate

import (
	"fmt"

	"github.com/ontoforge/tern/internal/store"
	"github.com/ontoforge/tern/pkg/rdf"
)

// Severity classifies a diagnostic
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	}
	return "Unknown"
}

// Diagnostic is one rule finding
type Diagnostic struct {
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// DefaultRequiredProperties is the predicate allow-list applied when
// no explicit configuration is given.
var DefaultRequiredProperties = []*rdf.NamedNode{
	rdf.RDFType,
	rdf.RDFSLabel,
	rdf.RDFSComment,
}

// Validator applies the rule set against a triple store. Rules run in
// a fixed order and diagnostics keep that order:
//
//  1. every declared class must carry each required property
//  2. every predicate must come from the required-property set
//  3. at least one class must be declared
type Validator struct {
	required []*rdf.NamedNode
	allowed  map[string]bool
}

// NewValidator creates a validator with the given required-property
// set. An empty list selects DefaultRequiredProperties.
func NewValidator(required ...*rdf.NamedNode) *Validator {
	if len(required) == 0 {
		required = DefaultRequiredProperties
	}

	allowed := make(map[string]bool, len(required))
	for _, p := range required {
		allowed[p.IRI] = true
	}
	return &Validator{required: required, allowed: allowed}
}

// Validate runs every rule over the store and returns the ordered
// diagnostics
func (v *Validator) Validate(s *store.TripleStore) ([]Diagnostic, error) {
	classes, err := classSubjects(s)
	if err != nil {
		return nil, err
	}

	var diagnostics []Diagnostic

	missing, err := v.checkRequiredProperties(s, classes)
	if err != nil {
		return nil, err
	}
	diagnostics = append(diagnostics, missing...)

	nonStandard, err := v.checkPredicates(s)
	if err != nil {
		return nil, err
	}
	diagnostics = append(diagnostics, nonStandard...)

	if len(classes) == 0 {
		diagnostics = append(diagnostics, Diagnostic{
			Severity: SeverityError,
			Message:  "No class definitions found.",
		})
	}

	return diagnostics, nil
}

// checkRequiredProperties warns once per declared class and required
// property the class does not carry
func (v *Validator) checkRequiredProperties(s *store.TripleStore, classes []rdf.Term) ([]Diagnostic, error) {
	var warnings []Diagnostic
	for _, class := range classes {
		for _, prop := range v.required {
			present, err := hasProperty(s, class, prop)
			if err != nil {
				return nil, err
			}
			if !present {
				warnings = append(warnings, Diagnostic{
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("Class %s is missing required property %s", class, prop),
				})
			}
		}
	}
	return warnings, nil
}

// checkPredicates warns once per triple whose predicate falls outside
// the required-property set
func (v *Validator) checkPredicates(s *store.TripleStore) ([]Diagnostic, error) {
	it, err := s.All()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var warnings []Diagnostic
	for it.Next() {
		triple := it.Triple()
		if v.allowed[triple.Predicate.(*rdf.NamedNode).IRI] {
			continue
		}
		warnings = append(warnings, Diagnostic{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("Triple %s %s %s uses non-standard predicate",
				triple.Subject, triple.Predicate, triple.Object),
		})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return warnings, nil
}

// classSubjects returns the distinct subjects declared as classes, in
// store order
func classSubjects(s *store.TripleStore) ([]rdf.Term, error) {
	it, err := s.ByPredicate(rdf.RDFType)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	seen := make(map[string]bool)
	var classes []rdf.Term
	for it.Next() {
		triple := it.Triple()
		if !triple.Object.Equals(rdf.OWLClass) {
			continue
		}
		key := triple.Subject.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		classes = append(classes, triple.Subject)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}

// hasProperty reports whether any triple (subject, prop, _) exists
func hasProperty(s *store.TripleStore, subject rdf.Term, prop *rdf.NamedNode) (bool, error) {
	it, err := s.Match(&store.Pattern{
		Subject:   subject,
		Predicate: prop,
		Object:    store.NewVariable("o"),
	})
	if err != nil {
		return false, err
	}
	defer it.Close()

	found := it.Next()
	if err := it.Err(); err != nil {
		return false, err
	}
	return found, nil
}
