package store

import (
	"github.com/ontoforge/tern/pkg/rdf"
)

// Pattern represents a triple pattern; each position holds either an
// rdf.Term or a *Variable.
type Pattern struct {
	Subject   interface{}
	Predicate interface{}
	Object    interface{}
}

// Variable represents a query variable
type Variable struct {
	Name string
}

// NewVariable creates a new variable
func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) String() string {
	return "?" + v.Name
}

// IsVariable checks if a pattern position holds a variable
func IsVariable(v interface{}) bool {
	_, ok := v.(*Variable)
	return ok
}

// Variables returns the distinct variable names of the pattern, in
// subject, predicate, object position order.
func (p *Pattern) Variables() []string {
	var names []string
	seen := make(map[string]bool)
	for _, pos := range []interface{}{p.Subject, p.Predicate, p.Object} {
		if v, ok := pos.(*Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
	}
	return names
}

// IsGround reports whether the pattern contains no variables
func (p *Pattern) IsGround() bool {
	return !IsVariable(p.Subject) && !IsVariable(p.Predicate) && !IsVariable(p.Object)
}

// Binding represents one solution: a mapping from variable names to
// the terms they bound against a matching triple.
type Binding struct {
	Vars map[string]rdf.Term
}

// NewBinding creates a new empty binding
func NewBinding() *Binding {
	return &Binding{Vars: make(map[string]rdf.Term)}
}

// Clone creates a copy of the binding
func (b *Binding) Clone() *Binding {
	clone := NewBinding()
	for k, v := range b.Vars {
		clone.Vars[k] = v
	}
	return clone
}

// BindingIterator iterates over the solutions of a pattern match
type BindingIterator interface {
	Next() bool
	Binding() *Binding
	Err() error
	Close() error
}

// Match evaluates a triple pattern against the store, producing one
// binding per matching triple in insertion order. Repeated variables
// must agree on a single term within a solution. Each call starts a
// fresh, restartable iteration.
func (s *TripleStore) Match(pattern *Pattern) (BindingIterator, error) {
	source, err := s.patternSource(pattern)
	if err != nil {
		return nil, err
	}

	return &bindingIterator{
		source:  source,
		pattern: pattern,
	}, nil
}

// patternSource picks the narrowest index for the pattern: the
// predicate bucket when the predicate is bound, the full log
// otherwise. Both iterate in insertion order, so the choice does not
// affect solution order.
func (s *TripleStore) patternSource(pattern *Pattern) (TripleIterator, error) {
	if !IsVariable(pattern.Predicate) {
		pred, ok := pattern.Predicate.(*rdf.NamedNode)
		if !ok {
			// Only IRIs occur in the predicate position, so any other
			// bound term matches nothing.
			return emptyTripleIterator{}, nil
		}
		return s.ByPredicate(pred)
	}
	return s.All()
}

type bindingIterator struct {
	source  TripleIterator
	pattern *Pattern
	current *Binding
}

func (bi *bindingIterator) Next() bool {
	for bi.source.Next() {
		if binding, ok := matchTriple(bi.pattern, bi.source.Triple()); ok {
			bi.current = binding
			return true
		}
	}
	return false
}

func (bi *bindingIterator) Binding() *Binding {
	return bi.current
}

func (bi *bindingIterator) Err() error {
	return bi.source.Err()
}

func (bi *bindingIterator) Close() error {
	return bi.source.Close()
}

// matchTriple matches one triple against the pattern. Bound positions
// compare by structural term equality; variable positions bind, and a
// variable occurring in several positions must bind the same term.
func matchTriple(pattern *Pattern, triple *rdf.Triple) (*Binding, bool) {
	binding := NewBinding()

	positions := []struct {
		slot interface{}
		term rdf.Term
	}{
		{pattern.Subject, triple.Subject},
		{pattern.Predicate, triple.Predicate},
		{pattern.Object, triple.Object},
	}

	for _, pos := range positions {
		switch want := pos.slot.(type) {
		case *Variable:
			if bound, ok := binding.Vars[want.Name]; ok {
				if !bound.Equals(pos.term) {
					return nil, false
				}
			} else {
				binding.Vars[want.Name] = pos.term
			}
		case rdf.Term:
			if !want.Equals(pos.term) {
				return nil, false
			}
		default:
			return nil, false
		}
	}

	return binding, true
}

type emptyTripleIterator struct{}

func (emptyTripleIterator) Next() bool          { return false }
func (emptyTripleIterator) Triple() *rdf.Triple { return nil }
func (emptyTripleIterator) Err() error          { return nil }
func (emptyTripleIterator) Close() error        { return nil }
