package rdf

// Standard vocabulary IRIs used across parsing and validation.
//
// References:
// - RDF: https://www.w3.org/TR/rdf11-concepts/
// - RDFS: https://www.w3.org/TR/rdf-schema/
// - OWL: https://www.w3.org/TR/owl2-overview/

const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

var (
	// RDFType is the class-membership predicate, written "a" in Turtle
	RDFType = NewNamedNode(RDFNamespace + "type")

	// RDFSLabel provides a human-readable name for a resource
	RDFSLabel = NewNamedNode(RDFSNamespace + "label")

	// RDFSComment provides a human-readable description of a resource
	RDFSComment = NewNamedNode(RDFSNamespace + "comment")

	// OWLClass is the class of OWL classes
	OWLClass = NewNamedNode(OWLNamespace + "Class")
)

// Common XSD datatypes for typed literals
var (
	XSDString   = NewNamedNode(XSDNamespace + "string")
	XSDInteger  = NewNamedNode(XSDNamespace + "integer")
	XSDDecimal  = NewNamedNode(XSDNamespace + "decimal")
	XSDDouble   = NewNamedNode(XSDNamespace + "double")
	XSDBoolean  = NewNamedNode(XSDNamespace + "boolean")
	XSDDateTime = NewNamedNode(XSDNamespace + "dateTime")
)

func NewIntegerLiteral(value string) *Literal {
	return NewLiteralWithDatatype(value, XSDInteger)
}

func NewDoubleLiteral(value string) *Literal {
	return NewLiteralWithDatatype(value, XSDDouble)
}
