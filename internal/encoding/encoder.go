package encoding

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/zeebo/xxh3"

	"github.com/ontoforge/tern/pkg/rdf"
)

const (
	// Encoded term size (type byte + 16 bytes of 128-bit hash)
	EncodedTermSize = 17

	// Encoded triple size (three encoded terms)
	EncodedTripleSize = 3 * EncodedTermSize
)

// EncodedTerm is a fixed-size index representation of a term: a type
// byte followed by a 128-bit xxh3 hash of the term's identity string.
// Two terms are structurally equal iff their encodings are equal.
type EncodedTerm [EncodedTermSize]byte

// TermType extracts the type byte from an encoded term
func (e EncodedTerm) TermType() rdf.TermType {
	return rdf.TermType(e[0])
}

// TermEncoder encodes RDF terms into fixed-size index keys plus a
// self-describing serialization for the id2str side table.
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.Hash128([]byte(s))
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes a term into its fixed-size form and the
// serialization to store under TableID2Str. No value canonicalization
// happens here: literals with different lexical forms stay distinct
// regardless of datatype.
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, []byte, error) {
	var encoded EncodedTerm

	kind, identity, err := termIdentity(term)
	if err != nil {
		return encoded, nil, err
	}

	encoded[0] = byte(kind)
	hash := e.Hash128(identity)
	copy(encoded[1:], hash[:])

	return encoded, marshalTerm(kind, term), nil
}

// EncodeTriple encodes all three positions of a triple
func (e *TermEncoder) EncodeTriple(t *rdf.Triple) (subj, pred, obj EncodedTerm, err error) {
	subj, _, err = e.EncodeTerm(t.Subject)
	if err != nil {
		return subj, pred, obj, errors.Wrap(err, "encode subject")
	}
	pred, _, err = e.EncodeTerm(t.Predicate)
	if err != nil {
		return subj, pred, obj, errors.Wrap(err, "encode predicate")
	}
	obj, _, err = e.EncodeTerm(t.Object)
	if err != nil {
		return subj, pred, obj, errors.Wrap(err, "encode object")
	}
	return subj, pred, obj, nil
}

// EncodeKey concatenates encoded terms into an index key
func (e *TermEncoder) EncodeKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// termIdentity returns the encoder kind and the string hashed to form
// the fixed-size encoding.
func termIdentity(term rdf.Term) (rdf.TermType, string, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return rdf.TermTypeNamedNode, t.IRI, nil
	case *rdf.BlankNode:
		return rdf.TermTypeBlankNode, t.ID, nil
	case *rdf.Literal:
		switch {
		case t.Language != "":
			return rdf.TermTypeLangStringLiteral, t.Value + "@" + t.Language, nil
		case t.Datatype != nil:
			return rdf.TermTypeTypedLiteral, t.Value + "^^" + t.Datatype.IRI, nil
		default:
			return rdf.TermTypeStringLiteral, t.Value, nil
		}
	default:
		return 0, "", errors.Newf("unknown term type: %T", term)
	}
}

// marshalTerm produces the id2str serialization: a kind byte followed
// by length-prefixed value and extra fields. Length prefixes keep the
// format unambiguous for values containing any byte sequence.
func marshalTerm(kind rdf.TermType, term rdf.Term) []byte {
	var value, extra string

	switch t := term.(type) {
	case *rdf.NamedNode:
		value = t.IRI
	case *rdf.BlankNode:
		value = t.ID
	case *rdf.Literal:
		value = t.Value
		switch kind {
		case rdf.TermTypeLangStringLiteral:
			extra = t.Language
		case rdf.TermTypeTypedLiteral:
			extra = t.Datatype.IRI
		}
	}

	buf := make([]byte, 0, 1+2*binary.MaxVarintLen64+len(value)+len(extra))
	buf = append(buf, byte(kind))
	buf = binary.AppendUvarint(buf, uint64(len(value)))
	buf = append(buf, value...)
	buf = binary.AppendUvarint(buf, uint64(len(extra)))
	buf = append(buf, extra...)
	return buf
}
