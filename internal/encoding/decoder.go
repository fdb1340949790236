package encoding

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/ontoforge/tern/pkg/rdf"
)

// TermDecoder reconstructs terms from their id2str serialization
type TermDecoder struct{}

func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeTerm decodes a serialization produced by the encoder
func (d *TermDecoder) DecodeTerm(data []byte) (rdf.Term, error) {
	if len(data) < 1 {
		return nil, errors.New("empty term serialization")
	}

	kind := rdf.TermType(data[0])
	value, extra, err := unmarshalFields(data[1:])
	if err != nil {
		return nil, err
	}

	switch kind {
	case rdf.TermTypeNamedNode:
		return rdf.NewNamedNode(value), nil
	case rdf.TermTypeBlankNode:
		return rdf.NewBlankNode(value), nil
	case rdf.TermTypeStringLiteral:
		return rdf.NewLiteral(value), nil
	case rdf.TermTypeLangStringLiteral:
		return rdf.NewLiteralWithLanguage(value, extra), nil
	case rdf.TermTypeTypedLiteral:
		return rdf.NewLiteralWithDatatype(value, rdf.NewNamedNode(extra)), nil
	default:
		return nil, errors.Newf("unknown encoded term kind: %d", kind)
	}
}

func unmarshalFields(data []byte) (value, extra string, err error) {
	value, rest, err := readField(data)
	if err != nil {
		return "", "", errors.Wrap(err, "read value field")
	}
	extra, _, err = readField(rest)
	if err != nil {
		return "", "", errors.Wrap(err, "read extra field")
	}
	return value, extra, nil
}

func readField(data []byte) (string, []byte, error) {
	length, n := binary.Uvarint(data)
	if n <= 0 {
		return "", nil, errors.New("invalid length prefix")
	}
	data = data[n:]
	if uint64(len(data)) < length {
		return "", nil, errors.Newf("truncated field: want %d bytes, have %d", length, len(data))
	}
	return string(data[:length]), data[length:], nil
}
