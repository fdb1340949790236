package store

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/ontoforge/tern/internal/encoding"
	"github.com/ontoforge/tern/pkg/rdf"
	"github.com/ontoforge/tern/pkg/store"
)

// ErrInvalidTriple is returned for triples violating the positional
// constraints of the data model (literal subject, non-IRI predicate).
var ErrInvalidTriple = errors.New("invalid triple: subject must be an IRI or blank node, predicate must be an IRI")

// TripleStore is an ordered, duplicate-free triple collection over a
// key-value Storage. It maintains three indexes plus a term table:
// an insertion log (iteration order), an SPO index (duplicate
// detection) and a predicate index (filtered lookup).
type TripleStore struct {
	storage store.Storage
	encoder *encoding.TermEncoder
	decoder *encoding.TermDecoder
	seq     uint64
}

// NewTripleStore creates a new triple store over the given storage
func NewTripleStore(storage store.Storage) *TripleStore {
	return &TripleStore{
		storage: storage,
		encoder: encoding.NewTermEncoder(),
		decoder: encoding.NewTermDecoder(),
	}
}

// Close closes the triple store
func (s *TripleStore) Close() error {
	return s.storage.Close()
}

// Insert appends a triple unless a structurally equal one is already
// present. It reports whether the store changed.
func (s *TripleStore) Insert(triple *rdf.Triple) (bool, error) {
	if !triple.IsValid() {
		return false, errors.WithDetail(ErrInvalidTriple, triple.String())
	}

	subjEnc, predEnc, objEnc, err := s.encoder.EncodeTriple(triple)
	if err != nil {
		return false, err
	}

	txn, err := s.storage.Begin(true)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	spoKey := s.encoder.EncodeKey(subjEnc, predEnc, objEnc)
	if _, err := txn.Get(store.TableSPO, spoKey); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	seqKey := encodeSeq(s.seq)
	tripleVal := spoKey // same 51-byte layout: subject, predicate, object

	if err := txn.Set(store.TableLog, seqKey, tripleVal); err != nil {
		return false, err
	}
	if err := txn.Set(store.TableSPO, spoKey, seqKey); err != nil {
		return false, err
	}
	if err := txn.Set(store.TablePOS, append(predEnc[:], seqKey...), tripleVal); err != nil {
		return false, err
	}

	for _, term := range []rdf.Term{triple.Subject, triple.Predicate, triple.Object} {
		if err := s.storeTerm(txn, term); err != nil {
			return false, err
		}
	}

	if err := txn.Commit(); err != nil {
		return false, err
	}

	s.seq++
	return true, nil
}

// storeTerm stores the term's serialization in the id2str table,
// keyed by its hash, skipping the write when already present.
func (s *TripleStore) storeTerm(txn store.Transaction, term rdf.Term) error {
	encoded, serialized, err := s.encoder.EncodeTerm(term)
	if err != nil {
		return err
	}

	key := encoded[1:] // hash portion
	existing, err := txn.Get(store.TableID2Str, key)
	if err == nil && bytes.Equal(existing, serialized) {
		return nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	return txn.Set(store.TableID2Str, key, serialized)
}

// Contains reports whether a structurally equal triple is stored
func (s *TripleStore) Contains(triple *rdf.Triple) (bool, error) {
	if !triple.IsValid() {
		return false, nil
	}

	subjEnc, predEnc, objEnc, err := s.encoder.EncodeTriple(triple)
	if err != nil {
		return false, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	_, err = txn.Get(store.TableSPO, s.encoder.EncodeKey(subjEnc, predEnc, objEnc))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// All iterates over every triple in insertion order. Each call starts
// a fresh iteration.
func (s *TripleStore) All() (TripleIterator, error) {
	return s.scanTriples(store.TableLog, nil)
}

// ByPredicate iterates, in insertion order, over the triples whose
// predicate equals p.
func (s *TripleStore) ByPredicate(p *rdf.NamedNode) (TripleIterator, error) {
	predEnc, _, err := s.encoder.EncodeTerm(p)
	if err != nil {
		return nil, err
	}
	return s.scanTriples(store.TablePOS, predEnc[:])
}

// Count returns the number of stored triples
func (s *TripleStore) Count() (int64, error) {
	it, err := s.All()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := int64(0)
	for it.Next() {
		count++
	}
	return count, it.Err()
}

func (s *TripleStore) scanTriples(table store.Table, prefix []byte) (TripleIterator, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}

	it, err := txn.Scan(table, prefix)
	if err != nil {
		txn.Rollback()
		return nil, err
	}

	return &tripleIterator{
		store: s,
		txn:   txn,
		it:    it,
	}, nil
}

// TripleIterator is a finite iteration over stored triples. Close
// releases the underlying read transaction; Err reports any decode
// failure encountered along the way.
type TripleIterator interface {
	Next() bool
	Triple() *rdf.Triple
	Err() error
	Close() error
}

type tripleIterator struct {
	store   *TripleStore
	txn     store.Transaction
	it      store.Iterator
	current *rdf.Triple
	err     error
	closed  bool
}

func (ti *tripleIterator) Next() bool {
	if ti.closed || ti.err != nil {
		return false
	}
	if !ti.it.Next() {
		return false
	}

	value, err := ti.it.Value()
	if err != nil {
		ti.err = err
		return false
	}

	triple, err := ti.store.decodeTriple(ti.txn, value)
	if err != nil {
		ti.err = err
		return false
	}

	ti.current = triple
	return true
}

func (ti *tripleIterator) Triple() *rdf.Triple {
	return ti.current
}

func (ti *tripleIterator) Err() error {
	return ti.err
}

func (ti *tripleIterator) Close() error {
	if ti.closed {
		return nil
	}
	ti.closed = true
	ti.it.Close()
	return ti.txn.Rollback()
}

// decodeTriple reconstructs a triple from a 51-byte log/index value
func (s *TripleStore) decodeTriple(txn store.Transaction, value []byte) (*rdf.Triple, error) {
	if len(value) != encoding.EncodedTripleSize {
		return nil, errors.Newf("invalid encoded triple length: %d", len(value))
	}

	terms := make([]rdf.Term, 3)
	for i := range terms {
		var encoded encoding.EncodedTerm
		copy(encoded[:], value[i*encoding.EncodedTermSize:(i+1)*encoding.EncodedTermSize])

		serialized, err := txn.Get(store.TableID2Str, encoded[1:])
		if err != nil {
			return nil, errors.Wrap(err, "resolve term string")
		}

		term, err := s.decoder.DecodeTerm(serialized)
		if err != nil {
			return nil, err
		}
		terms[i] = term
	}

	return rdf.NewTriple(terms[0], terms[1], terms[2]), nil
}

// encodeSeq encodes an insertion sequence number as a big-endian key
// so lexicographic key order matches insertion order.
func encodeSeq(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}
