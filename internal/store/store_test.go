package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontoforge/tern/internal/storage"
	"github.com/ontoforge/tern/pkg/rdf"
)

func newTestStore(t *testing.T) *TripleStore {
	t.Helper()

	backend, err := storage.NewMemoryStorage()
	require.NoError(t, err)

	s := NewTripleStore(backend)
	t.Cleanup(func() { s.Close() })
	return s
}

func testTriple(n int) *rdf.Triple {
	return rdf.NewTriple(
		rdf.NewNamedNode(fmt.Sprintf("http://example.org/s%d", n)),
		rdf.NewNamedNode(fmt.Sprintf("http://example.org/p%d", n%3)),
		rdf.NewLiteral(fmt.Sprintf("value %d", n)),
	)
}

func collect(t *testing.T, it TripleIterator) []*rdf.Triple {
	t.Helper()
	defer it.Close()

	var triples []*rdf.Triple
	for it.Next() {
		triples = append(triples, it.Triple())
	}
	require.NoError(t, it.Err())
	return triples
}

func TestInsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	triple := testTriple(1)

	inserted, err := s.Insert(triple)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Insert(triple)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertRejectsInvalidTriples(t *testing.T) {
	s := newTestStore(t)

	tests := []*rdf.Triple{
		rdf.NewTriple(rdf.NewLiteral("s"), rdf.NewNamedNode("http://example.org/p"), rdf.NewLiteral("o")),
		rdf.NewTriple(rdf.NewNamedNode("http://example.org/s"), rdf.NewBlankNode("p"), rdf.NewLiteral("o")),
		rdf.NewTriple(rdf.NewNamedNode("http://example.org/s"), rdf.NewLiteral("p"), rdf.NewLiteral("o")),
	}

	for _, triple := range tests {
		_, err := s.Insert(triple)
		assert.ErrorIs(t, err, ErrInvalidTriple)
	}

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	s := newTestStore(t)

	var want []*rdf.Triple
	for i := 0; i < 20; i++ {
		triple := testTriple(i)
		want = append(want, triple)

		inserted, err := s.Insert(triple)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	it, err := s.All()
	require.NoError(t, err)
	got := collect(t, it)

	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equals(got[i]), "position %d: want %s, got %s", i, want[i], got[i])
	}

	// Iteration is restartable: a second pass sees the same sequence
	it2, err := s.All()
	require.NoError(t, err)
	got2 := collect(t, it2)
	require.Len(t, got2, len(want))
	for i := range want {
		assert.True(t, want[i].Equals(got2[i]))
	}
}

func TestByPredicateIsOrderedSubsequenceOfAll(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 30; i++ {
		_, err := s.Insert(testTriple(i))
		require.NoError(t, err)
	}

	pred := rdf.NewNamedNode("http://example.org/p1")

	allIt, err := s.All()
	require.NoError(t, err)
	all := collect(t, allIt)

	var want []*rdf.Triple
	for _, triple := range all {
		if triple.Predicate.Equals(pred) {
			want = append(want, triple)
		}
	}
	require.NotEmpty(t, want)

	byPredIt, err := s.ByPredicate(pred)
	require.NoError(t, err)
	got := collect(t, byPredIt)

	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equals(got[i]), "position %d", i)
	}
}

func TestByPredicateUnknownPredicate(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Insert(testTriple(1))
	require.NoError(t, err)

	it, err := s.ByPredicate(rdf.NewNamedNode("http://example.org/nowhere"))
	require.NoError(t, err)
	assert.Empty(t, collect(t, it))
}

func TestContains(t *testing.T) {
	s := newTestStore(t)
	triple := testTriple(1)

	found, err := s.Contains(triple)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = s.Insert(triple)
	require.NoError(t, err)

	found, err = s.Contains(triple)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.Contains(testTriple(2))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRoundTripThroughLiteralKinds(t *testing.T) {
	s := newTestStore(t)
	subj := rdf.NewNamedNode("http://example.org/s")

	objects := []rdf.Term{
		rdf.NewLiteral("plain"),
		rdf.NewLiteralWithLanguage("tagged", "en"),
		rdf.NewLiteralWithDatatype("42", rdf.XSDInteger),
		rdf.NewBlankNode("b1"),
		rdf.NewNamedNode("http://example.org/o"),
	}

	for i, obj := range objects {
		pred := rdf.NewNamedNode(fmt.Sprintf("http://example.org/p%d", i))
		_, err := s.Insert(rdf.NewTriple(subj, pred, obj))
		require.NoError(t, err)
	}

	it, err := s.All()
	require.NoError(t, err)
	got := collect(t, it)

	require.Len(t, got, len(objects))
	for i, obj := range objects {
		assert.True(t, obj.Equals(got[i].Object), "object %d: want %s, got %s", i, obj, got[i].Object)
	}
}

func TestLiteralKindsStayDistinct(t *testing.T) {
	s := newTestStore(t)
	subj := rdf.NewNamedNode("http://example.org/s")
	pred := rdf.NewNamedNode("http://example.org/p")

	// Same lexical value under different literal kinds must not
	// collapse into one stored triple.
	objects := []rdf.Term{
		rdf.NewLiteral("42"),
		rdf.NewLiteralWithLanguage("42", "en"),
		rdf.NewLiteralWithDatatype("42", rdf.XSDInteger),
		rdf.NewLiteralWithDatatype("42", rdf.XSDString),
	}

	for _, obj := range objects {
		inserted, err := s.Insert(rdf.NewTriple(subj, pred, obj))
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(len(objects)), count)
}
