package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontoforge/tern/pkg/store"
)

func newTestStorage(t *testing.T) *MemoryStorage {
	t.Helper()

	s, err := NewMemoryStorage()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(store.TableID2Str, []byte("key"), []byte("value")))
	require.NoError(t, txn.Commit())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	defer txn.Rollback() //nolint:errcheck

	value, err := txn.Get(store.TableID2Str, []byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStorage(t)

	txn, err := s.Begin(false)
	require.NoError(t, err)
	defer txn.Rollback() //nolint:errcheck

	_, err = txn.Get(store.TableLog, []byte("absent"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetOnReadOnlyTransaction(t *testing.T) {
	s := newTestStorage(t)

	txn, err := s.Begin(false)
	require.NoError(t, err)
	defer txn.Rollback() //nolint:errcheck

	err = txn.Set(store.TableLog, []byte("k"), []byte("v"))
	assert.ErrorIs(t, err, store.ErrTransactionRO)
}

func TestTablesAreIsolated(t *testing.T) {
	s := newTestStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(store.TableLog, []byte("k"), []byte("log")))
	require.NoError(t, txn.Set(store.TableSPO, []byte("k"), []byte("spo")))
	require.NoError(t, txn.Commit())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	defer txn.Rollback() //nolint:errcheck

	value, err := txn.Get(store.TableLog, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("log"), value)

	value, err = txn.Get(store.TableSPO, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("spo"), value)
}

func TestScanIsOrderedByKey(t *testing.T) {
	s := newTestStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(store.TableLog, []byte("b"), []byte("2")))
	require.NoError(t, txn.Set(store.TableLog, []byte("a"), []byte("1")))
	require.NoError(t, txn.Set(store.TableLog, []byte("c"), []byte("3")))
	require.NoError(t, txn.Set(store.TableSPO, []byte("a"), []byte("other table")))
	require.NoError(t, txn.Commit())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	defer txn.Rollback() //nolint:errcheck

	it, err := txn.Scan(store.TableLog, nil)
	require.NoError(t, err)
	defer it.Close()

	var keys, values []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
		v, err := it.Value()
		require.NoError(t, err)
		values = append(values, string(v))
	}

	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, []string{"1", "2", "3"}, values)
}

func TestScanWithPrefix(t *testing.T) {
	s := newTestStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(store.TablePOS, []byte("p1-a"), []byte("x")))
	require.NoError(t, txn.Set(store.TablePOS, []byte("p1-b"), []byte("y")))
	require.NoError(t, txn.Set(store.TablePOS, []byte("p2-a"), []byte("z")))
	require.NoError(t, txn.Commit())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	defer txn.Rollback() //nolint:errcheck

	it, err := txn.Scan(store.TablePOS, []byte("p1-"))
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"p1-a", "p1-b"}, keys)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := newTestStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(store.TableLog, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	defer txn.Rollback() //nolint:errcheck

	_, err = txn.Get(store.TableLog, []byte("k"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}
