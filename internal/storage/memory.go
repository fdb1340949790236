package storage

import (
	"github.com/cockroachdb/errors"
	badger "github.com/dgraph-io/badger/v4"

	"github.com/ontoforge/tern/pkg/store"
)

// MemoryStorage implements store.Storage on BadgerDB running in its
// in-memory mode. Nothing touches disk; the data lives and dies with
// the owning engine instance.
type MemoryStorage struct {
	db *badger.DB
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() (*MemoryStorage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory badger db")
	}

	return &MemoryStorage{db: db}, nil
}

// Begin starts a new transaction
func (s *MemoryStorage) Begin(writable bool) (store.Transaction, error) {
	txn := s.db.NewTransaction(writable)
	return &memoryTransaction{
		txn:      txn,
		writable: writable,
	}, nil
}

// Close closes the storage
func (s *MemoryStorage) Close() error {
	return s.db.Close()
}

// memoryTransaction implements store.Transaction
type memoryTransaction struct {
	txn      *badger.Txn
	writable bool
}

// Get retrieves a value by key
func (t *memoryTransaction) Get(table store.Table, key []byte) ([]byte, error) {
	prefixedKey := store.PrefixKey(table, key)
	item, err := t.txn.Get(prefixedKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var value []byte
	err = item.Value(func(val []byte) error {
		value = append([]byte{}, val...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Set stores a key-value pair
func (t *memoryTransaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}

	prefixedKey := store.PrefixKey(table, key)
	return t.txn.Set(prefixedKey, value)
}

// Scan iterates over all keys sharing the given prefix
func (t *memoryTransaction) Scan(table store.Table, prefix []byte) (store.Iterator, error) {
	scanPrefix := store.TablePrefix(table)
	if prefix != nil {
		scanPrefix = store.PrefixKey(table, prefix)
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = scanPrefix
	it := t.txn.NewIterator(opts)

	return &memoryIterator{
		it:          it,
		tablePrefix: store.TablePrefix(table),
		scanPrefix:  scanPrefix,
	}, nil
}

// Commit commits the transaction
func (t *memoryTransaction) Commit() error {
	return t.txn.Commit()
}

// Rollback rolls back the transaction
func (t *memoryTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

// memoryIterator implements store.Iterator
type memoryIterator struct {
	it          *badger.Iterator
	tablePrefix []byte // stripped from returned keys
	scanPrefix  []byte
	started     bool
	hasValue    bool
}

// Next advances to the next item
func (i *memoryIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.scanPrefix)
		i.started = true
	} else if i.it.Valid() {
		i.it.Next()
	}

	i.hasValue = i.it.ValidForPrefix(i.scanPrefix)
	return i.hasValue
}

// Key returns the current key without the table prefix
func (i *memoryIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}

	key := i.it.Item().Key()
	if len(key) > len(i.tablePrefix) {
		return key[len(i.tablePrefix):]
	}
	return nil
}

// Value returns the current value
func (i *memoryIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, store.ErrNotFound
	}

	var value []byte
	err := i.it.Item().Value(func(val []byte) error {
		value = append([]byte{}, val...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Close closes the iterator
func (i *memoryIterator) Close() error {
	i.it.Close()
	return nil
}
