// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Backs the client with a local BadgerDB in a temp directory

package charm

import (
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v3"
)

// badgerStore is a kvStore on a local BadgerDB with no server behind it.
type badgerStore struct {
	db *badger.DB
}

func (b *badgerStore) Get(key []byte) ([]byte, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (b *badgerStore) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerStore) Keys() ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (b *badgerStore) Sync() error { return nil }

func (b *badgerStore) Reset() error {
	return b.db.DropAll()
}

// NewTestClient creates a charm client stored under t.TempDir(). The
// database is closed when the test finishes.
func NewTestClient(t *testing.T) *Client {
	t.Helper()

	dir := filepath.Join(t.TempDir(), AppName)
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	return &Client{
		store:   &badgerStore{db: db},
		config:  &Config{Host: "localhost", AutoSync: false},
		offline: true,
	}
}
