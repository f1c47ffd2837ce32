// ABOUTME: BadgerDB-backed Resource for embedded directory storage
// ABOUTME: Also provides an in-memory variant used by tests
package db

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

// BadgerResource stores collections in a badger key space.
type BadgerResource struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger store in dir.
func OpenBadger(dir string) (*BadgerResource, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	bdb, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerResource{db: bdb}, nil
}

// OpenInMemoryBadger opens a badger store that lives only in memory.
func OpenInMemoryBadger() (*BadgerResource, error) {
	bdb, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger: %w", err)
	}
	return &BadgerResource{db: bdb}, nil
}

func (r *BadgerResource) Get(_ context.Context, key string) ([]byte, error) {
	var result []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	return result, err
}

func (r *BadgerResource) Set(_ context.Context, key string, value []byte) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (r *BadgerResource) Delete(_ context.Context, key string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (r *BadgerResource) Close() error {
	return r.db.Close()
}
