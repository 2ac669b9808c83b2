package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	klog "github.com/rooch-network/rooch-go/internal/log"
)

// badgerLogger routes Badger's warnings and errors to the storage logger.
// Info and debug chatter is dropped.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{}) {
	klog.Storage.Error().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Warningf(f string, v ...interface{}) {
	klog.Storage.Warn().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

// BadgerDB implements DB using Badger.
type BadgerDB struct {
	db *badger.DB
}

// NewBadger creates a new Badger database at the given path.
func NewBadger(path string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = badgerLogger{}
	return openBadger(path, opts)
}

// NewBadgerInMemory creates a Badger database that keeps everything in
// memory. Used by the local node when no data directory is configured.
func NewBadgerInMemory() (*BadgerDB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = badgerLogger{}
	return openBadger("(memory)", opts)
}

func openBadger(path string, opts badger.Options) (*BadgerDB, error) {
	db, err := badger.Open(opts)
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "Cannot acquire directory lock") ||
			strings.Contains(errMsg, "resource temporarily unavailable") {
			return nil, fmt.Errorf("database at %s is locked by another process (is another rooch-localnode or rooch-cli running?): %w", path, err)
		}
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}
	klog.Storage.Debug().Str("path", path).Msg("Database opened")
	return &BadgerDB{db: db}, nil
}

// Get retrieves a value by key. Returns an error if the key does not exist.
func (b *BadgerDB) Get(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return val, nil
}

// Put stores a key-value pair.
func (b *BadgerDB) Put(key, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

// Delete removes a key.
func (b *BadgerDB) Delete(key []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Has checks if a key exists.
func (b *BadgerDB) Has(key []byte) (bool, error) {
	var exists bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("badger has: %w", err)
	}
	return exists, nil
}

// ForEach iterates over all keys with the given prefix.
func (b *BadgerDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// NewBatch returns a batch backed by a Badger write batch.
func (b *BadgerDB) NewBatch() Batch {
	return &badgerBatch{wb: b.db.NewWriteBatch()}
}

type badgerBatch struct {
	wb *badger.WriteBatch
}

func (bb *badgerBatch) Put(key, value []byte) error {
	return bb.wb.Set(cloneBytes(key), cloneBytes(value))
}

func (bb *badgerBatch) Delete(key []byte) error {
	return bb.wb.Delete(cloneBytes(key))
}

func (bb *badgerBatch) Commit() error {
	if err := bb.wb.Flush(); err != nil {
		return fmt.Errorf("badger batch: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *BadgerDB) Close() error {
	return b.db.Close()
}
