// Package badger persists dedup markers in an embedded Badger database.
package badger

import (
	"errors"
	"fmt"
	"os"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/couchcryptid/weather-notify/internal/domain"
)

// Store is a key-value store whose entries expire after a fixed retention.
type Store struct {
	db        *badgerdb.DB
	retention time.Duration
}

// Options configures the store.
type Options struct {
	// Path is the database directory. Empty string uses in-memory mode.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
	// Retention is how long an entry lives. Zero keeps entries forever.
	Retention time.Duration
}

// Open opens or creates the store. Errors wrap domain.ErrDedupStore.
func Open(opts Options) (*Store, error) {
	var badgerOpts badgerdb.Options

	if opts.InMemory || opts.Path == "" {
		badgerOpts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", domain.ErrDedupStore, opts.Path, err)
		}
		badgerOpts = badgerdb.DefaultOptions(opts.Path)
	}

	// Reduce logging noise
	badgerOpts = badgerOpts.WithLoggingLevel(badgerdb.ERROR)

	db, err := badgerdb.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", domain.ErrDedupStore, err)
	}
	return &Store{db: db, retention: opts.Retention}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Has reports whether key exists and has not expired.
func (s *Store) Has(key string) (bool, error) {
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badgerdb.ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%w: get %s: %w", domain.ErrDedupStore, key, err)
	}
}

// Get returns the value stored under key, or ok=false when absent.
func (s *Store) Get(key string) (value []byte, ok bool, err error) {
	err = s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, badgerdb.ErrKeyNotFound):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("%w: get %s: %w", domain.ErrDedupStore, key, err)
	}
}

// Put stores value under key with the configured retention. The write is a
// single committed transaction, so readers see either the old or new state.
func (s *Store) Put(key string, value []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		e := badgerdb.NewEntry([]byte(key), value)
		if s.retention > 0 {
			e = e.WithTTL(s.retention)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", domain.ErrDedupStore, key, err)
	}
	return nil
}

// Keys lists live keys with the given prefix in key order.
func (s *Store) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", domain.ErrDedupStore, prefix, err)
	}
	return keys, nil
}
