// Package badger adapts BadgerDB as a persistent resourcestore.Store
// backend. Historical versions are written with a TTL so BadgerDB itself
// reclaims them; an expired lookup surfaces as an ordinary "unknown
// version", which the Request Handler already treats as UnknownBaseVersion
// fallback — no new error path is introduced by this backend.
package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/buyukakyuz/bpx/pkg/resourcestore"
)

// Store is a BadgerDB-backed resourcestore.Store.
type Store struct {
	db         *badgerdb.DB
	historyTTL time.Duration
}

// Open opens (creating if absent) a Badger database at dir. historyTTL
// governs how long a historical version's bytes remain retrievable via
// GetAt; zero means retain forever.
func Open(dir string, historyTTL time.Duration) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db at %q: %w", dir, err)
	}
	return &Store{db: db, historyTTL: historyTTL}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func currentKey(path string) []byte {
	return []byte("current:" + path)
}

func versionKey(path, version string) []byte {
	return []byte("version:" + path + ":" + version)
}

func (s *Store) Get(_ context.Context, path string) (resourcestore.Snapshot, bool, error) {
	var bytes []byte
	found := false

	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(currentKey(path))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			bytes = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return resourcestore.Snapshot{}, false, fmt.Errorf("get %q: %w", path, err)
	}
	if !found {
		return resourcestore.Snapshot{}, false, nil
	}

	version, ok, err := s.currentVersion(path)
	if err != nil {
		return resourcestore.Snapshot{}, false, fmt.Errorf("get %q: %w", path, err)
	}
	if !ok {
		return resourcestore.Snapshot{}, false, nil
	}
	return resourcestore.Snapshot{Bytes: bytes, Version: version}, true, nil
}

func currentVersionKey(path string) []byte {
	return []byte("current_version:" + path)
}

func (s *Store) currentVersion(path string) (string, bool, error) {
	var version string
	found := false

	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(currentVersionKey(path))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			version = string(val)
			return nil
		})
	})
	return version, found, err
}

func (s *Store) GetAt(_ context.Context, path, version string) ([]byte, bool, error) {
	var bytes []byte
	found := false

	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(versionKey(path, version))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			bytes = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("get_at %q@%q: %w", path, version, err)
	}
	return bytes, found, nil
}

func (s *Store) Put(_ context.Context, path string, data []byte) (resourcestore.Snapshot, error) {
	version := resourcestore.NewVersionToken(data)

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(currentKey(path), data); err != nil {
			return err
		}
		if err := txn.Set(currentVersionKey(path), []byte(version)); err != nil {
			return err
		}

		entry := badgerdb.NewEntry(versionKey(path, version), data)
		if s.historyTTL > 0 {
			entry = entry.WithTTL(s.historyTTL)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return resourcestore.Snapshot{}, fmt.Errorf("put %q: %w", path, err)
	}

	return resourcestore.Snapshot{Bytes: data, Version: version}, nil
}
