// Package storage is the durable map adapter: a thin contract over an
// ordered byte-keyed on-disk store, generalizing the teacher's LevelDB
// wrapper (src/pdb/pdb.go) from a gob-encoded variadic-key helper into
// the plain byte-keyed get/synchronous-put/not-found contract that the
// acceptor and learner need.
package storage

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// ErrStorage wraps any failure from the underlying store.
var ErrStorage = errors.New("storage: durable map operation failed")

// DurableMap is the contract the core consumes: get, synchronous put,
// and "not found" — nothing else. Acceptor and learner are the only
// callers that ever write; readers (get path, acceptor load) only call
// Get.
type DurableMap interface {
	// Get fetches the value stored at key. ok is false if the key has
	// never been put.
	Get(key []byte) (value []byte, ok bool, err error)
	// Put synchronously persists value at key, surviving a crash
	// immediately after the call returns.
	Put(key []byte, value []byte) error
	// Close releases the underlying store.
	Close() error
}

// LevelDB is a DurableMap backed by an embedded LevelDB instance,
// generalizing the teacher's PDB: every write uses opt.WriteOptions{Sync:
// true} because the Paxos safety argument assumes a promise survives a
// crash the instant the acceptor's store() call returns.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if absent) a LevelDB database at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errorsJoin(ErrStorage, err)
	}
	return &LevelDB{db: db}, nil
}

var syncWrite = &opt.WriteOptions{Sync: true}

func (l *LevelDB) Get(key []byte) ([]byte, bool, error) {
	v, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errorsJoin(ErrStorage, err)
	}
	return v, true, nil
}

func (l *LevelDB) Put(key []byte, value []byte) error {
	if err := l.db.Put(key, value, syncWrite); err != nil {
		return errorsJoin(ErrStorage, err)
	}
	return nil
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

func errorsJoin(sentinel, cause error) error {
	return &storageError{sentinel: sentinel, cause: cause}
}

type storageError struct {
	sentinel error
	cause    error
}

func (e *storageError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *storageError) Is(target error) bool {
	return target == e.sentinel
}

func (e *storageError) Unwrap() error {
	return e.cause
}
