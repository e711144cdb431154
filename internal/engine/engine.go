// Package engine defines the contract sharedb needs from an embedded,
// transactional, ordered key-value storage engine. Implementations live in
// the subpackages (bolt, mdbx, pebble) and are selected by Kind.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is returned by write methods called on a View transaction.
	ErrReadOnly = errors.New("engine: write in read-only transaction")
	// ErrClosed is returned by an engine used after Close.
	ErrClosed = errors.New("engine: closed")
	// ErrMapFull is returned when a write would grow the data past MapSize.
	ErrMapFull = errors.New("engine: map size ceiling reached")
)

// Kind names an engine implementation. It is persisted in the store record.
type Kind string

const (
	KindBolt   Kind = "bolt"
	KindMDBX   Kind = "mdbx"
	KindPebble Kind = "pebble"
)

// ParseKind validates an engine name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBolt, KindMDBX, KindPebble:
		return k, nil
	default:
		return "", fmt.Errorf("unknown engine %q (want bolt, mdbx or pebble)", s)
	}
}

// Options carries the environment parameters every engine receives.
// Engines that have no equivalent for a parameter ignore it.
type Options struct {
	// Dir is the store directory. Engines keep their files inside it.
	Dir string
	// MaxReaders bounds concurrent read transactions across processes.
	MaxReaders int
	// MapSize is the ceiling in bytes the data file may grow to.
	MapSize int64
}

// Engine is an open storage environment with a single keyspace.
//
// Commits are not required to be durable until Sync returns; this is what
// makes batching of flushes worthwhile.
type Engine interface {
	// View runs fn in a read-only transaction.
	View(fn func(Tx) error) error
	// Update runs fn in a write transaction. The transaction commits when fn
	// returns nil and aborts otherwise, in which case none of its writes are
	// visible.
	Update(fn func(Tx) error) error
	// Sync flushes committed transactions to stable storage.
	Sync() error
	// Len returns the number of entries.
	Len() (int, error)
	// Close releases the environment. It does not sync.
	Close() error
}

// Tx is a transaction handle valid only inside a View or Update callback.
type Tx interface {
	// Get returns a copy of the value stored under key.
	Get(key []byte) (value []byte, found bool, err error)
	Put(key, value []byte) error
	// Delete removes key and reports whether it was present.
	Delete(key []byte) (bool, error)
	// Scan walks all entries in ascending byte order of the key until fn
	// returns false. Key and value are copies.
	Scan(fn func(key, value []byte) bool) error
	// Clear removes every entry, keeping the keyspace usable.
	Clear() error
}

// Clone returns a copy of b that outlives the transaction it came from.
func Clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
